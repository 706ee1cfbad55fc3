// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package fasta

import (
	"bufio"
	"bytes"
	"context"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
)

// IndexSuffix is appended to a FASTA path to name its index.
const IndexSuffix = ".fai"

// GenerateIndex generates an index (*.fai) from FASTA.  The index can be later
// passed to NewIndexed() to random-access the FASTA file quickly.
//
// The index format is defined by "samtool faidx"
// (http://www.htslib.org/doc/faidx.html).
func GenerateIndex(out io.Writer, in io.Reader) (err error) {
	var (
		w       = tsv.NewWriter(out)
		r       = bufio.NewReader(in)
		cur     indexEntry
		name    string
		cumByte int64
		eof     bool
	)
	setErr := func(e error) {
		if e != nil && err == nil {
			err = e
		}
	}
	flush := func() {
		w.WriteString(name)
		w.WriteInt64(int64(cur.length))
		w.WriteInt64(int64(cur.offset))
		w.WriteInt64(int64(cur.lineBase))
		w.WriteInt64(int64(cur.lineWidth))
		setErr(w.EndLine())
	}
	for !eof && err == nil {
		fullLine, e := r.ReadBytes('\n')
		if e == io.EOF {
			eof = true
		} else if e != nil {
			setErr(e)
		}
		cumByte += int64(len(fullLine))
		line := bytes.TrimRight(fullLine, "\r\n")
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			if cur.lineWidth != 0 {
				if name == "" {
					setErr(errors.E(errors.Invalid, "malformed FASTA file"))
				}
				flush()
			}
			name = seqName(string(line[1:]))
			cur = indexEntry{offset: uint64(cumByte)}
			continue
		}
		if cur.lineWidth == 0 {
			cur.lineWidth = uint64(len(fullLine))
			cur.lineBase = uint64(len(line))
		}
		cur.length += uint64(len(line))
	}
	if cumByte == 0 {
		setErr(errors.E(errors.Invalid, "empty FASTA file"))
		return
	}
	flush()
	setErr(w.Flush())
	return
}

// GenerateIndexFile writes path+".fai" for the FASTA file at path.
func GenerateIndexFile(ctx context.Context, path string) (err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return errors.E(err, "open", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	out, err := file.Create(ctx, path+IndexSuffix)
	if err != nil {
		return errors.E(err, "create", path+IndexSuffix)
	}
	defer file.CloseAndReport(ctx, out, &err)
	if err = GenerateIndex(out.Writer(ctx), in.Reader(ctx)); err != nil {
		return errors.E(err, "index", path)
	}
	log.Printf("fasta: wrote %s", path+IndexSuffix)
	return nil
}

// Indexed is an indexed FASTA file opened by OpenIndexed.
type Indexed struct {
	Fasta
	in file.File
}

// Close closes the underlying FASTA file.
func (f *Indexed) Close(ctx context.Context) error {
	return f.in.Close(ctx)
}

// OpenIndexed opens the FASTA file at path for random access.  The index is
// read from path+".fai"; it is generated first if it does not exist yet.
func OpenIndexed(ctx context.Context, path string) (*Indexed, error) {
	idxPath := path + IndexSuffix
	if _, err := file.Stat(ctx, idxPath); err != nil {
		if !errors.Is(errors.NotExist, err) {
			return nil, errors.E(err, "stat", idxPath)
		}
		if err := GenerateIndexFile(ctx, path); err != nil {
			return nil, err
		}
	}
	idx, err := file.ReadFile(ctx, idxPath)
	if err != nil {
		return nil, errors.E(err, "read", idxPath)
	}
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open", path)
	}
	fa, err := NewIndexed(in.Reader(ctx), bytes.NewReader(idx))
	if err != nil {
		if cerr := in.Close(ctx); cerr != nil {
			log.Error.Printf("fasta: close %s: %v", path, cerr)
		}
		return nil, errors.E(err, "index", idxPath)
	}
	return &Indexed{Fasta: fa, in: in}, nil
}
