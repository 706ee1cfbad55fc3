// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package fasta

import (
	"bufio"
	"io"
	"regexp"
	"sort"
	"strconv"
	"sync"

	"github.com/pkg/errors"
)

// Index files consist of one tab-separated line per sequence in the associated
// FASTA file.  The format is: "<sequence name>\t<length>\t<byte
// offset>\t<bases per line>\t<bytes per line>".
// For example: "chr3\t12345\t9000\t80\t81".
var indexRegExp = regexp.MustCompile(`^(\S+)\t(\d+)\t(\d+)\t(\d+)\t(\d+)$`)

type indexEntry struct {
	length    uint64
	offset    uint64
	lineBase  uint64
	lineWidth uint64
}

// newlineBytes is the number of line-terminator bytes per line.
func (e indexEntry) newlineBytes() uint64 { return e.lineWidth - e.lineBase }

// fileOffset is the byte offset of the base at 0-based position pos.
func (e indexEntry) fileOffset(pos uint64) uint64 {
	return e.offset + pos + e.newlineBytes()*(pos/e.lineBase)
}

type indexedFasta struct {
	seqs      map[string]indexEntry
	seqNames  []string // returned by SeqNames()
	reader    io.ReadSeeker
	bufOff    int64
	buf       []byte // caches file contents starting at bufOff.
	resultBuf []byte // temp for concatenating multi-line sequences.
	mu        sync.Mutex
}

// NewIndexed creates a new Fasta that can perform efficient random lookups
// using the provided index, without reading the data into memory.
func NewIndexed(fasta io.ReadSeeker, index io.Reader) (Fasta, error) {
	f := &indexedFasta{seqs: make(map[string]indexEntry), reader: fasta}
	scanner := bufio.NewScanner(index)
	lineno := 0
	for scanner.Scan() {
		lineno++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		m := indexRegExp.FindStringSubmatch(scanner.Text())
		if len(m) != 6 {
			return nil, errors.Errorf("invalid index line %d: %s", lineno, scanner.Text())
		}
		var ent indexEntry
		ent.length, _ = strconv.ParseUint(m[2], 10, 64)
		ent.offset, _ = strconv.ParseUint(m[3], 10, 64)
		ent.lineBase, _ = strconv.ParseUint(m[4], 10, 64)
		ent.lineWidth, _ = strconv.ParseUint(m[5], 10, 64)
		if ent.length > 0 && (ent.lineBase == 0 || ent.lineWidth < ent.lineBase) {
			return nil, errors.Errorf("invalid line geometry on index line %d: %s", lineno, scanner.Text())
		}
		f.seqs[m[1]] = ent
		f.seqNames = append(f.seqNames, m[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "couldn't read FASTA index")
	}
	sort.SliceStable(f.seqNames, func(i, j int) bool {
		return f.seqs[f.seqNames[i]].offset < f.seqs[f.seqNames[j]].offset
	})
	return f, nil
}

// Len implements Fasta.Len().
func (f *indexedFasta) Len(seqName string) (uint64, error) {
	ent, ok := f.seqs[seqName]
	if !ok {
		return 0, errors.Errorf("sequence not found in index: %s", seqName)
	}
	return ent.length, nil
}

// SeqNames implements Fasta.SeqNames().
func (f *indexedFasta) SeqNames() []string {
	return f.seqNames
}

// read returns the byte range [off, off+n) of the underlying file.  The
// returned slice is only valid until the next call.
func (f *indexedFasta) read(off int64, n int) ([]byte, error) {
	limit := off + int64(n)
	if off >= f.bufOff && limit <= f.bufOff+int64(len(f.buf)) {
		return f.buf[off-f.bufOff : limit-f.bufOff], nil
	}
	if got, err := f.reader.Seek(off, io.SeekStart); err != nil || got != off {
		return nil, errors.Errorf("failed to seek to offset %d: %d, %v", off, got, err)
	}
	bufSize := 8192
	if bufSize < n {
		bufSize = n
	}
	resize(&f.buf, bufSize)
	nRead, err := io.ReadAtLeast(f.reader, f.buf, n)
	if err != nil && !(err == io.ErrUnexpectedEOF || err == io.EOF) || nRead < n {
		return nil, errors.Errorf("encountered unexpected end of file at offset %d (bad index? file doesn't end in newline?)", off)
	}
	f.bufOff = off
	f.buf = f.buf[:nRead]
	return f.buf[:n], nil
}

func resize(buf *[]byte, n int) {
	if cap(*buf) < n {
		*buf = make([]byte, n)
	} else {
		*buf = (*buf)[:n]
	}
}

// Get implements Fasta.Get().
func (f *indexedFasta) Get(seqName string, start uint64, end uint64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if end <= start {
		return "", errors.Errorf("start must be less than end")
	}
	ent, ok := f.seqs[seqName]
	if !ok {
		return "", errors.Errorf("sequence not found in index: %s", seqName)
	}
	if end > ent.length {
		return "", errors.Errorf("end is past end of sequence %s: %d", seqName, ent.length)
	}

	// Read every byte between the first and last requested base, newlines
	// included, and then drop the line terminators.
	offset := ent.fileOffset(start)
	nBytes := ent.fileOffset(end-1) + 1 - offset
	buffer, err := f.read(int64(offset), int(nBytes))
	if err != nil {
		return "", err
	}
	resize(&f.resultBuf, int(end-start))
	linePos := (offset - ent.offset) % ent.lineWidth
	n := 0
	for _, b := range buffer {
		if linePos < ent.lineBase {
			f.resultBuf[n] = b
			n++
		}
		linePos++
		if linePos == ent.lineWidth {
			linePos = 0
		}
	}
	return string(f.resultBuf[:n]), nil
}
