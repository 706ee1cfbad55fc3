// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package fasta

import (
	"bufio"
	"bytes"
	"io"

	"github.com/grailbio/base/errors"
)

// DefaultLineWidth is the number of bases per sequence line written by
// Writer.
const DefaultLineWidth = 60

// Writer writes FASTA records, wrapping sequences at a fixed line width.
// Errors are sticky: after the first failure every call returns it.
type Writer struct {
	w     *bufio.Writer
	width int
	err   error
}

// NewWriter creates a Writer that wraps sequence lines at width bases.  A
// width <= 0 selects DefaultLineWidth.
func NewWriter(w io.Writer, width int) *Writer {
	if width <= 0 {
		width = DefaultLineWidth
	}
	return &Writer{w: bufio.NewWriter(w), width: width}
}

func (w *Writer) writeString(s string) {
	if w.err == nil {
		_, w.err = w.w.WriteString(s)
	}
}

// Write adds one record.  desc, if nonempty, follows the name on the header
// line, separated by a space.
func (w *Writer) Write(name, desc, seq string) error {
	w.writeString(">")
	w.writeString(name)
	if desc != "" {
		w.writeString(" ")
		w.writeString(desc)
	}
	w.writeString("\n")
	for len(seq) > 0 {
		n := w.width
		if n > len(seq) {
			n = len(seq)
		}
		w.writeString(seq[:n])
		w.writeString("\n")
		seq = seq[n:]
	}
	return w.err
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if w.err == nil {
		w.err = w.w.Flush()
	}
	return w.err
}

// CopyWithPrefix copies the FASTA data in "in" to "out", renaming every
// sequence to prefix+"_"+name and upper-casing the bases.  Description text
// after the name is dropped.  Sequences are rewrapped at DefaultLineWidth.  It
// returns the number of sequences copied.
func CopyWithPrefix(out io.Writer, in io.Reader, prefix string) (n int, err error) {
	var (
		r    = bufio.NewReaderSize(in, 1<<20)
		w    = bufio.NewWriter(out)
		col  int
		eof  bool
		werr errors.Once
	)
	for !eof {
		line, e := r.ReadBytes('\n')
		if e == io.EOF {
			eof = true
		} else if e != nil {
			return n, errors.E(e, "fasta.CopyWithPrefix: read")
		}
		line = bytes.TrimRight(line, "\r\n")
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			if col != 0 {
				werr.Set(w.WriteByte('\n'))
				col = 0
			}
			_, e := w.WriteString(">" + prefix + "_" + seqName(string(line[1:])) + "\n")
			werr.Set(e)
			n++
			continue
		}
		if n == 0 {
			return 0, errors.E(errors.Invalid, "fasta.CopyWithPrefix: sequence data before the first header")
		}
		line = bytes.ToUpper(line)
		for len(line) > 0 {
			k := DefaultLineWidth - col
			if k > len(line) {
				k = len(line)
			}
			_, e := w.Write(line[:k])
			werr.Set(e)
			col += k
			line = line[k:]
			if col == DefaultLineWidth {
				werr.Set(w.WriteByte('\n'))
				col = 0
			}
		}
	}
	if col != 0 {
		werr.Set(w.WriteByte('\n'))
	}
	werr.Set(w.Flush())
	return n, werr.Err()
}
