// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package tad

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/tadortho/encoding/fasta"
	"github.com/grailbio/tadortho/interval"
)

var (
	domainHeader   = []string{"chromosome", "start", "end", "tad_name", "left_start", "left_end", "right_start", "right_end"}
	boundaryHeader = []string{"tad_name", "chromosome", "start", "end"}
)

// WriteDomainCSV writes one row per domain with its flank windows.
func WriteDomainCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(domainHeader); err != nil {
		return err
	}
	for _, d := range t.Domains {
		row := []string{
			d.Chrom,
			strconv.Itoa(d.Start),
			strconv.Itoa(d.End),
			d.Name,
			strconv.Itoa(d.Left.Start),
			strconv.Itoa(d.Left.End),
			strconv.Itoa(d.Right.Start),
			strconv.Itoa(d.Right.End),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteBoundaryCSV writes the merged boundaries as
// "tad_name,chromosome,start,end".
func WriteBoundaryCSV(w io.Writer, boundaries []Boundary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(boundaryHeader); err != nil {
		return err
	}
	for _, b := range boundaries {
		if err := cw.Write([]string{b.Name, b.Chrom, strconv.Itoa(b.Start), strconv.Itoa(b.End)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadBoundaryCSV reads a file written by WriteBoundaryCSV.  Every boundary is
// attributed to species.
func ReadBoundaryCSV(r io.Reader, species string) ([]Boundary, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(boundaryHeader)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.E(errors.Invalid, "tad.ReadBoundaryCSV: missing header")
	}
	if err != nil {
		return nil, errors.E(errors.Invalid, err, "tad.ReadBoundaryCSV")
	}
	for i, col := range boundaryHeader {
		if header[i] != col {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("tad.ReadBoundaryCSV: column %d is %q, expected %q", i, header[i], col))
		}
	}
	var boundaries []Boundary
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.E(errors.Invalid, err, "tad.ReadBoundaryCSV")
		}
		b := Boundary{Name: row[0], Species: species, Chrom: row[1]}
		if b.Start, err = strconv.Atoi(row[2]); err != nil {
			return nil, errors.E(errors.Invalid, err, "tad.ReadBoundaryCSV", b.Name)
		}
		if b.End, err = strconv.Atoi(row[3]); err != nil {
			return nil, errors.E(errors.Invalid, err, "tad.ReadBoundaryCSV", b.Name)
		}
		boundaries = append(boundaries, b)
	}
	return boundaries, nil
}

// WriteBoundaryFASTA writes the sequence of every boundary to w, one record
// per boundary named after it.  A boundary [start, end] covers the region
// "chrom:start+1-end" of seqs.  Leading and trailing N bases are trimmed.
//
// A region that cannot be found in seqs is returned as an error.  Empty
// boundaries, and boundaries that consist only of N, are logged and skipped.
// It returns the number of records written.
func WriteBoundaryFASTA(w io.Writer, seqs fasta.Fasta, boundaries []Boundary) (int, error) {
	fw := fasta.NewWriter(w, fasta.DefaultLineWidth)
	n := 0
	for _, b := range boundaries {
		if b.End <= b.Start {
			log.Printf("tad: skipping empty boundary %s %s:%d-%d", b.Name, b.Chrom, b.Start, b.End)
			continue
		}
		seq, err := fasta.Fetch(seqs, interval.RegionString(b.Chrom, b.Start, b.End))
		if err != nil {
			return n, errors.E(err, "boundary", b.Name)
		}
		if seq = fasta.TrimN(seq); seq == "" {
			log.Printf("tad: skipping boundary %s: sequence is all N", b.Name)
			continue
		}
		desc := fmt.Sprintf("%s:%d-%d", b.Chrom, b.Start, b.End)
		if err := fw.Write(b.Name, desc, seq); err != nil {
			return n, err
		}
		n++
	}
	return n, fw.Flush()
}
