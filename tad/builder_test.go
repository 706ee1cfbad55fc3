// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package tad

import (
	"bytes"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestFlank(t *testing.T) {
	expect.EQ(t, flank("c", 1000, 500), Window{"c", 500, 1500})
	expect.EQ(t, flank("c", 2000, 500), Window{"c", 1500, 2500})
	expect.EQ(t, flank("c", 100, 500), Window{"c", 0, 600})
	expect.EQ(t, flank("c", 300, 0), Window{"c", 300, 300})
}

func TestBuildWindows(t *testing.T) {
	table, err := Builder{Prefix: "G1", Distance: 500}.Build([]Record{
		{Chrom: "chr1", Start: 1000, End: 2000},
		{Chrom: "chr1", Start: 100, End: 300},
	})
	assert.NoError(t, err)
	assert.EQ(t, len(table.Domains), 2)
	d := table.Domains[0]
	expect.EQ(t, d.Name, "G1_1")
	expect.EQ(t, d.Species, "G1")
	expect.EQ(t, d.Chrom, "G1_chr1")
	expect.EQ(t, d.Len(), 1001)
	expect.EQ(t, d.Left, Window{"G1_chr1", 500, 1500})
	expect.EQ(t, d.Right, Window{"G1_chr1", 1500, 2500})
	expect.EQ(t, d.Position, First)
	d = table.Domains[1]
	expect.EQ(t, d.Name, "G1_2")
	expect.EQ(t, d.Left, Window{"G1_chr1", 0, 600})
	expect.EQ(t, d.Right, Window{"G1_chr1", 0, 800})
	expect.EQ(t, d.Position, Last)

	// All four windows overlap.
	expect.EQ(t, table.Boundaries, []Boundary{{"G1_bound_0", "G1", "G1_chr1", 0, 2500}})
}

func TestBuildNumbering(t *testing.T) {
	records := []Record{
		{Chrom: "chr2", Start: 10000, End: 20000},
		{Chrom: "chr1", Start: 1000, End: 2000},
		{Chrom: "chr2", Start: 20001, End: 40000},
		{Chrom: "chr1", Start: 5000, End: 9000},
		{Chrom: "chr10", Start: 1000, End: 3000},
	}
	table, err := Builder{Prefix: "A", Distance: 100}.Build(records)
	assert.NoError(t, err)

	// Chromosomes are grouped in lexicographic order; domain numbering keeps
	// input order inside a group and never restarts.
	expect.EQ(t, table.Chroms, []string{"A_chr1", "A_chr10", "A_chr2"})
	var names, chroms []string
	for _, d := range table.Domains {
		names = append(names, d.Name)
		chroms = append(chroms, d.Chrom)
	}
	expect.EQ(t, names, []string{"A_1", "A_2", "A_3", "A_4", "A_5"})
	expect.EQ(t, chroms, []string{"A_chr1", "A_chr1", "A_chr10", "A_chr2", "A_chr2"})
	expect.EQ(t, table.Domains[0].Start, 1000)
	expect.EQ(t, table.Domains[1].Start, 5000)
	expect.EQ(t, table.Domains[2].Position, Last)
	expect.EQ(t, table.Domains[3].Position, First)

	// Boundary numbering continues across chromosomes.
	expect.EQ(t, table.Boundaries, []Boundary{
		{"A_bound_0", "A", "A_chr1", 900, 1100},
		{"A_bound_1", "A", "A_chr1", 1900, 2100},
		{"A_bound_2", "A", "A_chr1", 4900, 5100},
		{"A_bound_3", "A", "A_chr1", 8900, 9100},
		{"A_bound_4", "A", "A_chr10", 900, 1100},
		{"A_bound_5", "A", "A_chr10", 2900, 3100},
		{"A_bound_6", "A", "A_chr2", 9900, 10100},
		// The end of A_4 and the start of A_5 share one boundary.
		{"A_bound_7", "A", "A_chr2", 19900, 20101},
		{"A_bound_8", "A", "A_chr2", 39900, 40100},
	})
}

func TestBuildDuplicateWindows(t *testing.T) {
	// Adjacent domains sharing an edge produce identical windows.
	table, err := Builder{Prefix: "B", Distance: 10}.Build([]Record{
		{Chrom: "1", Start: 100, End: 200},
		{Chrom: "1", Start: 200, End: 300},
		{Chrom: "1", Start: 300, End: 400},
	})
	assert.NoError(t, err)
	expect.EQ(t, table.Boundaries, []Boundary{
		{"B_bound_0", "B", "B_1", 90, 110},
		{"B_bound_1", "B", "B_1", 190, 210},
		{"B_bound_2", "B", "B_1", 290, 310},
		{"B_bound_3", "B", "B_1", 390, 410},
	})
}

func TestBuildIdempotent(t *testing.T) {
	records := []Record{
		{Chrom: "chr3", Start: 1, End: 80000},
		{Chrom: "chr1", Start: 120000, End: 400000},
		{Chrom: "chr1", Start: 400001, End: 560000},
		{Chrom: "chrX", Start: 50, End: 60},
	}
	render := func() string {
		table, err := Builder{Prefix: "Ga", Distance: 40000}.Build(records)
		assert.NoError(t, err)
		var buf bytes.Buffer
		assert.NoError(t, WriteDomainCSV(&buf, table))
		assert.NoError(t, WriteBoundaryCSV(&buf, table.Boundaries))
		return buf.String()
	}
	expect.EQ(t, render(), render())
}

func TestBuildErrors(t *testing.T) {
	records := []Record{{Chrom: "chr1", Start: 1, End: 10}}
	_, err := Builder{Prefix: "", Distance: 10}.Build(records)
	expect.True(t, errors.Is(errors.Invalid, err))
	_, err = Builder{Prefix: "A B", Distance: 10}.Build(records)
	expect.True(t, errors.Is(errors.Invalid, err))
	_, err = Builder{Prefix: "A_x", Distance: 10}.Build(records)
	expect.True(t, errors.Is(errors.Invalid, err))
	expect.True(t, ValidPrefix("Hs.v38-1"))
	expect.True(t, !ValidPrefix("Hs_38"))
	_, err = Builder{Prefix: "A", Distance: -1}.Build(records)
	expect.True(t, errors.Is(errors.Invalid, err))
	_, err = Builder{Prefix: "A", Distance: 1}.Build([]Record{{Chrom: "chr1", Start: 10, End: 9, Line: 3}})
	expect.True(t, errors.Is(errors.Invalid, err))
	assert.HasSubstr(t, err.Error(), "line 3")

	table, err := Builder{Prefix: "A", Distance: 1}.Build(nil)
	assert.NoError(t, err)
	expect.EQ(t, len(table.Boundaries), 0)
}

func TestSequence(t *testing.T) {
	s := NewSequence(0)
	expect.EQ(t, s.Next(), 0)
	expect.EQ(t, s.Next(), 1)
	s = NewSequence(1)
	expect.EQ(t, s.Next(), 1)
}
