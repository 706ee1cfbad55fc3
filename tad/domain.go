// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package tad derives TAD boundary windows from domain coordinates and merges
// them into per-genome boundary tables.
//
// A domain [start, end] contributes a left window centered on start and a
// right window centered on end, each extended by the flank distance on both
// sides and clamped at zero.  The windows of one chromosome are de-duplicated,
// merged and named "{prefix}_bound_{k}".
package tad

import "fmt"

// Record is one row of a domain file, before naming and prefixing.
type Record struct {
	Chrom string
	Start int // 1-based, inclusive
	End   int // inclusive, >= Start
	// Line is the 1-based line number in the source file, or 0 if unknown.
	Line int
}

// Position marks a domain's place within its chromosome.  It is metadata
// only; nothing in this repository branches on it.
type Position uint8

const (
	// Middle is any domain that is neither the first nor the last on its
	// chromosome.
	Middle Position = iota
	// First is the first domain of a chromosome, in input order.
	First
	// Last is the last domain of a chromosome, in input order.  A chromosome
	// with a single domain marks it Last.
	Last
)

// String implements fmt.Stringer.
func (p Position) String() string {
	switch p {
	case First:
		return "first"
	case Last:
		return "last"
	default:
		return ""
	}
}

// Window is a flank window around a domain edge, in the same coordinate
// system as the domain.
type Window struct {
	Chrom string
	Start int
	End   int
}

// flank returns the window [max(0, coord-distance), coord+distance].
func flank(chrom string, coord, distance int) Window {
	start := coord - distance
	if start < 0 {
		start = 0
	}
	return Window{Chrom: chrom, Start: start, End: coord + distance}
}

// Domain is a named domain with its flank windows.
type Domain struct {
	// Name is "{prefix}_{n}".
	Name string
	// Species is the genome prefix the domain belongs to.
	Species string
	// Chrom is the prefixed chromosome name, "{prefix}_{chrom}".
	Chrom    string
	Start    int
	End      int
	Position Position
	Left     Window
	Right    Window
}

// Len returns the number of bases in the domain.
func (d Domain) Len() int { return d.End - d.Start + 1 }

// String implements fmt.Stringer.
func (d Domain) String() string {
	return fmt.Sprintf("%s %s:%d-%d left=[%d,%d] right=[%d,%d]",
		d.Name, d.Chrom, d.Start, d.End, d.Left.Start, d.Left.End, d.Right.Start, d.Right.End)
}

// Boundary is a merged boundary region.
type Boundary struct {
	// Name is "{prefix}_bound_{k}".
	Name    string
	Species string
	Chrom   string
	Start   int
	End     int
}

// Sequence hands out consecutive integers.  Builders use it instead of
// package-level counters so that numbering is explicit and reproducible.
type Sequence struct {
	next int
}

// NewSequence returns a Sequence whose first value is first.
func NewSequence(first int) *Sequence {
	return &Sequence{next: first}
}

// Next returns the next value.
func (s *Sequence) Next() int {
	v := s.next
	s.next++
	return v
}
