// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package tad

import (
	"fmt"
	"sort"
	"regexp"
	"strconv"

	"github.com/biogo/store/llrb"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/tadortho/interval"
)

// Builder turns the domains of one genome into flank windows and merged
// boundaries.
type Builder struct {
	// Prefix names the genome.  It is prepended to chromosome names
	// ("{Prefix}_{chrom}"), domain names and boundary names, and is recorded as
	// the species of everything the builder produces.
	Prefix string
	// Distance is the flank distance added on both sides of a domain edge.
	Distance int
}

// Table is the output of Builder.Build.
type Table struct {
	Prefix   string
	Distance int
	// Chroms lists the prefixed chromosome names in output order.
	Chroms []string
	// Domains are grouped by chromosome (in Chroms order), in input order
	// within a chromosome.
	Domains []Domain
	// Boundaries are grouped by chromosome (in Chroms order), sorted by start
	// within a chromosome.
	Boundaries []Boundary
}

// windowKey orders windows by (start, end) in an llrb.Tree.  Equal keys
// replace each other, which drops exact duplicates.
type windowKey struct {
	start, end int
}

// Compare implements llrb.Comparable.
func (k windowKey) Compare(c llrb.Comparable) int {
	k2 := c.(windowKey)
	if diff := k.start - k2.start; diff != 0 {
		return diff
	}
	return k.end - k2.end
}

var prefixRE = regexp.MustCompile(`^[A-Za-z0-9.-]+$`)

// ValidPrefix reports whether prefix can name a genome.  Boundary ids are
// split on their first '_', so a prefix holds letters, digits, '.' and '-'
// only.
func ValidPrefix(prefix string) bool {
	return prefixRE.MatchString(prefix)
}

func (b Builder) validate() error {
	if !ValidPrefix(b.Prefix) {
		return errors.E(errors.Invalid, fmt.Sprintf("tad.Builder: prefix %q must be nonempty and must not contain '_' or spaces", b.Prefix))
	}
	if b.Distance < 0 {
		return errors.E(errors.Invalid, "tad.Builder: negative flank distance", strconv.Itoa(b.Distance))
	}
	return nil
}

// Build names the domains, derives their flank windows and merges the windows
// of each chromosome into boundaries.
//
// Chromosomes are visited in lexicographic order of their prefixed names.
// Domains are numbered "{Prefix}_1", "{Prefix}_2", ... in that visiting
// order, keeping input order within a chromosome; boundaries are numbered
// "{Prefix}_bound_0", ... and the counter continues across chromosomes.
// Building the same records twice yields identical tables.
func (b Builder) Build(records []Record) (*Table, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	byChrom := map[string][]Record{}
	for _, r := range records {
		if r.Start < 0 || r.End < r.Start {
			return nil, errors.E(errors.Invalid,
				fmt.Sprintf("tad.Builder: invalid domain %s:%d-%d (line %d)", r.Chrom, r.Start, r.End, r.Line))
		}
		chrom := b.Prefix + "_" + r.Chrom
		byChrom[chrom] = append(byChrom[chrom], r)
	}
	t := &Table{Prefix: b.Prefix, Distance: b.Distance}
	for chrom := range byChrom {
		t.Chroms = append(t.Chroms, chrom)
	}
	sort.Strings(t.Chroms)

	var (
		domainSeq   = NewSequence(1)
		boundarySeq = NewSequence(0)
	)
	for _, chrom := range t.Chroms {
		domains := b.domains(chrom, byChrom[chrom], domainSeq)
		t.Domains = append(t.Domains, domains...)
		t.Boundaries = append(t.Boundaries, b.boundaries(chrom, domains, boundarySeq)...)
	}
	log.Printf("tad: %s: %d domains on %d chromosomes, %d boundaries (flank %d)",
		b.Prefix, len(t.Domains), len(t.Chroms), len(t.Boundaries), b.Distance)
	return t, nil
}

// domains names the records of one chromosome and computes their windows.
func (b Builder) domains(chrom string, records []Record, seq *Sequence) []Domain {
	domains := make([]Domain, len(records))
	for i, r := range records {
		domains[i] = Domain{
			Name:    b.Prefix + "_" + strconv.Itoa(seq.Next()),
			Species: b.Prefix,
			Chrom:   chrom,
			Start:   r.Start,
			End:     r.End,
			Left:    flank(chrom, r.Start, b.Distance),
			Right:   flank(chrom, r.End, b.Distance),
		}
	}
	domains[0].Position = First
	domains[len(domains)-1].Position = Last
	return domains
}

// boundaries merges the windows of one chromosome's domains.
func (b Builder) boundaries(chrom string, domains []Domain, seq *Sequence) []Boundary {
	var windows llrb.Tree
	for _, d := range domains {
		windows.Insert(windowKey{d.Left.Start, d.Left.End})
		windows.Insert(windowKey{d.Right.Start, d.Right.End})
	}
	ivs := make([]interval.Interval, 0, windows.Len())
	windows.Do(func(c llrb.Comparable) bool {
		k := c.(windowKey)
		ivs = append(ivs, interval.Interval{Start: k.start, End: k.end})
		return false
	})
	merged := interval.MergeByEndpoints(ivs)
	boundaries := make([]Boundary, len(merged))
	for i, iv := range merged {
		boundaries[i] = Boundary{
			Name:    b.Prefix + "_bound_" + strconv.Itoa(seq.Next()),
			Species: b.Prefix,
			Chrom:   chrom,
			Start:   iv.Start,
			End:     iv.End,
		}
	}
	return boundaries
}
