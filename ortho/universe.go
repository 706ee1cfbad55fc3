// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package ortho groups TAD boundaries of several genomes into ortholog groups.
//
// Pairwise similarity hits between the boundaries of two genomes are reduced
// to one undirected edge per boundary pair (CombineScores).  The edges of all
// genome pairs are clustered by an external tool, and Assign partitions the
// universe of boundary identifiers into groups of two or more clustered
// boundaries and unassigned singletons.
package ortho

import (
	"fmt"
	"strings"

	"github.com/grailbio/base/errors"
)

// ID is a boundary identifier together with the species (genome prefix) that
// produced it.
type ID struct {
	Name    string
	Species string
}

// SpeciesOf returns the text before the first '_' of name, the species of an
// identifier named "{prefix}_bound_{k}".  It is only used for identifiers
// that do not come with an explicit species.
func SpeciesOf(name string) string {
	if i := strings.IndexByte(name, '_'); i >= 0 {
		return name[:i]
	}
	return name
}

// ParseUniverseIDs attaches SpeciesOf(name) to each name.
func ParseUniverseIDs(names []string) []ID {
	ids := make([]ID, len(names))
	for i, n := range names {
		ids[i] = ID{Name: n, Species: SpeciesOf(n)}
	}
	return ids
}

// Universe is the ordered set of every boundary identifier of a run.
type Universe struct {
	ids     []ID
	index   map[string]int
	species []string
}

// NewUniverse creates a Universe.  Identifier order is kept; species are
// ordered by first appearance.  A repeated identifier is an errors.Integrity
// error.
func NewUniverse(ids []ID) (*Universe, error) {
	u := &Universe{
		ids:   make([]ID, len(ids)),
		index: make(map[string]int, len(ids)),
	}
	copy(u.ids, ids)
	seenSpecies := map[string]bool{}
	for i, id := range ids {
		if id.Name == "" || id.Species == "" {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("ortho.NewUniverse: incomplete identifier %+v", id))
		}
		if _, ok := u.index[id.Name]; ok {
			return nil, errors.E(errors.Integrity, "ortho.NewUniverse: duplicate identifier", id.Name)
		}
		u.index[id.Name] = i
		if !seenSpecies[id.Species] {
			seenSpecies[id.Species] = true
			u.species = append(u.species, id.Species)
		}
	}
	return u, nil
}

// Len returns the number of identifiers.
func (u *Universe) Len() int { return len(u.ids) }

// IDs returns the identifiers in universe order.  The caller must not modify
// the slice.
func (u *Universe) IDs() []ID { return u.ids }

// Species returns the species in order of first appearance.
func (u *Universe) Species() []string { return u.species }

// Lookup finds the identifier called name.
func (u *Universe) Lookup(name string) (ID, bool) {
	i, ok := u.index[name]
	if !ok {
		return ID{}, false
	}
	return u.ids[i], true
}
