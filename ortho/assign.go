// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ortho

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// maxClusterLine bounds the length of one clustering output line.
const maxClusterLine = 1 << 28

// Group is a cluster of two or more boundaries.
type Group struct {
	// Name is "Group_{line}", where line is the 1-based line of the cluster in
	// the clustering output.
	Name string
	// Members maps a species to its identifiers in this group, in order of
	// appearance on the cluster line.
	Members map[string][]string
}

// Size returns the number of identifiers in the group.
func (g Group) Size() int {
	n := 0
	for _, m := range g.Members {
		n += len(m)
	}
	return n
}

// Unassigned is a boundary that is not part of any group.
type Unassigned struct {
	// Index is a 1-based counter shared by all unassigned entries of a run.
	Index int
	ID    ID
}

// Assignment is the result of Assign.
type Assignment struct {
	// Species lists the species of the universe, in universe order.  Output
	// tables use it as their column order.
	Species    []string
	Groups     []Group
	Unassigned []Unassigned

	universe *Universe
}

// Assign reads clustering output from clusters (one cluster per line,
// whitespace-separated identifiers) and partitions the universe.
//
// A line with two or more identifiers becomes the group "Group_{line}"; lines
// are numbered from 1, and blank lines are skipped but still numbered.  An
// identifier alone on its line becomes unassigned.  After the last line, every
// identifier of the universe that was not seen becomes unassigned too, in
// universe order.  Unassigned entries share one counter starting at 1.
//
// An identifier that is not in the universe, or that appears twice, is an
// errors.Integrity error.
func Assign(u *Universe, clusters io.Reader) (*Assignment, error) {
	a := &Assignment{Species: u.Species(), universe: u}
	seen := make(map[string]bool, u.Len())
	unassignedSeq := 1
	lookup := func(name string, line int) (ID, error) {
		id, ok := u.Lookup(name)
		if !ok {
			return ID{}, errors.E(errors.Integrity,
				fmt.Sprintf("ortho.Assign: line %d: unknown identifier %s", line, name))
		}
		if seen[name] {
			return ID{}, errors.E(errors.Integrity,
				fmt.Sprintf("ortho.Assign: line %d: identifier %s appears more than once", line, name))
		}
		seen[name] = true
		return id, nil
	}

	scanner := bufio.NewScanner(clusters)
	scanner.Buffer(nil, maxClusterLine)
	line := 0
	for scanner.Scan() {
		line++
		names := strings.Fields(scanner.Text())
		switch len(names) {
		case 0:
			continue
		case 1:
			id, err := lookup(names[0], line)
			if err != nil {
				return nil, err
			}
			a.Unassigned = append(a.Unassigned, Unassigned{Index: unassignedSeq, ID: id})
			unassignedSeq++
		default:
			g := Group{Name: "Group_" + strconv.Itoa(line), Members: map[string][]string{}}
			for _, name := range names {
				id, err := lookup(name, line)
				if err != nil {
					return nil, err
				}
				g.Members[id.Species] = append(g.Members[id.Species], id.Name)
			}
			a.Groups = append(a.Groups, g)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.E(err, "ortho.Assign: read clusters")
	}
	nClustered := len(seen)
	for _, id := range u.IDs() {
		if !seen[id.Name] {
			a.Unassigned = append(a.Unassigned, Unassigned{Index: unassignedSeq, ID: id})
			unassignedSeq++
		}
	}
	log.Printf("ortho: %d groups, %d unassigned (%d absent from clusters) of %d boundaries",
		len(a.Groups), len(a.Unassigned), u.Len()-nClustered, u.Len())
	return a, nil
}

// Counts returns the number of members of every group per species, in
// a.Species order.
func (a *Assignment) Counts() [][]int {
	counts := make([][]int, len(a.Groups))
	for i, g := range a.Groups {
		counts[i] = make([]int, len(a.Species))
		for j, sp := range a.Species {
			counts[i][j] = len(g.Members[sp])
		}
	}
	return counts
}

// Verify checks that every identifier of the universe is in exactly one group
// or unassigned entry, and nothing else is.  A violation is an
// errors.Integrity error.
func (a *Assignment) Verify() error {
	count := make(map[string]int, a.universe.Len())
	n := 0
	for _, g := range a.Groups {
		for sp, names := range g.Members {
			for _, name := range names {
				id, ok := a.universe.Lookup(name)
				if !ok || id.Species != sp {
					return errors.E(errors.Integrity, "ortho: group", g.Name, "holds unknown identifier", name)
				}
				count[name]++
				n++
			}
		}
	}
	for _, un := range a.Unassigned {
		if _, ok := a.universe.Lookup(un.ID.Name); !ok {
			return errors.E(errors.Integrity, "ortho: unknown unassigned identifier", un.ID.Name)
		}
		count[un.ID.Name]++
		n++
	}
	for name, c := range count {
		if c > 1 {
			return errors.E(errors.Integrity, fmt.Sprintf("ortho: identifier %s assigned %d times", name, c))
		}
	}
	if n != a.universe.Len() {
		return errors.E(errors.Integrity,
			fmt.Sprintf("ortho: %d identifiers assigned, universe has %d", n, a.universe.Len()))
	}
	return nil
}
