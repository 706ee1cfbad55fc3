// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ortho

import (
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/tsv"
)

// Names of the result tables written to the result directory.
const (
	GroupsFile     = "TAD_groups.tsv"
	UnassignedFile = "Unassignd_TAD.tsv"
	CountsFile     = "TAD_groups_count.tsv"
)

// writeHeader writes an empty corner cell followed by one column per species.
func (a *Assignment) writeHeader(w *tsv.Writer) error {
	w.WriteString("")
	for _, sp := range a.Species {
		w.WriteString(sp)
	}
	return w.EndLine()
}

// WriteGroups writes one row per group.  A cell holds the group's identifiers
// of that species joined by ';', or nothing.
func (a *Assignment) WriteGroups(out io.Writer) error {
	w := tsv.NewWriter(out)
	if err := a.writeHeader(w); err != nil {
		return err
	}
	for _, g := range a.Groups {
		w.WriteString(g.Name)
		for _, sp := range a.Species {
			w.WriteString(strings.Join(g.Members[sp], ";"))
		}
		if err := w.EndLine(); err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteUnassigned writes one row per unassigned entry, labeled with its
// index.  The identifier is in the column of its species.
func (a *Assignment) WriteUnassigned(out io.Writer) error {
	w := tsv.NewWriter(out)
	if err := a.writeHeader(w); err != nil {
		return err
	}
	for _, un := range a.Unassigned {
		w.WriteString(strconv.Itoa(un.Index))
		for _, sp := range a.Species {
			if sp == un.ID.Species {
				w.WriteString(un.ID.Name)
			} else {
				w.WriteString("")
			}
		}
		if err := w.EndLine(); err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteCounts writes the per-species member counts of every group.
func (a *Assignment) WriteCounts(out io.Writer) error {
	w := tsv.NewWriter(out)
	if err := a.writeHeader(w); err != nil {
		return err
	}
	for i, row := range a.Counts() {
		w.WriteString(a.Groups[i].Name)
		for _, c := range row {
			w.WriteInt64(int64(c))
		}
		if err := w.EndLine(); err != nil {
			return err
		}
	}
	return w.Flush()
}
