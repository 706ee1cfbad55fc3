// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package interval

import (
	"fmt"
	"sort"
)

// Interval is a closed integer interval [Start, End].
type Interval struct {
	Start int
	End   int
}

// String implements fmt.Stringer.
func (iv Interval) String() string {
	return fmt.Sprintf("[%d,%d]", iv.Start, iv.End)
}

// touches reports whether a closed interval ending at end must be merged
// with one starting at start.  [1,5] and [6,8] touch: no integer lies
// between them.
func touches(end, start int) bool {
	return end+1 >= start
}

// MergeByEndpoints merges intervals by sorting their start and end points
// independently and walking the two sequences in lockstep.  An output interval
// closes at index i when ends[i] and starts[i+1] no longer touch; the final
// interval closes when the end sequence is exhausted.  Results are in
// ascending start order, pairwise non-overlapping and non-adjacent.
//
// The i-th smallest start is paired with the i-th smallest end, so the
// routine relies on every input interval satisfying Start <= End and on the
// input being a well-nested progression, such as the left and right windows
// of consecutive domains on one chromosome.  Use Merge for arbitrary interval
// sets.
//
// Inputs with zero or one interval are returned unchanged (as a copy).
func MergeByEndpoints(ivs []Interval) []Interval {
	if len(ivs) <= 1 {
		return append([]Interval(nil), ivs...)
	}
	starts := make([]int, len(ivs))
	ends := make([]int, len(ivs))
	for i, iv := range ivs {
		starts[i] = iv.Start
		ends[i] = iv.End
	}
	sort.Ints(starts)
	sort.Ints(ends)

	var result []Interval
	start := starts[0]
	for i := range ends {
		if i+1 == len(starts) {
			result = append(result, Interval{start, ends[i]})
			break
		}
		if !touches(ends[i], starts[i+1]) {
			result = append(result, Interval{start, ends[i]})
			start = starts[i+1]
		}
	}
	return result
}

// Merge is the general interval-union, for interval sets that are not the
// well-nested progression MergeByEndpoints requires: intervals are sorted by
// start and swept once, extending the current interval while the next one
// touches it.  On inputs that meet the MergeByEndpoints precondition both
// return the same result.  The input slice is not modified.
func Merge(ivs []Interval) []Interval {
	if len(ivs) <= 1 {
		return append([]Interval(nil), ivs...)
	}
	sorted := append([]Interval(nil), ivs...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})
	result := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &result[len(result)-1]
		if touches(last.End, iv.Start) {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		result = append(result, iv)
	}
	return result
}
