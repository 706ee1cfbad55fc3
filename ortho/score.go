// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ortho

import (
	"bufio"
	"io"
	"sort"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
)

// Hit is one directional similarity score: Query (a boundary of the first
// genome) matched Target (a boundary of the second genome).  It is also the
// row type of a "{s1}_{s2}.network.bed" file.
type Hit struct {
	Query  string  `tsv:"seq_id"`
	Target string  `tsv:"tad_name"`
	Score  float64 `tsv:"score"`
}

// blastRow is one line of blastn -outfmt "6 qseqid sseqid bitscore".
type blastRow struct {
	Query  string
	Target string
	Score  float64
}

// ReadHits reads a network file written by WriteHits.  An empty file yields no
// hits.
func ReadHits(r io.Reader) ([]Hit, error) {
	br := bufio.NewReader(r)
	if _, err := br.Peek(1); err == io.EOF {
		return nil, nil
	}
	reader := tsv.NewReader(br)
	reader.HasHeaderRow = true
	reader.UseHeaderNames = true
	var hits []Hit
	for {
		var h Hit
		if err := reader.Read(&h); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.E(errors.Invalid, err, "ortho.ReadHits")
		}
		hits = append(hits, h)
	}
	return hits, nil
}

// WriteHits writes hits as a network file with the header
// "seq_id tad_name score".  The header is written even when there are no hits.
func WriteHits(w io.Writer, hits []Hit) error {
	if len(hits) == 0 {
		tw := tsv.NewWriter(w)
		tw.WriteString("seq_id")
		tw.WriteString("tad_name")
		tw.WriteString("score")
		if err := tw.EndLine(); err != nil {
			return err
		}
		return tw.Flush()
	}
	rw := tsv.NewRowWriter(w)
	for i := range hits {
		if err := rw.Write(&hits[i]); err != nil {
			return err
		}
	}
	return rw.Flush()
}

type pairKey struct {
	id1, id2 string
}

// ReduceBlast reads tabular blastn output (qseqid, sseqid, bitscore) and keeps
// the best score of every (query, target) pair.  A pair may have several
// HSPs.  Hits are returned sorted by (Query, Target).
func ReduceBlast(r io.Reader) ([]Hit, error) {
	reader := tsv.NewReader(r)
	reader.Comment = '#'
	best := map[pairKey]float64{}
	for {
		var row blastRow
		if err := reader.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.E(errors.Invalid, err, "ortho.ReduceBlast")
		}
		k := pairKey{row.Query, row.Target}
		if s, ok := best[k]; !ok || row.Score > s {
			best[k] = row.Score
		}
	}
	hits := make([]Hit, 0, len(best))
	for k, s := range best {
		hits = append(hits, Hit{Query: k.id1, Target: k.id2, Score: s})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Query != hits[j].Query {
			return hits[i].Query < hits[j].Query
		}
		return hits[i].Target < hits[j].Target
	})
	return hits, nil
}

// Edge is an undirected best score between a boundary of the first genome
// (ID1) and one of the second (ID2).
type Edge struct {
	ID1, ID2 string
	Score    float64
}

// CombineScores joins the scores of the two directions of a genome pair X, Y.
// forward holds X->Y hits and is keyed (Query, Target); reverse holds Y->X
// hits and is keyed (Target, Query), so both sides key on (X id, Y id).
//
// The join is a full outer join: a pair scored by both sides gets the larger
// score, a pair scored by one side gets that side's score, and a pair scored
// by neither side gets no edge.  Repeated keys within one side keep their
// largest score.  Edges are sorted by (ID1, ID2).
func CombineScores(forward, reverse []Hit) []Edge {
	best := map[pairKey]float64{}
	add := func(k pairKey, s float64) {
		if old, ok := best[k]; !ok || s > old {
			best[k] = s
		}
	}
	for _, h := range forward {
		add(pairKey{h.Query, h.Target}, h.Score)
	}
	for _, h := range reverse {
		add(pairKey{h.Target, h.Query}, h.Score)
	}
	edges := make([]Edge, 0, len(best))
	for k, s := range best {
		edges = append(edges, Edge{ID1: k.id1, ID2: k.id2, Score: s})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].ID1 != edges[j].ID1 {
			return edges[i].ID1 < edges[j].ID1
		}
		return edges[i].ID2 < edges[j].ID2
	})
	return edges
}

// WriteEdges writes edges as headerless "id1\tid2\tscore" lines, the label
// input format of mcl --abc.
func WriteEdges(w io.Writer, edges []Edge) error {
	out := tsv.NewWriter(w)
	for _, e := range edges {
		out.WriteString(e.ID1)
		out.WriteString(e.ID2)
		out.WriteString(strconv.FormatFloat(e.Score, 'f', -1, 64))
		if err := out.EndLine(); err != nil {
			return err
		}
	}
	return out.Flush()
}
