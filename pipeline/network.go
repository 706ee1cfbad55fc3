// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pipeline

import (
	"context"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/tadortho/ortho"
	"github.com/grailbio/tadortho/tad"
)

type pair struct {
	query, subject string
}

// orderedPairs returns every (s1, s2) with s1 != s2.
func orderedPairs(species []string) []pair {
	var pairs []pair
	for _, s1 := range species {
		for _, s2 := range species {
			if s1 != s2 {
				pairs = append(pairs, pair{s1, s2})
			}
		}
	}
	return pairs
}

// readFile opens path and calls fn with its contents.
func readFile(ctx context.Context, path string, fn func(r io.Reader) error) (err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return errors.E(err, "open", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	if err = fn(in.Reader(ctx)); err != nil {
		return errors.E(err, path)
	}
	return nil
}

// alignPair aligns the boundaries of one genome against those of another and
// writes the best hit of every boundary pair.
func alignPair(ctx context.Context, l Layout, p pair, runner Programs) error {
	raw := l.Blast(p.query, p.subject)
	if err := runner.Align(ctx, l.BoundaryFASTA(p.query), l.BoundaryFASTA(p.subject), raw); err != nil {
		return err
	}
	var hits []ortho.Hit
	if err := readFile(ctx, raw, func(r io.Reader) (err error) {
		hits, err = ortho.ReduceBlast(r)
		return
	}); err != nil {
		return err
	}
	if err := writeFile(ctx, l.Hits(p.query, p.subject), func(w io.Writer) error {
		return ortho.WriteHits(w, hits)
	}); err != nil {
		return err
	}
	log.Printf("pipeline: %s -> %s: %d boundary pairs", p.query, p.subject, len(hits))
	return nil
}

// AlignPairs aligns the boundaries of every ordered pair of genomes, at most
// parallelism pairs at a time.
func AlignPairs(ctx context.Context, l Layout, species []string, runner Programs, parallelism int) error {
	pairs := orderedPairs(species)
	return traverse.Limit(parallelism).Each(len(pairs), func(i int) error {
		return alignPair(ctx, l, pairs[i], runner)
	})
}

func readHits(ctx context.Context, path string) (hits []ortho.Hit, err error) {
	err = readFile(ctx, path, func(r io.Reader) (err error) {
		hits, err = ortho.ReadHits(r)
		return
	})
	return
}

// BuildNetwork combines the two directions of every unordered genome pair
// into one edge file and clusters it.  The edge file is truncated once and the
// edges of each pair are appended in pair order, so nothing from an earlier
// run survives.
func BuildNetwork(ctx context.Context, l Layout, species []string, runner Programs) (err error) {
	out, err := file.Create(ctx, l.Edges())
	if err != nil {
		return errors.E(err, "create", l.Edges())
	}
	closed := false
	defer func() {
		if !closed {
			file.CloseAndReport(ctx, out, &err)
		}
	}()
	w := out.Writer(ctx)
	nEdges := 0
	for i, s1 := range species {
		for _, s2 := range species[i+1:] {
			forward, err := readHits(ctx, l.Hits(s1, s2))
			if err != nil {
				return err
			}
			reverse, err := readHits(ctx, l.Hits(s2, s1))
			if err != nil {
				return err
			}
			edges := ortho.CombineScores(forward, reverse)
			if err := ortho.WriteEdges(w, edges); err != nil {
				return errors.E(err, l.Edges())
			}
			log.Printf("pipeline: %s/%s: %d edges", s1, s2, len(edges))
			nEdges += len(edges)
		}
	}
	closed = true
	if err := out.Close(ctx); err != nil {
		return errors.E(err, "close", l.Edges())
	}
	log.Printf("pipeline: wrote %d edges to %s", nEdges, l.Edges())
	return runner.Cluster(ctx, l.Edges(), l.Clusters())
}

// LoadUniverse reads the boundary tables of species, in order.
func LoadUniverse(ctx context.Context, l Layout, species []string) (*ortho.Universe, error) {
	var ids []ortho.ID
	for _, sp := range species {
		if err := readFile(ctx, l.Boundaries(sp), func(r io.Reader) error {
			boundaries, err := tad.ReadBoundaryCSV(r, sp)
			if err != nil {
				return err
			}
			for _, b := range boundaries {
				ids = append(ids, ortho.ID{Name: b.Name, Species: b.Species})
			}
			return nil
		}); err != nil {
			return nil, err
		}
	}
	return ortho.NewUniverse(ids)
}

// AssignGroups partitions the boundaries of species using the clustering
// output and writes the result tables.
func AssignGroups(ctx context.Context, l Layout, species []string) (*ortho.Assignment, error) {
	u, err := LoadUniverse(ctx, l, species)
	if err != nil {
		return nil, err
	}
	var a *ortho.Assignment
	if err := readFile(ctx, l.Clusters(), func(r io.Reader) (err error) {
		a, err = ortho.Assign(u, r)
		return
	}); err != nil {
		return nil, err
	}
	if err := a.Verify(); err != nil {
		return nil, err
	}
	for _, t := range []struct {
		name  string
		write func(io.Writer) error
	}{
		{ortho.GroupsFile, a.WriteGroups},
		{ortho.UnassignedFile, a.WriteUnassigned},
		{ortho.CountsFile, a.WriteCounts},
	} {
		if err := writeFile(ctx, l.Result(t.name), t.write); err != nil {
			return nil, err
		}
	}
	return a, nil
}
