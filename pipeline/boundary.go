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
	"github.com/grailbio/tadortho/encoding/fasta"
	"github.com/grailbio/tadortho/tad"
	"github.com/grailbio/tadortho/tools"
)

// Programs runs the external programs.  tools.Runner implements it.
type Programs interface {
	Sketch(ctx context.Context, fasta string) error
	Align(ctx context.Context, query, subject, out string) error
	Cluster(ctx context.Context, edges, out string) error
}

var _ Programs = tools.Runner{}

// BoundaryOpts configures ExtractBoundaries.
type BoundaryOpts struct {
	Distance int
	// SkipPrepare reuses an existing prefixed genome copy.
	SkipPrepare bool
	// Sketch runs Programs.Sketch on the prefixed genome.
	Sketch bool
}

// prepareGenome writes the prefixed, upper-cased copy of the genome and its
// index.
func prepareGenome(ctx context.Context, l Layout, g Genome) (err error) {
	in, err := file.Open(ctx, g.FASTA)
	if err != nil {
		return errors.E(err, "genome", g.FASTA)
	}
	defer file.CloseAndReport(ctx, in, &err)
	out, err := file.Create(ctx, l.Genome(g.Prefix))
	if err != nil {
		return errors.E(err, "create", l.Genome(g.Prefix))
	}
	n, err := fasta.CopyWithPrefix(out.Writer(ctx), in.Reader(ctx), g.Prefix)
	if cerr := out.Close(ctx); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.E(err, "copy", g.FASTA)
	}
	log.Printf("pipeline: %s: copied %d sequences to %s", g.Prefix, n, l.Genome(g.Prefix))
	return fasta.GenerateIndexFile(ctx, l.Genome(g.Prefix))
}

// ExtractBoundaries runs the first step for one genome: it builds the domain
// and boundary tables and writes the boundary sequences.
func ExtractBoundaries(ctx context.Context, l Layout, g Genome, runner Programs, opts BoundaryOpts) (err error) {
	if !opts.SkipPrepare {
		if err := prepareGenome(ctx, l, g); err != nil {
			return err
		}
		if opts.Sketch {
			if err := runner.Sketch(ctx, l.Genome(g.Prefix)); err != nil {
				return err
			}
		}
	}
	records, err := tad.ReadDomainsFromPath(ctx, g.TAD)
	if err != nil {
		return err
	}
	table, err := tad.Builder{Prefix: g.Prefix, Distance: opts.Distance}.Build(records)
	if err != nil {
		return errors.E(err, g.TAD)
	}
	if err := writeFile(ctx, l.Domains(g.Prefix), func(w io.Writer) error {
		return tad.WriteDomainCSV(w, table)
	}); err != nil {
		return err
	}
	if err := writeFile(ctx, l.Boundaries(g.Prefix), func(w io.Writer) error {
		return tad.WriteBoundaryCSV(w, table.Boundaries)
	}); err != nil {
		return err
	}

	seqs, err := fasta.OpenIndexed(ctx, l.Genome(g.Prefix))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := seqs.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	var n int
	if err := writeFile(ctx, l.BoundaryFASTA(g.Prefix), func(w io.Writer) error {
		var werr error
		n, werr = tad.WriteBoundaryFASTA(w, seqs, table.Boundaries)
		return werr
	}); err != nil {
		return err
	}
	log.Printf("pipeline: %s: wrote %d of %d boundary sequences", g.Prefix, n, len(table.Boundaries))
	return nil
}

// ExtractAll runs ExtractBoundaries for every genome, at most parallelism at a
// time.
func ExtractAll(ctx context.Context, l Layout, genomes []Genome, runner Programs, opts BoundaryOpts, parallelism int) error {
	return traverse.Limit(parallelism).Each(len(genomes), func(i int) error {
		return ExtractBoundaries(ctx, l, genomes[i], runner, opts)
	})
}

// writeFile creates path, calls fn and closes the file.
func writeFile(ctx context.Context, path string, fn func(w io.Writer) error) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create", path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	if err = fn(out.Writer(ctx)); err != nil {
		return errors.E(err, path)
	}
	return nil
}
