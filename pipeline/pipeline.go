// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pipeline

import (
	"context"
	"time"

	"github.com/grailbio/base/log"
	"github.com/grailbio/tadortho/ortho"
)

// Run runs every step for cfg.  Steps run in order and the first error aborts
// the run.
func Run(ctx context.Context, cfg *Config, runner Programs) (*ortho.Assignment, error) {
	start := time.Now()
	l := Layout{Dir: cfg.WorkDir}
	if err := l.Mkdirs(); err != nil {
		return nil, err
	}
	species := cfg.Species()
	opts := BoundaryOpts{
		Distance:    cfg.FlankDistance(),
		SkipPrepare: cfg.SkipPrepare,
		Sketch:      cfg.Sketch,
	}
	log.Printf("pipeline: step 1: boundaries of %d genomes (flank %d)", len(species), opts.Distance)
	if err := ExtractAll(ctx, l, cfg.Genomes, runner, opts, cfg.Parallelism); err != nil {
		return nil, err
	}
	log.Printf("pipeline: step 2: aligning %d genome pairs", len(species)*(len(species)-1))
	if err := AlignPairs(ctx, l, species, runner, cfg.Parallelism); err != nil {
		return nil, err
	}
	log.Printf("pipeline: step 3: network")
	if err := BuildNetwork(ctx, l, species, runner); err != nil {
		return nil, err
	}
	a, err := AssignGroups(ctx, l, species)
	if err != nil {
		return nil, err
	}
	log.Printf("pipeline: done in %v; results in %s", time.Since(start), l.Result(""))
	return a, nil
}
