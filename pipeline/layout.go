// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package pipeline runs TAD boundary extraction and ortholog grouping over a
// work directory:
//
//   Step1/{prefix}.genome.fa      prefixed genome copy (+ .fai)
//   Step1/{prefix}.TAD.csv        domains with flank windows
//   Step1/{prefix}.bound.bed      merged boundaries (CSV)
//   Step1/{prefix}.bound.fasta    boundary sequences
//   Step2/{s1}_{s2}.network.bed   best s1->s2 hits (TSV)
//   Step3/merge.network.txt       edges of all genome pairs
//   Step3/out.clean.network.txt   clusters
//   Result/                       group, unassigned and count tables
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
)

const (
	step1Dir  = "Step1"
	step2Dir  = "Step2"
	step3Dir  = "Step3"
	resultDir = "Result"

	boundarySuffix = ".bound.bed"
)

// Layout names the files of a work directory.
type Layout struct {
	Dir string
}

// Mkdirs creates the step directories.
func (l Layout) Mkdirs() error {
	for _, d := range []string{step1Dir, step2Dir, step3Dir, resultDir} {
		if err := os.MkdirAll(filepath.Join(l.Dir, d), 0755); err != nil {
			return errors.E(err, "create work directory")
		}
	}
	return nil
}

// Genome is the prefixed genome copy.
func (l Layout) Genome(prefix string) string {
	return filepath.Join(l.Dir, step1Dir, prefix+".genome.fa")
}

// Domains is the domain table.
func (l Layout) Domains(prefix string) string {
	return filepath.Join(l.Dir, step1Dir, prefix+".TAD.csv")
}

// Boundaries is the merged boundary table.
func (l Layout) Boundaries(prefix string) string {
	return filepath.Join(l.Dir, step1Dir, prefix+boundarySuffix)
}

// BoundaryFASTA holds the boundary sequences.
func (l Layout) BoundaryFASTA(prefix string) string {
	return filepath.Join(l.Dir, step1Dir, prefix+".bound.fasta")
}

// Blast is the raw blastn output of query against subject.
func (l Layout) Blast(query, subject string) string {
	return filepath.Join(l.Dir, step2Dir, query+"_"+subject+".blast.tsv")
}

// Hits is the reduced hit table of query against subject.
func (l Layout) Hits(query, subject string) string {
	return filepath.Join(l.Dir, step2Dir, query+"_"+subject+".network.bed")
}

// Edges is the merged edge file given to the clustering program.
func (l Layout) Edges() string {
	return filepath.Join(l.Dir, step3Dir, "merge.network.txt")
}

// Clusters is the clustering output.
func (l Layout) Clusters() string {
	return filepath.Join(l.Dir, step3Dir, "out.clean.network.txt")
}

// Result names a file in the result directory.
func (l Layout) Result(name string) string {
	return filepath.Join(l.Dir, resultDir, name)
}

// DiscoverSpecies lists the genomes that have a boundary table in Step1, in
// lexicographic order.
func (l Layout) DiscoverSpecies(ctx context.Context) ([]string, error) {
	dir := filepath.Join(l.Dir, step1Dir)
	var species []string
	lister := file.List(ctx, dir, false)
	for lister.Scan() {
		if lister.IsDir() {
			continue
		}
		base := filepath.Base(lister.Path())
		if strings.HasSuffix(base, boundarySuffix) {
			species = append(species, strings.TrimSuffix(base, boundarySuffix))
		}
	}
	if err := lister.Err(); err != nil {
		return nil, errors.E(err, "list", dir)
	}
	if len(species) == 0 {
		return nil, errors.E(errors.NotExist, "no boundary tables in", dir)
	}
	sort.Strings(species)
	return species, nil
}
