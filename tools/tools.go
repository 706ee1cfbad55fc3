// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package tools runs the external programs of the boundary ortholog pipeline:
// blastn for pairwise boundary alignment, mcl for clustering and mash for
// genome sketches.
package tools

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"v.io/x/lib/envvar"
	"v.io/x/lib/lookpath"
)

// Default program names, looked up in $PATH.
const (
	DefaultBlastn = "blastn"
	DefaultMcl    = "mcl"
	DefaultMash   = "mash"
)

// BlastFormat is the tabular output format requested from blastn.  The
// columns are read by ortho.ReduceBlast.
const BlastFormat = "6 qseqid sseqid bitscore"

// maxStderr bounds the amount of stderr kept for an error message.
const maxStderr = 4 << 10

// Runner runs the external programs.  The zero value runs the default
// programs found in $PATH.
type Runner struct {
	// Blastn, Mcl and Mash are program names or paths.  Empty selects the
	// default name.
	Blastn string
	Mcl    string
	Mash   string
	// Evalue, if positive, is passed to blastn as -evalue.
	Evalue float64
	// Threads, if positive, is passed to mcl as -te.
	Threads int
}

func orDefault(name, def string) string {
	if name == "" {
		return def
	}
	return name
}

// Resolve finds the executable for name.  A name containing a path separator
// is used as is; any other name is searched for in $PATH.  A missing program
// is an errors.Unavailable error.
func Resolve(name string) (string, error) {
	if strings.ContainsRune(name, filepath.Separator) {
		info, err := os.Stat(name)
		if err != nil || info.IsDir() {
			return "", errors.E(errors.Unavailable, "tools: program not found:", name)
		}
		return name, nil
	}
	path, err := lookpath.Look(envvar.SliceToMap(os.Environ()), name)
	if err != nil {
		return "", errors.E(errors.Unavailable, err, "tools: program not found in $PATH:", name)
	}
	return path, nil
}

// Check verifies that blastn and mcl can be found, and mash too if sketch is
// set.
func (r Runner) Check(sketch bool) error {
	names := []string{orDefault(r.Blastn, DefaultBlastn), orDefault(r.Mcl, DefaultMcl)}
	if sketch {
		names = append(names, orDefault(r.Mash, DefaultMash))
	}
	for _, name := range names {
		if _, err := Resolve(name); err != nil {
			return err
		}
	}
	return nil
}

// Run runs program with args and waits for it to finish.  A program that
// cannot be started, or that exits with a nonzero status, is an
// errors.Unavailable error that includes the exit status and the tail of its
// stderr.
func Run(ctx context.Context, program string, args ...string) error {
	path, err := Resolve(program)
	if err != nil {
		return err
	}
	log.Debug.Printf("tools: run %s %s", path, strings.Join(args, " "))
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := stderr.Bytes()
		if len(msg) > maxStderr {
			msg = msg[len(msg)-maxStderr:]
		}
		status := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			status = exitErr.ExitCode()
		}
		return errors.E(errors.Unavailable, err,
			fmt.Sprintf("%s: exit status %d: %s", program, status, bytes.TrimSpace(msg)))
	}
	return nil
}

// Sketch runs "mash sketch" on a FASTA file, creating fasta+".msh".
func (r Runner) Sketch(ctx context.Context, fasta string) error {
	return Run(ctx, orDefault(r.Mash, DefaultMash), "sketch", "-o", fasta, fasta)
}

// Align aligns every record of query against every record of subject with
// blastn and writes the hits in BlastFormat to out.
func (r Runner) Align(ctx context.Context, query, subject, out string) error {
	args := []string{
		"-query", query,
		"-subject", subject,
		"-outfmt", BlastFormat,
		"-out", out,
	}
	if r.Evalue > 0 {
		args = append(args, "-evalue", strconv.FormatFloat(r.Evalue, 'g', -1, 64))
	}
	// blastn ignores -num_threads together with -subject.
	return Run(ctx, orDefault(r.Blastn, DefaultBlastn), args...)
}

// Cluster runs mcl on a label ("--abc") edge file and writes one cluster per
// line to out.
func (r Runner) Cluster(ctx context.Context, edges, out string) error {
	args := []string{edges, "--abc", "-o", out}
	if r.Threads > 0 {
		args = append(args, "-te", strconv.Itoa(r.Threads))
	}
	return Run(ctx, orDefault(r.Mcl, DefaultMcl), args...)
}
