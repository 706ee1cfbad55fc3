// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/log"
	"github.com/grailbio/tadortho/pipeline"
	"github.com/grailbio/tadortho/tools"
	"v.io/x/lib/cmdline"
)

// commonFlags are shared by every subcommand.
type commonFlags struct {
	workDir *string
	debug   *bool
}

func addCommonFlags(cmd *cmdline.Command) commonFlags {
	return commonFlags{
		workDir: cmd.Flags.String("workdir", "out", "Work directory holding the Step1, Step2, Step3 and Result directories"),
		debug:   cmd.Flags.Bool("debug", false, "Log external program command lines"),
	}
}

func (f commonFlags) layout() pipeline.Layout {
	if *f.debug {
		log.SetLevel(log.Debug)
	}
	return pipeline.Layout{Dir: *f.workDir}
}

// species returns the comma-separated list in flag, or the genomes found in
// the work directory if flag is empty.
func species(ctx context.Context, l pipeline.Layout, flag string) ([]string, error) {
	if flag == "" {
		return l.DiscoverSpecies(ctx)
	}
	list := strings.Split(flag, ",")
	if len(list) < 2 {
		return nil, fmt.Errorf("-species needs at least two genomes, got %q", flag)
	}
	return list, nil
}

func newCmdBoundary() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "boundary",
		Short: "Extract the TAD boundaries of one genome (step 1)",
		Long: `
Reads a headerless domain table (chromosome, start, end) and a genome FASTA
file, and writes the prefixed genome copy, the domain table, the merged
boundary table and the boundary sequences to <workdir>/Step1.`,
	}
	common := addCommonFlags(cmd)
	tadFlag := cmd.Flags.String("tad", "", "Domain table; may be gzipped")
	genomeFlag := cmd.Flags.String("genome", "", "Genome FASTA file; may be gzipped")
	prefixFlag := cmd.Flags.String("prefix", "", "Genome prefix, prepended to chromosome and boundary names")
	distanceFlag := cmd.Flags.Int("distance", pipeline.DefaultDistance, "Flank distance added around domain edges")
	skipPrepareFlag := cmd.Flags.Bool("skip-prepare", false, "Reuse the prefixed genome copy of an earlier run")
	sketchFlag := cmd.Flags.Bool("sketch", false, "Run 'mash sketch' on the prefixed genome")
	mashFlag := cmd.Flags.String("mash", tools.DefaultMash, "mash program")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return fmt.Errorf("boundary takes no positional arguments, but got %v", argv)
		}
		if *tadFlag == "" || *genomeFlag == "" || *prefixFlag == "" {
			return fmt.Errorf("boundary: -tad, -genome and -prefix are required")
		}
		l := common.layout()
		if err := l.Mkdirs(); err != nil {
			return err
		}
		g := pipeline.Genome{Prefix: *prefixFlag, TAD: *tadFlag, FASTA: *genomeFlag}
		return pipeline.ExtractBoundaries(context.Background(), l, g, tools.Runner{Mash: *mashFlag},
			pipeline.BoundaryOpts{Distance: *distanceFlag, SkipPrepare: *skipPrepareFlag, Sketch: *sketchFlag})
	})
	return cmd
}

func newCmdAlign() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "align",
		Short: "Align the boundaries of every pair of genomes (step 2)",
	}
	common := addCommonFlags(cmd)
	speciesFlag := cmd.Flags.String("species", "", "Comma-separated genome prefixes. By default, every genome in <workdir>/Step1")
	blastnFlag := cmd.Flags.String("blastn", tools.DefaultBlastn, "blastn program")
	evalueFlag := cmd.Flags.Float64("evalue", 0, "blastn -evalue; 0 keeps the blastn default")
	parallelismFlag := cmd.Flags.Int("parallelism", 1, "Number of genome pairs aligned at the same time")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		ctx := context.Background()
		l := common.layout()
		sp, err := species(ctx, l, *speciesFlag)
		if err != nil {
			return err
		}
		if err := l.Mkdirs(); err != nil {
			return err
		}
		return pipeline.AlignPairs(ctx, l, sp, tools.Runner{Blastn: *blastnFlag, Evalue: *evalueFlag}, *parallelismFlag)
	})
	return cmd
}

func newCmdNetwork() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "network",
		Short: "Cluster the pairwise hits and assign ortholog groups (step 3)",
	}
	common := addCommonFlags(cmd)
	speciesFlag := cmd.Flags.String("species", "", "Comma-separated genome prefixes. By default, every genome in <workdir>/Step1")
	mclFlag := cmd.Flags.String("mcl", tools.DefaultMcl, "mcl program")
	threadsFlag := cmd.Flags.Int("threads", 0, "mcl -te; 0 keeps the mcl default")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		ctx := context.Background()
		l := common.layout()
		sp, err := species(ctx, l, *speciesFlag)
		if err != nil {
			return err
		}
		if err := l.Mkdirs(); err != nil {
			return err
		}
		if err := pipeline.BuildNetwork(ctx, l, sp, tools.Runner{Mcl: *mclFlag, Threads: *threadsFlag}); err != nil {
			return err
		}
		_, err = pipeline.AssignGroups(ctx, l, sp)
		return err
	})
	return cmd
}

func newCmdGroups() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "groups",
		Short: "Assign ortholog groups from existing clustering output",
	}
	common := addCommonFlags(cmd)
	speciesFlag := cmd.Flags.String("species", "", "Comma-separated genome prefixes. By default, every genome in <workdir>/Step1")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		ctx := context.Background()
		l := common.layout()
		sp, err := species(ctx, l, *speciesFlag)
		if err != nil {
			return err
		}
		a, err := pipeline.AssignGroups(ctx, l, sp)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Stdout, "%d groups, %d unassigned boundaries\n", len(a.Groups), len(a.Unassigned))
		return nil
	})
	return cmd
}

func newCmdRun() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "run",
		Short:    "Run every step as described by a YAML run file",
		ArgsName: "run.yaml",
		Long: `
Example run file:

  workdir: out
  distance: 40000
  parallelism: 4
  sketch: true
  genomes:
    - prefix: Hs
      tad: hs.tad.txt
      genome: hs.fa.gz
    - prefix: Mm
      tad: mm.tad.txt
      genome: mm.fa.gz
  tools:
    blastn: blastn
    mcl: mcl
    evalue: 1e-5
`,
	}
	debugFlag := cmd.Flags.Bool("debug", false, "Log external program command lines")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("run takes one run file argument, but got %v", argv)
		}
		if *debugFlag {
			log.SetLevel(log.Debug)
		}
		ctx := context.Background()
		cfg, err := pipeline.LoadConfig(ctx, argv[0])
		if err != nil {
			return err
		}
		runner := cfg.Tools.Runner()
		if err := runner.Check(cfg.Sketch && !cfg.SkipPrepare); err != nil {
			return err
		}
		a, err := pipeline.Run(ctx, cfg, runner)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Stdout, "%d groups, %d unassigned boundaries\n", len(a.Groups), len(a.Unassigned))
		return nil
	})
	return cmd
}

// Run runs the bio-tadortho command.
func Run() {
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(
		&cmdline.Command{
			Name:     "bio-tadortho",
			Short:    "Find orthologous TAD boundaries across genomes",
			LookPath: false,
			Children: []*cmdline.Command{
				newCmdBoundary(),
				newCmdAlign(),
				newCmdNetwork(),
				newCmdGroups(),
				newCmdRun(),
				newCmdFaidx(),
			},
		})
}
