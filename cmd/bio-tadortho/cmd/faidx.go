// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/tadortho/encoding/fasta"
	"v.io/x/lib/cmdline"
)

func newCmdFaidx() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "faidx",
		Short:    "Index a FASTA file, or print regions of it",
		ArgsName: "fastapath [region...]",
		Long: `
With no region, writes fastapath.fai.  Otherwise prints each region, given as
"chr:start-end" (1-based, inclusive), as a FASTA record.  The index is
generated first if it does not exist.  This command is a clone of
'samtools faidx'.`,
	}
	widthFlag := cmd.Flags.Int("width", fasta.DefaultLineWidth, "Bases per output line")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) < 1 {
			return fmt.Errorf("faidx takes a FASTA path and optional regions, but got %v", argv)
		}
		ctx := context.Background()
		if len(argv) == 1 {
			return fasta.GenerateIndexFile(ctx, argv[0])
		}
		return faidx(ctx, env.Stdout, argv[0], argv[1:], *widthFlag)
	})
	return cmd
}

func faidx(ctx context.Context, out io.Writer, path string, regions []string, width int) (err error) {
	f, err := fasta.OpenIndexed(ctx, path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	w := fasta.NewWriter(out, width)
	for _, region := range regions {
		seq, err := fasta.Fetch(f, region)
		if err != nil {
			return err
		}
		if err := w.Write(region, "", seq); err != nil {
			return err
		}
	}
	return w.Flush()
}
