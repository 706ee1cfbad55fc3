// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/tadortho/ortho"
	"github.com/grailbio/tadortho/pipeline"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"v.io/x/lib/cmdline"
)

func TestFaidx(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "faidx")
	defer cleanup()
	path := filepath.Join(tmpdir, "g.fa")
	require.NoError(t, os.WriteFile(path, []byte(">chr1 test\nACGTACGTNN\nGGCC\n>chr2\nTTTT\n"), 0644))

	var out bytes.Buffer
	require.NoError(t, faidx(context.Background(), &out, path, []string{"chr1:3-12", "chr2:2-100"}, 4))
	assert.Equal(t, ">chr1:3-12\nGTAC\nGTNN\nGG\n>chr2:2-100\nTTT\n", out.String())
	index, err := os.ReadFile(path + ".fai")
	require.NoError(t, err)
	assert.Equal(t, "chr1\t14\t11\t10\t11\nchr2\t4\t33\t4\t5\n", string(index))

	err = faidx(context.Background(), &out, path, []string{"chr3:1-2"}, 4)
	assert.True(t, errors.Is(errors.NotExist, err), "%v", err)
}

func TestGroupsCommand(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "groups")
	defer cleanup()
	l := pipeline.Layout{Dir: tmpdir}
	require.NoError(t, l.Mkdirs())
	require.NoError(t, os.WriteFile(l.Boundaries("G1"),
		[]byte("tad_name,chromosome,start,end\nG1_bound_0,G1_chr1,0,100\nG1_bound_1,G1_chr1,200,300\n"), 0644))
	require.NoError(t, os.WriteFile(l.Boundaries("G2"),
		[]byte("tad_name,chromosome,start,end\nG2_bound_0,G2_chr1,0,100\n"), 0644))
	require.NoError(t, os.WriteFile(l.Clusters(), []byte("G1_bound_0\tG2_bound_0\nG1_bound_1\n"), 0644))

	var stdout, stderr bytes.Buffer
	env := &cmdline.Env{Stdout: &stdout, Stderr: &stderr, Vars: map[string]string{}}
	root := &cmdline.Command{
		Name:     "bio-tadortho",
		Short:    "test",
		Children: []*cmdline.Command{newCmdGroups()},
	}
	require.NoError(t, cmdline.ParseAndRun(root, env, []string{"groups", "-workdir", tmpdir}))
	assert.Equal(t, "1 groups, 1 unassigned boundaries\n", stdout.String())

	groups, err := os.ReadFile(l.Result(ortho.GroupsFile))
	require.NoError(t, err)
	assert.Equal(t, "\tG1\tG2\nGroup_1\tG1_bound_0\tG2_bound_0\n", string(groups))

	err = cmdline.ParseAndRun(root, env, []string{"groups", "-workdir", tmpdir, "-species", "G1"})
	assert.Error(t, err)
}
