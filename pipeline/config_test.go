// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const runFile = `
workdir: ${TADORTHO_TEST_WORKDIR:-out}
genomes:
  - prefix: Ga
    tad: ga.tad.txt
    genome: ga.fa.gz
  - prefix: Gb
    tad: gb.tad.txt
    genome: gb.fa
tools:
  blastn: /opt/blast/bin/blastn
  evalue: 1e-5
  threads: 4
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(runFile))
	require.NoError(t, err)
	assert.Equal(t, "out", cfg.WorkDir)
	assert.Equal(t, DefaultDistance, cfg.FlankDistance())
	assert.Equal(t, 1, cfg.Parallelism)
	assert.Equal(t, []string{"Ga", "Gb"}, cfg.Species())
	assert.Equal(t, Genome{Prefix: "Ga", TAD: "ga.tad.txt", FASTA: "ga.fa.gz"}, cfg.Genomes[0])
	assert.False(t, cfg.SkipPrepare)

	r := cfg.Tools.Runner()
	assert.Equal(t, "/opt/blast/bin/blastn", r.Blastn)
	assert.Equal(t, "", r.Mcl)
	assert.Equal(t, 1e-5, r.Evalue)
	assert.Equal(t, 4, r.Threads)

	os.Setenv("TADORTHO_TEST_WORKDIR", "/data/run1")
	defer os.Unsetenv("TADORTHO_TEST_WORKDIR")
	cfg, err = ParseConfig([]byte(runFile + "distance: 0\nparallelism: 3\n"))
	require.NoError(t, err)
	assert.Equal(t, "/data/run1", cfg.WorkDir)
	assert.Equal(t, 0, cfg.FlankDistance())
	assert.Equal(t, 3, cfg.Parallelism)
}

func TestConfigValidate(t *testing.T) {
	genomes := func() []Genome {
		return []Genome{{"A", "a.tad", "a.fa"}, {"B", "b.tad", "b.fa"}}
	}
	negative := -1
	for _, test := range []struct {
		name   string
		modify func(c *Config)
	}{
		{"negative distance", func(c *Config) { c.Distance = &negative }},
		{"one genome", func(c *Config) { c.Genomes = c.Genomes[:1] }},
		{"empty prefix", func(c *Config) { c.Genomes[0].Prefix = "" }},
		{"underscore in prefix", func(c *Config) { c.Genomes[0].Prefix = "A_1" }},
		{"repeated prefix", func(c *Config) { c.Genomes[1].Prefix = "A" }},
		{"missing tad", func(c *Config) { c.Genomes[1].TAD = "" }},
		{"missing genome", func(c *Config) { c.Genomes[1].FASTA = "" }},
		{"negative evalue", func(c *Config) { c.Tools.Evalue = -1 }},
	} {
		t.Run(test.name, func(t *testing.T) {
			c := &Config{Genomes: genomes()}
			c.ApplyDefaults()
			require.NoError(t, c.Validate())
			test.modify(c)
			err := c.Validate()
			assert.True(t, errors.Is(errors.Invalid, err), "%v", err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	ctx := context.Background()
	tmpdir, cleanup := testutil.TempDir(t, "", "config")
	defer cleanup()

	path := filepath.Join(tmpdir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(runFile), 0644))
	cfg, err := LoadConfig(ctx, path)
	require.NoError(t, err)
	assert.Len(t, cfg.Genomes, 2)

	_, err = LoadConfig(ctx, filepath.Join(tmpdir, "missing.yaml"))
	assert.True(t, errors.Is(errors.NotExist, err), "%v", err)

	require.NoError(t, os.WriteFile(path, []byte("genomes: [unterminated"), 0644))
	_, err = LoadConfig(ctx, path)
	assert.True(t, errors.Is(errors.Invalid, err), "%v", err)
}
