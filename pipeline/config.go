// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pipeline

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/tadortho/tad"
	"github.com/grailbio/tadortho/tools"
	"gopkg.in/yaml.v3"
)

// DefaultDistance is the flank distance used when a run file does not set
// one.
const DefaultDistance = 40000

// Config describes a whole pipeline run.  It is usually loaded from a YAML
// run file by LoadConfig.
type Config struct {
	// WorkDir holds the Step1, Step2, Step3 and Result directories.
	WorkDir string `yaml:"workdir"`
	// Distance is the flank distance.  Nil selects DefaultDistance; zero is
	// allowed.
	Distance *int `yaml:"distance"`
	// Genomes lists the input genomes.  Their order is the species order of
	// the result tables.
	Genomes []Genome `yaml:"genomes"`
	Tools   Tools    `yaml:"tools"`
	// Parallelism bounds the number of genomes extracted, and genome pairs
	// aligned, at the same time.
	Parallelism int `yaml:"parallelism"`
	// SkipPrepare reuses existing prefixed genome copies in Step1.
	SkipPrepare bool `yaml:"skip_prepare"`
	// Sketch runs "mash sketch" on every prefixed genome.
	Sketch bool `yaml:"sketch"`
}

// Genome is one input genome.
type Genome struct {
	// Prefix names the genome.  It must not contain '_', so that it can be
	// recovered from boundary names.
	Prefix string `yaml:"prefix"`
	// TAD is the path of the domain table.
	TAD string `yaml:"tad"`
	// FASTA is the path of the genome sequence.
	FASTA string `yaml:"genome"`
}

// Tools configures the external programs.
type Tools struct {
	Blastn  string  `yaml:"blastn"`
	Mcl     string  `yaml:"mcl"`
	Mash    string  `yaml:"mash"`
	Evalue  float64 `yaml:"evalue"`
	Threads int     `yaml:"threads"`
}

// Runner returns a tools.Runner for the configured programs.
func (t Tools) Runner() tools.Runner {
	return tools.Runner{
		Blastn:  t.Blastn,
		Mcl:     t.Mcl,
		Mash:    t.Mash,
		Evalue:  t.Evalue,
		Threads: t.Threads,
	}
}

// FlankDistance returns the configured flank distance.
func (c *Config) FlankDistance() int {
	if c.Distance == nil {
		return DefaultDistance
	}
	return *c.Distance
}

// Species returns the genome prefixes in configuration order.
func (c *Config) Species() []string {
	species := make([]string, len(c.Genomes))
	for i, g := range c.Genomes {
		species[i] = g.Prefix
	}
	return species
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.WorkDir == "" {
		c.WorkDir = "out"
	}
	if c.Distance == nil {
		d := DefaultDistance
		c.Distance = &d
	}
	if c.Parallelism <= 0 {
		c.Parallelism = 1
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.FlankDistance() < 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("distance must not be negative, got %d", c.FlankDistance()))
	}
	if len(c.Genomes) < 2 {
		return errors.E(errors.Invalid, fmt.Sprintf("at least two genomes are required, got %d", len(c.Genomes)))
	}
	seen := map[string]bool{}
	for i, g := range c.Genomes {
		if !tad.ValidPrefix(g.Prefix) {
			return errors.E(errors.Invalid, fmt.Sprintf("genomes[%d].prefix %q must be nonempty and must not contain '_' or spaces", i, g.Prefix))
		}
		if seen[g.Prefix] {
			return errors.E(errors.Invalid, fmt.Sprintf("genomes[%d].prefix %q is used twice", i, g.Prefix))
		}
		seen[g.Prefix] = true
		if g.TAD == "" {
			return errors.E(errors.Invalid, fmt.Sprintf("genomes[%d].tad is required", i))
		}
		if g.FASTA == "" {
			return errors.E(errors.Invalid, fmt.Sprintf("genomes[%d].genome is required", i))
		}
	}
	if c.Tools.Evalue < 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("tools.evalue must not be negative, got %g", c.Tools.Evalue))
	}
	return nil
}

// ParseConfig parses a YAML run file.  References of the form ${VAR} and
// ${VAR:-default} are replaced with environment variables before parsing.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(expandEnvVars(data), &cfg); err != nil {
		return nil, errors.E(errors.Invalid, err, "parse run file")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.E(err, "invalid run file")
	}
	return &cfg, nil
}

// LoadConfig reads and parses the run file at path.
func LoadConfig(ctx context.Context, path string) (*Config, error) {
	data, err := file.ReadFile(ctx, path)
	if err != nil {
		return nil, errors.E(err, "read run file", path)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, errors.E(err, path)
	}
	return cfg, nil
}

var envVarRE = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRE.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		name, def, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(name)
		if val == "" && hasDefault {
			val = def
		}
		return []byte(val)
	})
}
