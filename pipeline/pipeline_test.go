// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/tadortho/encoding/fasta"
	"github.com/grailbio/tadortho/ortho"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chr1 = "ACGTTGCAAGGCTTACCGATGCATGCTAGCTAGGCTAGCTTTAGGCATCGATCGGATCGA"

// fakeTools aligns by exact sequence identity and clusters by connected
// components.
type fakeTools struct {
	mu       sync.Mutex
	sketched []string
	aligned  []string
	failOn   string
}

func (f *fakeTools) Sketch(ctx context.Context, path string) error {
	f.mu.Lock()
	f.sketched = append(f.sketched, filepath.Base(path))
	f.mu.Unlock()
	return os.WriteFile(path+".msh", nil, 0644)
}

func (f *fakeTools) Align(ctx context.Context, query, subject, out string) error {
	if f.failOn != "" && strings.Contains(query, f.failOn) {
		return errors.E(errors.Unavailable, "blastn: exit status 2: broken")
	}
	q, err := loadFASTA(query)
	if err != nil {
		return err
	}
	s, err := loadFASTA(subject)
	if err != nil {
		return err
	}
	var buf strings.Builder
	for _, qn := range q.SeqNames() {
		qlen, _ := q.Len(qn)
		qseq, _ := q.Get(qn, 0, qlen)
		for _, sn := range s.SeqNames() {
			slen, _ := s.Len(sn)
			sseq, _ := s.Get(sn, 0, slen)
			if qseq == sseq {
				// A weaker second HSP, as blastn reports.
				fmt.Fprintf(&buf, "%s\t%s\t%d\n%s\t%s\t%d.5\n", qn, sn, len(qseq)/2, qn, sn, len(qseq))
			}
		}
	}
	f.mu.Lock()
	f.aligned = append(f.aligned, filepath.Base(out))
	f.mu.Unlock()
	return os.WriteFile(out, []byte(buf.String()), 0644)
}

func loadFASTA(path string) (fasta.Fasta, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return fasta.New(in)
}

func (f *fakeTools) Cluster(ctx context.Context, edges, out string) error {
	data, err := os.ReadFile(edges)
	if err != nil {
		return err
	}
	parent := map[string]string{}
	var find func(string) string
	find = func(x string) string {
		if p, ok := parent[x]; ok && p != x {
			r := find(p)
			parent[x] = r
			return r
		}
		parent[x] = x
		return x
	}
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		cols := strings.Fields(line)
		if len(cols) != 3 {
			return fmt.Errorf("bad edge line %q", line)
		}
		parent[find(cols[0])] = find(cols[1])
	}
	components := map[string][]string{}
	for x := range parent {
		r := find(x)
		components[r] = append(components[r], x)
	}
	var lines []string
	for _, c := range components {
		sort.Strings(c)
		lines = append(lines, strings.Join(c, "\t"))
	}
	sort.Strings(lines)
	return os.WriteFile(out, []byte(strings.Join(lines, "\n")+"\n"), 0644)
}

// wrap splits seq into lines of n bases.
func wrap(seq string, n int) string {
	var b strings.Builder
	for len(seq) > n {
		b.WriteString(seq[:n] + "\n")
		seq = seq[n:]
	}
	b.WriteString(seq + "\n")
	return b.String()
}

func setupRun(t *testing.T, dir string) *Config {
	inputs := filepath.Join(dir, "inputs")
	require.NoError(t, os.MkdirAll(inputs, 0755))
	write := func(name, data string) string {
		path := filepath.Join(inputs, name)
		require.NoError(t, os.WriteFile(path, []byte(data), 0644))
		return path
	}
	distance := 5
	cfg := &Config{
		WorkDir:     filepath.Join(dir, "work"),
		Distance:    &distance,
		Parallelism: 2,
		Sketch:      true,
		Genomes: []Genome{
			{Prefix: "A", TAD: write("a.tad", "chr1\t11\t40\n"), FASTA: write("a.fa", ">chr1 assembled\n"+wrap(chr1, 25))},
			{Prefix: "B", TAD: write("b.tad", "chr1 11 25\n"), FASTA: write("b.fa", ">chr1\n"+wrap(strings.ToLower(chr1), 60))},
			{Prefix: "C", TAD: write("c.tad", "chr1\t40\t60\n"), FASTA: write("c.fa", ">chr1\n"+wrap(chr1, 7))},
		},
	}
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	tmpdir, cleanup := testutil.TempDir(t, "", "pipeline")
	defer cleanup()
	cfg := setupRun(t, tmpdir)
	l := Layout{Dir: cfg.WorkDir}

	// Leftovers of an earlier run must not survive.
	require.NoError(t, l.Mkdirs())
	require.NoError(t, os.WriteFile(l.Edges(), []byte("X_bound_0\tY_bound_0\t99\n"), 0644))

	tools := &fakeTools{}
	a, err := Run(ctx, cfg, tools)
	require.NoError(t, err)

	sort.Strings(tools.sketched)
	assert.Equal(t, []string{"A.genome.fa", "B.genome.fa", "C.genome.fa"}, tools.sketched)
	assert.Len(t, tools.aligned, 6)

	genome, err := os.ReadFile(l.Genome("B"))
	require.NoError(t, err)
	assert.Equal(t, ">B_chr1\n"+chr1+"\n", string(genome))
	_, err = os.Stat(l.Genome("B") + fasta.IndexSuffix)
	assert.NoError(t, err)

	bed, err := os.ReadFile(l.Boundaries("C"))
	require.NoError(t, err)
	assert.Equal(t, "tad_name,chromosome,start,end\nC_bound_0,C_chr1,35,45\nC_bound_1,C_chr1,55,65\n", string(bed))

	seqs, err := os.ReadFile(l.BoundaryFASTA("C"))
	require.NoError(t, err)
	assert.Equal(t, ">C_bound_0 C_chr1:35-45\nTAGCTTTAGG\n>C_bound_1 C_chr1:55-65\nATCGA\n", string(seqs))

	hits, err := os.ReadFile(l.Hits("B", "A"))
	require.NoError(t, err)
	assert.Equal(t, "seq_id\ttad_name\tscore\nB_bound_0\tA_bound_0\t10.5\n", string(hits))
	hits, err = os.ReadFile(l.Hits("B", "C"))
	require.NoError(t, err)
	assert.Equal(t, "seq_id\ttad_name\tscore\n", string(hits))

	edges, err := os.ReadFile(l.Edges())
	require.NoError(t, err)
	assert.Equal(t, "A_bound_0\tB_bound_0\t10.5\nA_bound_1\tC_bound_0\t10.5\n", string(edges))

	require.NoError(t, a.Verify())
	assert.Equal(t, []string{"A", "B", "C"}, a.Species)
	for _, test := range []struct {
		name, want string
	}{
		{ortho.GroupsFile, "\tA\tB\tC\nGroup_1\tA_bound_0\tB_bound_0\t\nGroup_2\tA_bound_1\t\tC_bound_0\n"},
		{ortho.UnassignedFile, "\tA\tB\tC\n1\t\tB_bound_1\t\n2\t\t\tC_bound_1\n"},
		{ortho.CountsFile, "\tA\tB\tC\nGroup_1\t1\t1\t0\nGroup_2\t1\t0\t1\n"},
	} {
		data, err := os.ReadFile(l.Result(test.name))
		require.NoError(t, err)
		assert.Equal(t, test.want, string(data), test.name)
	}

	// Grouping alone reproduces the result from the existing clusters.
	species, err := l.DiscoverSpecies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, species)
	a2, err := AssignGroups(ctx, l, species)
	require.NoError(t, err)
	assert.Equal(t, a.Groups, a2.Groups)
	assert.Equal(t, a.Unassigned, a2.Unassigned)
}

func TestRunSkipPrepare(t *testing.T) {
	ctx := context.Background()
	tmpdir, cleanup := testutil.TempDir(t, "", "pipeline")
	defer cleanup()
	cfg := setupRun(t, tmpdir)
	cfg.SkipPrepare = true
	l := Layout{Dir: cfg.WorkDir}
	require.NoError(t, l.Mkdirs())

	// Only A has a prepared genome.
	require.NoError(t, os.WriteFile(l.Genome("A"), []byte(">A_chr1\n"+chr1+"\n"), 0644))
	err := ExtractBoundaries(ctx, l, cfg.Genomes[0], &fakeTools{}, BoundaryOpts{Distance: 5, SkipPrepare: true})
	require.NoError(t, err)
	_, err = os.Stat(l.Genome("A") + fasta.IndexSuffix)
	assert.NoError(t, err)

	err = ExtractBoundaries(ctx, l, cfg.Genomes[1], &fakeTools{}, BoundaryOpts{Distance: 5, SkipPrepare: true})
	assert.True(t, errors.Is(errors.NotExist, err), "%v", err)
}

func TestRunToolFailure(t *testing.T) {
	ctx := context.Background()
	tmpdir, cleanup := testutil.TempDir(t, "", "pipeline")
	defer cleanup()
	cfg := setupRun(t, tmpdir)
	_, err := Run(ctx, cfg, &fakeTools{failOn: "B.bound"})
	assert.True(t, errors.Is(errors.Unavailable, err), "%v", err)
	_, err = os.Stat(Layout{Dir: cfg.WorkDir}.Result(ortho.GroupsFile))
	assert.True(t, os.IsNotExist(err))
}

func TestRunMissingRegion(t *testing.T) {
	ctx := context.Background()
	tmpdir, cleanup := testutil.TempDir(t, "", "pipeline")
	defer cleanup()
	cfg := setupRun(t, tmpdir)
	// chr2 is not in the genome.
	require.NoError(t, os.WriteFile(cfg.Genomes[0].TAD, []byte("chr1\t11\t40\nchr2\t5\t10\n"), 0644))
	_, err := Run(ctx, cfg, &fakeTools{})
	assert.True(t, errors.Is(errors.NotExist, err), "%v", err)
}

func TestOrderedPairs(t *testing.T) {
	assert.Equal(t, []pair{{"A", "B"}, {"A", "C"}, {"B", "A"}, {"B", "C"}, {"C", "A"}, {"C", "B"}},
		orderedPairs([]string{"A", "B", "C"}))
}

func TestDiscoverSpeciesEmpty(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "pipeline")
	defer cleanup()
	l := Layout{Dir: tmpdir}
	require.NoError(t, l.Mkdirs())
	_, err := l.DiscoverSpecies(context.Background())
	assert.True(t, errors.Is(errors.NotExist, err), "%v", err)
}
