// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

/*
bio-tadortho finds orthologous TAD boundaries across several genomes.

For every genome, the edges of its topologically associating domains are
widened by a flank distance and merged into boundary regions, whose sequences
are aligned against the boundaries of every other genome with blastn.  The
best score of each boundary pair becomes an edge of a similarity network that
is clustered with mcl.  Clusters of two or more boundaries are reported as
ortholog groups; every other boundary is reported as unassigned.

Sample usage:

	bio-tadortho run run.yaml

or step by step:

	bio-tadortho boundary -prefix Hs -tad hs.tad.txt -genome hs.fa.gz -workdir out
	bio-tadortho boundary -prefix Mm -tad mm.tad.txt -genome mm.fa.gz -workdir out
	bio-tadortho align -workdir out -parallelism 4
	bio-tadortho network -workdir out

Results are written to out/Result: TAD_groups.tsv lists the members of each
group per genome, TAD_groups_count.tsv their counts, and Unassignd_TAD.tsv the
boundaries outside of any group.
*/
package main
