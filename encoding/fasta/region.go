// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package fasta

import (
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/tadortho/interval"
)

// Fetch returns the bases of a samtools-style region string
// ("chr:start-end", 1-based and inclusive) from f.  As with "samtools faidx",
// an end past the end of the sequence is clamped to the sequence length.  A
// sequence that is absent from f, or a region starting past its end, is an
// errors.NotExist error.
func Fetch(f Fasta, region string) (string, error) {
	e, err := interval.ParseRegionString(region)
	if err != nil {
		return "", errors.E(errors.Invalid, err, "fasta.Fetch")
	}
	n, err := f.Len(e.ChrName)
	if err != nil {
		return "", errors.E(errors.NotExist, err, "fasta.Fetch", region)
	}
	start, end := uint64(e.Start0), uint64(e.End)
	if end > n {
		end = n
	}
	if start >= end {
		return "", errors.E(errors.NotExist, "fasta.Fetch: region", region, "starts past the end of", e.ChrName)
	}
	seq, err := f.Get(e.ChrName, start, end)
	if err != nil {
		return "", errors.E(errors.NotExist, err, "fasta.Fetch", region)
	}
	return seq, nil
}

// TrimN removes leading and trailing 'N' bases.
func TrimN(seq string) string {
	return strings.Trim(seq, "N")
}
