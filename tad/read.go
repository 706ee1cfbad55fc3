// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package tad

import (
	"bufio"
	"context"
	"io"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/klauspost/compress/gzip"
)

// getTokens identifies up to the first len(tokens) tokens from curLine,
// returning the number of tokens saved.  Any (group of) characters <= ' ' is
// treated as a delimiter.
func getTokens(tokens [][]byte, curLine []byte) int {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if curLine[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			return tokenIdx
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if curLine[posEnd] <= ' ' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens)
}

// ReadDomains parses a headerless domain table: one domain per line, exactly
// three whitespace-separated columns (chromosome, start, end).  Blank lines are
// skipped.  Coordinates must satisfy 0 <= start <= end.
func ReadDomains(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	// One spare slot detects extra columns.
	var tokens [4][]byte
	var records []Record
	lineIdx := 0
	for scanner.Scan() {
		lineIdx++
		nToken := getTokens(tokens[:], scanner.Bytes())
		if nToken == 0 {
			continue
		}
		if nToken != 3 {
			return nil, errors.E(errors.Invalid, "tad.ReadDomains: line", strconv.Itoa(lineIdx),
				"has", strconv.Itoa(nToken), "columns, expected 3")
		}
		start, err := strconv.Atoi(gunsafe.BytesToString(tokens[1]))
		if err != nil {
			return nil, errors.E(errors.Invalid, err, "tad.ReadDomains: bad start on line", strconv.Itoa(lineIdx))
		}
		end, err := strconv.Atoi(gunsafe.BytesToString(tokens[2]))
		if err != nil {
			return nil, errors.E(errors.Invalid, err, "tad.ReadDomains: bad end on line", strconv.Itoa(lineIdx))
		}
		if start < 0 || end < start {
			return nil, errors.E(errors.Invalid, "tad.ReadDomains: invalid coordinate pair on line", strconv.Itoa(lineIdx))
		}
		// tokens[0] points into the scanner's buffer, so it must be copied.
		records = append(records, Record{Chrom: string(tokens[0]), Start: start, End: end, Line: lineIdx})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.E(err, "tad.ReadDomains")
	}
	return records, nil
}

// ReadDomainsFromPath is a wrapper for ReadDomains that takes a path instead
// of an io.Reader.  Gzipped files are decompressed.
func ReadDomainsFromPath(ctx context.Context, path string) (records []Record, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		if errors.Is(errors.NotExist, err) {
			return nil, errors.E(errors.NotExist, err, "domain file", path)
		}
		return nil, errors.E(err, "domain file", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	reader := io.Reader(in.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		gz, gerr := gzip.NewReader(reader)
		if gerr != nil {
			return nil, errors.E(errors.Invalid, gerr, "domain file", path)
		}
		defer gz.Close()
		reader = gz
	}
	if records, err = ReadDomains(reader); err != nil {
		return nil, errors.E(err, path)
	}
	return records, nil
}
