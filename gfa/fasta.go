// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gfa reads the two file formats an assembler importer consumes:
// FASTA contig sequences and the GFA assembly graph that connects them.
package gfa

import (
	"fmt"
	"io"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"

	"github.com/kortschak/curate/seq"
)

// ReadFASTA streams r as FASTA and builds one seq.Contig per record,
// keyed by its original id (see seq.NewContig for the id grammar). It
// rejects an empty input and any record containing characters outside
// {A,T,C,G}.
func ReadFASTA(r io.Reader, assembler string) (map[string]seq.Contig, error) {
	sc := seqio.NewScanner(fasta.NewReader(r, linear.NewSeq("", nil, alphabet.DNAredundant)))
	contigs := make(map[string]seq.Contig)
	n := 0
	for sc.Next() {
		s := sc.Seq().(*linear.Seq)
		n++
		header := s.ID
		if s.Desc != "" {
			header += " " + s.Desc
		}
		sequence := lettersToString(s.Seq)
		contig, err := seq.NewContig(assembler, header, sequence)
		if err != nil {
			return nil, fmt.Errorf("gfa: %w", err)
		}
		if _, dup := contigs[contig.OriginalID]; dup {
			return nil, fmt.Errorf("gfa: non-unique sequence id in input: %q", contig.OriginalID)
		}
		contigs[contig.OriginalID] = contig
	}
	if err := sc.Error(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("gfa: error during sequence read: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("gfa: FASTA input is empty")
	}
	return contigs, nil
}

func lettersToString(letters alphabet.Letters) string {
	var b strings.Builder
	b.Grow(len(letters))
	for _, l := range letters {
		b.WriteByte(byte(l))
	}
	return b.String()
}
