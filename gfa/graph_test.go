// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gfa

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestReadGFALinksAndPaths(t *testing.T) {
	input := strings.Join([]string{
		"H\tVN:Z:1.0",
		"S\tcontig_1\t*",
		"S\tcontig_2\t*",
		"L\tcontig_1\t+\tcontig_2\t+\t0M",
		"P\tpath_1\tcontig_2+,contig_3-\t*",
		"# a comment",
	}, "\n")

	g, err := ReadGFA(strings.NewReader(input), nil)
	if err != nil {
		t.Fatal(err)
	}

	if !g.Has("contig_1") || !g.Has("contig_2") || !g.Has("contig_3") {
		t.Fatalf("expected contig_1, contig_2 and contig_3 present, got segments %v", g.Segments())
	}

	nb := g.Neighbours("contig_1")
	if len(nb) != 1 || nb[0] != "contig_2" {
		t.Errorf("Neighbours(contig_1) = %v, want [contig_2]", nb)
	}

	pathNb := g.Neighbours("path_1")
	if len(pathNb) != 2 || pathNb[0] != "contig_2" || pathNb[1] != "contig_3" {
		t.Errorf("Neighbours(path_1) = %v, want [contig_2 contig_3]", pathNb)
	}
}

func TestReadGFASelfEdgeMarksCircular(t *testing.T) {
	input := "L\tcontig_1\t+\tcontig_1\t+\t0M\n"
	g, err := ReadGFA(strings.NewReader(input), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !g.IsCircular("contig_1") {
		t.Error("IsCircular(contig_1) = false, want true after self-edge")
	}
}

func TestReadGFAUnknownRecordLogsWarningNotFatal(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	input := "X\tsome\tunknown\trecord\nS\tcontig_1\t*\n"
	g, err := ReadGFA(strings.NewReader(input), logger)
	if err != nil {
		t.Fatalf("unknown record type should not be fatal: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("expected a warning to be logged for the unknown record type")
	}
	if g.Has("contig_1") {
		t.Error("S lines should be ignored, not registered as segments")
	}
}

func TestGraphDOT(t *testing.T) {
	input := "L\tcontig_1\t+\tcontig_2\t+\t0M\n"
	g, err := ReadGFA(strings.NewReader(input), nil)
	if err != nil {
		t.Fatal(err)
	}
	out, err := g.DOT()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(out, []byte("contig_1")) || !bytes.Contains(out, []byte("contig_2")) {
		t.Errorf("DOT output missing node names: %s", out)
	}
}
