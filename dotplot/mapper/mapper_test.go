// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mapper

import (
	"bytes"
	"testing"
)

func TestParsePAFSwapsQueryOnReverseStrand(t *testing.T) {
	paf := "qry1\t1000\t100\t500\t-\tref1\t1000\t200\t600\t380\t400\t60\ttp:A:P\n"
	recs, err := ParsePAF(bytes.NewReader([]byte(paf)))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	r := recs[0]
	if r.QueryStart != 500 || r.QueryEnd != 100 {
		t.Errorf("reverse-strand record: QueryStart/End = %d/%d, want 500/100 (swapped)", r.QueryStart, r.QueryEnd)
	}
	if r.TargetStart != 200 || r.TargetEnd != 600 {
		t.Errorf("TargetStart/End = %d/%d, want 200/600 (unswapped)", r.TargetStart, r.TargetEnd)
	}
	if !r.Primary {
		t.Error("tp:A:P record should be Primary")
	}
}

func TestParsePAFMarksSecondary(t *testing.T) {
	paf := "qry1\t1000\t0\t400\t+\tref1\t1000\t0\t400\t390\t400\t0\ttp:A:S\n"
	recs, err := ParsePAF(bytes.NewReader([]byte(paf)))
	if err != nil {
		t.Fatal(err)
	}
	if recs[0].Primary {
		t.Error("tp:A:S record should not be Primary")
	}
}

func TestParsePAFRejectsShortLine(t *testing.T) {
	_, err := ParsePAF(bytes.NewReader([]byte("too\tfew\tfields\n")))
	if err == nil {
		t.Fatal("expected error for malformed PAF line")
	}
}

func TestCullContainedRemovesLowerMapQContained(t *testing.T) {
	recs := []Record{
		{TargetStart: 0, TargetEnd: 1000, QueryStart: 0, QueryEnd: 1000, MapQ: 60, Strand: '+'},
		{TargetStart: 100, TargetEnd: 200, QueryStart: 100, QueryEnd: 200, MapQ: 10, Strand: '+'},
	}
	out := cullContained(recs)
	if len(out) != 1 {
		t.Fatalf("got %d alignments after culling, want 1", len(out))
	}
	if out[0].RefStart != 0 || out[0].RefEnd != 1000 {
		t.Errorf("surviving alignment = %+v, want the containing one", out[0])
	}
}

func TestCullContainedKeepsDisjointAlignments(t *testing.T) {
	recs := []Record{
		{TargetStart: 0, TargetEnd: 100, QueryStart: 0, QueryEnd: 100, MapQ: 60, Strand: '+'},
		{TargetStart: 500, TargetEnd: 600, QueryStart: 500, QueryEnd: 600, MapQ: 60, Strand: '+'},
	}
	out := cullContained(recs)
	if len(out) != 2 {
		t.Fatalf("got %d alignments, want 2 disjoint alignments kept", len(out))
	}
}
