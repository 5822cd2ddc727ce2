// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package seq

import (
	"encoding/json"
	"testing"
)

func TestNewContigParsesOriginalID(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"contig_1", "contig_1"},
		{"lcl|contig_1 some description", "contig_1"},
		{"gnl|db|edge_7 extra tokens here", "edge_7"},
	}
	for _, c := range cases {
		contig, err := NewContig("flye", c.header, "ATGC")
		if err != nil {
			t.Fatalf("NewContig(%q): %v", c.header, err)
		}
		if contig.OriginalID != c.want {
			t.Errorf("NewContig(%q).OriginalID = %q, want %q", c.header, contig.OriginalID, c.want)
		}
	}
}

func TestNewContigRejectsInvalidAlphabet(t *testing.T) {
	_, err := NewContig("flye", "contig_1", "ATGCN")
	if err == nil {
		t.Fatal("NewContig with N in sequence: want error, got nil")
	}
}

func TestNewContigRejectsEmptySequence(t *testing.T) {
	_, err := NewContig("flye", "contig_1", "")
	if err == nil {
		t.Fatal("NewContig with empty sequence: want error, got nil")
	}
}

func TestContigInvariants(t *testing.T) {
	contig, err := NewContig("flye", "contig_1", "AAATTTGGGGCC")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := contig.GCAbs(), contig.ATGC.G+contig.ATGC.C; got != want {
		t.Errorf("GCAbs() = %d, want %d", got, want)
	}
	if contig.GCAbs() > contig.Len() {
		t.Errorf("GCAbs() = %d > Len() = %d", contig.GCAbs(), contig.Len())
	}
	if got, want := contig.ATGC.Sum(), contig.Len(); got != want {
		t.Errorf("ATGC.Sum() = %d, want Len() = %d", got, want)
	}
}

func TestATGCCountOrientationInvariant(t *testing.T) {
	// A sequence and its reverse complement must normalise to the same
	// ATGC count.
	fwd, err := NewContig("flye", "a", "AAATTTGGGCCC")
	if err != nil {
		t.Fatal(err)
	}
	rev, err := NewContig("flye", "b", "GGGCCCAAATTT") // reverse complement of fwd's sequence, ignoring order
	if err != nil {
		t.Fatal(err)
	}
	// invariant() is applied to raw counts directly; reverseComplement of
	// fwd's raw count must invariant() to the same value as fwd's count.
	got := fwd.ATGC
	rc := ATGCCount{A: got.T, T: got.A, G: got.C, C: got.G}
	if rc.invariant() != got.invariant() {
		t.Errorf("invariant() not orientation-invariant: %+v vs %+v", rc.invariant(), got.invariant())
	}
	_ = rev
}

func TestContigHeaderGrammar(t *testing.T) {
	cov := 42
	c := Contig{
		Assembler:  "flye",
		OriginalID: "contig_1",
		Sequence:   "ATGC",
		Topology:   Circular,
		Location:   Plasmid,
		Coverage:   &cov,
	}
	header, err := c.Header("scf0", "pMyPlasmid")
	if err != nil {
		t.Fatal(err)
	}
	want := ">scf0 [length=4] [topology=circular] [completeness=complete] [location=plasmid] [plasmid-name=pMyPlasmid] [coverage=42x] [assembler=flye] [old-id=contig_1]"
	if header != want {
		t.Errorf("Header() =\n%q\nwant\n%q", header, want)
	}
}

func TestContigHeaderRequiresPlasmidName(t *testing.T) {
	c := Contig{Assembler: "flye", OriginalID: "c1", Sequence: "ATGC", Location: Plasmid}
	if _, err := c.Header("scf0", ""); err == nil {
		t.Fatal("Header() with Location=Plasmid and no plasmid name: want error, got nil")
	}
}

func TestContigJSONRoundTrip(t *testing.T) {
	cov := 10
	c := Contig{
		Assembler:      "flye",
		OriginalID:     "contig_1",
		Sequence:       "ATGCATGC",
		ATGC:           ATGCCount{A: 2, T: 2, G: 2, C: 2},
		Topology:       Circular,
		Location:       Chromosome,
		Coverage:       &cov,
		AdditionalInfo: []string{"extra=1"},
	}
	clusterID := 1
	color := [3]float64{0.1, 0.2, 0.3}
	j := c.ToJSON(true, "flye#contig_1", &clusterID, &color)

	raw, err := json.Marshal(j)
	if err != nil {
		t.Fatal(err)
	}
	var j2 ContigJSON
	if err := json.Unmarshal(raw, &j2); err != nil {
		t.Fatal(err)
	}
	got := ContigFromJSON(j2)
	if got.ID() != c.ID() || got.Len() != c.Len() || got.Topology != c.Topology || got.Location != c.Location {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, c)
	}
	if got.Sequence != c.Sequence {
		t.Errorf("round trip sequence mismatch: got %q, want %q", got.Sequence, c.Sequence)
	}
}

func TestQualityFlagsNoCoverage(t *testing.T) {
	c, err := NewContig("flye", "contig_1", "ATGCATGCATGC")
	if err != nil {
		t.Fatal(err)
	}
	flags := c.QualityFlags()
	if len(flags) != 1 || flags[0] != c.ID()+": no coverage reported" {
		t.Errorf("QualityFlags() = %v, want a single no-coverage flag", flags)
	}
}

func TestQualityFlagsLowCoverage(t *testing.T) {
	c, err := NewContig("flye", "contig_1", "ATGCATGCATGC")
	if err != nil {
		t.Fatal(err)
	}
	low := 20
	c.Coverage = &low
	flags := c.QualityFlags()
	if len(flags) != 1 || flags[0] != c.ID()+": coverage 20x below 30x" {
		t.Errorf("QualityFlags() = %v, want a single below-30x flag", flags)
	}
}

func TestQualityFlagsHealthyContigHasNoFlags(t *testing.T) {
	c, err := NewContig("flye", "contig_1", "ATGCATGCATGC")
	if err != nil {
		t.Fatal(err)
	}
	cov := 60
	c.Coverage = &cov
	if flags := c.QualityFlags(); len(flags) != 0 {
		t.Errorf("QualityFlags() = %v, want none for healthy contig", flags)
	}
}

func TestQualityFlagsLowBaseFraction(t *testing.T) {
	// 100 bases, only 1 C: below the 2% threshold.
	seq := "A" + repeat("T", 98) + "C"
	c, err := NewContig("flye", "contig_1", seq)
	if err != nil {
		t.Fatal(err)
	}
	cov := 60
	c.Coverage = &cov
	flags := c.QualityFlags()
	if len(flags) != 1 || flags[0] != c.ID()+": a base makes up less than 2% of the sequence" {
		t.Errorf("QualityFlags() = %v, want a single low-base-fraction flag", flags)
	}
}

func repeat(s string, n int) string {
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}
