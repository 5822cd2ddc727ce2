// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package seq

import "testing"

func mustContig(t *testing.T, assembler, header, sequence string) Contig {
	t.Helper()
	c, err := NewContig(assembler, header, sequence)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestContigGroupIDAndSort(t *testing.T) {
	short := mustContig(t, "flye", "contig_2", "ATGC")
	long := mustContig(t, "flye", "contig_1", "ATGCATGCATGC")
	g := NewContigGroup([]Contig{short, long})
	g.Sort()
	if g.Contigs[0].OriginalID != "contig_1" {
		t.Fatalf("Sort(): first contig = %s, want contig_1", g.Contigs[0].OriginalID)
	}
	if got, want := g.ID(), "flye#contig_1+1"; got != want {
		t.Errorf("ID() = %q, want %q", got, want)
	}

	g2 := NewContigGroup([]Contig{short, long, mustContig(t, "flye", "contig_3", "AT")})
	g2.Sort()
	if got, want := g2.ID(), "flye#contig_1+2"; got != want {
		t.Errorf("ID() with 3 contigs = %q, want %q", got, want)
	}
}

func TestContigGroupLenAndGC(t *testing.T) {
	a := mustContig(t, "flye", "c1", "GGGG")
	b := mustContig(t, "flye", "c2", "AATT")
	g := NewContigGroup([]Contig{a, b})
	if got, want := g.Len(), 8; got != want {
		t.Errorf("Len() = %d, want %d", got, want)
	}
	if got, want := g.GCAbs(), 4; got != want {
		t.Errorf("GCAbs() = %d, want %d", got, want)
	}
	if got, want := g.GCRel(), 0.5; got != want {
		t.Errorf("GCRel() = %v, want %v", got, want)
	}
}

func TestContigGroupJSONRoundTrip(t *testing.T) {
	a := mustContig(t, "flye", "c2", "GGGGCCCC")
	b := mustContig(t, "flye", "c1", "AATTAATTAATT")
	g := NewContigGroup([]Contig{a, b})
	g.Sort()
	clusterID := 3
	g.ClusterID = &clusterID
	g.SetClusterColor([3]float64{1, 0, 0})

	j := g.ToJSON(true)
	g2 := GroupFromJSON(j)

	if g2.ID() != g.ID() {
		t.Errorf("round trip ID mismatch: got %q, want %q", g2.ID(), g.ID())
	}
	if g2.Len() != g.Len() {
		t.Errorf("round trip Len mismatch: got %d, want %d", g2.Len(), g.Len())
	}
	if g2.ClusterID == nil || *g2.ClusterID != clusterID {
		t.Errorf("round trip ClusterID mismatch: got %v, want %d", g2.ClusterID, clusterID)
	}
	if len(g2.Contigs) != len(g.Contigs) {
		t.Fatalf("round trip contig count mismatch: got %d, want %d", len(g2.Contigs), len(g.Contigs))
	}
}
