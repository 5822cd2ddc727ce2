// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package seq

import "testing"

func TestAssemblySortOrdersGroupsByLength(t *testing.T) {
	small := NewContigGroup([]Contig{mustContig(t, "flye", "c2", "ATGC")})
	big := NewContigGroup([]Contig{mustContig(t, "flye", "c1", "ATGCATGCATGC")})

	a := NewAssembly("flye", "flye")
	a.ContigGroups = []*ContigGroup{small, big}
	a.Sort()

	if a.ContigGroups[0] != big {
		t.Fatalf("Sort(): first group = %v, want the longer group", a.ContigGroups[0])
	}
}

func TestAssemblyHasContigAndNoContigLost(t *testing.T) {
	c1 := mustContig(t, "flye", "c1", "ATGC")
	c2 := mustContig(t, "flye", "c2", "AATT")
	a := NewAssembly("flye", "flye")
	a.ContigGroups = []*ContigGroup{NewContigGroup([]Contig{c1}), NewContigGroup([]Contig{c2})}

	if !a.HasContig(c1.ID()) || !a.HasContig(c2.ID()) {
		t.Fatal("HasContig: expected both contigs to be present")
	}
	if a.HasContig("flye@missing") {
		t.Fatal("HasContig: unexpected contig reported present")
	}
}

func TestAssemblyJSONRoundTrip(t *testing.T) {
	c1 := mustContig(t, "flye", "c1", "ATGCATGC")
	a := NewAssembly("flye", "flye")
	a.ContigGroups = []*ContigGroup{NewContigGroup([]Contig{c1})}
	a.Sort()

	j := a.ToJSON(false)
	a2 := AssemblyFromJSON(j)
	if a2.Len() != a.Len() {
		t.Errorf("round trip Len mismatch: got %d, want %d", a2.Len(), a.Len())
	}
	if len(a2.ContigGroups) != len(a.ContigGroups) {
		t.Fatalf("round trip group count mismatch: got %d, want %d", len(a2.ContigGroups), len(a.ContigGroups))
	}
}
