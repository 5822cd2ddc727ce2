// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package seq

import (
	"fmt"
	"sort"
)

// Assembly is the set of contig groups produced by one assembler for one
// sample.
type Assembly struct {
	Assembler    string
	AssemblyDir  string // relative to the sample directory
	GFA          string // relative to AssemblyDir
	Plot         string // relative to AssemblyDir; an assembly-graph rendering, if any
	ContigGroups []*ContigGroup
}

// NewAssembly builds an empty Assembly for the named assembler.
func NewAssembly(assembler, assemblyDir string) *Assembly {
	return &Assembly{Assembler: assembler, AssemblyDir: assemblyDir}
}

// Len is the total length of all contig groups.
func (a *Assembly) Len() int {
	n := 0
	for _, g := range a.ContigGroups {
		n += g.Len()
	}
	return n
}

// HasContig reports whether id names a contig present in some group.
func (a *Assembly) HasContig(id string) bool {
	for _, g := range a.ContigGroups {
		for _, c := range g.Contigs {
			if c.ID() == id {
				return true
			}
		}
	}
	return false
}

// Sort orders each group's contigs and then the groups themselves, both
// by descending length. It must be called once construction is done;
// ContigGroup.ID and hence every downstream id depends on this order.
func (a *Assembly) Sort() {
	for _, g := range a.ContigGroups {
		g.Sort()
	}
	sort.SliceStable(a.ContigGroups, func(i, j int) bool {
		return a.ContigGroups[i].Len() > a.ContigGroups[j].Len()
	})
}

// GC returns the total number of G and C bases in the assembly.
func (a *Assembly) GC() int {
	n := 0
	for _, g := range a.ContigGroups {
		n += g.GCAbs()
	}
	return n
}

// GCContent returns the fraction of bases that are G or C.
func (a *Assembly) GCContent() float64 {
	l := a.Len()
	if l == 0 {
		return 0
	}
	return float64(a.GC()) / float64(l)
}

// String renders a short human-readable summary.
func (a *Assembly) String() string {
	return fmt.Sprintf("<Assembly: %s %s %d contig groups>", a.Assembler, humanBP(a.Len()), len(a.ContigGroups))
}
