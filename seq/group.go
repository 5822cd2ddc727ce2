// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package seq

import (
	"fmt"
	"sort"
)

// ContigGroup is a set of contigs that the assembly graph connects,
// typically corresponding to one replicon (chromosome or plasmid).
type ContigGroup struct {
	Contigs []Contig

	ClusterID       *int
	ClusterColor    *[3]float64
	clusterColorRGB string

	lenOverride *int
}

// NewContigGroup builds a group from contigs in the order given; call
// Sort to put them in canonical (descending-length) order.
func NewContigGroup(contigs []Contig) *ContigGroup {
	return &ContigGroup{Contigs: contigs}
}

// ID is `<assembler>#<first-contig.original_id>[+<n-1>]`.
func (g *ContigGroup) ID() string {
	if len(g.Contigs) == 0 {
		return ""
	}
	id := fmt.Sprintf("%s#%s", g.Assembler(), g.Contigs[0].OriginalID)
	if n := len(g.Contigs); n > 1 {
		id += fmt.Sprintf("+%d", n-1)
	}
	return id
}

// Assembler is inherited from the first contig; all contigs in a group
// must share the same assembler (enforced by the importer framework).
func (g *ContigGroup) Assembler() string {
	if len(g.Contigs) == 0 {
		return ""
	}
	return g.Contigs[0].Assembler
}

// Len is the total length of all member contigs.
func (g *ContigGroup) Len() int {
	if g.lenOverride != nil {
		return *g.lenOverride
	}
	n := 0
	for _, c := range g.Contigs {
		n += c.Len()
	}
	return n
}

// GCAbs is the total number of G and C bases across all member contigs.
func (g *ContigGroup) GCAbs() int {
	n := 0
	for _, c := range g.Contigs {
		n += c.GCAbs()
	}
	return n
}

// GCRel is the fraction of bases that are G or C across the group.
func (g *ContigGroup) GCRel() float64 {
	l := g.Len()
	if l == 0 {
		return 0
	}
	return float64(g.GCAbs()) / float64(l)
}

// Sort orders member contigs by descending length. It must be called
// after the group is fully populated and before ID-dependent output is
// produced, since ID depends on Contigs[0].
func (g *ContigGroup) Sort() {
	sort.SliceStable(g.Contigs, func(i, j int) bool {
		return g.Contigs[i].Len() > g.Contigs[j].Len()
	})
}

// SetClusterColor records the categorical colour assigned to this
// group's cluster by the ANI engine.
func (g *ContigGroup) SetClusterColor(rgb [3]float64) {
	g.ClusterColor = &rgb
	g.clusterColorRGB = rgbToCSS(rgb)
}

// TopologyOrNContigs summarises the group for diagonal dotplot/matrix
// cells: the sole contig's topology if there is one contig, otherwise a
// contig count.
func (g *ContigGroup) TopologyOrNContigs(short bool) string {
	if len(g.Contigs) == 1 {
		t := g.Contigs[0].Topology
		if short {
			if t == "" {
				return "?"
			}
			return string(t)[:1]
		}
		return string(t)
	}
	if short {
		return fmt.Sprintf("n=%d", len(g.Contigs))
	}
	return fmt.Sprintf("%d contigs", len(g.Contigs))
}

// EncodeSequences returns the raw ASCII bytes of each member contig's
// sequence, in the format the ANI sketcher expects.
func (g *ContigGroup) EncodeSequences() [][]byte {
	out := make([][]byte, len(g.Contigs))
	for i, c := range g.Contigs {
		out[i] = []byte(c.Sequence)
	}
	return out
}

// String renders a short human-readable summary.
func (g *ContigGroup) String() string {
	return fmt.Sprintf("<ContigGroup: %s:%s %s>", g.Assembler(), g.ID(), humanBP(g.Len()))
}
