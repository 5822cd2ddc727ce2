// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dotplot

import (
	"github.com/kortschak/curate/seq"
)

// Cell is one pairwise panel of a cluster's dotplot grid, in group
// index coordinates (i, j). The diagonal (i == j) is a self-comparison.
// An off-diagonal lower-triangle cell (i > j) is never independently
// aligned: it reuses the alignments computed for its upper-triangle
// mirror (j, i) with axes swapped, the same way the source this was
// ported from rotates one image for both panels instead of aligning
// twice.
type Cell struct {
	I, J       int
	Alignments []Alignment
	RefLen     int // length of group I's sequence, the cell's x axis
	QryLen     int // length of group J's sequence, the cell's y axis
}

// SkippedCell is a pair the caller chose not to align (see Build's
// skip parameter), recorded so the renderer can draw an explicit
// placeholder rather than leaving the panel empty.
type SkippedCell struct {
	I, J           int
	RefLen, QryLen int
}

// Grid is the full triangular set of panels for one ANI cluster.
type Grid struct {
	Groups  []*seq.ContigGroup
	Cells   []Cell
	Skipped []SkippedCell
}

// Build aligns every group pair in the upper triangle (i <= j) with
// backend and mirrors each off-diagonal result into the lower
// triangle. skip identifies pairs (keyed by [2]int{i, j} with i <= j)
// the caller has already decided not to align — the large-pair guard
// that keeps a quadratic kmer backend or a slow mapper invocation from
// running on an oversized pair is the orchestrator's decision, made
// before this call, not the engine's; see pipeline.tooLargePairs. A
// skipped pair is recorded in Skipped, both upper- and lower-triangle
// orientations, instead of being silently omitted.
func Build(groups []*seq.ContigGroup, backend Backend, skip map[[2]int]bool) (*Grid, error) {
	g := &Grid{Groups: groups}
	n := len(groups)
	for i := 0; i < n; i++ {
		seqI := groups[i].EncodeSequences()
		lenI := groups[i].Len()
		for j := i; j < n; j++ {
			lenJ := groups[j].Len()
			if skip[[2]int{i, j}] {
				g.Skipped = append(g.Skipped, SkippedCell{I: i, J: j, RefLen: lenI, QryLen: lenJ})
				if i != j {
					g.Skipped = append(g.Skipped, SkippedCell{I: j, J: i, RefLen: lenJ, QryLen: lenI})
				}
				continue
			}

			seqJ := groups[j].EncodeSequences()
			aligns, err := backend.Align(seqI, seqJ)
			if err != nil {
				return nil, err
			}
			g.Cells = append(g.Cells, Cell{I: i, J: j, Alignments: aligns, RefLen: lenI, QryLen: lenJ})
			if i != j {
				g.Cells = append(g.Cells, Cell{I: j, J: i, Alignments: mirror(aligns), RefLen: lenJ, QryLen: lenI})
			}
		}
	}
	return g, nil
}

// mirror swaps ref and qry axes on every alignment, the coordinate
// transform equivalent of rotating the upper-triangle panel image for
// reuse in the lower triangle.
func mirror(aligns []Alignment) []Alignment {
	out := make([]Alignment, len(aligns))
	for i, a := range aligns {
		out[i] = Alignment{
			RefStart: a.QryStart, RefEnd: a.QryEnd,
			QryStart: a.RefStart, QryEnd: a.RefEnd,
			Strand: a.Strand, Primary: a.Primary, PointLike: a.PointLike,
		}
	}
	return out
}
