// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dotplot renders pairwise alignment dotplots for a cluster of
// contig groups, composed into one triangular SVG grid per cluster.
package dotplot

// Alignment is one pairwise hit between a reference and a query
// sequence, in the coordinate space of their concatenated contig
// groups.
type Alignment struct {
	RefStart, RefEnd int
	QryStart, QryEnd int
	Strand           int8 // +1 forward, -1 reverse
	Primary          bool
	// PointLike marks a k-mer match: a short, fixed-length span that
	// should be rendered as a plus-sign point rather than a line.
	PointLike bool
}

// Backend aligns a reference contig group's concatenated sequence
// against a query's, returning every hit found. Both k-mer and
// external-mapper backends implement it uniformly so the engine does
// not need to know which one is in use.
type Backend interface {
	Align(refSeqs, qrySeqs [][]byte) ([]Alignment, error)
}

// MaxPairLength is the default large-pair guard: a pair is skipped by
// the orchestrator, not the engine, when min(len(i), len(j)) exceeds
// it.
const MaxPairLength = 1_000_000
