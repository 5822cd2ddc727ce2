// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dotplot

import (
	"fmt"

	"github.com/kortschak/curate/seq"
)

// Config controls how a cluster's dotplot grid is rendered.
type Config struct {
	Kmer       int
	BPPerPixel float64
}

func (c Config) withDefaults() Config {
	if c.Kmer == 0 {
		c.Kmer = DefaultKmer
	}
	if c.BPPerPixel == 0 {
		c.BPPerPixel = DefaultBPPerPixel
	}
	return c
}

// Render builds and writes one cluster's triangular dotplot grid to
// path, using backend to align every group pair except those named in
// skip (see Build). Groups are rendered in the order given; callers
// sort by descending length first, matching a cluster's canonical
// contig order. A caller that wants the external long-read mapper
// instead of the built-in k-mer backend passes a *mapper.Backend here,
// since that package imports this one for its Alignment and Backend
// types and so cannot be imported back.
func Render(path string, groups []*seq.ContigGroup, backend Backend, skip map[[2]int]bool, cfg Config) error {
	cfg = cfg.withDefaults()
	if backend == nil {
		backend = NewKmerBackend(cfg.Kmer)
	}

	grid, err := Build(groups, backend, skip)
	if err != nil {
		return fmt.Errorf("dotplot: %w", err)
	}
	return WriteSVG(path, grid, cfg.BPPerPixel)
}
