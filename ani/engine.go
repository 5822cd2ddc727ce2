// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ani computes a symmetric average-nucleotide-identity matrix
// across every contig group of a sample's assemblies, clusters the
// result, and renders both a TSV matrix and an SVG clustermap.
package ani

import (
	"bufio"
	"fmt"
	"os"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/combin"

	"github.com/kortschak/curate/ani/linkage"
	"github.com/kortschak/curate/ani/skani"
	"github.com/kortschak/curate/kerrors"
	"github.com/kortschak/curate/seq"
)

const component = "ani"

// Sketcher is the capability the engine needs from a sketch database;
// *skani.DB implements it.
type Sketcher interface {
	Sketch(id string, seqs [][]byte) error
	Query(id string, seqs [][]byte) ([]skani.Hit, error)
}

// Config tunes the engine. Zero values select the documented
// defaults.
type Config struct {
	// ClusterCutoff is the dendrogram cut distance on the 1-S scale.
	ClusterCutoff float64
	// LabelCutoff is the similarity above which the length-ratio
	// overlay is drawn in the clustermap SVG.
	LabelCutoff float64
}

// DefaultConfig returns the documented default tuning.
func DefaultConfig() Config {
	return Config{ClusterCutoff: 0.95, LabelCutoff: 0.9}
}

func (c Config) withDefaults() Config {
	if c.ClusterCutoff == 0 {
		c.ClusterCutoff = 0.95
	}
	if c.LabelCutoff == 0 {
		c.LabelCutoff = 0.9
	}
	return c
}

// Result is the engine's output: the similarity matrix and the
// cluster/colour assignment for every contig-group id that went into
// it.
type Result struct {
	IDs        []string
	Similarity *mat.SymDense
	ClusterOf  map[string]int
	ColorOf    map[string][3]float64
	groups     map[string]*seq.ContigGroup
}

// GroupsAndIDs flattens every contig group across assemblies into an
// id-keyed lookup and a sorted id list, the same grouping Run performs
// internally before sketching. A cache sitting in front of Run calls
// this to derive a cache key without paying for a sketch/query pass.
func GroupsAndIDs(assemblies []*seq.Assembly) (map[string]*seq.ContigGroup, []string, error) {
	groups := make(map[string]*seq.ContigGroup)
	var ids []string
	for _, asm := range assemblies {
		for _, g := range asm.ContigGroups {
			id := g.ID()
			if _, dup := groups[id]; dup {
				return nil, nil, fmt.Errorf("%s: duplicate contig group id %q across assemblies", component, id)
			}
			groups[id] = g
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return groups, ids, nil
}

// Run gathers every contig group across assemblies, builds the
// similarity matrix through sketcher, clusters it, and assigns
// colours. It returns a *kerrors.MinorError when fewer than two
// contig groups are available.
func Run(assemblies []*seq.Assembly, sketcher Sketcher, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()

	groups, ids, err := GroupsAndIDs(assemblies)
	if err != nil {
		return nil, err
	}

	n := len(ids)
	if n < 2 {
		return nil, kerrors.Minorf(component, "not enough contig groups to create a similarity matrix (have %d)", n)
	}

	index := make(map[string]int, n)
	for i, id := range ids {
		index[id] = i
	}

	for _, id := range ids {
		if err := sketcher.Sketch(id, groups[id].EncodeSequences()); err != nil {
			return nil, fmt.Errorf("%s: %w", component, err)
		}
	}

	raw := mat.NewDense(n, n, nil)
	for i := range ids {
		raw.Set(i, i, 1)
	}
	for i, id := range ids {
		hits, err := sketcher.Query(id, groups[id].EncodeSequences())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", component, err)
		}
		for _, hit := range hits {
			j, ok := index[hit.ReferenceName]
			if !ok {
				continue
			}
			raw.Set(i, j, hit.Identity)
		}
	}

	// Symmetrise: S := (S + Sᵀ) / 2. The diagonal is set separately;
	// combin.Combinations(n, 2) enumerates the off-diagonal upper
	// triangle the same way tooLargePairs' large-pair guard does for
	// the dotplot grid, so the two all-pairs passes stay consistent.
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		sym.SetSym(i, i, 1)
	}
	if n >= 2 {
		for _, pair := range combin.Combinations(n, 2) {
			i, j := pair[0], pair[1]
			sym.SetSym(i, j, (raw.At(i, j)+raw.At(j, i))/2)
		}
	}

	return FromSimilarity(ids, sym, groups, cfg)
}

// FromSimilarity clusters an already-computed symmetric similarity
// matrix and assigns colours, skipping the sketch/query steps
// entirely. A cache sitting in front of Run calls this directly on a
// cache hit, since the expensive part of Run is the external sketcher
// invocation, not the clustering arithmetic.
func FromSimilarity(ids []string, sym *mat.SymDense, groups map[string]*seq.ContigGroup, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()
	n := len(ids)

	dist := linkage.DistanceFromSimilarity(sym)
	if err := linkage.Validate(dist); err != nil {
		return nil, fmt.Errorf("%s: %w", component, err)
	}
	dendro := linkage.Average(dist)
	flat := dendro.FlatClusters(cfg.ClusterCutoff)

	clusterOf := make(map[string]int, n)
	colorOf := make(map[string][3]float64, n)
	for i, id := range ids {
		clusterOf[id] = flat[i]
		colorOf[id] = ColorFor(flat[i])
	}

	return &Result{IDs: ids, Similarity: sym, ClusterOf: clusterOf, ColorOf: colorOf, groups: groups}, nil
}

// Clusters groups the result's contig-group ids by cluster id, each
// list sorted for determinism.
func (r *Result) Clusters() map[int][]string {
	out := make(map[int][]string)
	for _, id := range r.IDs {
		c := r.ClusterOf[id]
		out[c] = append(out[c], id)
	}
	return out
}

// Groups returns the contig-group id -> *seq.ContigGroup lookup the
// engine built its matrix from, for a caller (the orchestrator) that
// needs the actual groups behind a cluster's ids.
func (r *Result) Groups() map[string]*seq.ContigGroup {
	return r.groups
}

// MeanSimilarity summarises the result's off-diagonal identity as a
// single number, for a progress log line rather than the full matrix.
func (r *Result) MeanSimilarity() float64 {
	return linkage.MeanOffDiagonal(r.Similarity)
}

// WriteMatrixTSV writes the similarity matrix as tab-separated values
// with row and column headers equal to the contig-group ids, in the
// same order every time for identical input (the orchestrator
// idempotence contract depends on this).
func (r *Result) WriteMatrixTSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	fmt.Fprint(w, "")
	for _, id := range r.IDs {
		fmt.Fprintf(w, "\t%s", id)
	}
	fmt.Fprint(w, "\n")
	for i, rowID := range r.IDs {
		fmt.Fprint(w, rowID)
		for j := range r.IDs {
			fmt.Fprintf(w, "\t%.6f", r.Similarity.At(i, j))
		}
		fmt.Fprint(w, "\n")
	}
	return w.Flush()
}

// lengthLabel returns the diagnostic length-ratio or
// topology/contig-count label for cell (i, j), per the length
// annotation overlay: the diagonal is labelled with topology or
// contig count, and off-diagonal cells at or above cfg.LabelCutoff
// are labelled with the length ratio of the two groups.
func (r *Result) lengthLabel(i, j int, cutoff float64) string {
	idI, idJ := r.IDs[i], r.IDs[j]
	if i == j {
		return r.groups[idI].TopologyOrNContigs(true)
	}
	if r.Similarity.At(i, j) < cutoff {
		return ""
	}
	li, lj := r.groups[idI].Len(), r.groups[idJ].Len()
	if lj == 0 {
		return ""
	}
	return formatSigFigs(float64(li)/float64(lj), 2)
}

func formatSigFigs(v float64, sig int) string {
	return fmt.Sprintf("%.*g", sig, v)
}
