// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package linkage performs UPGMA (average-linkage) hierarchical
// clustering over a distance matrix and cuts the resulting dendrogram
// into flat clusters at a fixed distance threshold.
package linkage

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// merge records one dendrogram join: the two cluster ids merged (in
// the order they were created; ids < n are original leaves) and the
// distance at which they joined.
type merge struct {
	a, b     int
	distance float64
}

// Dendrogram is the sequence of merges produced by average-linkage
// clustering over n leaves, in increasing order of distance.
type Dendrogram struct {
	n      int
	merges []merge
}

// Average performs UPGMA clustering over the n×n distance matrix d
// (d must be symmetric with a zero diagonal; the diagonal value is
// never consulted). It panics if d is not square.
func Average(d *mat.SymDense) *Dendrogram {
	n, _ := d.Dims()
	if n == 0 {
		return &Dendrogram{n: 0}
	}

	// dist[i] is the running distance row for cluster i, indexed by
	// the same ids used in merges; size[i] is its leaf count, used to
	// weight the UPGMA average. ids tracks which cluster ids are still
	// live.
	size := make(map[int]int, n)
	dist := make(map[int]map[int]float64, n)
	ids := make([]int, n)
	for i := 0; i < n; i++ {
		size[i] = 1
		ids[i] = i
		dist[i] = make(map[int]float64, n)
		for j := 0; j < n; j++ {
			if i != j {
				dist[i][j] = d.At(i, j)
			}
		}
	}

	nextID := n
	var merges []merge
	for len(ids) > 1 {
		// Find the closest pair by (id) order for determinism on ties.
		best := struct {
			a, b int
			dist float64
		}{a: -1, b: -1, dist: 0}
		sort.Ints(ids)
		for ii := 0; ii < len(ids); ii++ {
			for jj := ii + 1; jj < len(ids); jj++ {
				a, b := ids[ii], ids[jj]
				dd := dist[a][b]
				if best.a == -1 || dd < best.dist {
					best.a, best.b, best.dist = a, b, dd
				}
			}
		}
		a, b := best.a, best.b
		merges = append(merges, merge{a: a, b: b, distance: best.dist})

		newID := nextID
		nextID++
		newSize := size[a] + size[b]
		newRow := make(map[int]float64, len(ids))
		for _, c := range ids {
			if c == a || c == b {
				continue
			}
			// Weighted average (UPGMA): distance to the merged cluster
			// is the size-weighted mean of distances to its members.
			davg := (float64(size[a])*dist[a][c] + float64(size[b])*dist[b][c]) / float64(newSize)
			newRow[c] = davg
			dist[c][newID] = davg
			delete(dist[c], a)
			delete(dist[c], b)
		}
		delete(dist, a)
		delete(dist, b)
		dist[newID] = newRow
		size[newID] = newSize

		var remaining []int
		for _, c := range ids {
			if c != a && c != b {
				remaining = append(remaining, c)
			}
		}
		remaining = append(remaining, newID)
		ids = remaining
	}
	return &Dendrogram{n: n, merges: merges}
}

// FlatClusters cuts the dendrogram at distance threshold t: any merge
// at distance ≤ t is honoured, any merge above it is not, so the
// result is the set of connected components of the "≤ t" sub-forest.
// Cluster ids are 1-based contiguous integers, assigned in order of
// the lowest-numbered leaf in each cluster, which makes the assignment
// a deterministic function of leaf order alone.
func (g *Dendrogram) FlatClusters(t float64) []int {
	parent := make([]int, g.n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	// leafOf maps every merge-internal id (>= n) down to one of its
	// original leaves, so a union at id-level can be translated back
	// to leaf-level union.
	leafOf := make(map[int]int, g.n)
	for i := 0; i < g.n; i++ {
		leafOf[i] = i
	}
	for idx, m := range g.merges {
		newID := g.n + idx
		la, lb := leafOf[m.a], leafOf[m.b]
		leafOf[newID] = la
		if m.distance <= t {
			ra, rb := find(la), find(lb)
			if ra != rb {
				parent[rb] = ra
			}
		}
	}

	rootToCluster := make(map[int]int)
	assignment := make([]int, g.n)
	next := 1
	for leaf := 0; leaf < g.n; leaf++ {
		root := find(leaf)
		id, ok := rootToCluster[root]
		if !ok {
			id = next
			next++
			rootToCluster[root] = id
		}
		assignment[leaf] = id
	}
	return assignment
}

// DistanceFromSimilarity builds the n×n distance matrix 1-S with the
// diagonal forced to zero, from a symmetric similarity matrix s (as
// produced by the ANI engine, where s's diagonal is 1).
func DistanceFromSimilarity(s *mat.SymDense) *mat.SymDense {
	n, _ := s.Dims()
	d := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if i == j {
				d.SetSym(i, j, 0)
				continue
			}
			d.SetSym(i, j, 1-s.At(i, j))
		}
	}
	return d
}

// MeanOffDiagonal returns the mean of the off-diagonal upper-triangle
// values of s, used by diagnostics to summarise overall similarity.
func MeanOffDiagonal(s *mat.SymDense) float64 {
	n, _ := s.Dims()
	if n < 2 {
		return 0
	}
	vals := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			vals = append(vals, s.At(i, j))
		}
	}
	return floats.Sum(vals) / float64(len(vals))
}

// Validate reports a descriptive error if d is not a valid distance
// matrix for clustering (zero diagonal, finite values).
func Validate(d *mat.SymDense) error {
	n, _ := d.Dims()
	for i := 0; i < n; i++ {
		if d.At(i, i) != 0 {
			return fmt.Errorf("linkage: non-zero diagonal at %d: %v", i, d.At(i, i))
		}
		for j := i + 1; j < n; j++ {
			if v := d.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("linkage: non-finite distance at (%d, %d): %v", i, j, v)
			}
		}
	}
	return nil
}
