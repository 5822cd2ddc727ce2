// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linkage

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func symFromRows(rows [][]float64) *mat.SymDense {
	n := len(rows)
	d := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			d.SetSym(i, j, rows[i][j])
		}
	}
	return d
}

func TestAverageAndFlatClustersTwoGroups(t *testing.T) {
	// Two tight clusters {0,1} and {2,3}, far apart.
	d := symFromRows([][]float64{
		{0, 0.01, 0.9, 0.9},
		{0.01, 0, 0.9, 0.9},
		{0.9, 0.9, 0, 0.02},
		{0.9, 0.9, 0.02, 0},
	})
	dendro := Average(d)
	clusters := dendro.FlatClusters(0.5)
	if clusters[0] != clusters[1] {
		t.Errorf("expected leaves 0 and 1 in the same cluster, got %v", clusters)
	}
	if clusters[2] != clusters[3] {
		t.Errorf("expected leaves 2 and 3 in the same cluster, got %v", clusters)
	}
	if clusters[0] == clusters[2] {
		t.Errorf("expected the two pairs in different clusters, got %v", clusters)
	}
}

func TestFlatClustersAllSeparateWhenThresholdZero(t *testing.T) {
	d := symFromRows([][]float64{
		{0, 0.3},
		{0.3, 0},
	})
	dendro := Average(d)
	clusters := dendro.FlatClusters(0)
	if clusters[0] == clusters[1] {
		t.Errorf("threshold 0 should keep every leaf separate, got %v", clusters)
	}
}

func TestFlatClustersAllJoinedWhenThresholdOne(t *testing.T) {
	d := symFromRows([][]float64{
		{0, 0.9, 0.95},
		{0.9, 0, 0.8},
		{0.95, 0.8, 0},
	})
	dendro := Average(d)
	clusters := dendro.FlatClusters(1.0)
	if clusters[0] != clusters[1] || clusters[1] != clusters[2] {
		t.Errorf("threshold 1.0 should join every leaf, got %v", clusters)
	}
}

func TestDistanceFromSimilarity(t *testing.T) {
	s := symFromRows([][]float64{
		{1, 0.99},
		{0.99, 1},
	})
	d := DistanceFromSimilarity(s)
	if d.At(0, 0) != 0 || d.At(1, 1) != 0 {
		t.Error("DistanceFromSimilarity: diagonal must be zero")
	}
	if got, want := d.At(0, 1), 0.01; got < want-1e-9 || got > want+1e-9 {
		t.Errorf("DistanceFromSimilarity off-diagonal = %v, want %v", got, want)
	}
}

func TestClusterIDsAreOneBasedAndDeterministic(t *testing.T) {
	d := symFromRows([][]float64{
		{0, 0.01},
		{0.01, 0},
	})
	dendro := Average(d)
	clusters := dendro.FlatClusters(0.5)
	for _, c := range clusters {
		if c < 1 {
			t.Errorf("cluster id %d is not 1-based", c)
		}
	}
}
