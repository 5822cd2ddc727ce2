// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ani

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kortschak/curate/ani/skani"
	"github.com/kortschak/curate/kerrors"
	"github.com/kortschak/curate/seq"
)

// fakeSketcher answers every query with canned identities, mimicking
// the shape of a real skani.DB without shelling out.
type fakeSketcher struct {
	identities map[string]map[string]float64
}

func (f *fakeSketcher) Sketch(id string, seqs [][]byte) error { return nil }

func (f *fakeSketcher) Query(id string, seqs [][]byte) ([]skani.Hit, error) {
	var hits []skani.Hit
	for ref, v := range f.identities[id] {
		hits = append(hits, skani.Hit{ReferenceName: ref, Identity: v})
	}
	return hits, nil
}

func mustGroup(t *testing.T, assembler, header, sequence string) *seq.ContigGroup {
	t.Helper()
	c, err := seq.NewContig(assembler, header, sequence)
	if err != nil {
		t.Fatal(err)
	}
	return seq.NewContigGroup([]seq.Contig{c})
}

func TestRunTooFewGroupsIsMinor(t *testing.T) {
	asm := seq.NewAssembly("flye", "flye")
	asm.ContigGroups = []*seq.ContigGroup{mustGroup(t, "flye", "contig_1", "ATGC")}
	_, err := Run([]*seq.Assembly{asm}, &fakeSketcher{}, DefaultConfig())
	var me *kerrors.MinorError
	if !errors.As(err, &me) {
		t.Fatalf("Run with one group: want *kerrors.MinorError, got %v", err)
	}
}

func TestRunClustersAndSymmetrises(t *testing.T) {
	a1 := mustGroup(t, "flye", "contig_1", "ATGCATGCATGCATGC")
	a2 := mustGroup(t, "lja", "contig_1", "ATGCATGCATGCATGC")
	asm1 := seq.NewAssembly("flye", "flye")
	asm1.ContigGroups = []*seq.ContigGroup{a1}
	asm2 := seq.NewAssembly("lja", "lja")
	asm2.ContigGroups = []*seq.ContigGroup{a2}

	sk := &fakeSketcher{identities: map[string]map[string]float64{
		a1.ID(): {a2.ID(): 0.999},
		a2.ID(): {a1.ID(): 0.991}, // intentionally asymmetric, engine must average
	}}

	res, err := Run([]*seq.Assembly{asm1, asm2}, sk, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	i := indexOf(res.IDs, a1.ID())
	j := indexOf(res.IDs, a2.ID())
	got := res.Similarity.At(i, j)
	want := (0.999 + 0.991) / 2
	if got < want-1e-9 || got > want+1e-9 {
		t.Errorf("symmetrised similarity = %v, want %v", got, want)
	}
	if res.ClusterOf[a1.ID()] != res.ClusterOf[a2.ID()] {
		t.Error("expected both groups in the same cluster at 0.995 similarity")
	}

	dir := t.TempDir()
	tsv := filepath.Join(dir, "similarity_matrix.tsv")
	if err := res.WriteMatrixTSV(tsv); err != nil {
		t.Fatal(err)
	}
	body, err := os.ReadFile(tsv)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), a1.ID()) {
		t.Error("similarity_matrix.tsv missing a contig-group id header")
	}

	svgPath := filepath.Join(dir, "ani_clustermap.svg")
	if err := res.WriteClustermapSVG(svgPath, DefaultConfig().LabelCutoff); err != nil {
		t.Fatal(err)
	}
	svgBody, err := os.ReadFile(svgPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(svgBody), `id="ani-matrix-data"`) {
		t.Error("clustermap SVG missing embedded matrix JSON script tag")
	}
}

func indexOf(ids []string, id string) int {
	for i, x := range ids {
		if x == id {
			return i
		}
	}
	return -1
}
