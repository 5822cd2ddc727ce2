// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cache

import (
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/kortschak/curate/seq"
)

func mustGroup(t *testing.T, assembler, header, sequence string) *seq.ContigGroup {
	t.Helper()
	c, err := seq.NewContig(assembler, header, sequence)
	if err != nil {
		t.Fatal(err)
	}
	return seq.NewContigGroup([]seq.Contig{c})
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ani-cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestKeyStableUnderIDOrdering(t *testing.T) {
	groups := map[string]*seq.ContigGroup{
		"a": mustGroup(t, "flye", "contig_1", "ATGCATGC"),
		"b": mustGroup(t, "flye", "contig_2", "GGGGCCCC"),
	}
	k1 := Key(groups, []string{"a", "b"})
	k2 := Key(groups, []string{"b", "a"})
	if string(k1) != string(k2) {
		t.Error("Key is sensitive to id ordering, want order-independent")
	}
}

func TestKeyChangesWithSequenceContent(t *testing.T) {
	groups := map[string]*seq.ContigGroup{
		"a": mustGroup(t, "flye", "contig_1", "ATGCATGC"),
	}
	k1 := Key(groups, []string{"a"})
	groups["a"] = mustGroup(t, "flye", "contig_1", "ATGCATGG")
	k2 := Key(groups, []string{"a"})
	if string(k1) == string(k2) {
		t.Error("Key did not change when sequence content changed")
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	groups := map[string]*seq.ContigGroup{
		"a": mustGroup(t, "flye", "contig_1", "ATGCATGC"),
		"b": mustGroup(t, "flye", "contig_2", "GGGGCCCC"),
	}
	ids := []string{"a", "b"}
	key := Key(groups, ids)

	sim := mat.NewSymDense(2, nil)
	sim.SetSym(0, 0, 1)
	sim.SetSym(1, 1, 1)
	sim.SetSym(0, 1, 0.87)

	if err := s.Put(key, ids, sim); err != nil {
		t.Fatal(err)
	}

	got, ok, err := s.Get(key, ids)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("Get() after Put(): want hit, got miss")
	}
	if got.At(0, 1) != 0.87 {
		t.Errorf("Get().At(0,1) = %v, want 0.87", got.At(0, 1))
	}
	if got.At(0, 0) != 1 || got.At(1, 1) != 1 {
		t.Errorf("Get() diagonal = %v, %v, want 1, 1", got.At(0, 0), got.At(1, 1))
	}
}

func TestGetMissesOnUnknownKey(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := s.Get([]byte("does-not-exist"), []string{"a"})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("Get() on unknown key: want miss, got hit")
	}
}

func TestGetMissesWhenIDSetChanged(t *testing.T) {
	s := openTestStore(t)
	groups := map[string]*seq.ContigGroup{
		"a": mustGroup(t, "flye", "contig_1", "ATGCATGC"),
		"b": mustGroup(t, "flye", "contig_2", "GGGGCCCC"),
	}
	ids := []string{"a", "b"}
	key := Key(groups, ids)
	sim := mat.NewSymDense(2, nil)
	if err := s.Put(key, ids, sim); err != nil {
		t.Fatal(err)
	}

	_, ok, err := s.Get(key, []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("Get() with a different id set: want miss, got hit")
	}
}
