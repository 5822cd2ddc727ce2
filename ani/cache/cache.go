// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cache holds a content-addressed cache of ANI similarity
// matrices, backed by modernc.org/kv and keyed by a hash of the
// sequence content that produced them. It lets the orchestrator skip
// re-invoking the external sketcher when re-running ANI after only a
// later stage (dotplot rendering) failed, a finer-grained idempotence
// than the marker-file check ProcessSample itself does.
package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/mat"
	"modernc.org/kv"

	"github.com/kortschak/curate/seq"
)

// Store is a durable key-value cache of similarity matrices.
type Store struct {
	db *kv.DB
}

// Open creates or reopens the cache database file at path.
func Open(path string) (*Store, error) {
	db, err := kv.Open(path, &kv.Options{})
	if err != nil {
		db, err = kv.Create(path, &kv.Options{})
		if err != nil {
			return nil, fmt.Errorf("cache: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Key derives a content address from a set of contig groups: a
// sha256 over each id's sequence bytes, sorted by id so the key does
// not depend on map iteration order.
func Key(groups map[string]*seq.ContigGroup, ids []string) []byte {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	h := sha256.New()
	for _, id := range sorted {
		io.WriteString(h, id)
		h.Write([]byte{0})
		for _, s := range groups[id].EncodeSequences() {
			h.Write(s)
			h.Write([]byte{0})
		}
	}
	return h.Sum(nil)
}

type entry struct {
	IDs    []string
	Values []float64 // row-major n*n, upper triangle only is meaningful
}

// Get returns the cached similarity matrix for key if one exists and
// its id set exactly matches ids (order-independent). A mismatched id
// set is treated as a miss rather than an error, since a sample's
// contig groups can change between runs.
func (s *Store) Get(key []byte, ids []string) (*mat.SymDense, bool, error) {
	v, err := s.db.Get(nil, key)
	if err != nil {
		return nil, false, fmt.Errorf("cache: %w", err)
	}
	if v == nil {
		return nil, false, nil
	}
	var e entry
	if err := json.Unmarshal(v, &e); err != nil {
		return nil, false, fmt.Errorf("cache: %w", err)
	}
	if !sameIDs(e.IDs, ids) {
		return nil, false, nil
	}

	n := len(ids)
	index := make(map[string]int, n)
	for i, id := range ids {
		index[id] = i
	}
	sym := mat.NewSymDense(n, nil)
	for i, idI := range e.IDs {
		for j, idJ := range e.IDs {
			if j < i {
				continue
			}
			sym.SetSym(index[idI], index[idJ], e.Values[i*len(e.IDs)+j])
		}
	}
	return sym, true, nil
}

// Put records sim under key, for an id ordering matching sim's rows
// and columns.
func (s *Store) Put(key []byte, ids []string, sim *mat.SymDense) error {
	n := len(ids)
	values := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			values[i*n+j] = sim.At(i, j)
		}
	}
	body, err := json.Marshal(entry{IDs: ids, Values: values})
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := s.db.Set(key, body); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa := append([]string(nil), a...)
	sb := append([]string(nil), b...)
	sort.Strings(sa)
	sort.Strings(sb)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}
