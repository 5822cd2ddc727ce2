// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package task implements a durable on-disk job queue backed by
// modernc.org/kv, and a worker pool that drains it by dispatching each
// job to a subprocess. The queue has one job kind: process a sample
// through the pipeline orchestrator.
package task

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"modernc.org/kv"

	"github.com/kortschak/curate/internal/store"
)

// Job is one queued unit of work: process sample Sample, whose input
// lives at Dir, optionally forcing a rerun of an already-processed
// sample.
type Job struct {
	Sample     string `json:"sample"`
	Dir        string `json:"dir"`
	ForceRerun bool   `json:"force_rerun"`
}

// Queue is a durable FIFO of Jobs. The zero value is not usable; call
// Open.
type Queue struct {
	db *kv.DB

	mu  sync.Mutex
	seq uint64
}

// Open creates or reopens the queue's database file at path, the
// equivalent of the HUEY_DB_PATH environment variable naming the
// core's task-queue location. The enqueue sequence counter is not
// itself persisted; it is recovered by scanning for the highest Seq
// already present, since every key in this database must decode as a
// store.TaskKey for store.ByPriority to order it.
func Open(path string) (*Queue, error) {
	opts := &kv.Options{Compare: store.ByPriority}
	db, err := kv.Open(path, opts)
	if err != nil {
		db, err = kv.Create(path, opts)
		if err != nil {
			return nil, fmt.Errorf("task: %w", err)
		}
	}
	q := &Queue{db: db}
	if err := q.recoverSeq(); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *Queue) recoverSeq() error {
	it, err := q.db.SeekFirst()
	if err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("task: %w", err)
	}
	for {
		k, _, err := it.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("task: %w", err)
		}
		if s := store.UnmarshalTaskKey(k).Seq; s >= q.seq {
			q.seq = s + 1
		}
	}
}

// Close releases the underlying database handle.
func (q *Queue) Close() error { return q.db.Close() }

// Enqueue durably records job at the given priority (lower runs
// first) and returns its queue key.
func (q *Queue) Enqueue(job Job, priority int32) ([]byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	body, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("task: %w", err)
	}
	key := store.MarshalTaskKey(store.TaskKey{Priority: priority, Seq: q.seq})

	if err := q.db.BeginTransaction(); err != nil {
		return nil, fmt.Errorf("task: %w", err)
	}
	if err := q.db.Set(key, body); err != nil {
		q.db.Rollback()
		return nil, fmt.Errorf("task: %w", err)
	}
	q.seq++
	if err := q.db.Commit(); err != nil {
		return nil, fmt.Errorf("task: %w", err)
	}
	return key, nil
}

// Dequeue pops the oldest highest-priority job, or returns (Job{},
// nil, false, nil) if the queue is empty.
func (q *Queue) Dequeue() (Job, []byte, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	it, err := q.db.SeekFirst()
	if err != nil {
		if err == io.EOF {
			return Job{}, nil, false, nil
		}
		return Job{}, nil, false, fmt.Errorf("task: %w", err)
	}
	for {
		k, v, err := it.Next()
		if err != nil {
			if err == io.EOF {
				return Job{}, nil, false, nil
			}
			return Job{}, nil, false, fmt.Errorf("task: %w", err)
		}
		var job Job
		if err := json.Unmarshal(v, &job); err != nil {
			return Job{}, nil, false, fmt.Errorf("task: %w", err)
		}
		if err := q.db.Delete(k); err != nil {
			return Job{}, nil, false, fmt.Errorf("task: %w", err)
		}
		return job, k, true, nil
	}
}

// Len reports the number of jobs waiting.
func (q *Queue) Len() (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	it, err := q.db.SeekFirst()
	if err != nil {
		if err == io.EOF {
			return 0, nil
		}
		return 0, fmt.Errorf("task: %w", err)
	}
	n := 0
	for {
		_, _, err := it.Next()
		if err != nil {
			if err == io.EOF {
				return n, nil
			}
			return 0, fmt.Errorf("task: %w", err)
		}
		n++
	}
}
