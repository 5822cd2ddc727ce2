// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package task

import (
	"path/filepath"
	"testing"
)

func openTestQueue(t *testing.T) *Queue {
	t.Helper()
	q, err := Open(filepath.Join(t.TempDir(), "queue.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { q.Close() })
	return q
}

func TestEnqueueDequeueFIFOWithinPriority(t *testing.T) {
	q := openTestQueue(t)

	if _, err := q.Enqueue(Job{Sample: "a"}, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := q.Enqueue(Job{Sample: "b"}, 0); err != nil {
		t.Fatal(err)
	}

	first, _, ok, err := q.Dequeue()
	if err != nil {
		t.Fatal(err)
	}
	if !ok || first.Sample != "a" {
		t.Fatalf("first dequeue = %+v, ok=%v, want sample a", first, ok)
	}
	second, _, ok, err := q.Dequeue()
	if err != nil {
		t.Fatal(err)
	}
	if !ok || second.Sample != "b" {
		t.Fatalf("second dequeue = %+v, ok=%v, want sample b", second, ok)
	}

	if _, _, ok, err := q.Dequeue(); err != nil || ok {
		t.Fatalf("expected empty queue, got ok=%v err=%v", ok, err)
	}
}

func TestEnqueueDequeueHigherPriorityFirst(t *testing.T) {
	q := openTestQueue(t)

	if _, err := q.Enqueue(Job{Sample: "low"}, 10); err != nil {
		t.Fatal(err)
	}
	if _, err := q.Enqueue(Job{Sample: "high"}, 0); err != nil {
		t.Fatal(err)
	}

	job, _, ok, err := q.Dequeue()
	if err != nil || !ok {
		t.Fatalf("dequeue failed: ok=%v err=%v", ok, err)
	}
	if job.Sample != "high" {
		t.Errorf("dequeued %q first, want the lower-priority-number job first", job.Sample)
	}
}

func TestLenReflectsPendingJobs(t *testing.T) {
	q := openTestQueue(t)
	for i := 0; i < 3; i++ {
		if _, err := q.Enqueue(Job{Sample: "s"}, 0); err != nil {
			t.Fatal(err)
		}
	}
	n, err := q.Len()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("Len() = %d, want 3", n)
	}
	if _, _, _, err := q.Dequeue(); err != nil {
		t.Fatal(err)
	}
	n, err = q.Len()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("Len() after one dequeue = %d, want 2", n)
	}
}

func TestSeqRecoveredAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "queue.db")

	q, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := q.Enqueue(Job{Sample: "a"}, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := q.Enqueue(Job{Sample: "b"}, 0); err != nil {
		t.Fatal(err)
	}
	q.Close()

	q2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer q2.Close()
	if _, err := q2.Enqueue(Job{Sample: "c"}, 0); err != nil {
		t.Fatal(err)
	}

	var order []string
	for {
		job, _, ok, err := q2.Dequeue()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		order = append(order, job.Sample)
	}
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("dequeue order after reopen = %v, want [a b c]", order)
	}
}
