// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package task

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"sync"
)

// RunFunc processes one Job in-process. Pool does not take one: it runs
// each Job in a subprocess of SelfExec.
type RunFunc func(Job) error

// Pool drains a Queue using n worker goroutines, each dispatching a
// job to a fresh subprocess. Separate processes, not threads, are
// used because the dotplot engine's k-mer backend and external-mapper
// invocation are not meant to share state across concurrent renders
// for the same sample.
type Pool struct {
	Queue *Queue
	N     int
	// SelfExec is the path to re-invoke for one job (normally
	// os.Args[0]); JobFlag is the flag name that carries the job's
	// JSON encoding, e.g. "-run-job".
	SelfExec string
	JobFlag  string
	Logger   *log.Logger
}

// Run drains the queue, dispatching up to p.N jobs concurrently, and
// returns once the queue is empty. It does not watch for newly
// enqueued jobs; a caller wanting a long-lived server loop calls Run
// repeatedly with a sleep between empty drains.
func (p *Pool) Run() error {
	logger := p.Logger
	if logger == nil {
		logger = log.Default()
	}
	n := p.N
	if n < 1 {
		n = 1
	}

	type result struct {
		job Job
		err error
	}
	jobs := make(chan Job)
	results := make(chan result)

	// Workers close results once every one of them has returned, rather
	// than the drain loop counting pending jobs against the dispatch
	// loop's own pending++: a counter read from one goroutine and
	// written from another is a race, and if the drain loop's first
	// read saw pending==0 before any job was dispatched it would return
	// immediately, leaking every worker goroutine blocked forever on an
	// unread results send.
	var workers sync.WaitGroup
	workers.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer workers.Done()
			for job := range jobs {
				results <- result{job: job, err: p.runOne(job)}
			}
		}()
	}
	go func() {
		workers.Wait()
		close(results)
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range results {
			if r.err != nil {
				logger.Printf("sample %s failed: %v", r.job.Sample, r.err)
			} else {
				logger.Printf("sample %s processed", r.job.Sample)
			}
		}
	}()

	for {
		job, _, ok, err := p.Queue.Dequeue()
		if err != nil {
			close(jobs)
			<-done
			return err
		}
		if !ok {
			break
		}
		jobs <- job
	}
	close(jobs)
	<-done
	return nil
}

func (p *Pool) runOne(job Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("task: %w", err)
	}
	cmd := exec.Command(p.SelfExec, p.JobFlag, string(body))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Stdout = os.Stdout
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", cmd.Path, err, stderr.String())
	}
	return nil
}
