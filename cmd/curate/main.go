// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// curate loads one or more bacterial assembler outputs per sample,
// computes pairwise average nucleotide identity across the resulting
// contig groups, clusters near-identical replicons, and renders
// alignment dotplots, writing every artefact under
// <sample_dir>/assembly-curator.
//
// Samples are processed either directly (-sample) or through a
// durable on-disk queue drained by a worker pool (-queue, -workers).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/kortschak/curate/ani/skani"
	"github.com/kortschak/curate/importer"
	"github.com/kortschak/curate/pipeline"
	"github.com/kortschak/curate/task"
)

func main() {
	sampleDir := flag.String("sample", "", "process a single sample directory and exit")
	forceRerun := flag.Bool("force", false, "discard and recreate an existing work directory")
	queuePath := flag.String("queue", os.Getenv("HUEY_DB_PATH"), "path to the on-disk task queue (defaults to $HUEY_DB_PATH)")
	enqueue := flag.Bool("enqueue", false, "enqueue -sample instead of processing it inline")
	priority := flag.Int("priority", 0, "enqueue priority, lower runs first")
	workers := flag.Int("workers", runtime.NumCPU()-1, "worker pool size when draining -queue")
	runJob := flag.String("run-job", "", "internal: process a single JSON-encoded task.Job inline (used by the worker pool's subprocess dispatch)")
	verbose := flag.Bool("verbose", false, "log import/ANI/dotplot progress to stderr")
	graphDotDir := flag.String("graph-dot-dir", "", "write each importer's assembly graph as <assembler>.dot in this directory, for debugging union-find grouping")
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags)
	if !*verbose {
		logger.SetOutput(io.Discard)
	}

	if *runJob != "" {
		var job task.Job
		if err := json.Unmarshal([]byte(*runJob), &job); err != nil {
			log.Fatalf("curate: malformed -run-job: %v", err)
		}
		if err := processSample(job.Sample, job.Dir, job.ForceRerun, *graphDotDir, logger); err != nil {
			log.Fatal(err)
		}
		return
	}

	if *sampleDir == "" {
		flag.Usage()
		os.Exit(2)
	}
	sample := filepath.Base(*sampleDir)

	switch {
	case *enqueue:
		if *queuePath == "" {
			log.Fatal("curate: -enqueue requires -queue or $HUEY_DB_PATH")
		}
		q, err := task.Open(*queuePath)
		if err != nil {
			log.Fatal(err)
		}
		defer q.Close()
		if _, err := q.Enqueue(task.Job{Sample: sample, Dir: *sampleDir, ForceRerun: *forceRerun}, int32(*priority)); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("enqueued %s\n", sample)

	case *queuePath != "":
		q, err := task.Open(*queuePath)
		if err != nil {
			log.Fatal(err)
		}
		defer q.Close()
		pool := &task.Pool{
			Queue:    q,
			N:        *workers,
			SelfExec: os.Args[0],
			JobFlag:  "-run-job",
			Logger:   logger,
		}
		if err := pool.Run(); err != nil {
			log.Fatal(err)
		}

	default:
		if err := processSample(sample, *sampleDir, *forceRerun, *graphDotDir, logger); err != nil {
			log.Fatal(err)
		}
	}
}

func processSample(sample, dir string, forceRerun bool, graphDotDir string, logger *log.Logger) error {
	workDir, err := os.MkdirTemp("", "curate-ani-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(workDir)

	sketcher, err := skani.NewDB(workDir)
	if err != nil {
		return err
	}
	sketcher.Threads = runtime.NumCPU()

	cfg := pipeline.ConfigFromEnv()
	cfg.Logger = logger

	if graphDotDir != "" {
		if err := os.MkdirAll(graphDotDir, 0o755); err != nil {
			return fmt.Errorf("curate: %w", err)
		}
	}
	res, err := pipeline.ProcessSample(sample, dir, importer.NewWithGraphDebugDir(logger, graphDotDir), sketcher, forceRerun, cfg)
	if err != nil {
		return fmt.Errorf("curate: %w", err)
	}
	if res.Failed {
		logger.Printf("sample %s failed: %v", sample, res.Messages)
	} else {
		logger.Printf("sample %s processed: %d assemblies", sample, len(res.Assemblies))
	}
	return nil
}
