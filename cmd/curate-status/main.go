// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The curate-status command reports per-sample progress by inspecting
// the marker files a pipeline.ProcessSample run leaves behind, and
// optionally reports how many jobs are waiting in an on-disk task queue.
//
//	<sample_dir>/assembly-curator/failed         — present iff the sample failed
//	<sample_dir>/assembly-curator/hybrid.fasta   — present iff a curator has finalised the sample
//	<sample_dir>/assembly-curator/assemblies.json — present iff C6 has preprocessed the sample
//
// Output is a JSON stream on stdout, one object per sample directory
// given on the command line.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/kortschak/curate/pipeline"
	"github.com/kortschak/curate/task"
)

type status struct {
	Sample string `json:"sample"`
	State  string `json:"state"`
}

func main() {
	queuePath := flag.String("queue", os.Getenv("HUEY_DB_PATH"), "also report jobs pending in this task queue")
	flag.Parse()

	enc := json.NewEncoder(os.Stdout)
	for _, dir := range flag.Args() {
		s, err := sampleStatus(dir)
		if err != nil {
			log.Fatal(err)
		}
		if err := enc.Encode(s); err != nil {
			log.Fatal(err)
		}
	}

	if *queuePath == "" {
		return
	}
	q, err := task.Open(*queuePath)
	if err != nil {
		log.Fatal(err)
	}
	defer q.Close()
	n, err := q.Len()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Fprintf(os.Stderr, "%d job(s) pending in %s\n", n, *queuePath)
}

func sampleStatus(sampleDir string) (status, error) {
	sample := filepath.Base(sampleDir)
	workDir := filepath.Join(sampleDir, pipeline.WorkDirName)

	if exists(filepath.Join(workDir, "hybrid.fasta")) {
		return status{Sample: sample, State: "finished"}, nil
	}
	if exists(filepath.Join(workDir, "failed")) {
		return status{Sample: sample, State: "failed"}, nil
	}
	if exists(filepath.Join(workDir, "assemblies.json")) {
		return status{Sample: sample, State: "preprocessed"}, nil
	}
	return status{Sample: sample, State: "not started"}, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
