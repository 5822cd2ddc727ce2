// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package skani wraps the external skani genome-sketching tool,
// providing the sketch/query capability the ANI engine is built
// against.
package skani

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/biogo/external"
)

// Sketch describes an invocation of `skani sketch`.
type Sketch struct {
	Cmd string `buildarg:"{{if .}}{{.}}{{else}}skani{{end}}"` // skani

	Sub     string `buildarg:"sketch"`
	Inputs  string `buildarg:"{{.}}"`                               // space-joined fasta paths, pre-quoted by caller
	Out     string `buildarg:"{{with .}}-o{{split}}{{.}}{{end}}"`   // -o <dir>
	Threads int    `buildarg:"{{if .}}-t{{split}}{{.}}{{end}}"`     // -t <n>
	MarkerC int    `buildarg:"{{if .}}-c{{split}}{{.}}{{end}}"`     // -c <n> marker compression factor
}

func (s Sketch) BuildCommand() (*exec.Cmd, error) {
	cl := external.Must(external.Build(s))
	return exec.Command(cl[0], cl[1:]...), nil
}

// Dist describes an invocation of `skani dist`.
type Dist struct {
	Cmd string `buildarg:"{{if .}}{{.}}{{else}}skani{{end}}"` // skani

	Sub     string `buildarg:"dist"`
	Query   string `buildarg:"-q{{split}}{{.}}"`                   // -q <sketch>
	Refs    string `buildarg:"-r{{split}}{{.}}"`                   // -r <sketch...>
	Out     string `buildarg:"{{with .}}-o{{split}}{{.}}{{end}}"`  // -o <file>
	MinAF   int    `buildarg:"--min-af{{split}}{{.}}"`             // --min-af <n>
	Threads int    `buildarg:"{{if .}}-t{{split}}{{.}}{{end}}"`    // -t <n>
}

func (d Dist) BuildCommand() (*exec.Cmd, error) {
	cl := external.Must(external.Build(d))
	return exec.Command(cl[0], cl[1:]...), nil
}

// Hit is one row of `skani dist` output.
type Hit struct {
	ReferenceName string
	Identity      float64 // ANI, in [0, 1]
}

// ParseDist parses skani dist's tab-separated output:
// Ref_file  Query_file  ANI  Align_fraction_query  Align_fraction_ref ...
// ANI is reported as a percentage in skani's own output and is
// rescaled here to [0, 1].
func ParseDist(r *bufio.Reader) ([]Hit, error) {
	var hits []Hit
	sc := bufio.NewScanner(r)
	first := true
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		if first {
			first = false
			if strings.HasPrefix(line, "Ref_file") {
				continue
			}
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, fmt.Errorf("skani: malformed dist output line: %q", line)
		}
		ani, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("skani: %w", err)
		}
		hits = append(hits, Hit{
			ReferenceName: refNameFromSketchPath(fields[0]),
			Identity:      ani / 100,
		})
	}
	return hits, sc.Err()
}

func refNameFromSketchPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, ".sketch")
	base = strings.TrimSuffix(base, ".fasta")
	return base
}

// DB manages a directory of per-contig-group sketches and exposes the
// sketch(id, seqs) / query(id, seqs) capability the ANI engine
// requires. Each call shells out to the real skani binary; the
// working directory is never shared across samples.
type DB struct {
	WorkDir   string
	SketchDir string
	Threads   int
	BinPath   string // empty selects "skani" on PATH

	run func(*exec.Cmd) error
}

// NewDB creates the sketch and fasta scratch directories under
// workDir and returns a DB ready to sketch contig groups into it.
func NewDB(workDir string) (*DB, error) {
	sketchDir := filepath.Join(workDir, "sketches")
	if err := os.MkdirAll(sketchDir, 0o755); err != nil {
		return nil, err
	}
	return &DB{WorkDir: workDir, SketchDir: sketchDir, run: runCmd}, nil
}

func runCmd(cmd *exec.Cmd) error {
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", cmd.Path, err, stderr.String())
	}
	return nil
}

func (db *DB) fastaPath(id string) string {
	return filepath.Join(db.WorkDir, sanitizeID(id)+".fasta")
}

func sanitizeID(id string) string {
	return strings.NewReplacer("/", "_", "#", "_").Replace(id)
}

func writeFasta(path, id string, seqs [][]byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for i, s := range seqs {
		fmt.Fprintf(w, ">%s_%d\n", id, i)
		w.Write(s)
		w.WriteByte('\n')
	}
	return w.Flush()
}

// Sketch adds a contig group's sequences to the database under id.
func (db *DB) Sketch(id string, seqs [][]byte) error {
	if len(seqs) == 0 {
		return errors.New("skani: sketch called with no sequences")
	}
	fasta := db.fastaPath(id)
	if err := writeFasta(fasta, id, seqs); err != nil {
		return fmt.Errorf("skani: %w", err)
	}
	cmd, err := Sketch{Cmd: db.BinPath, Inputs: fasta, Out: db.SketchDir, Threads: db.Threads}.BuildCommand()
	if err != nil {
		return fmt.Errorf("skani: %w", err)
	}
	if err := db.run(cmd); err != nil {
		return fmt.Errorf("skani: sketch %s: %w", id, err)
	}
	return nil
}

// Query returns every database hit for a contig group's sequences,
// including a hit against itself (identity 1 is not assumed; it comes
// back from skani like any other pair).
func (db *DB) Query(id string, seqs [][]byte) ([]Hit, error) {
	queryFasta := filepath.Join(db.WorkDir, sanitizeID(id)+".query.fasta")
	if err := writeFasta(queryFasta, id, seqs); err != nil {
		return nil, fmt.Errorf("skani: %w", err)
	}
	querySketchDir := filepath.Join(db.WorkDir, sanitizeID(id)+".qsketch")
	if err := os.MkdirAll(querySketchDir, 0o755); err != nil {
		return nil, fmt.Errorf("skani: %w", err)
	}
	sketchCmd, err := Sketch{Cmd: db.BinPath, Inputs: queryFasta, Out: querySketchDir, Threads: db.Threads}.BuildCommand()
	if err != nil {
		return nil, fmt.Errorf("skani: %w", err)
	}
	if err := db.run(sketchCmd); err != nil {
		return nil, fmt.Errorf("skani: sketch query %s: %w", id, err)
	}

	out := filepath.Join(db.WorkDir, sanitizeID(id)+".dist.tsv")
	distCmd, err := Dist{
		Cmd:     db.BinPath,
		Query:   filepath.Join(querySketchDir, sanitizeID(id)+".query.fasta.sketch"),
		Refs:    filepath.Join(db.SketchDir, "*.sketch"),
		Out:     out,
		Threads: db.Threads,
	}.BuildCommand()
	if err != nil {
		return nil, fmt.Errorf("skani: %w", err)
	}
	if err := db.run(distCmd); err != nil {
		return nil, fmt.Errorf("skani: dist %s: %w", id, err)
	}

	f, err := os.Open(out)
	if err != nil {
		return nil, fmt.Errorf("skani: %w", err)
	}
	defer f.Close()
	return ParseDist(bufio.NewReader(f))
}
