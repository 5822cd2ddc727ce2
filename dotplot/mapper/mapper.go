// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mapper implements the dotplot engine's long-read-mapper
// alignment backend: it shells out to an external PAF-producing
// aligner, parses its output, and culls alignments wholly contained
// within a higher-scoring one.
package mapper

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/biogo/external"
	"github.com/biogo/store/interval"

	"github.com/kortschak/curate/dotplot"
)

// Align describes an invocation of an external long-read mapper
// (minimap2-compatible PAF output).
type Align struct {
	Cmd string `buildarg:"{{if .}}{{.}}{{else}}minimap2{{end}}"` // minimap2

	Preset    string `buildarg:"{{with .}}-x{{split}}{{.}}{{end}}"` // -x <preset>
	Threads   int    `buildarg:"{{if .}}-t{{split}}{{.}}{{end}}"`   // -t <n>
	Secondary string `buildarg:"{{with .}}--secondary={{.}}{{end}}"`

	Ref   string `buildarg:"{{.}}"` // reference fasta
	Query string `buildarg:"{{.}}"` // query fasta

	ExtraFlags string
}

func (a Align) BuildCommand() (*exec.Cmd, error) {
	cl := external.Must(external.Build(a))
	var extra []string
	if a.ExtraFlags != "" {
		extra = strings.Split(a.ExtraFlags, " ")
	}
	return exec.Command(cl[0], append(cl[1:], extra...)...), nil
}

// Backend runs an external mapper between two concatenated sequences
// and returns its hits as dotplot.Alignment, with contained
// lower-scoring alignments culled.
type Backend struct {
	BinPath string // empty selects "minimap2" on PATH
	WorkDir string
	Threads int

	run func(*exec.Cmd) error
}

// NewBackend returns a Backend whose scratch files are written under
// workDir.
func NewBackend(workDir string) *Backend {
	return &Backend{WorkDir: workDir, run: runCmd}
}

func runCmd(cmd *exec.Cmd) error {
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", cmd.Path, err, stderr.String())
	}
	return nil
}

func (b *Backend) Align(refSeqs, qrySeqs [][]byte) ([]dotplot.Alignment, error) {
	refPath := filepath.Join(b.WorkDir, "ref.fasta")
	qryPath := filepath.Join(b.WorkDir, "qry.fasta")
	if err := writeFasta(refPath, "ref", refSeqs); err != nil {
		return nil, fmt.Errorf("mapper: %w", err)
	}
	if err := writeFasta(qryPath, "qry", qrySeqs); err != nil {
		return nil, fmt.Errorf("mapper: %w", err)
	}

	cmd, err := Align{
		Cmd:     b.BinPath,
		Preset:  "asm5",
		Threads: b.Threads,
		Ref:     refPath,
		Query:   qryPath,
	}.BuildCommand()
	if err != nil {
		return nil, fmt.Errorf("mapper: %w", err)
	}
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := b.run(cmd); err != nil {
		return nil, fmt.Errorf("mapper: %w", err)
	}

	records, err := ParsePAF(bytes.NewReader(out.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("mapper: %w", err)
	}
	return cullContained(records), nil
}

func writeFasta(path, id string, seqs [][]byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	fmt.Fprintf(w, ">%s\n", id)
	for _, s := range seqs {
		w.Write(s)
	}
	w.WriteByte('\n')
	return w.Flush()
}

// Record is the part of one PAF line the dotplot uses: query
// start/end, strand, target start/end, match count, block length and
// mapping quality. Sequence names and lengths are not kept.
type Record struct {
	QueryStart, QueryEnd   int
	TargetStart, TargetEnd int
	Strand                 byte // '+' or '-'
	Matches                int
	BlockLength            int
	MapQ                   int
	Primary                bool
}

// ParsePAF reads PAF records from r. A secondary or inversion
// alignment (tp:A:S or tp:A:I tag, or the "tp" field absent and MapQ 0
// as a fallback heuristic) is marked non-primary.
func ParsePAF(r *bytes.Reader) ([]Record, error) {
	var recs []Record
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		f := strings.Split(line, "\t")
		if len(f) < 12 {
			return nil, fmt.Errorf("malformed PAF line: %q", line)
		}
		rec := Record{Primary: true}
		var err error
		rec.QueryStart, err = strconv.Atoi(f[2])
		if err != nil {
			return nil, err
		}
		rec.QueryEnd, err = strconv.Atoi(f[3])
		if err != nil {
			return nil, err
		}
		if f[4] != "" {
			rec.Strand = f[4][0]
		} else {
			rec.Strand = '+'
		}
		rec.TargetStart, err = strconv.Atoi(f[7])
		if err != nil {
			return nil, err
		}
		rec.TargetEnd, err = strconv.Atoi(f[8])
		if err != nil {
			return nil, err
		}
		rec.Matches, err = strconv.Atoi(f[9])
		if err != nil {
			return nil, err
		}
		rec.BlockLength, err = strconv.Atoi(f[10])
		if err != nil {
			return nil, err
		}
		rec.MapQ, err = strconv.Atoi(f[11])
		if err != nil {
			return nil, err
		}
		hasTP := false
		for _, tag := range f[12:] {
			if strings.HasPrefix(tag, "tp:A:") {
				hasTP = true
			}
			if tag == "tp:A:S" || tag == "tp:A:I" {
				rec.Primary = false
			}
		}
		if !hasTP && rec.MapQ == 0 {
			rec.Primary = false
		}
		// When strand is '-', the query start/end are swapped on
		// ingestion so the line slope is correct in (ref, qry) space.
		if rec.Strand == '-' {
			rec.QueryStart, rec.QueryEnd = rec.QueryEnd, rec.QueryStart
		}
		recs = append(recs, rec)
	}
	return recs, sc.Err()
}

// cullContained removes alignments that are completely contained,
// on both axes, within an alignment of at least equal mapping quality
// (on equal quality only an earlier record culls a later one), using the
// same interval-tree approach a GFF feature culler would use for
// one-dimensional containment: the target-axis interval narrows the
// candidate set, then the query axis is checked directly.
func cullContained(recs []Record) []dotplot.Alignment {
	var tree interval.IntTree
	for i, r := range recs {
		err := tree.Insert(recInterval{uid: uintptr(i), rec: r, idx: i}, true)
		if err != nil {
			continue
		}
	}
	tree.AdjustRanges()

	keep := make([]bool, len(recs))
outer:
	for i, r := range recs {
		keep[i] = true
		for _, ov := range tree.Get(recInterval{rec: r}) {
			h := ov.(recInterval)
			if h.idx == i {
				continue
			}
			other := recs[h.idx]
			if containsTarget(other, r) && containsQuery(other, r) && other.MapQ >= r.MapQ && !(other.MapQ == r.MapQ && h.idx > i) {
				keep[i] = false
				continue outer
			}
		}
	}

	out := make([]dotplot.Alignment, 0, len(recs))
	for i, r := range recs {
		if !keep[i] {
			continue
		}
		strand := int8(1)
		if r.Strand == '-' {
			strand = -1
		}
		out = append(out, dotplot.Alignment{
			RefStart: r.TargetStart, RefEnd: r.TargetEnd,
			QryStart: r.QueryStart, QryEnd: r.QueryEnd,
			Strand: strand, Primary: r.Primary,
		})
	}
	return out
}

func containsQuery(outer, inner Record) bool {
	lo, hi := inner.QueryStart, inner.QueryEnd
	if lo > hi {
		lo, hi = hi, lo
	}
	olo, ohi := outer.QueryStart, outer.QueryEnd
	if olo > ohi {
		olo, ohi = ohi, olo
	}
	return olo <= lo && hi <= ohi
}

// containsTarget reports whether inner's target range lies entirely
// within outer's. The interval tree only narrows candidates to
// records whose target ranges overlap at all; containment on this
// axis still has to be checked explicitly, the same as containsQuery
// does for the query axis.
func containsTarget(outer, inner Record) bool {
	lo, hi := inner.TargetStart, inner.TargetEnd
	if lo > hi {
		lo, hi = hi, lo
	}
	olo, ohi := outer.TargetStart, outer.TargetEnd
	if olo > ohi {
		olo, ohi = ohi, olo
	}
	return olo <= lo && hi <= ohi
}

type recInterval struct {
	uid uintptr
	idx int
	rec Record
}

func (r recInterval) Overlap(b interval.IntRange) bool {
	return b.Start <= r.rec.TargetEnd && r.rec.TargetStart <= b.End
}
func (r recInterval) ID() uintptr { return r.uid }
func (r recInterval) Range() interval.IntRange {
	return interval.IntRange{Start: r.rec.TargetStart, End: r.rec.TargetEnd}
}
