// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package importer

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kortschak/curate/seq"
)

// Flye imports a github.com/fenderglass/Flye output directory. Flye's
// assembly graph names segments edge_N while assembly.fasta and
// assembly_info.txt name the same sequence contig_N; Flye normalises
// the edge_ prefix to contig_ before matching segments against
// contigs.
type Flye struct {
	Base
}

// NewFlye returns a Flye importer logging through logger (nil selects
// the default logger).
func NewFlye(logger *log.Logger) Importer {
	return &Flye{Base{Assembler: "flye", AssemblyDir: "flye", Logger: logger}}
}

func (f *Flye) Name() string { return "flye" }

const (
	flyeFasta = "assembly.fasta"
	flyeGFA   = "assembly_graph.gfa"
	flyePlot  = "assembly_graph.gfa.svg"
	flyeInfo  = "assembly_info.txt"
)

func flyeNormalize(name string) string {
	return strings.Replace(name, "edge_", "contig_", 1)
}

func (f *Flye) LoadAssembly(sampleDir string) (*seq.Assembly, error) {
	dirAbs, err := f.ResolveDir(sampleDir)
	if err != nil {
		return nil, err
	}

	contigs, err := f.LoadFASTA(dirAbs, flyeFasta)
	if err != nil {
		return nil, err
	}

	g, err := f.LoadGFA(dirAbs, flyeGFA)
	if err != nil {
		return nil, err
	}
	g = g.Renamed(flyeNormalize)

	circular := make(map[string]bool)
	for _, seg := range g.Segments() {
		if g.IsCircular(seg) {
			circular[seg] = true
		}
	}
	f.DeclareTopology(contigs, circular)

	if err := f.loadAssemblyInfo(contigs, filepath.Join(dirAbs, flyeInfo)); err != nil {
		return nil, err
	}

	groups := CreateGroups(g)
	asm := f.CreateAssembly(f.AssemblyDir, groups, contigs)
	asm.GFA = flyeGFA
	asm.Plot = flyePlot
	return asm, nil
}

// loadAssemblyInfo parses Flye's assembly_info.txt (a TSV with a
// header row: #seq_name length cov. circ. repeat mult. alt_group
// graph_path) and attaches coverage to each matching contig. It warns,
// rather than fails, when length or circularity disagree with what
// was already derived from the FASTA and GFA.
func (f *Flye) loadAssemblyInfo(contigs map[string]seq.Contig, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return failedf(f.Assembler, SeverityDanger, "%w", err)
	}
	defer file.Close()

	r := csv.NewReader(bufio.NewReader(file))
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return failedf(f.Assembler, SeverityDanger, "reading assembly_info.txt header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimPrefix(name, "#")] = i
	}
	for _, want := range []string{"seq_name", "length", "cov.", "circ."} {
		if _, ok := col[want]; !ok {
			return failedf(f.Assembler, SeverityDanger, "assembly_info.txt missing column %q", want)
		}
	}

	seen := make(map[string]bool, len(contigs))
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return failedf(f.Assembler, SeverityDanger, "reading assembly_info.txt: %w", err)
		}
		name := rec[col["seq_name"]]
		c, ok := contigs[name]
		if !ok {
			return failedf(f.Assembler, SeverityDanger, "assembly_info.txt: %s not in assembly.fasta", name)
		}
		seen[name] = true

		if length, err := strconv.Atoi(rec[col["length"]]); err == nil && length != c.Len() {
			f.logger().Printf("flye: %s: assembly_info length %d != fasta length %d", name, length, c.Len())
		}
		infoCircular := rec[col["circ."]] == "Y"
		if (c.Topology == seq.Circular) != infoCircular {
			f.logger().Printf("flye: %s: topology %s disagrees with assembly_info circ.=%s", name, c.Topology, rec[col["circ."]])
		}
		cov, err := strconv.Atoi(rec[col["cov."]])
		if err != nil {
			return failedf(f.Assembler, SeverityDanger, "assembly_info.txt: bad coverage for %s: %w", name, err)
		}
		c.Coverage = &cov
		contigs[name] = c
	}
	for name := range contigs {
		if !seen[name] {
			return failedf(f.Assembler, SeverityDanger, "assembly_info.txt missing row for contig %s", name)
		}
	}
	return nil
}
