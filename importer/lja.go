// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package importer

import (
	"log"

	"github.com/kortschak/curate/seq"
)

// LJA imports an github.com/AntonBankevich/LJA output directory. LJA's
// multiplex de Bruijn graph segment names already agree with the
// sequence ids in assembly.fasta, so no renaming step is needed.
type LJA struct {
	Base
}

// NewLJA returns an LJA importer logging through logger (nil selects
// the default logger).
func NewLJA(logger *log.Logger) Importer {
	return &LJA{Base{Assembler: "lja", AssemblyDir: "lja", Logger: logger}}
}

func (l *LJA) Name() string { return "lja" }

const (
	ljaFasta = "assembly.fasta"
	ljaGFA   = "mdbg.gfa"
	ljaPlot  = "mdbg.gfa.svg"
)

func (l *LJA) LoadAssembly(sampleDir string) (*seq.Assembly, error) {
	dirAbs, err := l.ResolveDir(sampleDir)
	if err != nil {
		return nil, err
	}

	contigs, err := l.LoadFASTA(dirAbs, ljaFasta)
	if err != nil {
		return nil, err
	}

	g, err := l.LoadGFA(dirAbs, ljaGFA)
	if err != nil {
		return nil, err
	}

	circular := make(map[string]bool)
	for _, seg := range g.Segments() {
		if g.IsCircular(seg) {
			circular[seg] = true
		}
	}
	l.DeclareTopology(contigs, circular)

	groups := CreateGroups(g)
	asm := l.CreateAssembly(l.AssemblyDir, groups, contigs)
	asm.GFA = ljaGFA
	asm.Plot = ljaPlot
	return asm, nil
}
