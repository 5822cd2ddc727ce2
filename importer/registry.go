// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package importer

import "log"

// Builtin lists the assembler importers this binary ships with.
var Builtin = Registry{
	"flye": NewFlye,
	"lja":  NewLJA,
}

// New constructs every registered importer, logging through logger.
func New(logger *log.Logger) []Importer {
	names := Builtin.Names()
	out := make([]Importer, len(names))
	for i, name := range names {
		out[i] = Builtin[name](logger)
	}
	return out
}

// graphDebugger is implemented by *Base through its promoted pointer
// method, so NewWithGraphDebugDir can opt every concrete importer into
// dumping its assembly graph without each one growing a bespoke
// constructor parameter.
type graphDebugger interface {
	setDebugGraphDir(string)
}

// NewWithGraphDebugDir is New, but additionally points every importer
// that embeds Base at dir for its LoadGFA DOT dump. An empty dir
// disables the dump, matching New's default behaviour.
func NewWithGraphDebugDir(logger *log.Logger, dir string) []Importer {
	out := New(logger)
	if dir == "" {
		return out
	}
	for _, imp := range out {
		if d, ok := imp.(graphDebugger); ok {
			d.setDebugGraphDir(dir)
		}
	}
	return out
}
