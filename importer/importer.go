// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package importer loads an assembler's output directory into the
// seq.Assembly model. Each assembler gets its own Importer
// implementation; Base provides the behaviour shared across all of
// them: FASTA/GFA ingestion, union-find grouping, and assembly
// construction.
package importer

import (
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/kortschak/curate/gfa"
	"github.com/kortschak/curate/kerrors"
	"github.com/kortschak/curate/seq"
)

// SeverityWarning and SeverityDanger classify an
// *kerrors.AssemblyFailedError; see package kerrors.
const (
	SeverityWarning = kerrors.SeverityWarning
	SeverityDanger  = kerrors.SeverityDanger
)

// AssemblyFailedError is the error type importers return for bad or
// missing assembler output; see package kerrors.
type AssemblyFailedError = kerrors.AssemblyFailedError

func failedf(importer string, severity kerrors.Severity, format string, args ...interface{}) error {
	return kerrors.Failedf(importer, severity, format, args...)
}

// Importer loads one assembler's output from a sample directory into
// a seq.Assembly.
type Importer interface {
	// Name identifies the importer, used in error messages and in the
	// assembler field of the produced assembly.
	Name() string
	// LoadAssembly reads sampleDir and returns the assembly it
	// describes. An *AssemblyFailedError with SeverityWarning signals
	// that this assembler simply did not run for this sample; the
	// orchestrator skips it and records the message.
	LoadAssembly(sampleDir string) (*seq.Assembly, error)
}

// Base implements the FASTA/GFA ingestion and grouping steps common to
// every concrete importer. Embed it and call its methods from
// LoadAssembly.
type Base struct {
	Assembler   string
	AssemblyDir string // relative to the sample directory
	Logger      *log.Logger

	// DebugGraphDir, when set, makes LoadGFA dump the parsed graph as a
	// DOT document named <Assembler>.dot in this directory, for
	// inspecting the union-find grouping a sample produced. Set via
	// NewWithGraphDebugDir, not directly by callers of LoadAssembly.
	DebugGraphDir string
}

func (b *Base) setDebugGraphDir(dir string) { b.DebugGraphDir = dir }

func (b *Base) logger() *log.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return log.Default()
}

// ResolveDir joins sampleDir with the importer's AssemblyDir and
// confirms it exists, returning a SeverityWarning AssemblyFailedError
// when it does not: the ordinary "this assembler did not run" case.
func (b *Base) ResolveDir(sampleDir string) (string, error) {
	dir := filepath.Join(sampleDir, b.AssemblyDir)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", failedf(b.Assembler, SeverityWarning, "directory %s does not exist", dir)
	}
	return dir, nil
}

// LoadFASTA globs pattern (relative to the resolved assembly
// directory) and parses the single match it expects to find.
func (b *Base) LoadFASTA(dirAbs, pattern string) (map[string]seq.Contig, error) {
	matches, err := filepath.Glob(filepath.Join(dirAbs, pattern))
	if err != nil {
		return nil, failedf(b.Assembler, SeverityDanger, "glob %s: %w", pattern, err)
	}
	if len(matches) != 1 {
		return nil, failedf(b.Assembler, SeverityDanger, "expected exactly one match for %s, found %d", pattern, len(matches))
	}
	f, err := os.Open(matches[0])
	if err != nil {
		return nil, failedf(b.Assembler, SeverityDanger, "%w", err)
	}
	defer f.Close()
	contigs, err := gfa.ReadFASTA(f, b.Assembler)
	if err != nil {
		return nil, failedf(b.Assembler, SeverityDanger, "%w", err)
	}
	return contigs, nil
}

// LoadGFA parses the assembly graph at path relative to dirAbs.
func (b *Base) LoadGFA(dirAbs, name string) (*gfa.Graph, error) {
	path := filepath.Join(dirAbs, name)
	f, err := os.Open(path)
	if err != nil {
		return nil, failedf(b.Assembler, SeverityDanger, "%w", err)
	}
	defer f.Close()
	g, err := gfa.ReadGFA(f, b.logger())
	if err != nil {
		return nil, failedf(b.Assembler, SeverityDanger, "%w", err)
	}
	if b.DebugGraphDir != "" {
		if err := b.writeGraphDOT(g); err != nil {
			b.logger().Printf("%s: graph DOT dump failed: %v", b.Assembler, err)
		}
	}
	return g, nil
}

func (b *Base) writeGraphDOT(g *gfa.Graph) error {
	body, err := g.DOT()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(b.DebugGraphDir, b.Assembler+".dot"), body, 0o644)
}

// CheckGraphCoverage confirms every contig appears somewhere in g,
// returning a SeverityDanger error naming the first contig missing.
// Built-in importers do not call this: a contig with no graph edges
// at all is valid input and becomes a singleton group in
// CreateAssembly. It remains available for an importer whose assembler
// guarantees graph completeness and wants to fail loudly instead.
func (b *Base) CheckGraphCoverage(contigs map[string]seq.Contig, g *gfa.Graph) error {
	ids := make([]string, 0, len(contigs))
	for id := range contigs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if !g.Has(id) {
			return failedf(b.Assembler, SeverityDanger, "contig %s not present in assembly graph", id)
		}
	}
	return nil
}

// DeclareTopology marks each contig circular or linear depending on
// whether its original id is in circular.
func (b *Base) DeclareTopology(contigs map[string]seq.Contig, circular map[string]bool) {
	for id, c := range contigs {
		if circular[id] {
			c.Topology = seq.Circular
		} else {
			c.Topology = seq.Linear
		}
		contigs[id] = c
	}
}

// unionFind is a minimal disjoint-set structure over segment names,
// processed in deterministic insertion order so that repeated runs on
// the same graph produce identical groupings.
type unionFind struct {
	parent map[string]string
	order  []string
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[string]string)}
}

func (u *unionFind) add(name string) {
	if _, ok := u.parent[name]; !ok {
		u.parent[name] = name
		u.order = append(u.order, name)
	}
}

func (u *unionFind) find(name string) string {
	root := name
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for u.parent[name] != root {
		u.parent[name], name = root, u.parent[name]
	}
	return root
}

func (u *unionFind) union(a, b string) {
	u.add(a)
	u.add(b)
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[rb] = ra
	}
}

// CreateGroups partitions g's segments into connected components,
// returning each component's members in the order they were first
// seen in g. Segment ordering (and therefore group ordering) is
// deterministic for a given graph.
func CreateGroups(g *gfa.Graph) [][]string {
	uf := newUnionFind()
	for _, seg := range g.Segments() {
		uf.add(seg)
		for _, nb := range g.Neighbours(seg) {
			uf.union(seg, nb)
		}
	}
	index := make(map[string]int)
	var groups [][]string
	for _, seg := range uf.order {
		root := uf.find(seg)
		i, ok := index[root]
		if !ok {
			i = len(groups)
			index[root] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], seg)
	}
	return groups
}

// CreateAssembly builds a seq.Assembly from groups of segment names
// and the contigs keyed by original id. Segments absent from contigs
// are logged and dropped; contigs absent from groups become singleton
// groups, matching the union-find's natural behaviour for isolated
// segments.
func (b *Base) CreateAssembly(assemblyDir string, groups [][]string, contigs map[string]seq.Contig) *seq.Assembly {
	asm := seq.NewAssembly(b.Assembler, assemblyDir)
	remaining := make(map[string]seq.Contig, len(contigs))
	for id, c := range contigs {
		remaining[id] = c
	}
	for _, group := range groups {
		var members []seq.Contig
		for _, segment := range group {
			if c, ok := remaining[segment]; ok {
				members = append(members, c)
				delete(remaining, segment)
			} else {
				b.logger().Printf("%s: segment %s not found in contigs", b.Assembler, segment)
			}
		}
		if len(members) > 0 {
			asm.ContigGroups = append(asm.ContigGroups, seq.NewContigGroup(members))
		} else if len(group) > 0 {
			b.logger().Printf("%s: empty contig group: %v", b.Assembler, group)
		}
	}
	leftoverIDs := make([]string, 0, len(remaining))
	for id := range remaining {
		leftoverIDs = append(leftoverIDs, id)
	}
	sort.Strings(leftoverIDs)
	for _, id := range leftoverIDs {
		b.logger().Printf("%s: contig %s not in any group", b.Assembler, id)
		asm.ContigGroups = append(asm.ContigGroups, seq.NewContigGroup([]seq.Contig{remaining[id]}))
	}
	asm.Sort()
	return asm
}

// Registry maps an assembler name to a constructor for its Importer.
// Importers are registered at compile time rather than discovered
// from a plugin directory; cmd/curate enumerates the built-in set
// through it.
type Registry map[string]func(*log.Logger) Importer

// Names returns the registry's keys in sorted order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
