// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gfa

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strings"

	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"
)

// Graph is the segment-adjacency multimap parsed from a GFA file, plus
// the set of segments flagged circular by a self-edge. Segment and
// neighbour order is insertion order, which the importer's union-find
// pass relies on for deterministic grouping.
type Graph struct {
	order    []string
	edges    map[string][]string
	circular map[string]bool
}

// Segments returns the segment names in the order first seen.
func (g *Graph) Segments() []string { return g.order }

// Neighbours returns segment's adjacent segments in the order first
// seen. The result must not be mutated.
func (g *Graph) Neighbours(segment string) []string { return g.edges[segment] }

// IsCircular reports whether segment had a self-edge (an `L` line or `P`
// path including itself in both endpoints).
func (g *Graph) IsCircular(segment string) bool { return g.circular[segment] }

// Has reports whether segment appears anywhere in the graph.
func (g *Graph) Has(segment string) bool {
	_, ok := g.edges[segment]
	return ok
}

func newGraph() *Graph {
	return &Graph{edges: make(map[string][]string), circular: make(map[string]bool)}
}

func (g *Graph) touch(segment string) {
	if _, ok := g.edges[segment]; !ok {
		g.edges[segment] = nil
		g.order = append(g.order, segment)
	}
}

func (g *Graph) connect(a, b string) {
	g.touch(a)
	g.touch(b)
	g.edges[a] = append(g.edges[a], b)
	if a != b {
		g.edges[b] = append(g.edges[b], a)
	} else {
		g.circular[a] = true
	}
}

// ReadGFA parses the `L` (Link) and `P` (Path) records of a GFA v1
// stream into a Graph. `#`, `H`, `A`, `S` lines are ignored; other
// record types are logged as warnings through logger (nil disables
// logging) but do not abort parsing.
func ReadGFA(r io.Reader, logger *log.Logger) (*Graph, error) {
	g := newGraph()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		switch fields[0] {
		case "L":
			if len(fields) < 4 {
				return nil, fmt.Errorf("gfa: malformed L line: %q", line)
			}
			g.connect(fields[1], fields[3])
		case "P":
			if len(fields) < 3 {
				return nil, fmt.Errorf("gfa: malformed P line: %q", line)
			}
			pathName := fields[1]
			g.touch(pathName)
			for _, seg := range strings.Split(fields[2], ",") {
				seg = strings.TrimSpace(seg)
				if seg == "" {
					continue
				}
				name := seg[:len(seg)-1] // strip trailing +/- orientation
				g.connect(pathName, name)
			}
		case "#", "H", "A", "S":
			// ignored per the GFA v1 subset this system consumes.
		default:
			if logger != nil {
				prefix := line
				if len(prefix) > 200 {
					prefix = prefix[:200]
				}
				logger.Printf("gfa: unknown record type %q, offending line (first 200 chars): %s", fields[0], prefix)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("gfa: %w", err)
	}
	return g, nil
}

// Renamed returns a copy of g with every segment name passed through
// rename. It is used to reconcile an assembler's graph segment naming
// with the naming its FASTA output uses for the same sequences.
func (g *Graph) Renamed(rename func(string) string) *Graph {
	out := newGraph()
	for _, name := range g.order {
		newName := rename(name)
		out.touch(newName)
		for _, nb := range g.edges[name] {
			out.edges[newName] = append(out.edges[newName], rename(nb))
		}
		if g.circular[name] {
			out.circular[newName] = true
		}
	}
	return out
}

// DOT renders the graph as a DOT document for debugging, following the
// same gonum/graph/simple + encoding/dot pattern used to dump mismatch
// graphs elsewhere in this codebase.
func (g *Graph) DOT() ([]byte, error) {
	sg := simple.NewUndirectedGraph()
	ids := make(map[string]int64, len(g.order))
	for i, name := range g.order {
		id := int64(i)
		ids[name] = id
		sg.AddNode(namedNode{id: id, name: name})
	}
	seen := make(map[[2]int64]bool)
	for _, name := range g.order {
		for _, nb := range g.edges[name] {
			a, b := ids[name], ids[nb]
			if a == b {
				continue // self-loop circularity flag, not a graph edge
			}
			if a > b {
				a, b = b, a
			}
			key := [2]int64{a, b}
			if seen[key] {
				continue
			}
			seen[key] = true
			sg.SetEdge(simple.Edge{F: sg.Node(a), T: sg.Node(b)})
		}
	}
	return dot.Marshal(sg, "assembly_graph", "", "\t")
}

type namedNode struct {
	id   int64
	name string
}

func (n namedNode) ID() int64     { return n.id }
func (n namedNode) DOTID() string { return n.name }
