// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package seq holds the normalised sequence model shared by every
// importer: contigs, the contig groups an assembly graph collapses them
// into, and whole assemblies. Values in this package are immutable once
// constructed, except for the cluster and quality annotations attached
// later by the ANI engine and the orchestrator.
package seq

import (
	"fmt"
	"strings"
)

// Topology describes the inferred shape of a nucleic acid molecule.
type Topology string

// Valid Topology values. The zero value means unset, distinct from
// Unknown, which records that the importer looked and could not tell.
const (
	Circular        Topology = "circular"
	Linear          Topology = "linear"
	UnknownTopology Topology = "unknown"
)

// Location describes the inferred replicon class of a contig group.
type Location string

// Valid Location values. The zero value means unset.
const (
	Chromosome      Location = "chromosome"
	Plasmid         Location = "plasmid"
	UnknownLocation Location = "unknown"
)

// ATGCCount is the per-base composition of a sequence.
type ATGCCount struct {
	A, T, G, C int
}

// Sum returns the total base count, equal to the sequence length.
func (c ATGCCount) Sum() int { return c.A + c.T + c.G + c.C }

// reverseComplement returns the counts that would be observed if the
// sequence were read from the opposite strand.
func (c ATGCCount) reverseComplement() ATGCCount {
	return ATGCCount{A: c.T, T: c.A, G: c.C, C: c.G}
}

// invariant picks, of c and its reverse complement, the one that is
// lexicographically smaller on (A, G). GC content is invariant to
// sequencing orientation but the raw ATGC counts are not; this canonical
// choice makes the stored counts orientation-invariant so that the same
// molecule sequenced from either strand serialises identically. Ties keep
// c, matching Python's stable min() over (orig, reverse-complement).
func (c ATGCCount) invariant() ATGCCount {
	r := c.reverseComplement()
	if c.A < r.A || (c.A == r.A && c.G <= r.G) {
		return c
	}
	return r
}

// Contig is a single contiguous assembled sequence produced by one
// assembler.
type Contig struct {
	Assembler      string
	OriginalID     string
	Sequence       string // empty when loaded without sequence data (see ContigJSON)
	ATGC           ATGCCount
	Topology       Topology
	Location       Location
	Coverage       *int
	AdditionalInfo []string

	lenOverride *int // set when reconstructed from JSON without a sequence
}

// ID is the canonical, sample-wide-unique identifier for the contig.
func (c Contig) ID() string {
	return c.Assembler + "@" + c.OriginalID
}

// NewContig builds a Contig from a raw FASTA header and its sequence.
// header is the full text following '>', including the description; the
// canonical id is the substring after the last '|' in the token before
// the first space. sequence must be over the alphabet {A,T,C,G}.
func NewContig(assembler, header, sequence string) (Contig, error) {
	originalID := parseOriginalID(header)
	counts, err := countATGC(sequence)
	if err != nil {
		return Contig{}, fmt.Errorf("seq: contig %s@%s: %w", assembler, originalID, err)
	}
	return Contig{
		Assembler:  assembler,
		OriginalID: originalID,
		Sequence:   sequence,
		ATGC:       counts.invariant(),
	}, nil
}

func parseOriginalID(header string) string {
	if i := strings.IndexByte(header, ' '); i >= 0 {
		header = header[:i]
	}
	if i := strings.LastIndexByte(header, '|'); i >= 0 {
		header = header[i+1:]
	}
	return header
}

func countATGC(sequence string) (ATGCCount, error) {
	if sequence == "" {
		return ATGCCount{}, fmt.Errorf("empty sequence")
	}
	var c ATGCCount
	for i := 0; i < len(sequence); i++ {
		switch sequence[i] {
		case 'A':
			c.A++
		case 'T':
			c.T++
		case 'G':
			c.G++
		case 'C':
			c.C++
		default:
			return ATGCCount{}, fmt.Errorf("invalid character %q at position %d", sequence[i], i)
		}
	}
	return c, nil
}

// Len returns the contig length in bases.
func (c Contig) Len() int {
	if c.lenOverride != nil {
		return *c.lenOverride
	}
	return len(c.Sequence)
}

// GCAbs returns the absolute number of G and C bases.
func (c Contig) GCAbs() int { return c.ATGC.G + c.ATGC.C }

// GCRel returns the fraction of bases that are G or C.
func (c Contig) GCRel() float64 {
	n := c.Len()
	if n == 0 {
		return 0
	}
	return float64(c.GCAbs()) / float64(n)
}

// LowBaseFraction reports the smallest fraction any one of A, T, G, C
// makes up of the contig; QualityFlags compares it against the warn and
// danger thresholds. It generalises the original curator's atgc_badge coloring.
func (c Contig) LowBaseFraction() float64 {
	n := c.Len()
	if n == 0 {
		return 0
	}
	min := c.ATGC.A
	for _, v := range []int{c.ATGC.T, c.ATGC.G, c.ATGC.C} {
		if v < min {
			min = v
		}
	}
	return float64(min) / float64(n)
}

// QualityFlags reports this contig's diagnostic warnings, generalising
// the curator's coverage_badge/atgc_badge classification thresholds
// into plain messages for the orchestrator's warning list rather than
// HTML badges.
func (c Contig) QualityFlags() []string {
	var flags []string
	switch low := c.LowBaseFraction(); {
	case low < 0.02:
		flags = append(flags, fmt.Sprintf("%s: a base makes up less than 2%% of the sequence", c.ID()))
	case low < 0.05:
		flags = append(flags, fmt.Sprintf("%s: a base makes up less than 5%% of the sequence", c.ID()))
	}
	switch {
	case c.Coverage == nil:
		flags = append(flags, fmt.Sprintf("%s: no coverage reported", c.ID()))
	case *c.Coverage >= 50:
		// healthy, no flag
	case *c.Coverage >= 30:
		flags = append(flags, fmt.Sprintf("%s: coverage %dx below 50x", c.ID(), *c.Coverage))
	default:
		flags = append(flags, fmt.Sprintf("%s: coverage %dx below 30x", c.ID(), *c.Coverage))
	}
	return flags
}

// Header builds a FASTA header for the contig using the curator export
// grammar:
//
//	>{name} [length=N] [topology=...] [completeness=complete]? [location=...] [plasmid-name=...]? [coverage=Nx]? [assembler=...] [old-id=...] {extra...}
//
// plasmidName is required only when Location is Plasmid.
func (c Contig) Header(name, plasmidName string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, ">%s [length=%d]", name, c.Len())
	switch c.Topology {
	case Circular:
		b.WriteString(" [topology=circular] [completeness=complete]")
	case Linear:
		b.WriteString(" [topology=linear]")
	}
	switch c.Location {
	case Chromosome:
		b.WriteString(" [location=chromosome]")
	case Plasmid:
		if plasmidName == "" {
			return "", fmt.Errorf("seq: contig %s: location=plasmid requires a plasmid name", c.ID())
		}
		b.WriteString(" [location=plasmid]")
		fmt.Fprintf(&b, " [plasmid-name=%s]", plasmidName)
	}
	if c.Coverage != nil {
		fmt.Fprintf(&b, " [coverage=%dx]", *c.Coverage)
	}
	if c.Assembler != "" {
		fmt.Fprintf(&b, " [assembler=%s]", c.Assembler)
	}
	if c.OriginalID != "" {
		fmt.Fprintf(&b, " [old-id=%s]", c.OriginalID)
	}
	for _, info := range c.AdditionalInfo {
		b.WriteByte(' ')
		b.WriteString(info)
	}
	return b.String(), nil
}

// String renders a short human-readable summary, e.g. for -verbose logs.
func (c Contig) String() string {
	topology := string(c.Topology)
	if topology == "" {
		topology = "?"
	}
	return fmt.Sprintf("<Contig: %s:%s %s %s>", c.Assembler, c.OriginalID, humanBP(c.Len()), topology)
}
