// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package seq

import "encoding/json"

// ContigJSON is the stable, round-trippable JSON shape of a Contig.
// Sequence is omitted unless explicitly requested, to keep artefacts
// compact; ContigGroup and cluster fields are populated only when the
// contig is serialised as part of its owning group.
type ContigJSON struct {
	ID             string      `json:"id"`
	OriginalID     string      `json:"original_id"`
	Assembler      string      `json:"assembler"`
	Len            int         `json:"len"`
	ATGCCount      ATGCCount   `json:"atgc_count"`
	GCAbs          int         `json:"gc_abs"`
	GCRel          float64     `json:"gc_rel"`
	Coverage       *int        `json:"coverage"`
	Topology       Topology    `json:"topology"`
	Location       Location    `json:"location"`
	AdditionalInfo []string    `json:"additional_info"`
	TestHeader     string      `json:"test-header"`
	Sequence       string      `json:"sequence,omitempty"`
	ContigGroup    string      `json:"contig_group,omitempty"`
	ClusterID      *int        `json:"cluster_id,omitempty"`
	ClusterColor   *[3]float64 `json:"cluster_color,omitempty"`
	ClusterColorRGB string     `json:"cluster_color_rgb,omitempty"`
}

// ToJSON renders c as its stable JSON shape. groupID and cluster info, if
// non-zero, are embedded the way ContigGroup.ToJSON propagates them onto
// each member contig.
func (c Contig) ToJSON(includeSequence bool, groupID string, clusterID *int, clusterColor *[3]float64) ContigJSON {
	testHeader, _ := c.Header("test_scf0", "test-plasmid")
	j := ContigJSON{
		ID:              c.ID(),
		OriginalID:      c.OriginalID,
		Assembler:       c.Assembler,
		Len:             c.Len(),
		ATGCCount:       c.ATGC,
		GCAbs:           c.GCAbs(),
		GCRel:           c.GCRel(),
		Coverage:        c.Coverage,
		Topology:        c.Topology,
		Location:        c.Location,
		AdditionalInfo:  c.AdditionalInfo,
		TestHeader:      testHeader,
		ContigGroup:     groupID,
		ClusterID:       clusterID,
		ClusterColor:    clusterColor,
	}
	if clusterColor != nil {
		j.ClusterColorRGB = rgbToCSS(*clusterColor)
	}
	if includeSequence {
		j.Sequence = c.Sequence
	}
	return j
}

// ContigFromJSON reconstructs a Contig from its serialised shape. If the
// shape omitted the sequence, Len() still reports the serialised length.
func ContigFromJSON(j ContigJSON) Contig {
	c := Contig{
		Assembler:      j.Assembler,
		OriginalID:     j.OriginalID,
		Sequence:       j.Sequence,
		ATGC:           j.ATGCCount,
		Topology:       j.Topology,
		Location:       j.Location,
		Coverage:       j.Coverage,
		AdditionalInfo: j.AdditionalInfo,
	}
	if j.Sequence == "" {
		l := j.Len
		c.lenOverride = &l
	}
	return c
}

// GroupJSON is the stable, round-trippable JSON shape of a ContigGroup.
type GroupJSON struct {
	ID              string                `json:"id"`
	Len             int                   `json:"len"`
	GCAbs           int                   `json:"gc_abs"`
	GCRel           float64               `json:"gc_rel"`
	Assembler       string                `json:"assembler"`
	Contigs         map[string]ContigJSON `json:"contigs"`
	TopologyOrN     string                `json:"topology_or_n_contigs"`
	ClusterID       *int                  `json:"cluster_id,omitempty"`
	ClusterColor    *[3]float64           `json:"cluster_color,omitempty"`
	ClusterColorRGB string                `json:"cluster_color_rgb,omitempty"`
}

// ToJSON renders g as its stable JSON shape, embedding every member
// contig with the group's cluster annotation propagated onto each.
func (g *ContigGroup) ToJSON(includeSequence bool) GroupJSON {
	contigs := make(map[string]ContigJSON, len(g.Contigs))
	for _, c := range g.Contigs {
		contigs[c.ID()] = c.ToJSON(includeSequence, g.ID(), g.ClusterID, g.ClusterColor)
	}
	j := GroupJSON{
		ID:           g.ID(),
		Len:          g.Len(),
		GCAbs:        g.GCAbs(),
		GCRel:        g.GCRel(),
		Assembler:    g.Assembler(),
		Contigs:      contigs,
		TopologyOrN:  g.TopologyOrNContigs(false),
		ClusterID:    g.ClusterID,
		ClusterColor: g.ClusterColor,
	}
	if g.ClusterColor != nil {
		j.ClusterColorRGB = g.clusterColorRGB
	}
	return j
}

// GroupFromJSON reconstructs a ContigGroup from its serialised shape.
// Member contig order follows the contig's Len()s, descending, matching
// the invariant Sort() would otherwise establish.
func GroupFromJSON(j GroupJSON) *ContigGroup {
	contigs := make([]Contig, 0, len(j.Contigs))
	for _, cj := range j.Contigs {
		contigs = append(contigs, ContigFromJSON(cj))
	}
	g := NewContigGroup(contigs)
	g.Sort()
	l := j.Len
	g.lenOverride = &l
	g.ClusterID = j.ClusterID
	if j.ClusterColor != nil {
		g.SetClusterColor(*j.ClusterColor)
	}
	return g
}

// AssemblyJSON is the stable, round-trippable JSON shape of an Assembly.
type AssemblyJSON struct {
	Assembler    string               `json:"assembler"`
	AssemblyDir  string               `json:"assembly_dir"`
	Len          int                  `json:"len"`
	Plot         string               `json:"plot,omitempty"`
	GFA          string               `json:"gfa,omitempty"`
	ContigGroups map[string]GroupJSON `json:"contig_groups"`
}

// ToJSON renders a as its stable JSON shape.
func (a *Assembly) ToJSON(includeSequence bool) AssemblyJSON {
	groups := make(map[string]GroupJSON, len(a.ContigGroups))
	for _, g := range a.ContigGroups {
		groups[g.ID()] = g.ToJSON(includeSequence)
	}
	return AssemblyJSON{
		Assembler:    a.Assembler,
		AssemblyDir:  a.AssemblyDir,
		Len:          a.Len(),
		Plot:         a.Plot,
		GFA:          a.GFA,
		ContigGroups: groups,
	}
}

// AssemblyFromJSON reconstructs an Assembly from its serialised shape.
func AssemblyFromJSON(j AssemblyJSON) *Assembly {
	a := NewAssembly(j.Assembler, j.AssemblyDir)
	a.Plot = j.Plot
	a.GFA = j.GFA
	for _, gj := range j.ContigGroups {
		a.ContigGroups = append(a.ContigGroups, GroupFromJSON(gj))
	}
	a.Sort()
	return a
}

// MarshalAssemblies renders assembler -> Assembly as the
// assemblies.json artefact.
func MarshalAssemblies(assemblies []*Assembly, includeSequence bool) ([]byte, error) {
	m := make(map[string]AssemblyJSON, len(assemblies))
	for _, a := range assemblies {
		m[a.Assembler] = a.ToJSON(includeSequence)
	}
	return json.MarshalIndent(m, "", "  ")
}
