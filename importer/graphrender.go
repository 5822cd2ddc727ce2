// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package importer

import (
	"os/exec"

	"github.com/biogo/external"
)

// GraphRenderer is an optional capability an Importer can implement
// when its assembler's raw GFA benefits from an external
// visualisation step beyond the DOT dump gfa.Graph.DOT already
// provides. No concrete importer in this package implements it; it is
// an extension point for an assembler whose graph output is not
// usefully summarised by gfa.Graph alone (irregular junction
// multiplicities, unitig-vs-contig duplication), mirroring
// `inactive/PacbioImporter.py` being present in the original but
// unused by default.
type GraphRenderer interface {
	RenderGraph(gfaPath, outPath string) error
}

// Gfaviz describes an invocation of the external `gfaviz` renderer,
// built with the same buildarg/external pattern used for every other
// subprocess this codebase shells out to.
type Gfaviz struct {
	Cmd string `buildarg:"{{if .}}{{.}}{{else}}gfaviz{{end}}"` // gfaviz

	Image string `buildarg:"-o{{split}}{{.}}"` // -o <image>
	GFA   string `buildarg:"{{.}}"`            // trailing positional: input GFA path
}

func (g Gfaviz) BuildCommand() (*exec.Cmd, error) {
	cl := external.Must(external.Build(g))
	return exec.Command(cl[0], cl[1:]...), nil
}

// GfavizRenderer renders a GFA file to an image file by shelling out
// to gfaviz.
type GfavizRenderer struct {
	BinPath string // defaults to "gfaviz" when empty
}

// RenderGraph implements GraphRenderer.
func (r GfavizRenderer) RenderGraph(gfaPath, outPath string) error {
	cmd, err := Gfaviz{Cmd: r.BinPath, Image: outPath, GFA: gfaPath}.BuildCommand()
	if err != nil {
		return err
	}
	return cmd.Run()
}
