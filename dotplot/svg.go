// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dotplot

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"github.com/kortschak/curate/seq"
)

const (
	panelPadding = 8
	panelGap     = 4
	tickPixels   = 30
)

var gridTemplate = template.Must(template.New("dotplot-grid").Funcs(template.FuncMap{
	"add": func(a, b int) int { return a + b },
}).Parse(`<svg xmlns="http://www.w3.org/2000/svg" width="{{.Width}}" height="{{.Height}}" font-family="sans-serif" font-size="9">
<rect width="100%" height="100%" fill="white"/>
{{range .Panels}}<g transform="translate({{.X}},{{.Y}})">
{{if .Skipped}}<rect width="{{.W}}" height="{{.H}}" fill="#eeeeee" stroke="#ccc"/>
<text x="{{.W}}" y="{{.H}}" text-anchor="end" dominant-baseline="text-after-edge" fill="#888">{{.Label}}</text>
{{else}}{{if .Diagonal}}<rect width="{{.W}}" height="{{.H}}" fill="#eaffea"/>{{else}}<rect width="{{.W}}" height="{{.H}}" fill="white" stroke="#ccc"/>{{end}}
{{range .VSeps}}<line x1="{{.}}" y1="0" x2="{{.}}" y2="{{$.PanelH}}" stroke="black" stroke-width="0.5"/>
{{end}}{{range .HSeps}}<line x1="0" y1="{{.}}" x2="{{$.PanelW}}" y2="{{.}}" stroke="black" stroke-width="0.5"/>
{{end}}{{range .Points}}<path d="M{{.X}},{{add .Y -2}} L{{.X}},{{add .Y 2}} M{{add .X -2}},{{.Y}} L{{add .X 2}},{{.Y}}" stroke="{{.Color}}" stroke-width="1"/>
{{end}}{{range .Lines}}<line x1="{{.X1}}" y1="{{.Y1}}" x2="{{.X2}}" y2="{{.Y2}}" stroke="{{.Color}}" stroke-width="{{.Width}}"/>
{{end}}{{end}}{{if .ShowTop}}<text x="2" y="-2" font-weight="bold">{{.RefID}}</text>{{end}}{{if .ShowLeft}}<text x="-2" y="10" text-anchor="end" transform="rotate(-90,-2,10)">{{.QryID}}</text>{{end}}
</g>
{{end}}
</svg>
`))

type panelPoint struct {
	X, Y  int
	Color string
}

type panelLine struct {
	X1, Y1, X2, Y2 int
	Color          string
	Width          float64
}

type panel struct {
	X, Y, W, H        int
	PanelW, PanelH    int
	Diagonal          bool
	Skipped           bool
	Label             string
	ShowTop, ShowLeft bool
	RefID, QryID      string
	VSeps, HSeps      []int
	Points            []panelPoint
	Lines             []panelLine
}

type gridSVGData struct {
	Width, Height int
	Panels        []panel
}

// WriteSVG lays out grid's cells into one triangular panel composition
// and writes the result as SVG to path. Forward-strand hits are drawn
// mediumblue, reverse-strand firebrick; point-like (k-mer) hits are
// drawn as small plus marks, mapper hits as line segments whose
// thickness marks primary vs secondary status.
func WriteSVG(path string, grid *Grid, bpPerPixel float64) error {
	if bpPerPixel <= 0 {
		bpPerPixel = DefaultBPPerPixel
	}
	n := len(grid.Groups)
	if n == 0 {
		return fmt.Errorf("dotplot: empty grid")
	}

	widths := make([]int, n)
	offsets := make([]int, n)
	x := panelPadding
	for i, g := range grid.Groups {
		w := pixels(g.Len(), bpPerPixel)
		if w < 1 {
			w = 1
		}
		widths[i] = w
		offsets[i] = x
		x += w + panelGap
	}
	total := x - panelGap + panelPadding

	byIJ := make(map[[2]int]Cell, len(grid.Cells))
	for _, c := range grid.Cells {
		byIJ[[2]int{c.I, c.J}] = c
	}
	skipped := make(map[[2]int]bool, len(grid.Skipped))
	for _, s := range grid.Skipped {
		skipped[[2]int{s.I, s.J}] = true
	}

	var panels []panel
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if skipped[[2]int{i, j}] {
				panels = append(panels, panel{
					X: offsets[j], Y: offsets[i],
					W: widths[j], H: widths[i],
					PanelW: widths[j], PanelH: widths[i],
					Skipped:  true,
					Label:    "too large to align",
					ShowTop:  i == 0,
					ShowLeft: j == 0,
					RefID:    grid.Groups[j].ID(),
					QryID:    grid.Groups[i].ID(),
				})
				continue
			}
			// The panel in row i, column j has group j on its x axis and
			// group i on its y axis, which is Cell{I: j, J: i}.
			cell, ok := byIJ[[2]int{j, i}]
			if !ok {
				continue
			}
			p := panel{
				X: offsets[j], Y: offsets[i],
				W: widths[j], H: widths[i],
				PanelW: widths[j], PanelH: widths[i],
				Diagonal: i == j && singleCircular(grid.Groups[i]),
				ShowTop:  i == 0,
				ShowLeft: j == 0,
				RefID:    grid.Groups[j].ID(),
				QryID:    grid.Groups[i].ID(),
				VSeps:    boundaryPixels(grid.Groups[j], bpPerPixel),
				HSeps:    boundaryPixels(grid.Groups[i], bpPerPixel),
			}
			for _, a := range cell.Alignments {
				color := "mediumblue"
				if a.Strand < 0 {
					color = "firebrick"
				}
				if a.PointLike {
					p.Points = append(p.Points, panelPoint{
						X: pixels(a.RefStart, bpPerPixel), Y: pixels(a.QryStart, bpPerPixel), Color: color,
					})
					continue
				}
				width := 1.0
				if a.Primary {
					width = 2
				}
				p.Lines = append(p.Lines, panelLine{
					X1: pixels(a.RefStart, bpPerPixel), Y1: pixels(a.QryStart, bpPerPixel),
					X2: pixels(a.RefEnd, bpPerPixel), Y2: pixels(a.QryEnd, bpPerPixel),
					Color: color, Width: width,
				})
			}
			panels = append(panels, p)
		}
	}

	data := gridSVGData{Width: total + tickPixels, Height: total + tickPixels, Panels: panels}
	var buf bytes.Buffer
	if err := gridTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("dotplot: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func pixels(bp int, bpPerPixel float64) int {
	return int(float64(bp)/bpPerPixel + 0.5)
}

func boundaryPixels(g *seq.ContigGroup, bpPerPixel float64) []int {
	var seps []int
	offset := 0
	for _, c := range g.Contigs {
		offset += c.Len()
		seps = append(seps, pixels(offset, bpPerPixel))
	}
	if len(seps) > 0 {
		seps = seps[:len(seps)-1]
	}
	return seps
}

func singleCircular(g *seq.ContigGroup) bool {
	return len(g.Contigs) == 1 && g.Contigs[0].Topology == seq.Circular
}
