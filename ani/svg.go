// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ani

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"text/template"
)

const cellPixels = 24
const marginPixels = 160

var clustermapTemplate = template.Must(template.New("clustermap").Funcs(template.FuncMap{
	"cellFill": cellFill,
	"mul":      func(a, b int) int { return a * b },
	"add":      func(a, b int) int { return a + b },
}).Parse(`<svg xmlns="http://www.w3.org/2000/svg" width="{{.Width}}" height="{{.Height}}" font-family="sans-serif" font-size="10">
<rect width="100%" height="100%" fill="white"/>
{{range $i, $row := .Cells}}{{range $j, $cell := $row}}<rect x="{{add $.Margin (mul $j $.Cell)}}" y="{{add $.Margin (mul $i $.Cell)}}" width="{{$.Cell}}" height="{{$.Cell}}" fill="{{cellFill $cell.Value}}" stroke="white" stroke-width="1"/>
{{if $cell.Label}}<text x="{{add $.Margin (add (mul $j $.Cell) 2)}}" y="{{add $.Margin (add (mul $i $.Cell) 14)}}" font-size="6" fill="#222">{{$cell.Label}}</text>{{end}}
{{end}}{{end}}
{{range $i, $id := .IDs}}<text x="{{$.Margin}}" y="{{add $.Margin (add (mul $i $.Cell) 14)}}" text-anchor="end" transform="translate(-4,0)">{{$id}}</text>
<text x="{{add $.Margin (mul $i $.Cell)}}" y="{{$.Margin}}" text-anchor="start" transform="rotate(-60 {{add $.Margin (mul $i $.Cell)}} {{$.Margin}})">{{$id}}</text>
{{end}}
<script type="application/json" id="ani-matrix-data">{{.MatrixJSON}}</script>
</svg>
`))

func cellFill(v float64) string {
	// mako_r-style: dark for low similarity, bright for high.
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	r := int(20 + v*200)
	g := int(20 + v*60)
	b := int(80 + v*120)
	return fmt.Sprintf("rgb(%d,%d,%d)", r, g, b)
}

type svgCell struct {
	Value float64
	Label string
}

type svgData struct {
	Width, Height, Margin, Cell int
	IDs                         []string
	Cells                       [][]svgCell
	MatrixJSON                  string
}

// WriteClustermapSVG renders the similarity matrix as an SVG heatmap
// (dendrogram ordering is not reproduced visually; rows and columns
// follow Result.IDs order) with the length-annotation overlay and an
// embedded JSON copy of the matrix for later programmatic access.
func (r *Result) WriteClustermapSVG(path string, labelCutoff float64) error {
	n := len(r.IDs)
	cells := make([][]svgCell, n)
	matrix := make(map[string]map[string]float64, n)
	for i, idI := range r.IDs {
		cells[i] = make([]svgCell, n)
		matrix[idI] = make(map[string]float64, n)
		for j := range r.IDs {
			v := r.Similarity.At(i, j)
			cells[i][j] = svgCell{Value: v, Label: r.lengthLabel(i, j, labelCutoff)}
			matrix[idI][r.IDs[j]] = v
		}
	}
	matrixJSON, err := json.Marshal(matrix)
	if err != nil {
		return fmt.Errorf("ani: %w", err)
	}

	data := svgData{
		Width:      marginPixels + n*cellPixels + 40,
		Height:     marginPixels + n*cellPixels + 40,
		Margin:     marginPixels,
		Cell:       cellPixels,
		IDs:        r.IDs,
		Cells:      cells,
		MatrixJSON: string(matrixJSON),
	}

	var buf bytes.Buffer
	if err := clustermapTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("ani: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
