// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ani

// basePalette is a stable categorical colour sequence, chosen by hue
// rotation so that adjacent cluster ids are visually distinct even
// when the palette must be extended beyond its base set. It is
// deterministic: the same cluster id always maps to the same colour
// across runs.
var basePalette = [][3]float64{
	{0.122, 0.467, 0.706}, // blue
	{1.000, 0.498, 0.055}, // orange
	{0.173, 0.627, 0.173}, // green
	{0.839, 0.153, 0.157}, // red
	{0.580, 0.404, 0.741}, // purple
	{0.549, 0.337, 0.294}, // brown
	{0.890, 0.467, 0.761}, // pink
	{0.498, 0.498, 0.498}, // grey
	{0.737, 0.741, 0.133}, // olive
	{0.090, 0.745, 0.812}, // cyan
}

// ColorFor returns a deterministic RGB triple for a 1-based cluster
// id. Ids beyond the base palette size wrap with a hue shift so
// colours stay distinct from their wrap-around neighbours instead of
// repeating exactly.
func ColorFor(clusterID int) [3]float64 {
	if clusterID < 1 {
		clusterID = 1
	}
	idx := (clusterID - 1) % len(basePalette)
	cycle := (clusterID - 1) / len(basePalette)
	c := basePalette[idx]
	if cycle == 0 {
		return c
	}
	shift := 0.15 * float64(cycle)
	return [3]float64{
		wrap01(c[0] + shift),
		wrap01(c[1] + shift*0.5),
		wrap01(c[2] + shift*0.25),
	}
}

func wrap01(v float64) float64 {
	for v > 1 {
		v -= 1
	}
	for v < 0 {
		v += 1
	}
	return v
}
