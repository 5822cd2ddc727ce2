// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package seq

import (
	"fmt"
	"math"
)

var bpUnits = [...]string{"", "kbp", "mbp", "gbp", "tbp", "pbp"}

// humanBP renders a base-pair count using the smallest unit that keeps
// the mantissa below 1000, e.g. 1_200_000 -> "1.2mbp".
func humanBP(bp int) string {
	return humanBPDecimals(bp, 1)
}

// humanBPDecimals is humanBP with an explicit mantissa precision.
func humanBPDecimals(bp int, decimals int) string {
	if bp == 0 {
		return "0bp"
	}
	magnitude := int(math.Floor(math.Log(float64(bp)) / math.Log(1000)))
	if magnitude < 0 {
		magnitude = 0
	}
	if magnitude >= len(bpUnits) {
		magnitude = len(bpUnits) - 1
	}
	shortened := float64(bp) / math.Pow(1000, float64(magnitude))
	return fmt.Sprintf("%.*f%s", decimals, shortened, bpUnits[magnitude])
}

// rgbToCSS renders a 0–1 RGB triple as a CSS rgb(...) string.
func rgbToCSS(rgb [3]float64) string {
	return fmt.Sprintf("rgb(%d, %d, %d)", int(rgb[0]*255), int(rgb[1]*255), int(rgb[2]*255))
}
