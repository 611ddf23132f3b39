/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"strconv"
	"strings"

	"gocollage/internal/composition"
)

// gapSteps are the selectable gaps in spacing units; one unit is 4px.
var gapSteps = []string{"0", "2", "4", "8"}

const gapUnit = 4.0

// gapPixels converts a spacing step label to pixels.
func gapPixels(step string) (float64, bool) {
	n, err := strconv.Atoi(step)
	if err != nil || n < 0 {
		return 0, false
	}
	return float64(n) * gapUnit, true
}

// gapStep returns the label of the step closest to px.
func gapStep(px float64) string {
	best, bestDiff := gapSteps[0], -1.0
	for _, s := range gapSteps {
		v, _ := gapPixels(s)
		d := v - px
		if d < 0 {
			d = -d
		}
		if bestDiff < 0 || d < bestDiff {
			best, bestDiff = s, d
		}
	}
	return best
}

// withRounded turns slot corners on (radius r) or off.
func withRounded(st composition.Style, on bool, r float64) composition.Style {
	if on {
		if r <= 0 {
			r = composition.DefaultStyle().Radius
		}
		st.Radius = r
	} else {
		st.Radius = 0
	}
	return st
}

// exportName picks the file-name hint: the explicit name, else the caption.
func exportName(name, caption string) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	return caption
}
