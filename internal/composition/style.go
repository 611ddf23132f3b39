/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package composition

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Style holds the visual switches shared by all layouts. Lengths are in live
// (on-screen) pixels and scale with the capture transform.
type Style struct {
	Gap          float64
	Radius       float64
	Background   color.NRGBA
	BlurBackdrop bool
	ShowCaption  bool
	Caption      string
}

// DefaultBackground is the warm paper tone behind every collage.
var DefaultBackground = color.NRGBA{R: 0xf8, G: 0xf5, B: 0xf0, A: 0xff}

func DefaultStyle() Style {
	return Style{
		Gap:          8,
		Radius:       12,
		Background:   DefaultBackground,
		BlurBackdrop: true,
		ShowCaption:  true,
		Caption:      "autumn mood",
	}
}

// ParseHexColor parses #rgb, #rrggbb and #rrggbbaa.
func ParseHexColor(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.NRGBA{}, fmt.Errorf("parse colour %q: want #rgb, #rrggbb or #rrggbbaa", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("parse colour %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
