/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package composition

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gocollage/internal/geom"
)

// ErrUnknownLayout is returned by Lookup for names that are not registered.
var ErrUnknownLayout = errors.New("unknown layout")

// Tile is the placement of one slot inside the live box.
type Tile struct {
	Rect   geom.Rect
	Radius float64
	// Border is a solid white frame drawn outside Rect.
	Border float64
}

// Layout arranges a fixed number of slots inside a box. Arrange must return
// exactly Slots() tiles, in slot order. Later tiles are drawn above earlier ones.
type Layout interface {
	Name() string
	Slots() int
	Arrange(box geom.Size, st Style) []Tile
}

// Grid2x3 is two columns of three tiles. Slots 0-2 fill the left column and
// 3-5 the right one. The gap also pads the sides, and the columns are offset
// vertically by one gap in opposite directions.
type Grid2x3 struct{}

func (Grid2x3) Name() string { return "grid-2x3" }
func (Grid2x3) Slots() int   { return 6 }

func (Grid2x3) Arrange(box geom.Size, st Style) []Tile {
	g := max(st.Gap, 0)
	colW := max((box.W-3*g)/2, 0)
	tileH := max((box.H-2*g)/3, 0)
	tiles := make([]Tile, 0, 6)
	for col := 0; col < 2; col++ {
		x := g + float64(col)*(colW+g)
		shift := -g
		if col == 1 {
			shift = g
		}
		for row := 0; row < 3; row++ {
			y := shift + float64(row)*(tileH+g)
			tiles = append(tiles, Tile{Rect: geom.R(x, y, colW, tileH), Radius: st.Radius})
		}
	}
	return tiles
}

const (
	heroColumn  = 0.55
	heroPadLeft = 32.0
	heroGap     = 16.0
	heroBorder  = 10.0
)

// HeroStack shows slot 0 full-bleed with slots 1-3 as framed squares stacked
// in the left part of the box, centred vertically.
type HeroStack struct{}

func (HeroStack) Name() string { return "hero-stack" }
func (HeroStack) Slots() int   { return 4 }

func (HeroStack) Arrange(box geom.Size, _ Style) []Tile {
	tiles := []Tile{{Rect: geom.R(0, 0, box.W, box.H)}}
	side := max(box.W*heroColumn-heroPadLeft-2*heroBorder, 0)
	outer := side + 2*heroBorder
	stackH := 3*outer + 2*heroGap
	y := (box.H - stackH) / 2
	for i := 0; i < 3; i++ {
		top := y + float64(i)*(outer+heroGap) + heroBorder
		tiles = append(tiles, Tile{Rect: geom.R(heroPadLeft+heroBorder, top, side, side), Border: heroBorder})
	}
	return tiles
}

var builtins = map[string]Layout{
	"grid-2x3":   Grid2x3{},
	"hero-stack": HeroStack{},
}

// Builtin returns the built-in layouts sorted by name.
func Builtin() []Layout {
	out := make([]Layout, 0, len(builtins))
	for _, l := range builtins {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Lookup resolves a built-in layout by name (case-insensitive).
func Lookup(name string) (Layout, error) {
	l, ok := builtins[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayout, name)
	}
	return l, nil
}
