/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package composition

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"gocollage/internal/geom"
)

//go:embed layout.schema.json
var layoutSchema []byte

// FileLayout is a layout read from JSON. Slot rectangles are fractions of the
// live box; the style gap is split evenly around each tile.
type FileLayout struct {
	LayoutName string     `json:"name"`
	SlotSpecs  []FileSlot `json:"slots"`
}

type FileSlot struct {
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	W      float64  `json:"w"`
	H      float64  `json:"h"`
	Radius *float64 `json:"radius,omitempty"`
	Border float64  `json:"border,omitempty"`
}

func (f *FileLayout) Name() string { return f.LayoutName }
func (f *FileLayout) Slots() int   { return len(f.SlotSpecs) }

func (f *FileLayout) Arrange(box geom.Size, st Style) []Tile {
	half := max(st.Gap, 0) / 2
	tiles := make([]Tile, len(f.SlotSpecs))
	for i, s := range f.SlotSpecs {
		r := geom.R(s.X*box.W, s.Y*box.H, s.W*box.W, s.H*box.H).Inset(half, half)
		r.W, r.H = max(r.W, 0), max(r.H, 0)
		radius := st.Radius
		if s.Radius != nil {
			radius = *s.Radius
		}
		tiles[i] = Tile{Rect: r, Radius: radius, Border: s.Border}
	}
	return tiles
}

// ParseLayout validates data against the layout schema and decodes it.
func ParseLayout(data []byte) (*FileLayout, error) {
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(layoutSchema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validate layout: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("invalid layout: %s", strings.Join(msgs, "; "))
	}
	var fl FileLayout
	if err := json.Unmarshal(data, &fl); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}
	return &fl, nil
}

// LoadLayoutFile reads and validates a JSON layout file.
func LoadLayoutFile(path string) (*FileLayout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	fl, err := ParseLayout(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fl, nil
}

// Resolve returns the built-in layout called name, or loads file when set.
func Resolve(name, file string) (Layout, error) {
	if strings.TrimSpace(file) != "" {
		fl, err := LoadLayoutFile(file)
		if err != nil {
			return nil, err
		}
		return fl, nil
	}
	return Lookup(name)
}
