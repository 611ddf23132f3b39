/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetStory    PresetName = "story"
	PresetPortrait PresetName = "portrait"
	PresetSquare   PresetName = "square"
)

var ErrUnknownPreset = errors.New("unknown export preset")

// Preset is a fixed output size.
type Preset struct {
	Name   PresetName
	Width  int
	Height int
}

var presets = map[PresetName]Preset{
	PresetStory:    {Name: PresetStory, Width: 1080, Height: 1920},
	PresetPortrait: {Name: PresetPortrait, Width: 1080, Height: 1350},
	PresetSquare:   {Name: PresetSquare, Width: 1080, Height: 1080},
}

// Presets lists the built-in presets ordered by name.
func Presets() []Preset {
	out := make([]Preset, 0, len(presets))
	for _, p := range presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ResolvePreset looks a preset up by name, case-insensitively. An empty name
// resolves to the story preset. Explicit width and height, when both are
// positive, override the preset's size.
func ResolvePreset(name string, width, height int) (Preset, error) {
	n := PresetName(strings.ToLower(strings.TrimSpace(name)))
	if n == "" {
		n = PresetStory
	}
	p, ok := presets[n]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	if width > 0 && height > 0 {
		p.Width, p.Height = width, height
	} else if width > 0 || height > 0 {
		return Preset{}, fmt.Errorf("custom size needs both width and height, got %dx%d", width, height)
	}
	return p, nil
}

// Request builds an export request of the preset's size.
func (p Preset) Request(name string) Request {
	return Request{Width: p.Width, Height: p.Height, Name: name}
}
