/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package viewport

import (
	"fmt"
	"strconv"

	"gocollage/internal/geom"
)

// Direction is one of the four keyboard pan directions.
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "Direction(" + strconv.Itoa(int(d)) + ")"
	}
}

// Delta moves the image the way the arrow points, matching a drag in that direction.
func (d Direction) Delta(step float64) geom.Pt {
	switch d {
	case Left:
		return geom.Pt{X: -step}
	case Right:
		return geom.Pt{X: step}
	case Up:
		return geom.Pt{Y: -step}
	case Down:
		return geom.Pt{Y: step}
	default:
		return geom.Pt{}
	}
}

// DirectionForKey accepts DOM key names (ArrowLeft) and short names (Left).
func DirectionForKey(key string) (Direction, bool) {
	switch key {
	case "ArrowLeft", "Left":
		return Left, true
	case "ArrowRight", "Right":
		return Right, true
	case "ArrowUp", "Up":
		return Up, true
	case "ArrowDown", "Down":
		return Down, true
	}
	return 0, false
}

// Hint is the rendering hint for a slot: how far the image's anchor point sits
// from the container centre. It does not depend on the container's own size.
type Hint struct{ DX, DY float64 }

// String renders the hint as a CSS object-position value.
func (h Hint) String() string {
	return fmt.Sprintf("calc(50%% + %spx) calc(50%% + %spx)", num(h.DX), num(h.DY))
}

// Placement resolves the hint for a concrete image and container: the returned
// transform maps image pixel coordinates to container-local coordinates.
func (h Hint) Placement(intrinsic, container geom.Size) (geom.Affine, bool) {
	s, ok := CoverScale(intrinsic, container)
	if !ok {
		return geom.Affine{}, false
	}
	tx := container.W/2 - intrinsic.W*s/2 + h.DX
	ty := container.H/2 - intrinsic.H*s/2 + h.DY
	return geom.Translate(tx, ty).Mul(geom.Scale(s, s)), true
}

func num(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
