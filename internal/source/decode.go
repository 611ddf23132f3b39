/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package source

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	// Extra decoders registered with image.Decode.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// decode decodes data with EXIF orientation applied and down-samples it so the
// longer edge is at most maxEdge (maxEdge <= 0 keeps the full size).
func decode(data []byte, maxEdge int) (image.Image, string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("%w: decode %s: %v", ErrUnsupported, format, err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, "", fmt.Errorf("%w: empty %s image", ErrUnsupported, format)
	}
	return downsample(img, maxEdge), format, nil
}

func downsample(img image.Image, maxEdge int) image.Image {
	b := img.Bounds()
	long := max(b.Dx(), b.Dy())
	if maxEdge <= 0 || long <= maxEdge {
		return img
	}
	f := float64(maxEdge) / float64(long)
	w := max(1, int(math.Round(float64(b.Dx())*f)))
	h := max(1, int(math.Round(float64(b.Dy())*f)))
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func mimeFor(format string) string {
	switch format {
	case "jpeg", "png", "gif", "webp", "bmp", "tiff":
		return "image/" + format
	default:
		return "application/octet-stream"
	}
}
