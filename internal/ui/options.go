/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"gocollage/internal/composition"
	"gocollage/internal/export"
	"gocollage/internal/geom"
	"gocollage/internal/source"
)

// Options hands the editor its already-wired collaborators.
type Options struct {
	Composition *composition.Composition
	Picker      *source.Picker
	Exporter    *export.Exporter
	Preset      export.Preset
	// Live is the on-screen size of the collage.
	Live geom.Size
	// Name is the file-name hint for exports; blank picks a random name.
	Name string
	// CrashDir receives crash reports; empty means the temp dir.
	CrashDir string
}
