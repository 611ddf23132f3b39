/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"github.com/spf13/cobra"

	"gocollage/internal/export"
	"gocollage/internal/telemetry"
	"gocollage/internal/ui"
)

func (a *app) uiCommand() *cobra.Command {
	var (
		sf   sessionFlags
		name string
	)
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Launch the desktop editor (build with -tags fyne)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			preset, err := export.ResolvePreset(a.cfg.Export.Preset, a.cfg.Export.Width, a.cfg.Export.Height)
			if err != nil {
				return err
			}
			s, err := a.newSession(cmd.Context(), sf)
			if err != nil {
				return err
			}
			defer s.Close()
			return ui.Run(ui.Options{
				Composition: s.comp,
				Picker:      s.picker,
				Exporter:    export.New(export.Options{Sink: export.DirSink{Dir: a.cfg.Export.OutDir}, Telemetry: telemetry.Default()}),
				Preset:      preset,
				Live:        s.live,
				Name:        name,
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&sf.layout, "layout", "", "built-in layout name")
	fl.StringVar(&sf.layoutFile, "layout-file", "", "JSON layout file; overrides --layout")
	fl.StringArrayVarP(&sf.images, "image", "i", nil, "initial image for the next slot (repeatable)")
	fl.StringVar(&name, "name", "", "default export file name hint")
	return cmd
}
