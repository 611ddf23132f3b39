/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"gocollage/internal/export"
	applog "gocollage/internal/log"
	"gocollage/internal/telemetry"
)

type exportFlags struct {
	session sessionFlags
	pans    []string
	preset  string
	width   int
	height  int
	name    string
	out     string
}

func (a *app) exportCommand() *cobra.Command {
	var f exportFlags
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render the collage at a preset size and write it as PNG",
		Example: `  gocollage export --image a.jpg --image b.jpg --pan 0:-20,0 --name "Autumn Mood"
  gocollage export --layout hero-stack --preset square --image https://example.com/x.jpg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runExport(cmd, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.session.layout, "layout", "", "built-in layout name (see 'gocollage layouts')")
	fl.StringVar(&f.session.layoutFile, "layout-file", "", "JSON layout file; overrides --layout")
	fl.StringArrayVarP(&f.session.images, "image", "i", nil, "image for the next slot: file path, data: URI or http(s) URL (repeatable)")
	fl.StringVar(&f.session.live, "live", "", "live presentation size WxH (default from config)")
	fl.BoolVar(&f.session.noCache, "no-cache", false, "do not use the decoded-source cache")
	fl.StringArrayVar(&f.pans, "pan", nil, "pan a slot by a pointer drag: idx:dx,dy in live pixels (repeatable)")
	fl.StringVar(&f.preset, "preset", "", "export preset: story, portrait or square (default from config)")
	fl.IntVar(&f.width, "width", 0, "explicit output width; needs --height")
	fl.IntVar(&f.height, "height", 0, "explicit output height; needs --width")
	fl.StringVar(&f.name, "name", "", "file name hint; blank picks a random name")
	fl.StringVarP(&f.out, "out", "o", "", "output directory (default from config)")
	return cmd
}

func (a *app) runExport(cmd *cobra.Command, f exportFlags) error {
	ctx := cmd.Context()
	l := applog.WithOperation(applog.WithComponent("cli"), "export")

	presetName, w, h := a.cfg.Export.Preset, a.cfg.Export.Width, a.cfg.Export.Height
	if f.preset != "" {
		presetName, w, h = f.preset, 0, 0
	}
	if f.width != 0 || f.height != 0 {
		w, h = f.width, f.height
	}
	preset, err := export.ResolvePreset(presetName, w, h)
	if err != nil {
		return err
	}
	pans := make([]pan, 0, len(f.pans))
	for _, s := range f.pans {
		p, err := parsePan(s)
		if err != nil {
			return err
		}
		pans = append(pans, p)
	}

	s, err := a.newSession(ctx, f.session)
	if err != nil {
		return err
	}
	defer s.Close()
	for _, p := range pans {
		if err := p.apply(s.comp); err != nil {
			return err
		}
	}

	out := a.cfg.Export.OutDir
	if f.out != "" {
		out = f.out
	}
	ex := export.New(export.Options{Sink: export.DirSink{Dir: out}, Telemetry: telemetry.Default()})
	art, err := ex.Export(ctx, s.comp, preset.Request(f.name))
	if err != nil {
		return err
	}
	if art == nil {
		return fmt.Errorf("nothing exported: the collage has no usable live size")
	}
	l.InfoContext(ctx, "wrote artifact", slog.String("path", art.Path))
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%dx%d)\n", art.Path, art.Width, art.Height)
	return nil
}
