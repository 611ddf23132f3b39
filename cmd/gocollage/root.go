/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"gocollage/internal/config"
	applog "gocollage/internal/log"
	"gocollage/internal/telemetry"
	"gocollage/internal/version"
)

// app carries state shared by all subcommands.
type app struct {
	cfgPath string
	verbose bool
	cfg     config.AppConfig
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.Defaults()}
	root := &cobra.Command{
		Use:           "gocollage",
		Short:         "Compose images into a fixed-ratio collage and export it as PNG",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()
			telemetry.Default().Flush(ctx)
		},
	}
	root.SetVersionTemplate("gocollage {{.Version}}\n")
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default: per-user config dir, or $"+config.EnvConfigPathEnv+")")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(a.exportCommand())
	root.AddCommand(a.layoutsCommand())
	root.AddCommand(a.uiCommand())
	root.AddCommand(a.cacheCommand())
	root.AddCommand(a.configCommand())
	root.AddCommand(versionCommand())
	return root
}

// setup loads config, then initializes logging and telemetry from it. A broken
// config file is reported and the defaults are used.
func (a *app) setup(ctx context.Context) error {
	path := a.cfgPath
	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	cfg, loadErr := config.Load(path)
	a.cfg = cfg

	lo := applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	}
	if a.verbose {
		lo.Level = "debug"
	}
	applog.Init(lo)
	l := applog.WithComponent("cli")
	if loadErr != nil {
		l.WarnContext(ctx, "config unreadable; using defaults", slog.String("path", path), slog.Any("err", loadErr))
	}
	l.DebugContext(ctx, "config loaded", slog.String("path", path), slog.String("layout", cfg.Composition.Layout))

	tc := telemetry.FromEnv()
	tc.OptIn = tc.OptIn || cfg.Telemetry.OptIn
	if tc.EventsURL == "" {
		tc.EventsURL = cfg.Telemetry.EventsURL
	}
	telemetry.SetDefault(telemetry.New(tc))
	return nil
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "gocollage "+version.String())
		},
	}
}
