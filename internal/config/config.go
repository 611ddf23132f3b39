/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted as YAML in the user scope.
// Environment variables are read-only overrides applied after the file.
//
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int               `yaml:"config_version"`
	Export        ExportConfig      `yaml:"export"`
	Viewport      ViewportConfig    `yaml:"viewport"`
	Composition   CompositionConfig `yaml:"composition"`
	Sources       SourcesConfig     `yaml:"sources"`
	Telemetry     TelemetryConfig   `yaml:"telemetry"`
	Logging       LoggingConfig     `yaml:"logging"`
}

// ExportConfig selects the output raster. Width/Height win over Preset when both are set.
type ExportConfig struct {
	Preset string `yaml:"preset"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	OutDir string `yaml:"out_dir"`
}

type ViewportConfig struct {
	StepSize float64 `yaml:"step_size"`
}

type CompositionConfig struct {
	Layout       string  `yaml:"layout"`
	LayoutFile   string  `yaml:"layout_file"`
	Gap          float64 `yaml:"gap"`
	Radius       float64 `yaml:"radius"`
	Background   string  `yaml:"background"`
	BlurBackdrop bool    `yaml:"blur_backdrop"`
	ShowCaption  bool    `yaml:"show_caption"`
	Caption      string  `yaml:"caption"`
	// LiveWidth/LiveHeight is the on-screen box used when no window supplies one.
	LiveWidth  float64 `yaml:"live_width"`
	LiveHeight float64 `yaml:"live_height"`
}

type SourcesConfig struct {
	MaxEdge        int    `yaml:"max_edge"`
	CacheDir       string `yaml:"cache_dir"`
	CacheMaxBytes  int64  `yaml:"cache_max_bytes"`
	FetchTimeoutMs int    `yaml:"fetch_timeout_ms"`
}

type TelemetryConfig struct {
	OptIn     bool   `yaml:"opt_in"`
	EventsURL string `yaml:"events_url"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Defaults returns the application defaults: a 9:16 story export and the 2x3 grid.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Export:        ExportConfig{Preset: "story", OutDir: "exports"},
		Viewport:      ViewportConfig{StepSize: 10},
		Composition: CompositionConfig{
			Layout:       "grid-2x3",
			Gap:          8,
			Radius:       12,
			Background:   "#f8f5f0",
			BlurBackdrop: true,
			ShowCaption:  true,
			Caption:      "autumn mood",
			LiveWidth:    360,
			LiveHeight:   640,
		},
		Sources:   SourcesConfig{MaxEdge: 2560, CacheMaxBytes: 256 * 1024 * 1024, FetchTimeoutMs: 15000},
		Telemetry: TelemetryConfig{OptIn: false},
		Logging:   LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvExportPreset  = "GCL_EXPORT_PRESET"
	EnvExportOutDir  = "GCL_EXPORT_OUT_DIR"
	EnvStepSize      = "GCL_STEP_SIZE"
	EnvLayout        = "GCL_LAYOUT"
	EnvCacheDir      = "GCL_CACHE_DIR"
	EnvMaxEdge       = "GCL_MAX_EDGE"
	EnvTelemetryOpt  = "GCL_TELEMETRY_OPT_IN"
	EnvTelemetryURL  = "GCL_TELEMETRY_URL"
	EnvLogLevel      = "GCL_LOG_LEVEL"
	EnvLogFormat     = "GCL_LOG_FORMAT"
	EnvLogSource     = "GCL_LOG_SOURCE"
	EnvLogFile       = "GCL_LOG_FILE"
	EnvConfigPathEnv = "GCL_CONFIG"
)

// ConfigPath returns the per-user config file path. GCL_CONFIG overrides it.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPathEnv)); p != "" {
		return p, nil
	}
	base, err := userDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "config.yaml"), nil
}

// CacheDir returns the default directory for the decoded-source cache.
func CacheDir() (string, error) {
	if d, err := os.UserCacheDir(); err == nil && d != "" {
		return filepath.Join(d, "gocollage"), nil
	}
	return userDir()
}

func userDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoCollage")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoCollage")
	default:
		base = filepath.Join(os.Getenv("HOME"), ".config", "gocollage")
	}
	if strings.TrimSpace(base) == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// Load reads the config file at path (ConfigPath when empty), layering it over
// Defaults, then applies environment overrides. A missing file is not an error.
func Load(path string) (AppConfig, error) {
	cfg := Defaults()
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// Unmarshalling over the defaults keeps every key the file leaves out.
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Defaults(), fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	normalize(&cfg)
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes cfg as YAML to path (ConfigPath when empty).
func Save(cfg AppConfig, path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func normalize(cfg *AppConfig) {
	d := Defaults()
	cfg.Export.Preset = strings.ToLower(strings.TrimSpace(cfg.Export.Preset))
	cfg.Composition.Layout = strings.ToLower(strings.TrimSpace(cfg.Composition.Layout))
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))
	if cfg.Viewport.StepSize <= 0 {
		cfg.Viewport.StepSize = d.Viewport.StepSize
	}
	if cfg.Composition.Gap < 0 {
		cfg.Composition.Gap = 0
	}
	if cfg.Composition.LiveWidth <= 0 || cfg.Composition.LiveHeight <= 0 {
		cfg.Composition.LiveWidth, cfg.Composition.LiveHeight = d.Composition.LiveWidth, d.Composition.LiveHeight
	}
	if cfg.Export.Width < 0 || cfg.Export.Height < 0 {
		cfg.Export.Width, cfg.Export.Height = 0, 0
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvExportPreset)); v != "" {
		cfg.Export.Preset = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvExportOutDir)); v != "" {
		cfg.Export.OutDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStepSize)); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.Viewport.StepSize = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvLayout)); v != "" {
		cfg.Composition.Layout = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvCacheDir)); v != "" {
		cfg.Sources.CacheDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvMaxEdge)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Sources.MaxEdge = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOpt)); v != "" {
		cfg.Telemetry.OptIn = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryURL)); v != "" {
		cfg.Telemetry.EventsURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

// EnvOverrideFor returns the env var name if the dotted key is overridden by the environment.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := overrideKeys[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

var overrideKeys = map[string]string{
	"export.preset":        EnvExportPreset,
	"export.out_dir":       EnvExportOutDir,
	"viewport.step_size":   EnvStepSize,
	"composition.layout":   EnvLayout,
	"sources.cache_dir":    EnvCacheDir,
	"sources.max_edge":     EnvMaxEdge,
	"telemetry.opt_in":     EnvTelemetryOpt,
	"telemetry.events_url": EnvTelemetryURL,
	"logging.level":        EnvLogLevel,
	"logging.format":       EnvLogFormat,
	"logging.source":       EnvLogSource,
	"logging.file":         EnvLogFile,
}
