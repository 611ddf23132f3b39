//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"gocollage/internal/crash"
	"gocollage/internal/export"
	applog "gocollage/internal/log"
	"gocollage/internal/source"
	"gocollage/internal/version"
	"gocollage/internal/viewport"
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".tif", ".tiff"}

// Run opens the collage editor window and blocks until it is closed.
func Run(opts Options) error {
	if opts.Composition == nil || opts.Picker == nil || opts.Exporter == nil {
		return fmt.Errorf("ui: composition, picker and exporter are required")
	}
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("version", version.String()))
	defer crash.Recover(opts.CrashDir, map[string]string{"mode": "ui", "layout": opts.Composition.Layout().Name()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fyneApp := app.NewWithID("gocollage")
	w := fyneApp.NewWindow("GoCollage")
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 720)
	winH := prefs.IntWithFallback("window.height", 900)
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	comp := opts.Composition
	preset := opts.Preset
	status := widget.NewLabel("Ready")
	slotLabel := widget.NewLabel("No slot selected")

	cc := NewCollageCanvas(comp, opts.Live)
	cc.OnFocusSlot = func(idx int) { slotLabel.SetText(fmt.Sprintf("Slot %d", idx+1)) }
	comp.OnChange(func(int, viewport.Hint) { fyne.Do(cc.Refresh) })

	replace := func() {
		idx := comp.Focused()
		if idx < 0 {
			dialog.ShowInformation("Replace Image", "Click a slot first.", w)
			return
		}
		open := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if rc == nil {
				return
			}
			path := rc.URI().Path()
			_ = rc.Close()
			status.SetText("Loading " + filepath.Base(path) + "...")
			perr := opts.Picker.Pick(ctx, idx, path, func(i int, src *source.Source, err error) {
				fyne.Do(func() {
					if err != nil {
						l.Warn("image pick failed", slog.Int("slot", i), slog.Any("err", err))
						_ = comp.CancelSource(i)
						status.SetText("Could not load image")
						dialog.ShowError(err, w)
						return
					}
					if err := comp.SetImage(i, src.Ref, src.Image); err != nil {
						dialog.ShowError(err, w)
						return
					}
					status.SetText(fmt.Sprintf("Slot %d: %s (%s)", i+1, filepath.Base(path), src.Size))
					cc.Refresh()
				})
			})
			if perr != nil {
				dialog.ShowError(perr, w)
			}
		}, w)
		open.SetFilter(fstorage.NewExtensionFileFilter(imageExtensions))
		open.Show()
	}

	nameEntry := widget.NewEntry()
	nameEntry.SetPlaceHolder("file name (defaults to caption)")
	nameEntry.SetText(opts.Name)

	var exportBtn *widget.Button
	doExport := func() {
		if opts.Exporter.Exporting() {
			return
		}
		exportBtn.Disable()
		status.SetText(fmt.Sprintf("Exporting %dx%d...", preset.Width, preset.Height))
		req := preset.Request(exportName(nameEntry.Text, comp.Style().Caption))
		go func() {
			art, err := opts.Exporter.Export(ctx, comp, req)
			fyne.Do(func() {
				exportBtn.Enable()
				switch {
				case err != nil:
					status.SetText("Export failed")
					dialog.ShowError(err, w)
				case art == nil:
					status.SetText("Nothing to export")
				default:
					status.SetText("Saved " + art.Path)
				}
			})
		}()
	}
	exportBtn = widget.NewButtonWithIcon("Export", theme.DocumentSaveIcon(), doExport)
	replaceBtn := widget.NewButtonWithIcon("Replace", theme.FolderOpenIcon(), replace)

	names := make([]string, 0, 3)
	for _, p := range export.Presets() {
		names = append(names, string(p.Name))
	}
	presetSel := widget.NewSelect(names, func(s string) {
		p, err := export.ResolvePreset(s, 0, 0)
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		preset = p
	})
	presetSel.SetSelected(string(preset.Name))

	st := comp.Style()
	captionEntry := widget.NewEntry()
	captionEntry.SetText(st.Caption)
	captionEntry.OnChanged = func(s string) {
		st := comp.Style()
		st.Caption = strings.TrimSpace(s)
		comp.SetStyle(st)
		cc.Refresh()
	}
	captionCheck := widget.NewCheck("Caption", func(on bool) {
		st := comp.Style()
		st.ShowCaption = on
		comp.SetStyle(st)
		cc.Refresh()
	})
	captionCheck.SetChecked(st.ShowCaption)
	blurCheck := widget.NewCheck("Backdrop", func(on bool) {
		st := comp.Style()
		st.BlurBackdrop = on
		comp.SetStyle(st)
		cc.Refresh()
	})
	blurCheck.SetChecked(st.BlurBackdrop)
	radius := st.Radius
	roundCheck := widget.NewCheck("Rounded", func(on bool) {
		comp.SetStyle(withRounded(comp.Style(), on, radius))
		cc.Refresh()
	})
	roundCheck.SetChecked(st.Radius > 0)
	gapSel := widget.NewSelect(gapSteps, func(step string) {
		px, ok := gapPixels(step)
		if !ok {
			return
		}
		st := comp.Style()
		st.Gap = px
		comp.SetStyle(st)
		cc.Refresh()
	})
	gapSel.SetSelected(gapStep(st.Gap))

	top := container.NewVBox(
		container.NewHBox(replaceBtn, slotLabel, widget.NewSeparator(), presetSel, exportBtn),
		container.NewBorder(nil, nil, captionCheck, blurCheck, captionEntry),
		container.NewHBox(roundCheck, widget.NewLabel("Gap"), gapSel),
		nameEntry,
	)
	w.SetContent(container.NewBorder(top, status, nil, nil, container.NewCenter(cc)))

	replaceItem := fyne.NewMenuItem("Replace Image...", replace)
	exportItem := fyne.NewMenuItem("Export", doExport)
	replaceItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierShortcutDefault}
	exportItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyE, Modifier: fyne.KeyModifierShortcutDefault}
	w.Canvas().AddShortcut(replaceItem.Shortcut, func(fyne.Shortcut) { replace() })
	w.Canvas().AddShortcut(exportItem.Shortcut, func(fyne.Shortcut) { doExport() })
	w.SetMainMenu(fyne.NewMainMenu(fyne.NewMenu("File", replaceItem, exportItem)))

	w.SetOnClosed(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		cancel()
	})
	w.Canvas().Focus(cc)
	w.ShowAndRun()
	l.Info("UI closed")
	return nil
}
