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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gocollage/internal/composition"
	"gocollage/internal/export"
)

func (a *app) layoutsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "layouts",
		Short: "List built-in layouts and export presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LAYOUT\tSLOTS")
			for _, l := range composition.Builtin() {
				mark := ""
				if l.Name() == a.cfg.Composition.Layout {
					mark = " (default)"
				}
				fmt.Fprintf(tw, "%s%s\t%d\n", l.Name(), mark, l.Slots())
			}
			fmt.Fprintln(tw)
			fmt.Fprintln(tw, "PRESET\tSIZE")
			for _, p := range export.Presets() {
				fmt.Fprintf(tw, "%s\t%dx%d\n", p.Name, p.Width, p.Height)
			}
			return tw.Flush()
		},
	}
}
