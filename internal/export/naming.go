/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	separators    = strings.NewReplacer("/", "-", "\\", "-", "\x00", "")
)

// Slug folds every whitespace run into a single '-' and lower-cases the rest.
// Leading or trailing whitespace becomes a leading or trailing '-'. Path
// separators also become '-', so the result is always a single file name.
func Slug(s string) string {
	return strings.ToLower(separators.Replace(whitespaceRun.ReplaceAllString(s, "-")))
}

// FileName returns "<slug>.png" for a non-blank hint and "<random token>.png" otherwise.
func FileName(hint string) string {
	if strings.TrimSpace(hint) == "" {
		return uuid.NewString() + ".png"
	}
	return Slug(hint) + ".png"
}
