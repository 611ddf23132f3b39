/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package source

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// EncodeDataURI returns data as a base64 data URI.
func EncodeDataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI parses a data URI in base64 or percent-encoded form.
func DecodeDataURI(s string) (mime string, data []byte, err error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: not a data URI", ErrUnsupported)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: data URI without payload", ErrUnsupported)
	}
	isBase64 := false
	if m, found := strings.CutSuffix(meta, ";base64"); found {
		meta, isBase64 = m, true
	}
	mime, _, _ = strings.Cut(meta, ";")
	if mime == "" {
		mime = "text/plain"
	}
	if isBase64 {
		data, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// Some producers drop the padding.
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return "", nil, fmt.Errorf("%w: bad base64 payload: %v", ErrUnsupported, err)
		}
		return mime, data, nil
	}
	txt, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: bad data URI escape: %v", ErrUnsupported, err)
	}
	return mime, []byte(txt), nil
}
