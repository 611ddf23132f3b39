/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import "testing"

func TestAffineMulOrder(t *testing.T) {
	// scale first, then translate
	m := Translate(10, 20).Mul(Scale(2, 3))
	got := m.Apply(Pt{1, 1})
	if got != (Pt{12, 23}) {
		t.Fatalf("Apply = %+v, want {12 23}", got)
	}
}

func TestAff3Layout(t *testing.T) {
	a := Affine{A: 1, B: 2, C: 3, D: 4, E: 5, F: 6}.Aff3()
	want := [6]float64{1, 3, 5, 2, 4, 6}
	for i := range want {
		if a[i] != want[i] {
			t.Fatalf("Aff3[%d] = %v, want %v", i, a[i], want[i])
		}
	}
}

func TestApplyRect(t *testing.T) {
	r := Scale(3, 3).ApplyRect(R(10, 20, 100, 50))
	if r != R(30, 60, 300, 150) {
		t.Fatalf("ApplyRect = %+v", r)
	}
}

func TestParseSize(t *testing.T) {
	s, err := ParseSize("1080x1920")
	if err != nil {
		t.Fatalf("ParseSize: %v", err)
	}
	if s != (Size{1080, 1920}) {
		t.Fatalf("ParseSize = %+v", s)
	}
	if _, err := ParseSize("0x10"); err == nil {
		t.Fatalf("expected error for zero width")
	}
	if _, err := ParseSize("abc"); err == nil {
		t.Fatalf("expected error for garbage")
	}
}

func TestSizeKnown(t *testing.T) {
	cases := map[Size]bool{
		{1, 1}:  true,
		{0, 1}:  false,
		{1, -1}: false,
	}
	for s, want := range cases {
		if got := s.Known(); got != want {
			t.Fatalf("%v.Known() = %v, want %v", s, got, want)
		}
	}
}

func TestInvert(t *testing.T) {
	m := Translate(5, -7).Mul(Scale(4, 2))
	inv, ok := m.Invert()
	if !ok {
		t.Fatalf("Invert reported singular")
	}
	p := Pt{11, 13}
	if got := inv.Apply(m.Apply(p)); got != p {
		t.Fatalf("round trip = %+v, want %+v", got, p)
	}
	if _, ok := Scale(0, 1).Invert(); ok {
		t.Fatalf("zero scale must be singular")
	}
}
