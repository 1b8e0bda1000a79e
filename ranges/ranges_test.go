// fontslice - unicode-range sliced subset fonts for CDN delivery
// Copyright (C) 2026  The fontslice authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package ranges

import (
	"errors"
	"strings"
	"testing"
	"unicode"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/unicode/rangetable"

	"github.com/fontslice/fontslice"
)

func TestParseIntervals(t *testing.T) {
	cases := []struct {
		in   string
		want []Interval
	}{
		{"U+0-FF", []Interval{{0x0, 0xFF}}},
		{"U+4E00-9FFF", []Interval{{0x4E00, 0x9FFF}}},
		{"U+4E2D", []Interval{{0x4E2D, 0x4E2D}}},
		{"u+20000-2a6df", []Interval{{0x20000, 0x2A6DF}}},
		{"U+131, U+152-153", []Interval{{0x131, 0x131}, {0x152, 0x153}}},
		{"300-36F", []Interval{{0x300, 0x36F}}},
	}
	for _, c := range cases {
		got, err := ParseIntervals(c.in)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", c.in, err)
			continue
		}
		if d := cmp.Diff(c.want, got); d != "" {
			t.Errorf("%q: intervals differ (-want +got):\n%s", c.in, d)
		}
	}
}

func TestParseIntervalsErrors(t *testing.T) {
	bad := []string{
		"",
		"U+",
		"U+GG",
		"U+FF-0",          // inverted
		"U+110000",        // outside the codepoint space
		"U+0-110000",      // end outside the codepoint space
		"U+80000000",      // would wrap negative as a rune
		"U+FFFFFFFF",
		"U+80000000-FFFFFFFF",
		"U+0-FF, U+80-81", // overlap within one range
	}
	for _, in := range bad {
		if _, err := ParseIntervals(in); err == nil {
			t.Errorf("%q: expected error", in)
		}
	}
}

func TestLoad(t *testing.T) {
	reg, err := Load(strings.NewReader(`["U+0-FF", "U+4E00-9FFF"]`))
	if err != nil {
		t.Fatal(err)
	}
	if reg.Len() != 2 {
		t.Fatalf("expected 2 ranges, got %d", reg.Len())
	}

	rr := reg.Ranges()
	if rr[0].Index != 0 || rr[1].Index != 1 {
		t.Error("wrong slice index assignment")
	}
	if rr[1].Name() != "1" {
		t.Errorf("wrong name %q", rr[1].Name())
	}
	if !rr[0].Contains(0x41) || rr[0].Contains(0x100) {
		t.Error("wrong containment for range 0")
	}
	if !rr[1].Contains(0x4E2D) || rr[1].Contains(0x41) {
		t.Error("wrong containment for range 1")
	}
}

func TestLoadErrors(t *testing.T) {
	bad := []string{
		`[]`,
		`{"0": "U+0-FF"}`,
		`["U+FF-0"]`,
	}
	for _, in := range bad {
		_, err := Load(strings.NewReader(in))
		var cfgErr *fontslice.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("%q: expected ConfigError, got %v", in, err)
		}
	}
}

func TestCSSRoundTrip(t *testing.T) {
	cases := []string{
		"U+0-FF",
		"U+4E2D",
		"U+131, U+152-153",
		"U+20000-2A6DF",
	}
	for _, in := range cases {
		ivs, err := ParseIntervals(in)
		if err != nil {
			t.Fatal(err)
		}
		r := &Range{Intervals: ivs}
		if got := r.CSS(); got != in {
			t.Errorf("CSS round trip: got %q, want %q", got, in)
		}
	}
}

func TestMergedTable(t *testing.T) {
	reg, err := Load(strings.NewReader(`["U+41-5A", "U+FF00-FFEF, U+20000-20010"]`))
	if err != nil {
		t.Fatal(err)
	}
	all := reg.All()

	count := 0
	rangetable.Visit(all, func(c rune) { count++ })
	want := (0x5A - 0x41 + 1) + (0xFFEF - 0xFF00 + 1) + (0x20010 - 0x20000 + 1)
	if count != want {
		t.Errorf("merged table has %d codepoints, want %d", count, want)
	}

	for _, c := range []rune{0x41, 0x5A, 0xFF37, 0x20005} {
		if !unicode.Is(all, c) {
			t.Errorf("U+%04X missing from merged table", c)
		}
	}
	for _, c := range []rune{0x40, 0x5B, 0x20011} {
		if unicode.Is(all, c) {
			t.Errorf("U+%04X unexpectedly in merged table", c)
		}
	}
}

func TestHashStability(t *testing.T) {
	a, err := Load(strings.NewReader(`["U+0-FF", "U+4E00-9FFF"]`))
	if err != nil {
		t.Fatal(err)
	}
	// different formatting, same content
	b, err := Load(strings.NewReader(`[ "u+0-ff" ,"U+4E00-9FFF" ]`))
	if err != nil {
		t.Fatal(err)
	}
	// changed interval
	c, err := Load(strings.NewReader(`["U+0-FF", "U+3400-9FFF"]`))
	if err != nil {
		t.Fatal(err)
	}

	if a.Hash() != b.Hash() {
		t.Error("hash changed although the table content is the same")
	}
	if a.Hash() == c.Hash() {
		t.Error("hash unchanged although an interval changed")
	}
}
