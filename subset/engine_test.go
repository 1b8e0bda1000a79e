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

package subset

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"seehuhn.de/go/sfnt/glyph"

	"github.com/fontslice/fontslice"
	"github.com/fontslice/fontslice/internal/testfont"
	"github.com/fontslice/fontslice/ranges"
)

func mustRegistry(t *testing.T, table string) *ranges.Registry {
	t.Helper()
	reg, err := ranges.Load(strings.NewReader(table))
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

// TestPartialCoverage covers the case of a font providing only part of
// each range: slice 0 must cover {A, B}, slice 1 must cover {U+4E2D}.
func TestPartialCoverage(t *testing.T) {
	reg := mustRegistry(t, `["U+0-FF", "U+4E00-9FFF"]`)
	font := testfont.Covering(0x41, 0x42, 0x4E2D)

	engine, err := NewEngine(font, reg)
	if err != nil {
		t.Fatal(err)
	}
	if engine.CoverageCount() != 3 {
		t.Fatalf("coverage count = %d, want 3", engine.CoverageCount())
	}

	results := engine.Subset(reg.Ranges())
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	if !results[0].Emitted() || results[0].Codepoints != 2 {
		t.Errorf("slice 0: emitted=%v codepoints=%d, want emitted with 2",
			results[0].Emitted(), results[0].Codepoints)
	}
	if !results[1].Emitted() || results[1].Codepoints != 1 {
		t.Errorf("slice 1: emitted=%v codepoints=%d, want emitted with 1",
			results[1].Emitted(), results[1].Codepoints)
	}

	// result order must follow range order
	for i, res := range results {
		if res.RangeIndex != i {
			t.Errorf("result %d has range index %d", i, res.RangeIndex)
		}
	}

	// emitted coverage must be exactly the intersection
	checkCoverage(t, results[0].Data, reg, []rune{0x41, 0x42}, []rune{0x43, 0x4E2D})
	checkCoverage(t, results[1].Data, reg, []rune{0x4E2D}, []rune{0x41, 0x4E00})
}

// TestEmptyIntersection covers a font with no glyphs in the second range.
func TestEmptyIntersection(t *testing.T) {
	reg := mustRegistry(t, `["U+0-FF", "U+4E00-9FFF"]`)
	font := testfont.Covering(0x41)

	engine, err := NewEngine(font, reg)
	if err != nil {
		t.Fatal(err)
	}
	results := engine.Subset(reg.Ranges())

	if !results[0].Emitted() || results[0].Codepoints != 1 {
		t.Errorf("slice 0 should be emitted with one codepoint")
	}
	if results[1].Emitted() {
		t.Fatal("slice 1 should be skipped")
	}
	if results[1].Skip != SkipEmptyIntersection {
		t.Errorf("slice 1 skip reason = %v", results[1].Skip)
	}
	if results[1].Data != nil || results[1].Err != nil {
		t.Error("skipped result must carry neither data nor an error")
	}
}

func TestSupplementaryPlane(t *testing.T) {
	reg := mustRegistry(t, `["U+20000-2A6DF"]`)
	font := testfont.Covering(0x20001, 0x20002)

	engine, err := NewEngine(font, reg)
	if err != nil {
		t.Fatal(err)
	}
	results := engine.Subset(reg.Ranges())
	if !results[0].Emitted() || results[0].Codepoints != 2 {
		t.Fatalf("expected 2 covered codepoints, got %+v", results[0])
	}
	checkCoverage(t, results[0].Data, reg, []rune{0x20001, 0x20002}, []rune{0x20000})
}

func TestDeterminism(t *testing.T) {
	reg := mustRegistry(t, `["U+0-FF", "U+100-17F"]`)
	font := testfont.Regular()

	run := func() []*Result {
		engine, err := NewEngine(font, reg)
		if err != nil {
			t.Fatal(err)
		}
		return engine.Subset(reg.Ranges())
	}
	a := run()
	b := run()

	if len(a) != len(b) {
		t.Fatal("result counts differ")
	}
	for i := range a {
		if a[i].Skip != b[i].Skip || a[i].Codepoints != b[i].Codepoints {
			t.Errorf("result %d differs between runs", i)
		}
		if !bytes.Equal(a[i].Data, b[i].Data) {
			t.Errorf("result %d: emitted bytes differ between runs", i)
		}
	}
}

// TestExtractionFailureIsolated: a range whose extraction blows up is
// reported as failed, distinct from an empty intersection, and the
// remaining ranges still emit.
func TestExtractionFailureIsolated(t *testing.T) {
	reg := mustRegistry(t, `["U+0-FF", "U+4E00-9FFF"]`)
	font := testfont.Covering(0x41, 0x4E2D)

	engine, err := NewEngine(font, reg)
	if err != nil {
		t.Fatal(err)
	}
	// point the first range's codepoint at a glyph the font does not
	// have, so that subsetting it panics
	engine.coverage[0x41] = glyph.ID(0xFFFE)

	results := engine.Subset(reg.Ranges())
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	if results[0].Emitted() {
		t.Fatal("slice 0 should have failed")
	}
	if results[0].Skip != SkipExtractionFailed {
		t.Errorf("slice 0 skip reason = %v, want %v",
			results[0].Skip, SkipExtractionFailed)
	}
	var subErr *fontslice.SubsetError
	if !errors.As(results[0].Err, &subErr) {
		t.Fatalf("slice 0 error = %v, want SubsetError", results[0].Err)
	}
	if subErr.RangeIndex != 0 {
		t.Errorf("SubsetError names range %d, want 0", subErr.RangeIndex)
	}

	// the failure must not abort the remaining ranges
	if !results[1].Emitted() || results[1].Codepoints != 1 {
		t.Errorf("slice 1 should still be emitted: %+v", results[1])
	}
	checkCoverage(t, results[1].Data, reg, []rune{0x4E2D}, []rune{0x41})
}

func TestCorruptFont(t *testing.T) {
	reg := mustRegistry(t, `["U+0-FF"]`)
	_, err := NewEngine([]byte("not a font"), reg)
	var corrupt *fontslice.CorruptFontError
	if !errors.As(err, &corrupt) {
		t.Errorf("expected CorruptFontError, got %v", err)
	}
}

// checkCoverage decodes the WOFF2 subset and verifies its character map.
func checkCoverage(t *testing.T, woff2Data []byte, reg *ranges.Registry, want, absent []rune) {
	t.Helper()
	if woff2Data == nil {
		t.Fatal("no emitted data")
	}
	ttf := decodeWOFF2(t, woff2Data)

	for _, c := range want {
		if ttf.Lookup(c) == 0 {
			t.Errorf("U+%04X missing from emitted subset", c)
		}
	}
	for _, c := range absent {
		if ttf.Lookup(c) != 0 {
			t.Errorf("U+%04X unexpectedly present in emitted subset", c)
		}
	}
}
