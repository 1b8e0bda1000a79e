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

// Package subset extracts per-range WOFF2 subsets from a full font binary.
//
// An [Engine] parses the font once and derives its glyph coverage once;
// each range is then a pure intersection against that coverage.  Results
// are returned in range table order, one per input range, as an
// emitted/skipped sum so that a failed extraction is never conflated with
// a legitimately empty range.
package subset

import (
	"bytes"
	"fmt"
	"slices"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/text/unicode/rangetable"

	"seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/cmap"
	"seehuhn.de/go/sfnt/glyph"

	"github.com/fontslice/fontslice"
	"github.com/fontslice/fontslice/internal/woff2"
	"github.com/fontslice/fontslice/ranges"
)

// SkipReason explains why no subset was emitted for a range.
type SkipReason int

const (
	// SkipNone marks an emitted result.
	SkipNone SkipReason = iota

	// SkipEmptyIntersection marks a range which shares no codepoint with
	// the font's coverage.  A slice with zero coverage carries no value
	// and would otherwise produce a degenerate, still-downloadable file.
	SkipEmptyIntersection

	// SkipExtractionFailed marks a range whose extraction failed despite
	// non-empty coverage.  The failure is recorded in Result.Err.
	SkipExtractionFailed
)

func (s SkipReason) String() string {
	switch s {
	case SkipNone:
		return "emitted"
	case SkipEmptyIntersection:
		return "empty intersection"
	case SkipExtractionFailed:
		return "extraction failed"
	default:
		return fmt.Sprintf("SkipReason(%d)", int(s))
	}
}

// Result is the outcome for one (variant, range) pair.
type Result struct {
	// RangeIndex is the slice index of the originating range.
	RangeIndex int

	// Data holds the WOFF2 subset.  It is non-nil exactly when the
	// result was emitted.
	Data []byte

	// Codepoints is the number of codepoints covered by the emitted
	// subset: the size of the intersection of the range with the font's
	// coverage.  Glyphs pulled in as composite dependencies do not
	// count.
	Codepoints int

	// Skip is SkipNone for emitted results.
	Skip SkipReason

	// Err is set when Skip is SkipExtractionFailed.
	Err error
}

// Emitted reports whether a subset was produced for the range.
func (r *Result) Emitted() bool {
	return r.Skip == SkipNone
}

// Engine subsets one parsed font binary.  An Engine is read-only after
// construction and safe for concurrent use.
type Engine struct {
	font *sfnt.Font

	// coverage maps every codepoint of the range table which the font
	// can render to its glyph.  Computed once; all per-range decisions
	// are intersections against this map.
	coverage map[rune]glyph.ID
}

// NewEngine parses fontData and computes its glyph coverage over the
// registry's codepoints.  A CorruptFontError is returned if the binary
// cannot be parsed.
func NewEngine(fontData []byte, reg *ranges.Registry) (*Engine, error) {
	font, err := sfnt.Read(bytes.NewReader(fontData))
	if err != nil {
		return nil, &fontslice.CorruptFontError{Err: err}
	}
	cm, err := font.CMapTable.GetBest()
	if err != nil {
		return nil, &fontslice.CorruptFontError{Err: err}
	}

	coverage := make(map[rune]glyph.ID)
	rangetable.Visit(reg.All(), func(c rune) {
		if gid := cm.Lookup(c); gid != 0 {
			coverage[c] = gid
		}
	})

	return &Engine{font: font, coverage: coverage}, nil
}

// CoverageCount returns the number of range table codepoints the font can
// render.
func (e *Engine) CoverageCount() int {
	return len(e.coverage)
}

// Covers reports whether the font covers the codepoint c.  Codepoints
// outside the range table report false.
func (e *Engine) Covers(c rune) bool {
	_, ok := e.coverage[c]
	return ok
}

// Subset extracts one subset per range, in the order of rr.  Per-range
// failures are reported in the corresponding Result and do not abort
// processing of the remaining ranges.
func (e *Engine) Subset(rr []*ranges.Range) []*Result {
	results := make([]*Result, len(rr))
	for i, rng := range rr {
		results[i] = e.subsetRange(rng)
	}
	return results
}

func (e *Engine) subsetRange(rng *ranges.Range) *Result {
	var covered []rune
	rangetable.Visit(rng.Table(), func(c rune) {
		if _, ok := e.coverage[c]; ok {
			covered = append(covered, c)
		}
	})
	if len(covered) == 0 {
		return &Result{RangeIndex: rng.Index, Skip: SkipEmptyIntersection}
	}

	data, err := e.extract(covered)
	if err != nil {
		return &Result{
			RangeIndex: rng.Index,
			Skip:       SkipExtractionFailed,
			Err:        &fontslice.SubsetError{RangeIndex: rng.Index, Err: err},
		}
	}
	return &Result{RangeIndex: rng.Index, Data: data, Codepoints: len(covered)}
}

// extract builds the subset font for the given covered codepoints and
// encodes it as WOFF2.  covered is in ascending order.
func (e *Engine) extract(covered []rune) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("font subsetting: %v", r)
		}
	}()

	gidSet := make(map[glyph.ID]struct{}, len(covered))
	for _, c := range covered {
		gidSet[e.coverage[c]] = struct{}{}
	}
	gids := maps.Keys(gidSet)
	slices.Sort(gids)

	glyphs := make([]glyph.ID, 0, len(gids)+1)
	glyphs = append(glyphs, 0) // .notdef
	glyphs = append(glyphs, gids...)
	newGID := make(map[glyph.ID]glyph.ID, len(glyphs))
	for i, gid := range glyphs {
		newGID[gid] = glyph.ID(i)
	}

	// The layout tables reference glyphs outside the subset and cannot
	// survive renumbering; composite dependencies are carried over by
	// Subset itself.
	orig := e.font.Clone()
	orig.CMapTable = nil
	orig.Gdef = nil
	orig.Gsub = nil
	orig.Gpos = nil
	sub := orig.Subset(glyphs)

	// Restrict the character map to exactly the intersection.
	needWide := covered[len(covered)-1] > 0xFFFF
	if needWide {
		enc := cmap.Format12{}
		for _, c := range covered {
			enc[uint32(c)] = newGID[e.coverage[c]]
		}
		sub.CMapTable = cmap.Table{
			{PlatformID: 3, EncodingID: 10}: enc.Encode(0),
		}
	} else {
		enc := cmap.Format4{}
		for _, c := range covered {
			enc[uint16(c)] = newGID[e.coverage[c]]
		}
		sub.CMapTable = cmap.Table{
			{PlatformID: 3, EncodingID: 1}: enc.Encode(0),
		}
	}

	// Pin the head timestamps so that identical inputs serialize to
	// identical bytes.
	if sub.CreationTime.IsZero() {
		sub.CreationTime = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	sub.ModificationTime = sub.CreationTime

	buf := &bytes.Buffer{}
	if _, err := sub.Write(buf); err != nil {
		return nil, err
	}
	return woff2.Encode(buf.Bytes())
}
