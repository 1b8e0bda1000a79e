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

// Package ranges implements the ordered table of named unicode ranges
// which defines the slicing scheme.
//
// The table is an ordered JSON array of CSS unicode-range values, for
// example ["U+0-FF", "U+4E00-9FFF"].  A range's position in the array is
// its slice index; published slice files are addressed by this index, so
// the table must never be reordered for a family once slices have been
// published.
package ranges

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/rangetable"

	"github.com/fontslice/fontslice"
)

// MaxCodepoint is the largest valid Unicode codepoint.
const MaxCodepoint rune = 0x10FFFF

// Interval is a closed codepoint interval.  Lo and Hi are both included.
type Interval struct {
	Lo, Hi rune
}

func (iv Interval) String() string {
	if iv.Lo == iv.Hi {
		return fmt.Sprintf("U+%X", iv.Lo)
	}
	return fmt.Sprintf("U+%X-%X", iv.Lo, iv.Hi)
}

// Range is one named slice definition.  Ranges are immutable once loaded.
type Range struct {
	// Index is the range's position in the table.  It doubles as the
	// range's name.
	Index int

	// Intervals lists the codepoint intervals of the range, in the order
	// given in the table.  Intervals do not overlap.
	Intervals []Interval

	table *unicode.RangeTable
}

// Name returns the slot identifier of the range.
func (r *Range) Name() string {
	return strconv.Itoa(r.Index)
}

// CSS returns the range in CSS unicode-range notation, for use in
// @font-face declarations.
func (r *Range) CSS() string {
	parts := make([]string, len(r.Intervals))
	for i, iv := range r.Intervals {
		parts[i] = iv.String()
	}
	return strings.Join(parts, ", ")
}

// Table returns the codepoints of the range as a unicode.RangeTable.
// The returned table is shared and must not be modified.
func (r *Range) Table() *unicode.RangeTable {
	return r.table
}

// Contains reports whether the codepoint c lies in the range.
func (r *Range) Contains(c rune) bool {
	return unicode.Is(r.table, c)
}

// Registry holds the loaded range table.  A Registry is immutable and safe
// for concurrent use by any number of subsetting jobs.
type Registry struct {
	ranges []*Range
	merged *unicode.RangeTable
	hash   string
}

// Load reads a range table from r.
func Load(r io.Reader) (*Registry, error) {
	var entries []string
	dec := json.NewDecoder(r)
	if err := dec.Decode(&entries); err != nil {
		return nil, &fontslice.ConfigError{Msg: "range table", Err: err}
	}
	if len(entries) == 0 {
		return nil, &fontslice.ConfigError{Msg: "range table is empty"}
	}

	reg := &Registry{}
	tables := make([]*unicode.RangeTable, len(entries))
	for i, entry := range entries {
		ivs, err := ParseIntervals(entry)
		if err != nil {
			return nil, &fontslice.ConfigError{
				Msg: fmt.Sprintf("range %d (%q)", i, entry),
				Err: err,
			}
		}
		rng := &Range{
			Index:     i,
			Intervals: ivs,
			table:     makeTable(ivs),
		}
		reg.ranges = append(reg.ranges, rng)
		tables[i] = rng.table
	}
	reg.merged = rangetable.Merge(tables...)
	reg.hash = tableHash(reg.ranges)
	return reg, nil
}

// LoadFile reads a range table from the file at path.
func LoadFile(path string) (*Registry, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, &fontslice.ConfigError{Msg: "range table", Err: err}
	}
	defer fd.Close()
	return Load(fd)
}

// Len returns the number of ranges in the table.
func (reg *Registry) Len() int {
	return len(reg.ranges)
}

// Ranges returns the ranges in table order.  The returned slice is shared
// and must not be modified.
func (reg *Registry) Ranges() []*Range {
	return reg.ranges
}

// All returns the union of all ranges in the table as a single
// unicode.RangeTable.  The subsetting engine uses this to enumerate the
// candidate codepoints of a font in one pass.
func (reg *Registry) All() *unicode.RangeTable {
	return reg.merged
}

// Hash returns a stable content hash of the table.  Two registries have
// the same hash if and only if they describe the same ordered list of
// intervals; the hash is recorded in processing manifests so that editing
// the table forces reprocessing.
func (reg *Registry) Hash() string {
	return reg.hash
}

// ParseIntervals parses a CSS unicode-range value such as
// "U+4E00-9FFF, U+FF00-FFEF" into its intervals.  The "U+" prefix is
// optional and hex digits are case-insensitive.
func ParseIntervals(s string) ([]Interval, error) {
	var ivs []Interval
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		part = strings.TrimPrefix(strings.ToUpper(part), "U+")
		if part == "" {
			return nil, fmt.Errorf("empty interval")
		}

		var iv Interval
		if lo, hi, found := strings.Cut(part, "-"); found {
			a, err := parseCodepoint(lo)
			if err != nil {
				return nil, err
			}
			b, err := parseCodepoint(hi)
			if err != nil {
				return nil, err
			}
			iv = Interval{Lo: a, Hi: b}
		} else {
			c, err := parseCodepoint(part)
			if err != nil {
				return nil, err
			}
			iv = Interval{Lo: c, Hi: c}
		}
		if iv.Lo > iv.Hi {
			return nil, fmt.Errorf("interval %s is inverted", iv)
		}
		ivs = append(ivs, iv)
	}

	if err := checkOverlap(ivs); err != nil {
		return nil, err
	}
	return ivs, nil
}

func parseCodepoint(s string) (rune, error) {
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("bad codepoint %q", s)
	}
	if v > uint64(MaxCodepoint) {
		return 0, fmt.Errorf("codepoint U+%X outside the unicode space", v)
	}
	return rune(v), nil
}

func checkOverlap(ivs []Interval) error {
	sorted := make([]Interval, len(ivs))
	copy(sorted, ivs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Lo < sorted[j].Lo
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Lo <= sorted[i-1].Hi {
			return fmt.Errorf("intervals %s and %s overlap", sorted[i-1], sorted[i])
		}
	}
	return nil
}

// makeTable builds a unicode.RangeTable for a validated interval list.
// Intervals straddling the BMP boundary are split between R16 and R32.
func makeTable(ivs []Interval) *unicode.RangeTable {
	sorted := make([]Interval, len(ivs))
	copy(sorted, ivs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Lo < sorted[j].Lo
	})

	rt := &unicode.RangeTable{}
	for _, iv := range sorted {
		if iv.Lo <= 0xFFFF {
			hi := iv.Hi
			if hi > 0xFFFF {
				hi = 0xFFFF
			}
			rt.R16 = append(rt.R16, unicode.Range16{
				Lo:     uint16(iv.Lo),
				Hi:     uint16(hi),
				Stride: 1,
			})
		}
		if iv.Hi > 0xFFFF {
			lo := iv.Lo
			if lo <= 0xFFFF {
				lo = 0x10000
			}
			rt.R32 = append(rt.R32, unicode.Range32{
				Lo:     uint32(lo),
				Hi:     uint32(iv.Hi),
				Stride: 1,
			})
		}
	}
	for _, r := range rt.R16 {
		if r.Hi > unicode.MaxLatin1 {
			break
		}
		rt.LatinOffset++
	}
	return rt
}

// tableHash computes the registry content hash over a canonical
// serialization of the table, so that formatting differences in the input
// file do not count as changes.
func tableHash(rr []*Range) string {
	h := sha256.New()
	for _, r := range rr {
		fmt.Fprintf(h, "%d:%s\n", r.Index, r.CSS())
	}
	return hex.EncodeToString(h.Sum(nil))
}
