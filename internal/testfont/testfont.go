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

// Package testfont builds font binaries with precisely known coverage for
// use in tests.  Do not use this package in production code.
package testfont

import (
	"bytes"

	"golang.org/x/image/font/gofont/goregular"

	"seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/cmap"
	"seehuhn.de/go/sfnt/glyph"
)

// Regular returns the raw Go Regular font file.
func Regular() []byte {
	return goregular.TTF
}

// Covering returns a font file whose character map contains exactly the
// given codepoints.  The glyphs are borrowed from Go Regular: the i-th
// codepoint renders as the letter 'A'+i.  At most 26 codepoints are
// supported.
func Covering(codepoints ...rune) []byte {
	if len(codepoints) > 26 {
		panic("testfont: too many codepoints")
	}

	base, err := sfnt.Read(bytes.NewReader(goregular.TTF))
	if err != nil {
		panic(err)
	}
	cm, err := base.CMapTable.GetBest()
	if err != nil {
		panic(err)
	}

	glyphs := []glyph.ID{0}
	newGID := make(map[rune]glyph.ID)
	for i, c := range codepoints {
		gid := cm.Lookup('A' + rune(i))
		if gid == 0 {
			panic("testfont: letter not covered by Go Regular")
		}
		glyphs = append(glyphs, gid)
		newGID[c] = glyph.ID(i + 1)
	}

	base.Gdef = nil
	base.Gsub = nil
	base.Gpos = nil
	sub := base.Subset(glyphs)

	wide := false
	for _, c := range codepoints {
		if c > 0xFFFF {
			wide = true
		}
	}
	if wide {
		enc := cmap.Format12{}
		for _, c := range codepoints {
			enc[uint32(c)] = newGID[c]
		}
		sub.CMapTable = cmap.Table{
			{PlatformID: 3, EncodingID: 10}: enc.Encode(0),
		}
	} else {
		enc := cmap.Format4{}
		for _, c := range codepoints {
			enc[uint16(c)] = newGID[c]
		}
		sub.CMapTable = cmap.Table{
			{PlatformID: 3, EncodingID: 1}: enc.Encode(0),
		}
	}

	buf := &bytes.Buffer{}
	if _, err := sub.Write(buf); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
