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

// Package css generates the @font-face stylesheets which tie each emitted
// slice to its unicode range.
package css

import (
	"fmt"
	"strings"
)

// Face describes one @font-face block.  Family, Style and Weight are
// properties of the variant and constant across all its slices; URL and
// UnicodeRange are per slice.
type Face struct {
	// Name is the slot identifier of the originating range, emitted as a
	// comment in the readable stylesheet.
	Name string

	Family string
	Style  string
	Weight int

	// URL is the slice's location, relative to the stylesheet or
	// absolute when a CDN base URL is configured.
	URL string

	// UnicodeRange is the range in CSS unicode-range notation.
	UnicodeRange string
}

// Build renders the readable stylesheet: one @font-face block per face,
// in the order given, which must be range order.
func Build(faces []Face) string {
	b := &strings.Builder{}
	for i, f := range faces {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(b, "/* %s */\n", f.Name)
		b.WriteString("@font-face {\n")
		fmt.Fprintf(b, "  font-family: '%s';\n", f.Family)
		fmt.Fprintf(b, "  font-style: %s;\n", f.Style)
		fmt.Fprintf(b, "  font-weight: %d;\n", f.Weight)
		b.WriteString("  font-display: swap;\n")
		fmt.Fprintf(b, "  src: url(%s) format('woff2');\n", f.URL)
		fmt.Fprintf(b, "  unicode-range: %s;\n", f.UnicodeRange)
		b.WriteString("}\n")
	}
	return b.String()
}

// BuildMin renders the minified stylesheet for the same faces.
func BuildMin(faces []Face) string {
	b := &strings.Builder{}
	for _, f := range faces {
		fmt.Fprintf(b,
			"@font-face{font-family:'%s';font-style:%s;font-weight:%d;font-display:swap;src:url(%s) format('woff2');unicode-range:%s}",
			f.Family, f.Style, f.Weight, f.URL,
			strings.ReplaceAll(f.UnicodeRange, ", ", ","))
	}
	return b.String()
}
