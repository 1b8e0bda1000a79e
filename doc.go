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

// Package fontslice maintains unicode-range sliced subset fonts for CDN
// delivery.
//
// Given a full font release and an ordered table of unicode ranges, the
// packages in this module decide which ranges carry glyph coverage, extract
// one WOFF2 subset per covered range, assign deterministic output names,
// and generate the @font-face stylesheets and processing manifests which
// tie each slice to its unicode range.
//
// The subpackages are layered as follows:
//
//   - ranges: the ordered table of named unicode ranges
//   - family: static configuration for tracked font families
//   - subset: glyph coverage computation and per-range extraction
//   - css: @font-face stylesheet generation
//   - manifest: processing manifests and the staleness check
//   - store: deterministic output naming and atomic writes
//   - pipeline: per-(family, variant) job orchestration
//
// This package holds the error taxonomy shared by the subpackages:
// [ConfigError], [CorruptFontError], [SubsetError] and [StorageError].
package fontslice
