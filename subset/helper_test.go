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
	"testing"

	"seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/cmap"

	"github.com/fontslice/fontslice/internal/woff2"
)

// decodeWOFF2 unpacks an emitted slice and returns its character map.
func decodeWOFF2(t *testing.T, data []byte) cmap.Subtable {
	t.Helper()
	ttfData, err := woff2.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	font, err := sfnt.Read(bytes.NewReader(ttfData))
	if err != nil {
		t.Fatal(err)
	}
	cm, err := font.CMapTable.GetBest()
	if err != nil {
		t.Fatal(err)
	}
	return cm
}
