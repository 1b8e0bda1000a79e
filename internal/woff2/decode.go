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

package woff2

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"

	"github.com/andybalholm/brotli"
)

// Decode unpacks a WOFF2 container back into an sfnt font file.  Only
// containers using the null transform for every table are supported,
// which includes everything produced by [Encode].
func Decode(data []byte) ([]byte, error) {
	if len(data) < 48 {
		return nil, fmt.Errorf("woff2: container too short")
	}
	var h header
	if err := binary.Read(bytes.NewReader(data), binary.BigEndian, &h); err != nil {
		return nil, err
	}
	if h.Signature != signature {
		return nil, fmt.Errorf("woff2: bad signature %08x", h.Signature)
	}

	type entry struct {
		tag    [4]byte
		length uint32
	}
	entries := make([]entry, h.NumTables)

	pos := 48
	for i := range entries {
		if pos >= len(data) {
			return nil, fmt.Errorf("woff2: truncated table directory")
		}
		flags := data[pos]
		pos++

		tagIdx := flags & 0x3F
		if tagIdx == unknownTag {
			if pos+4 > len(data) {
				return nil, fmt.Errorf("woff2: truncated table directory")
			}
			copy(entries[i].tag[:], data[pos:pos+4])
			pos += 4
		} else {
			copy(entries[i].tag[:], tagByIndex[tagIdx])
		}

		tag := string(entries[i].tag[:])
		version := flags >> 6
		nullVersion := byte(0)
		if tag == "glyf" || tag == "loca" {
			nullVersion = transformNullGlyf
		}
		if version != nullVersion {
			return nil, fmt.Errorf("woff2: transformed %q table not supported", tag)
		}

		length, n, err := readUIntBase128(data[pos:])
		if err != nil {
			return nil, err
		}
		entries[i].length = length
		pos += n
	}

	if pos+int(h.TotalCompressedSize) > len(data) {
		return nil, fmt.Errorf("woff2: truncated data stream")
	}
	comp := data[pos : pos+int(h.TotalCompressedSize)]
	stream, err := io.ReadAll(brotli.NewReader(bytes.NewReader(comp)))
	if err != nil {
		return nil, fmt.Errorf("woff2: %w", err)
	}

	// reassemble the sfnt container
	numTables := len(entries)
	entrySelector := bits.Len(uint(numTables)) - 1
	out := &bytes.Buffer{}
	_ = binary.Write(out, binary.BigEndian, h.Flavor)
	_ = binary.Write(out, binary.BigEndian, uint16(numTables))
	_ = binary.Write(out, binary.BigEndian, uint16(1<<(entrySelector+4)))
	_ = binary.Write(out, binary.BigEndian, uint16(entrySelector))
	_ = binary.Write(out, binary.BigEndian, uint16(16*(numTables-1<<entrySelector)))

	offset := uint32(12 + 16*numTables)
	streamPos := uint32(0)
	for _, e := range entries {
		out.Write(e.tag[:])
		_ = binary.Write(out, binary.BigEndian, uint32(0)) // checksum not restored
		_ = binary.Write(out, binary.BigEndian, offset)
		_ = binary.Write(out, binary.BigEndian, e.length)
		offset += (e.length + 3) &^ 3
		streamPos += e.length
	}
	if streamPos > uint32(len(stream)) {
		return nil, fmt.Errorf("woff2: data stream shorter than table directory")
	}

	streamPos = 0
	var pad [3]byte
	for _, e := range entries {
		out.Write(stream[streamPos : streamPos+e.length])
		streamPos += e.length
		if k := e.length % 4; k != 0 {
			out.Write(pad[:4-k])
		}
	}
	return out.Bytes(), nil
}

func readUIntBase128(data []byte) (uint32, int, error) {
	var v uint32
	for i := 0; i < 5 && i < len(data); i++ {
		b := data[i]
		if v > 0x1FFFFFF {
			break // would overflow below
		}
		v = v<<7 | uint32(b&0x7F)
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("woff2: invalid UIntBase128 value")
}

var tagByIndex = make([]string, 64)

func init() {
	for tag, idx := range knownTags {
		tagByIndex[idx] = tag
	}
}
