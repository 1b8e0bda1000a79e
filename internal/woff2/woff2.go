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

// Package woff2 wraps complete sfnt font files in WOFF2 containers.
//
// The encoder uses the null transform for all tables, including glyf and
// loca, so the container is a pure function of the input font file.  With
// the Brotli quality fixed this makes the output byte-for-byte
// deterministic, which the pipeline relies on for idempotent reruns.
package woff2

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/andybalholm/brotli"
)

const (
	signature = 0x774F4632 // "wOF2"

	// transformNullGlyf marks the null transform for the glyf and loca
	// tables.  For all other tables the null transform is version 0.
	transformNullGlyf = 3

	unknownTag = 63
)

// brotliQuality is fixed; changing it changes emitted bytes and therefore
// counts as a tool version change.
const brotliQuality = brotli.BestCompression

type header struct {
	Signature           uint32
	Flavor              uint32
	Length              uint32
	NumTables           uint16
	Reserved            uint16
	TotalSfntSize       uint32
	TotalCompressedSize uint32
	MajorVersion        uint16
	MinorVersion        uint16
	MetaOffset          uint32
	MetaLength          uint32
	MetaOrigLength      uint32
	PrivOffset          uint32
	PrivLength          uint32
}

type table struct {
	tag    [4]byte
	offset uint32
	length uint32
}

// Encode converts a complete TrueType/OpenType font file into a WOFF2
// container.
func Encode(sfntData []byte) ([]byte, error) {
	flavor, tables, err := parseDirectory(sfntData)
	if err != nil {
		return nil, err
	}

	// The table directory and the data stream must use the same table
	// order; keep the physical order of the input file.
	sort.Slice(tables, func(i, j int) bool {
		return tables[i].offset < tables[j].offset
	})

	dir := &bytes.Buffer{}
	stream := &bytes.Buffer{}
	totalSfntSize := uint32(12 + 16*len(tables))
	for _, tab := range tables {
		tag := string(tab.tag[:])

		flags := byte(unknownTag)
		if idx, ok := knownTags[tag]; ok {
			flags = idx
		}
		if tag == "glyf" || tag == "loca" {
			flags |= transformNullGlyf << 6
		}
		dir.WriteByte(flags)
		if flags&0x3F == unknownTag {
			dir.Write(tab.tag[:])
		}
		writeUIntBase128(dir, tab.length)

		stream.Write(sfntData[tab.offset : tab.offset+tab.length])
		totalSfntSize += (tab.length + 3) &^ 3
	}

	compressed := &bytes.Buffer{}
	bw := brotli.NewWriterLevel(compressed, brotliQuality)
	if _, err := bw.Write(stream.Bytes()); err != nil {
		return nil, err
	}
	if err := bw.Close(); err != nil {
		return nil, err
	}

	length := 48 + dir.Len() + compressed.Len()
	padding := (4 - length%4) % 4
	length += padding

	h := header{
		Signature:           signature,
		Flavor:              flavor,
		Length:              uint32(length),
		NumTables:           uint16(len(tables)),
		TotalSfntSize:       totalSfntSize,
		TotalCompressedSize: uint32(compressed.Len()),
		MajorVersion:        1,
	}

	out := &bytes.Buffer{}
	out.Grow(length)
	_ = binary.Write(out, binary.BigEndian, h)
	out.Write(dir.Bytes())
	out.Write(compressed.Bytes())
	for i := 0; i < padding; i++ {
		out.WriteByte(0)
	}
	return out.Bytes(), nil
}

// parseDirectory reads the table directory of an sfnt font file.
func parseDirectory(data []byte) (uint32, []table, error) {
	if len(data) < 12 {
		return 0, nil, fmt.Errorf("woff2: font file too short")
	}
	flavor := binary.BigEndian.Uint32(data[0:4])
	numTables := int(binary.BigEndian.Uint16(data[4:6]))
	if numTables == 0 || len(data) < 12+16*numTables {
		return 0, nil, fmt.Errorf("woff2: truncated table directory")
	}

	tables := make([]table, numTables)
	for i := range tables {
		rec := data[12+16*i:]
		copy(tables[i].tag[:], rec[0:4])
		tables[i].offset = binary.BigEndian.Uint32(rec[8:12])
		tables[i].length = binary.BigEndian.Uint32(rec[12:16])
		end := uint64(tables[i].offset) + uint64(tables[i].length)
		if end > uint64(len(data)) {
			return 0, nil, fmt.Errorf("woff2: table %q extends past end of file",
				tables[i].tag)
		}
	}
	return flavor, tables, nil
}

// writeUIntBase128 writes v in the variable-length UIntBase128 encoding:
// big-endian groups of 7 bits, the high bit set on all but the last byte.
func writeUIntBase128(buf *bytes.Buffer, v uint32) {
	var tmp [5]byte
	n := 0
	for {
		tmp[n] = byte(v & 0x7F)
		n++
		v >>= 7
		if v == 0 {
			break
		}
	}
	for i := n - 1; i >= 0; i-- {
		b := tmp[i]
		if i > 0 {
			b |= 0x80
		}
		buf.WriteByte(b)
	}
}

// knownTags assigns the WOFF2 known table tag indices.  Tables not listed
// here use the arbitrary tag escape.
var knownTags = map[string]byte{
	"cmap": 0, "head": 1, "hhea": 2, "hmtx": 3, "maxp": 4,
	"name": 5, "OS/2": 6, "post": 7, "cvt ": 8, "fpgm": 9,
	"glyf": 10, "loca": 11, "prep": 12, "CFF ": 13, "VORG": 14,
	"EBDT": 15, "EBLC": 16, "gasp": 17, "hdmx": 18, "kern": 19,
	"LTSH": 20, "PCLT": 21, "VDMX": 22, "vhea": 23, "vmtx": 24,
	"BASE": 25, "GDEF": 26, "GPOS": 27, "GSUB": 28, "EBSC": 29,
	"JSTF": 30, "MATH": 31, "CBDT": 32, "CBLC": 33, "COLR": 34,
	"CPAL": 35, "SVG ": 36, "sbix": 37, "acnt": 38, "avar": 39,
	"bdat": 40, "bloc": 41, "bsln": 42, "cvar": 43, "fdsc": 44,
	"feat": 45, "fmtx": 46, "fvar": 47, "gvar": 48, "hsty": 49,
	"just": 50, "lcar": 51, "mort": 52, "morx": 53, "opbd": 54,
	"prop": 55, "trak": 56, "Zapf": 57, "Silf": 58, "Glat": 59,
	"Gloc": 60, "Feat": 61, "Sill": 62,
}
