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

// Package manifest persists processing manifests between runs and decides
// whether a (family, variant) pair needs reprocessing.
//
// A manifest records which slices were emitted for one upstream version of
// one variant.  Skipped ranges are implicit: everything not listed was
// skipped.  Each successful run writes a fresh manifest which fully
// supersedes the previous one.
package manifest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Slice is one emitted subset in a manifest.
type Slice struct {
	// RangeIndex is the position of the originating range in the range
	// table.
	RangeIndex int `json:"rangeIndex"`

	// Path is the slice's output path, relative to the output root.
	Path string `json:"path"`

	// Codepoints is the number of codepoints the slice covers.
	Codepoints int `json:"codepoints"`
}

// Manifest is the processing record for one (family, variant) pair.
type Manifest struct {
	Family  string `json:"family"`
	Variant string `json:"variant"`

	// SourceVersion is the upstream version tag the outputs were
	// generated from.  It is compared verbatim.
	SourceVersion string `json:"sourceVersion"`

	// RangeTableHash is the content hash of the range table used for the
	// run.  A changed table forces reprocessing even without an upstream
	// update.
	RangeTableHash string `json:"rangeTableHash"`

	// GeneratedAt records when the run completed.  It is informational
	// and never used for staleness decisions.
	GeneratedAt time.Time `json:"generatedAt"`

	// Slices lists the emitted subsets in range order.
	Slices []Slice `json:"slices"`
}

// NeedsProcessing reports whether a (family, variant) pair must be
// reprocessed.  prior is the manifest of the last successful run, or nil
// if there is none.  Processing is needed iff the manifest is absent, the
// upstream version changed, or the range table content changed.  Repeated
// calls with identical inputs always return false after a successful run.
func NeedsProcessing(prior *Manifest, upstreamVersion, rangeTableHash string) bool {
	if prior == nil {
		return true
	}
	return prior.SourceVersion != upstreamVersion ||
		prior.RangeTableHash != rangeTableHash
}

// Read decodes a manifest from r.
func Read(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := json.NewDecoder(r)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	return &m, nil
}

// LoadFile reads the manifest at path.  A missing file is not an error:
// the manifest is simply absent and (nil, nil) is returned.
func LoadFile(path string) (*Manifest, error) {
	fd, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	return Read(fd)
}

// Encode returns the canonical JSON serialization of the manifest.
func (m *Manifest) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
