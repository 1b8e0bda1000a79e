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

package pipeline

import (
	"encoding/json"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/fontslice/fontslice"
	"github.com/fontslice/fontslice/manifest"
	"github.com/fontslice/fontslice/store"
)

// IndexFile is the name of the directory listing at the output root.
const IndexFile = "index.json"

// IndexSlice is one slice file in the index.
type IndexSlice struct {
	RangeIndex int    `json:"rangeIndex"`
	Filename   string `json:"filename"`
	Size       int64  `json:"size"`
}

// IndexVariant is one variant in the index.
type IndexVariant struct {
	Variant string       `json:"variant"`
	Version string       `json:"version"`
	CSSFile string       `json:"cssFile"`
	MinCSS  string       `json:"minCssFile"`
	Slices  []IndexSlice `json:"slices"`
}

// IndexFamily is one family in the index.
type IndexFamily struct {
	Name       string         `json:"name"`
	Variants   []IndexVariant `json:"variants"`
	TotalSize  int64          `json:"totalSize"`
	TotalFiles int            `json:"totalFiles"`
}

// Index is the machine-readable listing of the output directory,
// regenerated after every run for downstream consumers.
type Index struct {
	GeneratedAt time.Time     `json:"generatedAt"`
	TotalFonts  int           `json:"totalFonts"`
	Fonts       []IndexFamily `json:"fonts"`
}

// WriteIndex scans the manifests below the store root and writes a fresh
// index.json.  The index is derived from manifests rather than from
// directory globbing, so stale files from earlier table layouts never
// leak into it.
func (r *Runner) WriteIndex() (*Index, error) {
	root := r.Store.Root
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, &fontslice.StorageError{Path: IndexFile, Err: err}
	}

	idx := &Index{GeneratedAt: time.Now().UTC()}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		fam, err := r.indexFamily(entry.Name())
		if err != nil {
			return nil, err
		}
		if fam != nil {
			idx.Fonts = append(idx.Fonts, *fam)
		}
	}
	sort.Slice(idx.Fonts, func(i, j int) bool {
		return idx.Fonts[i].Name < idx.Fonts[j].Name
	})
	idx.TotalFonts = len(idx.Fonts)

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return nil, &fontslice.StorageError{Path: IndexFile, Err: err}
	}
	if err := r.Store.Write(IndexFile, append(data, '\n')); err != nil {
		return nil, err
	}
	return idx, nil
}

func (r *Runner) indexFamily(name string) (*IndexFamily, error) {
	dir := r.Store.Abs(name)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &fontslice.StorageError{Path: name, Err: err}
	}

	fam := &IndexFamily{Name: name}
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".manifest.json") {
			continue
		}
		m, err := manifest.LoadFile(r.Store.Abs(path.Join(name, entry.Name())))
		if err != nil || m == nil {
			// a broken manifest drops its variant from the index but
			// does not abort index generation
			r.logf("index: skipping %s/%s: %v", name, entry.Name(), err)
			continue
		}

		v := IndexVariant{
			Variant: m.Variant,
			Version: m.SourceVersion,
			CSSFile: path.Base(store.CSSPath(m.Family, m.Variant)),
			MinCSS:  path.Base(store.MinCSSPath(m.Family, m.Variant)),
		}
		for _, sl := range m.Slices {
			info, err := os.Stat(r.Store.Abs(sl.Path))
			if err != nil {
				r.logf("index: missing slice %s: %v", sl.Path, err)
				continue
			}
			v.Slices = append(v.Slices, IndexSlice{
				RangeIndex: sl.RangeIndex,
				Filename:   path.Base(sl.Path),
				Size:       info.Size(),
			})
			fam.TotalSize += info.Size()
			fam.TotalFiles++
		}
		fam.Variants = append(fam.Variants, v)
	}
	if len(fam.Variants) == 0 {
		return nil, nil
	}
	sort.Slice(fam.Variants, func(i, j int) bool {
		return fam.Variants[i].Variant < fam.Variants[j].Variant
	})
	return fam, nil
}
