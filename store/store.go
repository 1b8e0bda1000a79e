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

// Package store assigns deterministic output paths and persists generated
// artifacts.
//
// Path assignment is a pure function of (family, variant, range index):
// re-running the pipeline over an unchanged range table reproduces
// identical paths, which CDN cache semantics rely on.  Writes are atomic;
// a partially written artifact is never left in the output tree.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/fontslice/fontslice"
)

// hashSalt matches the salt historically used for published slice names.
// Changing it would re-address every published file.
const hashSalt = "font-subset"

const hashLen = 32

// PathFor returns the output path for one slice, relative to the output
// root, using forward slashes.  Pure function: no I/O, no hidden state.
func PathFor(family, variant string, rangeIndex int) string {
	name := fmt.Sprintf("%s-%s-%s.woff2",
		family, variant, sliceHash(family, variant, rangeIndex))
	return path.Join(family, name)
}

// CSSPath returns the relative path of a variant's readable stylesheet.
func CSSPath(family, variant string) string {
	return path.Join(family, fmt.Sprintf("%s-%s.css", family, variant))
}

// MinCSSPath returns the relative path of a variant's minified stylesheet.
func MinCSSPath(family, variant string) string {
	return path.Join(family, fmt.Sprintf("%s-%s.min.css", family, variant))
}

// ManifestPath returns the relative path of a variant's processing
// manifest.
func ManifestPath(family, variant string) string {
	return path.Join(family, fmt.Sprintf("%s-%s.manifest.json", family, variant))
}

func sliceHash(family, variant string, rangeIndex int) string {
	sum := sha256.Sum256(
		[]byte(fmt.Sprintf("%s-%s-%d%s", family, variant, rangeIndex, hashSalt)))
	return hex.EncodeToString(sum[:])[:hashLen]
}

// Store persists artifacts below a root directory.
type Store struct {
	Root string
}

// Abs converts a slash-separated relative artifact path into a filesystem
// path below the store root.
func (s *Store) Abs(rel string) string {
	return filepath.Join(s.Root, filepath.FromSlash(rel))
}

// Write atomically stores data at the given relative path: the bytes are
// written to a temporary file in the destination directory and renamed
// into place, so a failed write never leaves a partial artifact behind.
func (s *Store) Write(rel string, data []byte) error {
	tmpName, err := s.stage(rel, data)
	if err != nil {
		return err
	}
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := os.Rename(tmpName, s.Abs(rel)); err != nil {
		return &fontslice.StorageError{Path: rel, Err: err}
	}
	return nil
}

// stage writes data to a temporary file in rel's destination directory
// and returns the temporary file's name.
func (s *Store) stage(rel string, data []byte) (string, error) {
	dir := filepath.Dir(s.Abs(rel))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &fontslice.StorageError{Path: rel, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".fontslice-*")
	if err != nil {
		return "", &fontslice.StorageError{Path: rel, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", &fontslice.StorageError{Path: rel, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", &fontslice.StorageError{Path: rel, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return "", &fontslice.StorageError{Path: rel, Err: err}
	}
	return tmpName, nil
}

// Batch publishes a group of artifacts together.  Files added to the
// batch are staged as temporary files next to their destinations; nothing
// is visible at its final path until Commit, so an error while adding
// files leaves every previously published artifact in place.
type Batch struct {
	s      *Store
	staged []stagedFile
}

type stagedFile struct {
	rel string
	tmp string
}

// NewBatch starts an empty batch.
func (s *Store) NewBatch() *Batch {
	return &Batch{s: s}
}

// Add stages data for the given relative path.  On error the batch's
// earlier files stay staged; call Discard to drop them.
func (b *Batch) Add(rel string, data []byte) error {
	tmp, err := b.s.stage(rel, data)
	if err != nil {
		return err
	}
	b.staged = append(b.staged, stagedFile{rel: rel, tmp: tmp})
	return nil
}

// Commit renames all staged files into place, in Add order.  All data has
// been written and synced to the destination directories by this point;
// the renames do not depend on remaining disk space.
func (b *Batch) Commit() error {
	for i, f := range b.staged {
		if err := os.Rename(f.tmp, b.s.Abs(f.rel)); err != nil {
			b.staged = b.staged[i:]
			return &fontslice.StorageError{Path: f.rel, Err: err}
		}
	}
	b.staged = nil
	return nil
}

// Discard removes all staged files which have not been committed.  Safe
// to call after Commit.
func (b *Batch) Discard() {
	for _, f := range b.staged {
		os.Remove(f.tmp)
	}
	b.staged = nil
}
