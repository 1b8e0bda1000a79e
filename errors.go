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

package fontslice

import "strconv"

// ConfigError indicates that the range table or the family configuration
// is malformed.  Configuration errors are fatal and abort a run before any
// output is written.
type ConfigError struct {
	Msg string
	Err error
}

func (err *ConfigError) Error() string {
	tail := ""
	if err.Err != nil {
		tail = ": " + err.Err.Error()
	}
	return "invalid configuration: " + err.Msg + tail
}

func (err *ConfigError) Unwrap() error {
	return err.Err
}

// CorruptFontError indicates that a source font binary could not be
// parsed.  The error is fatal for the affected (family, variant) job only.
type CorruptFontError struct {
	Err error
}

func (err *CorruptFontError) Error() string {
	middle := ""
	if err.Err != nil {
		middle = ": " + err.Err.Error()
	}
	return "not a usable font file" + middle
}

func (err *CorruptFontError) Unwrap() error {
	return err.Err
}

// SubsetError indicates that extraction failed for a single range even
// though the range had glyph coverage.  The affected range is excluded
// from the output; processing of the remaining ranges continues.
type SubsetError struct {
	RangeIndex int
	Err        error
}

func (err *SubsetError) Error() string {
	middle := ""
	if err.Err != nil {
		middle = ": " + err.Err.Error()
	}
	return "subsetting range " + strconv.Itoa(err.RangeIndex) + " failed" + middle
}

func (err *SubsetError) Unwrap() error {
	return err.Err
}

// StorageError indicates a failed artifact write.  The error is fatal for
// the affected (family, variant) job; no manifest is committed, so the
// previously published state stays authoritative.
type StorageError struct {
	Path string
	Err  error
}

func (err *StorageError) Error() string {
	middle := ""
	if err.Err != nil {
		middle = ": " + err.Err.Error()
	}
	return "cannot store " + err.Path + middle
}

func (err *StorageError) Unwrap() error {
	return err.Err
}
