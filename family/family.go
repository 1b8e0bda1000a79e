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

// Package family describes the font families tracked by the pipeline.
//
// Families are created from static JSON configuration and are read-only
// during a run.  The configuration only names things; fetching release
// assets is the job of an external downloader.
package family

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fontslice/fontslice"
)

// Variant is one style of a family, for example "Regular" or "Bold".
type Variant struct {
	// Name is the style label, used in output paths.
	Name string `json:"name"`

	// Weight is the CSS font-weight of the variant.
	Weight int `json:"weight"`

	// Style is the CSS font-style of the variant, normally "normal" or
	// "italic".
	Style string `json:"style"`

	// Source is the name of the font binary for this variant within an
	// upstream release.
	Source string `json:"source"`
}

// Family identifies one tracked font family.
type Family struct {
	// Name is the logical identifier of the family, used in output paths.
	Name string `json:"name"`

	// Repo identifies the upstream repository releases are pulled from.
	Repo string `json:"repo"`

	// Variants lists the styles tracked for this family, in order.
	Variants []Variant `json:"variants"`
}

// Config is the full font family configuration.
type Config struct {
	Fonts []*Family `json:"fonts"`
}

// Load reads a family configuration from r.
func Load(r io.Reader) (*Config, error) {
	var cfg Config
	dec := json.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil {
		return nil, &fontslice.ConfigError{Msg: "family config", Err: err}
	}

	seen := make(map[string]bool)
	for _, f := range cfg.Fonts {
		if f.Name == "" {
			return nil, &fontslice.ConfigError{Msg: "family without a name"}
		}
		if seen[f.Name] {
			return nil, &fontslice.ConfigError{
				Msg: fmt.Sprintf("duplicate family %q", f.Name),
			}
		}
		seen[f.Name] = true

		if len(f.Variants) == 0 {
			return nil, &fontslice.ConfigError{
				Msg: fmt.Sprintf("family %q has no variants", f.Name),
			}
		}
		vSeen := make(map[string]bool)
		for i := range f.Variants {
			v := &f.Variants[i]
			if v.Name == "" {
				return nil, &fontslice.ConfigError{
					Msg: fmt.Sprintf("family %q: variant without a name", f.Name),
				}
			}
			if vSeen[v.Name] {
				return nil, &fontslice.ConfigError{
					Msg: fmt.Sprintf("family %q: duplicate variant %q", f.Name, v.Name),
				}
			}
			vSeen[v.Name] = true
			if v.Source == "" {
				return nil, &fontslice.ConfigError{
					Msg: fmt.Sprintf("family %q: variant %q has no source file", f.Name, v.Name),
				}
			}
			if v.Weight == 0 {
				v.Weight = 400
			}
			if v.Style == "" {
				v.Style = "normal"
			}
		}
	}
	return &cfg, nil
}

// LoadFile reads a family configuration from the file at path.
func LoadFile(path string) (*Config, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, &fontslice.ConfigError{Msg: "family config", Err: err}
	}
	defer fd.Close()
	return Load(fd)
}

// Family returns the configured family with the given name.
func (cfg *Config) Family(name string) (*Family, error) {
	for _, f := range cfg.Fonts {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, &fontslice.ConfigError{
		Msg: fmt.Sprintf("unknown family %q", name),
	}
}

// Variant returns the variant with the given style label.
func (f *Family) Variant(name string) (*Variant, error) {
	for i := range f.Variants {
		if f.Variants[i].Name == name {
			return &f.Variants[i], nil
		}
	}
	return nil, &fontslice.ConfigError{
		Msg: fmt.Sprintf("family %q has no variant %q", f.Name, name),
	}
}

// ResolveSourceFile returns the upstream binary filename for the given
// variant of the family.
func (f *Family) ResolveSourceFile(variant string) (string, error) {
	v, err := f.Variant(variant)
	if err != nil {
		return "", err
	}
	return v.Source, nil
}
