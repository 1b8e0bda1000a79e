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

// Command fontslice subsets downloaded font releases into unicode-range
// slices and regenerates the stylesheets, manifests and directory index.
//
// Polling for new releases and downloading their assets is the job of
// external tooling; this command consumes an updates file describing what
// was downloaded:
//
//	[
//	  {
//	    "name": "DemoSerif",
//	    "version": "v1.50",
//	    "files": {"Regular": "downloads/DemoSerif-Regular.ttf"}
//	  }
//	]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fontslice/fontslice/family"
	"github.com/fontslice/fontslice/pipeline"
	"github.com/fontslice/fontslice/ranges"
	"github.com/fontslice/fontslice/store"
)

type update struct {
	Name    string            `json:"name"`
	Version string            `json:"version"`
	Files   map[string]string `json:"files"`
}

func main() {
	configPath := flag.String("config", "config/fonts.json",
		"font family configuration")
	rangesPath := flag.String("ranges", "config/unicode_ranges.json",
		"unicode range table")
	updatesPath := flag.String("updates", "data/updates.json",
		"downloaded updates to process")
	outDir := flag.String("out", "fonts", "output directory")
	baseURL := flag.String("base-url", "",
		"CDN base URL for stylesheet src entries (default: relative)")
	jobs := flag.Int("jobs", 2, "number of variants to process in parallel")
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	if err := run(*configPath, *rangesPath, *updatesPath, *outDir, *baseURL, *jobs, logger); err != nil {
		logger.Fatal(err)
	}
}

func run(configPath, rangesPath, updatesPath, outDir, baseURL string, jobs int, logger *log.Logger) error {
	cfg, err := family.LoadFile(configPath)
	if err != nil {
		return err
	}
	reg, err := ranges.LoadFile(rangesPath)
	if err != nil {
		return err
	}
	updates, err := loadUpdates(updatesPath)
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		logger.Print("nothing to process")
		return nil
	}

	runner := &pipeline.Runner{
		Registry: reg,
		Store:    &store.Store{Root: outDir},
		BaseURL:  baseURL,
		Workers:  jobs,
		Log:      logger,
	}

	var work []pipeline.Job
	for _, u := range updates {
		fam, err := cfg.Family(u.Name)
		if err != nil {
			return err
		}
		for i := range fam.Variants {
			variant := &fam.Variants[i]
			path, ok := u.Files[variant.Name]
			if !ok {
				logger.Printf("%s-%s: no downloaded file, skipping",
					fam.Name, variant.Name)
				continue
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("%s-%s: %w", fam.Name, variant.Name, err)
			}
			work = append(work, pipeline.Job{
				Family:   fam,
				Variant:  variant,
				Version:  u.Version,
				FontData: data,
			})
		}
	}

	stats := runner.Run(work)
	if _, err := runner.WriteIndex(); err != nil {
		return err
	}

	var emitted int
	for _, st := range stats {
		emitted += st.Emitted
	}
	logger.Printf("done: %d slices emitted across %d jobs", emitted, len(work))

	if pipeline.Failed(stats) {
		return fmt.Errorf("one or more jobs failed")
	}
	return nil
}

func loadUpdates(path string) ([]update, error) {
	fd, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	var updates []update
	dec := json.NewDecoder(fd)
	if err := dec.Decode(&updates); err != nil {
		return nil, fmt.Errorf("updates file: %w", err)
	}
	return updates, nil
}
