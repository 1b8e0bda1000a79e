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

// Package pipeline orchestrates subsetting runs.
//
// One Job covers one (family, variant) pair.  Jobs are independent of
// each other; the runner processes them in parallel over a bounded worker
// pool, sharing only the immutable range registry.  A job stages its
// slice files, stylesheets, and manifest and publishes them in a single
// commit, with the manifest renamed last, so a failed job leaves the
// previously published state authoritative.
package pipeline

import (
	"errors"
	"fmt"
	"log"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/fontslice/fontslice"
	"github.com/fontslice/fontslice/css"
	"github.com/fontslice/fontslice/family"
	"github.com/fontslice/fontslice/manifest"
	"github.com/fontslice/fontslice/ranges"
	"github.com/fontslice/fontslice/store"
	"github.com/fontslice/fontslice/subset"
)

// Job is one unit of work: subset one variant of one family from one
// upstream release.
type Job struct {
	Family  *family.Family
	Variant *family.Variant

	// Version is the upstream version tag the font data belongs to,
	// supplied by the external release poller.
	Version string

	// FontData is the full font binary, already downloaded by an
	// external fetcher.
	FontData []byte
}

// Stats summarizes the outcome of one job.
type Stats struct {
	Family  string
	Variant string

	// UpToDate is set when the prior manifest already covers this
	// version and range table, and nothing was done.
	UpToDate bool

	Emitted      int
	SkippedEmpty int
	Failed       int

	// Bytes is the total size of the emitted slices.
	Bytes int64

	// Errors collects per-range extraction failures.  Fatal errors are
	// returned by Process instead.
	Errors []error
}

// Runner executes jobs against one range registry and one output store.
type Runner struct {
	Registry *ranges.Registry
	Store    *store.Store

	// BaseURL, when set, prefixes slice URLs in generated stylesheets.
	// When empty, stylesheets reference slices by bare filename, which
	// works when they are served from the same directory.
	BaseURL string

	// Workers bounds the number of jobs processed in parallel.
	// Zero means one.
	Workers int

	// Log receives progress output.  May be nil.
	Log *log.Logger
}

func (r *Runner) logf(format string, args ...interface{}) {
	if r.Log != nil {
		r.Log.Printf(format, args...)
	}
}

// Run processes all jobs and returns one Stats per job, in job order
// regardless of execution order.  Per-job failures are isolated: a failed
// job yields a Stats with the fatal error appended and does not prevent
// other jobs from completing.
func (r *Runner) Run(jobs []Job) []*Stats {
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	stats := make([]*Stats, len(jobs))
	work := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				stats[i] = r.runOne(jobs[i])
			}
		}()
	}
	for i := range jobs {
		work <- i
	}
	close(work)
	wg.Wait()
	return stats
}

func (r *Runner) runOne(job Job) *Stats {
	st, err := r.Process(job)
	if err != nil {
		if st == nil {
			st = &Stats{Family: job.Family.Name, Variant: job.Variant.Name}
		}
		st.Errors = append(st.Errors, err)
		r.logf("%s-%s: failed: %v", job.Family.Name, job.Variant.Name, err)
		return st
	}
	switch {
	case st.UpToDate:
		r.logf("%s-%s: up to date at %s", st.Family, st.Variant, job.Version)
	default:
		r.logf("%s-%s: %d slices emitted (%s), %d skipped, %d failed",
			st.Family, st.Variant, st.Emitted, formatSize(st.Bytes),
			st.SkippedEmpty, st.Failed)
	}
	return st
}

// Process runs a single job.  The returned error is fatal for the job
// (corrupt font, storage failure); per-range extraction failures are
// reported through Stats.Errors instead.
func (r *Runner) Process(job Job) (*Stats, error) {
	fam, variant := job.Family, job.Variant
	st := &Stats{Family: fam.Name, Variant: variant.Name}

	manifestPath := store.ManifestPath(fam.Name, variant.Name)
	prior, err := manifest.LoadFile(r.Store.Abs(manifestPath))
	if err != nil {
		// an unreadable manifest is treated as absent, forcing a rerun
		r.logf("%s-%s: ignoring unreadable manifest: %v",
			fam.Name, variant.Name, err)
		prior = nil
	}
	if !manifest.NeedsProcessing(prior, job.Version, r.Registry.Hash()) {
		st.UpToDate = true
		return st, nil
	}

	engine, err := subset.NewEngine(job.FontData, r.Registry)
	if err != nil {
		return st, err
	}

	results := engine.Subset(r.Registry.Ranges())

	m := &manifest.Manifest{
		Family:         fam.Name,
		Variant:        variant.Name,
		SourceVersion:  job.Version,
		RangeTableHash: r.Registry.Hash(),
		GeneratedAt:    time.Now().UTC(),
	}
	var faces []css.Face

	// All artifacts are staged and published together: a storage failure
	// anywhere before the commit leaves the previously published slices,
	// stylesheets, and manifest untouched.
	batch := r.Store.NewBatch()
	defer batch.Discard()

	for i, res := range results {
		switch res.Skip {
		case subset.SkipEmptyIntersection:
			st.SkippedEmpty++
			continue
		case subset.SkipExtractionFailed:
			st.Failed++
			st.Errors = append(st.Errors, res.Err)
			r.logf("%s-%s: range %d: %v", fam.Name, variant.Name, res.RangeIndex, res.Err)
			continue
		}

		rel := store.PathFor(fam.Name, variant.Name, res.RangeIndex)
		if err := batch.Add(rel, res.Data); err != nil {
			return st, err
		}
		st.Emitted++
		st.Bytes += int64(len(res.Data))

		rng := r.Registry.Ranges()[i]
		faces = append(faces, css.Face{
			Name:         rng.Name(),
			Family:       fam.Name,
			Style:        variant.Style,
			Weight:       variant.Weight,
			URL:          r.sliceURL(rel),
			UnicodeRange: rng.CSS(),
		})
		m.Slices = append(m.Slices, manifest.Slice{
			RangeIndex: res.RangeIndex,
			Path:       rel,
			Codepoints: res.Codepoints,
		})
	}

	sheet := css.Build(faces)
	if err := batch.Add(store.CSSPath(fam.Name, variant.Name), []byte(sheet)); err != nil {
		return st, err
	}
	minSheet := css.BuildMin(faces)
	if err := batch.Add(store.MinCSSPath(fam.Name, variant.Name), []byte(minSheet)); err != nil {
		return st, err
	}

	// the manifest renames last: its presence implies all artifacts above
	data, err := m.Encode()
	if err != nil {
		return st, &fontslice.StorageError{Path: manifestPath, Err: err}
	}
	if err := batch.Add(manifestPath, data); err != nil {
		return st, err
	}
	if err := batch.Commit(); err != nil {
		return st, err
	}
	return st, nil
}

func (r *Runner) sliceURL(rel string) string {
	base := strings.TrimSuffix(r.BaseURL, "/")
	if base == "" {
		return path.Base(rel)
	}
	return base + "/" + rel
}

// Failed reports whether any job in stats ended with a fatal error.
// Per-range extraction failures alone do not fail a run.
func Failed(stats []*Stats) bool {
	for _, st := range stats {
		for _, err := range st.Errors {
			var subsetErr *fontslice.SubsetError
			if !errors.As(err, &subsetErr) {
				return true
			}
		}
	}
	return false
}

func formatSize(n int64) string {
	size := float64(n)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if size < 1024 {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.1f TB", size)
}
