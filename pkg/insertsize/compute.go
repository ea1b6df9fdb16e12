// Package insertsize computes the median fragment insert size of a paired-end
// run from a stream of alignment records.
//
// The pipeline is single-pass: Scan filters records, classifies each leftmost
// read by pair orientation and fills one histogram per category; Evaluate then
// prunes minority categories, picks one and returns its upper median.
package insertsize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/eunmann/insertsize/internal/logctx"
	"github.com/eunmann/insertsize/pkg/alignment"
	"github.com/eunmann/insertsize/pkg/logging"
	"github.com/eunmann/insertsize/pkg/orient"
)

// MaxMinPct is the largest accepted category threshold.
const MaxMinPct = 0.5

// DefaultMinPct is the default category threshold.
const DefaultMinPct = 0.05

// cancelCheckEvery is how many records pass between context checks.
const cancelCheckEvery = 4096

// Params configures a computation.
type Params struct {
	Filter

	// MinPct is the minimum share of leftmost records a category needs to be
	// retained, within [0, MaxMinPct].
	MinPct float64
	// Orientation is the category reported by the Specific strategy.
	Orientation orient.Category
	Strategy    Strategy

	// ProgressEvery emits a debug progress event every N records (0 disables).
	ProgressEvery uint64
}

// DefaultParams returns min_pct 0.05 with the specific strategy on FR.
// Duplicates are excluded and improper pairs allowed.
func DefaultParams() Params {
	return Params{
		MinPct:        DefaultMinPct,
		Orientation:   orient.FR,
		Strategy:      Specific,
		ProgressEvery: 1_000_000,
	}
}

// Validate checks the parameters. Failures are of kind InvalidParameter.
func (p Params) Validate() error {
	if math.IsNaN(p.MinPct) || p.MinPct < 0 || p.MinPct > MaxMinPct {
		return invalidParameter("min_pct must be within [0, %g], got %g", MaxMinPct, p.MinPct)
	}
	if !p.Strategy.Valid() {
		return invalidParameter("strategy must be specific or dominant, got %s", p.Strategy)
	}
	if !p.Orientation.Valid() {
		return invalidParameter("pair orientation must be FR, RF, or TANDEM, got %s", p.Orientation)
	}
	return nil
}

// ScanStats describes a completed scan.
type ScanStats struct {
	RecordsRead uint64
	Elapsed     time.Duration
}

// Result is a successful computation.
type Result struct {
	InsertSize int
	Category   orient.Category
	// Count is the number of observations in Category.
	Count         uint64
	TotalLeftmost uint64
	RecordsRead   uint64
}

// Scan consumes r to the end and returns the accumulated histograms. It does
// not close r.
func Scan(ctx context.Context, r alignment.Reader, f Filter, progressEvery uint64) (*State, ScanStats, error) {
	log := logging.WithPhase(logctx.FromContext(ctx), "scan")
	progress := logging.NewScanProgress(log, "scan", progressEvery)
	state := NewState()

	for {
		if progress.Records()%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, ScanStats{}, err
			}
		}

		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, ScanStats{}, fmt.Errorf("read record %d: %w", progress.Records()+1, err)
		}
		progress.Tick()

		if !f.Eligible(rec) {
			continue
		}
		state.Observe(orient.Classify(rec.Reverse, rec.MateReverse), insertSize(rec))
	}

	stats := ScanStats{RecordsRead: progress.Records(), Elapsed: progress.Elapsed()}
	logging.PhaseComplete(log, "scan", stats.Elapsed).
		Count("records_read", int64(stats.RecordsRead)).
		Count("leftmost_records", int64(state.TotalLeftmost())).
		Uint64("fr_records", state.Count(orient.FR)).
		Uint64("rf_records", state.Count(orient.RF)).
		Uint64("tandem_records", state.Count(orient.Tandem)).
		Rate("records", int64(stats.RecordsRead)).
		Log("scan completed")

	return state, stats, nil
}

// Evaluate selects a category from a completed scan and returns its median.
func Evaluate(ctx context.Context, state *State, stats ScanStats, p Params) (Result, error) {
	log := logging.WithPhase(logctx.FromContext(ctx), "select")

	chosen, err := Select(state, p.MinPct, p.Orientation, p.Strategy)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		InsertSize:    Median(chosen.Histogram),
		Category:      chosen.Category,
		Count:         chosen.Count,
		TotalLeftmost: state.TotalLeftmost(),
		RecordsRead:   stats.RecordsRead,
	}
	log.Info().
		Str("event", "insert_size_computed").
		Str("strategy", p.Strategy.String()).
		Str("orientation", res.Category.String()).
		Uint64("category_records", res.Count).
		Uint64("leftmost_records", res.TotalLeftmost).
		Float64("min_pct", p.MinPct).
		Int("median_insert_size", res.InsertSize).
		Msg("insert size computed")
	return res, nil
}

// Compute validates p, scans r and reports the median insert size. No record
// is read when p is invalid.
func Compute(ctx context.Context, r alignment.Reader, p Params) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	state, stats, err := Scan(ctx, r, p.Filter, p.ProgressEvery)
	if err != nil {
		return Result{}, err
	}
	return Evaluate(ctx, state, stats, p)
}
