// Package quality finds the highest encode quality whose output fits a byte budget.
package quality

import (
	"context"
	"fmt"
	"math"
)

// Sized is anything that reports its encoded size in bytes.
type Sized interface {
	Size() int64
}

// EncodeFunc encodes at the given quality in [0,1].
type EncodeFunc[T Sized] func(ctx context.Context, quality float64) (T, error)

// Options configures a search.
type Options struct {
	MinQuality float64
	MaxQuality float64
	MaxBytes   float64
	Steps      int
}

// Best is the highest quality found whose value stayed within the budget.
type Best[T Sized] struct {
	Value   T
	Quality float64
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// FindBestUnderBytes bisects [MinQuality, MaxQuality] for exactly Steps iterations
// and returns the highest passing quality, or nil when no midpoint fit.
// Size is assumed to be non-decreasing in quality.
// Degenerate options return nil without calling encode.
func FindBestUnderBytes[T Sized](ctx context.Context, encode EncodeFunc[T], opts Options) (*Best[T], error) {
	if !finite(opts.MinQuality) || !finite(opts.MaxQuality) || !finite(opts.MaxBytes) {
		return nil, nil
	}
	if opts.Steps <= 0 {
		return nil, nil
	}

	lo := clamp01(opts.MinQuality)
	hi := clamp01(opts.MaxQuality)
	low, high := math.Min(lo, hi), math.Max(lo, hi)

	var best *Best[T]
	for range opts.Steps {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("quality search: %w", err)
		}

		q := (low + high) / 2
		value, err := encode(ctx, q)
		if err != nil {
			return nil, err
		}

		if float64(value.Size()) <= opts.MaxBytes {
			best = &Best[T]{Value: value, Quality: q}
			low = q
			continue
		}
		high = q
	}

	return best, nil
}
