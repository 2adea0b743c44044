// Package learning derives adaptive watering intervals from a plant's
// watering history. Both queries are pure functions over a log snapshot:
// same input, same answer.
package learning

import (
	"time"

	"github.com/floralog/floralog/store"
)

const (
	// DefaultLastN is how many recent gaps feed the smoother.
	DefaultLastN = 5
	// DefaultAlpha is the exponential smoothing coefficient.
	DefaultAlpha = 0.5
)

// AverageInterval returns the arithmetic mean of the positive day gaps
// between consecutive waterings youngest-to-oldest. Logs must be ordered
// newest first. Returns false when there are fewer than two entries or no
// positive gap survives.
func AverageInterval(logs []*store.WateringLog) (float64, bool) {
	if len(logs) < 2 {
		return 0, false
	}

	var sum, count float64
	for i := 0; i < len(logs)-1; i++ {
		days := daysBetween(logs[i+1].WateredAt, logs[i].WateredAt)
		if days > 0 {
			sum += float64(days)
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / count, true
}

// SmoothedInterval applies exponential smoothing over the last n positive
// day gaps taken oldest-to-newest: the first gap seeds the smoother, each
// following gap folds in as alpha*gap + (1-alpha)*s. Logs must be ordered
// newest first. Returns false when fewer than two usable gaps exist.
func SmoothedInterval(logs []*store.WateringLog, n int, alpha float64) (float64, bool) {
	if len(logs) < 2 {
		return 0, false
	}
	if n < 1 {
		n = DefaultLastN
	}
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultAlpha
	}

	// Oldest-to-newest so the smoother weighs recent behavior highest.
	var gaps []float64
	for i := len(logs) - 1; i > 0; i-- {
		days := daysBetween(logs[i].WateredAt, logs[i-1].WateredAt)
		if days > 0 {
			gaps = append(gaps, float64(days))
		}
	}
	if len(gaps) < 2 {
		return 0, false
	}
	if len(gaps) > n {
		gaps = gaps[len(gaps)-n:]
	}
	if len(gaps) < 2 {
		return 0, false
	}

	s := gaps[0]
	for _, gap := range gaps[1:] {
		s = alpha*gap + (1-alpha)*s
	}
	return s, true
}

// daysBetween returns whole days from a to b. Watering dates are
// day-precision, so the subtraction is exact.
func daysBetween(a, b time.Time) int64 {
	return int64(b.Sub(a) / (24 * time.Hour))
}
