// Package trend computes summary statistics and a coarse direction for an
// ordered series of normalized sensor values.
package trend

import (
	"errors"
	"fmt"
	"math"
)

// DefaultWindow is the number of consecutive values averaged per window.
const DefaultWindow = 100

var (
	// ErrEmpty is returned for a series with no values. Its mean is undefined.
	ErrEmpty = errors.New("trend: no data")

	// ErrWindow is returned for a window size less than 1.
	ErrWindow = errors.New("trend: window size must be at least 1")
)

type Trend string

const (
	Increasing Trend = "increasing"
	Decreasing Trend = "decreasing"
	Stable     Trend = "stable"
)

// Result is a snapshot of the statistics of one series.
type Result struct {
	Mean     float64
	Variance float64
	StdDev   float64
	Trend    Trend

	// Windows is the number of windowed means computed and Comparisons the
	// number of times one was compared to its predecessor.
	Windows     int
	Comparisons int
}

// Summarize returns the mean, population variance, and standard deviation of
// data in a single pass over it. The one-pass formula can produce a slightly
// negative variance for tightly clustered values; that is reported as zero.
func Summarize(data []float64) (mean, variance, stdDev float64, err error) {
	if len(data) == 0 {
		return 0, 0, 0, ErrEmpty
	}

	var sum, sumSq float64
	for _, x := range data {
		sum += x
		sumSq += x * x
	}

	n := float64(len(data))
	mean = sum / n
	variance = sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, variance, math.Sqrt(variance), nil
}

// PrefixSums returns p with len(data)+1 elements where p[i] is the sum of the
// first i values of data.
func PrefixSums(data []float64) []float64 {
	p := make([]float64, len(data)+1)
	for i, x := range data {
		p[i+1] = p[i] + x
	}
	return p
}

// Classify slides a window of the given size across data one value at a time
// and compares each window's mean with that of the window before it. The
// trend is whichever direction was seen more often, or Stable on a tie. A
// series shorter than window+1 values yields no comparisons and is Stable.
func Classify(data []float64, window int) (t Trend, windows, comparisons int, err error) {
	if window < 1 {
		return Stable, 0, 0, fmt.Errorf("%w: got %d", ErrWindow, window)
	}

	prefix := PrefixSums(data)
	w := float64(window)

	var inc, dec int
	var prev float64
	for i := 0; i+window <= len(data); i++ {
		cur := (prefix[i+window] - prefix[i]) / w
		windows++

		if i > 0 {
			comparisons++
			if cur > prev {
				inc++
			} else if cur < prev {
				dec++
			}
		}
		prev = cur
	}

	switch {
	case inc > dec:
		t = Increasing
	case dec > inc:
		t = Decreasing
	default:
		t = Stable
	}
	return t, windows, comparisons, nil
}

// Analyze computes the full Result for data. It has no side effects.
func Analyze(data []float64, window int) (Result, error) {
	mean, variance, stdDev, err := Summarize(data)
	if err != nil {
		return Result{}, err
	}

	t, windows, comparisons, err := Classify(data, window)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Mean:        mean,
		Variance:    variance,
		StdDev:      stdDev,
		Trend:       t,
		Windows:     windows,
		Comparisons: comparisons,
	}, nil
}
