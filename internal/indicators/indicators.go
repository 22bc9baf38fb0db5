// Package indicators provides pure technical indicator calculations over
// ordered price series. Functions are deterministic, perform no I/O, and
// mark values with insufficient history as NaN instead of returning
// errors. Empty input yields a nil series.
//
// All computations use the raw close price, never the adjusted close.
package indicators

import "math"

// NaN is the undefined-value sentinel used for leading entries that lack
// enough history to satisfy an indicator's lookback window.
var NaN = math.NaN()

// IsDefined reports whether an indicator value carries a real number.
func IsDefined(v float64) bool {
	return !math.IsNaN(v)
}

// markLeading sets the first count entries of series to NaN. go-talib
// zero-fills its warmup region; the NaN convention here keeps "no value
// yet" distinguishable from a genuine zero.
func markLeading(series []float64, count int) []float64 {
	if count > len(series) {
		count = len(series)
	}
	for i := 0; i < count; i++ {
		series[i] = NaN
	}
	return series
}

// Last returns the final value of a series, or NaN for an empty one.
func Last(series []float64) float64 {
	if len(series) == 0 {
		return NaN
	}
	return series[len(series)-1]
}
