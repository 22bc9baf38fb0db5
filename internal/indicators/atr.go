package indicators

import (
	"math"

	"github.com/markcheno/go-talib"

	"pricemovers/internal/domain"
)

// DefaultATRPeriod is the conventional ATR lookback.
const DefaultATRPeriod = 14

// TrueRange returns the true range series for a bar sequence:
//
//	TR[i] = max(high-low, |high-prevClose|, |low-prevClose|)
//
// TR[0] is NaN because no previous close exists.
func TrueRange(bars []domain.PriceBar) []float64 {
	if len(bars) == 0 {
		return nil
	}

	tr := make([]float64, len(bars))
	tr[0] = NaN
	for i := 1; i < len(bars); i++ {
		prevClose := bars[i-1].Close
		tr[i] = math.Max(
			bars[i].High-bars[i].Low,
			math.Max(
				math.Abs(bars[i].High-prevClose),
				math.Abs(bars[i].Low-prevClose),
			),
		)
	}

	return tr
}

// ATR returns the average true range series: a simple rolling mean of
// the true range over period. Values are NaN until period true ranges
// exist, which takes period+1 bars.
func ATR(bars []domain.PriceBar, period int) []float64 {
	tr := TrueRange(bars)
	if tr == nil || period < 1 {
		return nil
	}
	if len(tr) <= period {
		// talib.Sma needs at least a full window of defined values
		return markLeading(make([]float64, len(tr)), len(tr))
	}

	// The undefined TR[0] is excluded from the smoothing input; its NaN
	// would poison talib's running sum for the whole series. The first
	// full window of true ranges ends at index period.
	atr := make([]float64, len(tr))
	copy(atr[1:], talib.Sma(tr[1:], period))
	return markLeading(atr, period)
}

// ATRLast returns the most recent ATR value for the bars, NaN when the
// series is too short.
func ATRLast(bars []domain.PriceBar, period int) float64 {
	return Last(ATR(bars, period))
}
