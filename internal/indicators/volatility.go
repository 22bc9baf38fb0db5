package indicators

import (
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization factor for daily returns.
const TradingDaysPerYear = 252

// LogReturns converts closes to daily logarithmic returns:
// r[i] = ln(close[i]/close[i-1]). A non-positive close poisons that
// return (NaN) rather than the whole series.
func LogReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i] <= 0 || closes[i-1] <= 0 {
			returns = append(returns, NaN)
			continue
		}
		returns = append(returns, math.Log(closes[i]/closes[i-1]))
	}

	return returns
}

// HistoricalVolatility returns the annualized sample standard deviation
// of daily log returns. Fewer than two closes yields NaN.
func HistoricalVolatility(closes []float64) float64 {
	returns := LogReturns(closes)
	if returns == nil {
		return NaN
	}

	defined := make([]float64, 0, len(returns))
	for _, r := range returns {
		if IsDefined(r) {
			defined = append(defined, r)
		}
	}
	if len(defined) < 2 {
		return NaN
	}

	return stat.StdDev(defined, nil) * math.Sqrt(TradingDaysPerYear)
}

// DefaultEMAPeriod is the lookback used for the EMA report column.
const DefaultEMAPeriod = 20

// EMA returns the exponential moving average series over closes, NaN
// until period points exist.
func EMA(closes []float64, period int) []float64 {
	if len(closes) == 0 || period < 1 || len(closes) < period {
		return markLeading(make([]float64, len(closes)), len(closes))
	}

	return markLeading(talib.Ema(closes, period), period-1)
}
