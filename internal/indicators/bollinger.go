package indicators

import (
	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

// Conventional Bollinger parameters.
const (
	DefaultBollingerPeriod = 20
	DefaultBollingerK      = 2.0
)

// BollingerSeries holds the three aligned band series. All entries
// before period points of history are NaN.
type BollingerSeries struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// Bollinger computes Bollinger Bands over closes: a simple moving
// average plus/minus k sample standard deviations over the same window.
func Bollinger(closes []float64, period int, k float64) BollingerSeries {
	if len(closes) == 0 || period < 1 {
		return BollingerSeries{}
	}
	if len(closes) < period {
		// talib.Sma cannot handle a series shorter than its window
		nans := markLeading(make([]float64, len(closes)), len(closes))
		return BollingerSeries{
			Upper:  nans,
			Middle: append([]float64(nil), nans...),
			Lower:  append([]float64(nil), nans...),
		}
	}

	middle := markLeading(talib.Sma(closes, period), period-1)

	upper := make([]float64, len(closes))
	lower := make([]float64, len(closes))
	for i := range closes {
		if !IsDefined(middle[i]) {
			upper[i] = NaN
			lower[i] = NaN
			continue
		}

		// Sample stdev over the same window as the moving average
		sd := stat.StdDev(closes[i-period+1:i+1], nil)
		upper[i] = middle[i] + k*sd
		lower[i] = middle[i] - k*sd
	}

	return BollingerSeries{Upper: upper, Middle: middle, Lower: lower}
}

// BollingerLast returns the latest band values, all NaN when fewer than
// period closes exist.
func BollingerLast(closes []float64, period int, k float64) (upper, middle, lower float64) {
	bands := Bollinger(closes, period, k)
	return Last(bands.Upper), Last(bands.Middle), Last(bands.Lower)
}
