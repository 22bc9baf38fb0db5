package indicators

import "pricemovers/internal/domain"

// DefaultRSIPeriod is the conventional RSI lookback.
const DefaultRSIPeriod = 14

// RSI returns the relative strength index series over closes using
// simple rolling means of gains and losses (not Wilder smoothing).
// Partial windows are emitted from the first price change onward, so
// only index 0 is NaN. A window with zero average loss saturates at
// 100; a window with no movement at all is NaN.
func RSI(closes []float64, period int) []float64 {
	if len(closes) == 0 || period < 1 {
		return nil
	}

	rsi := make([]float64, len(closes))
	rsi[0] = NaN

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	for i := 1; i < len(closes); i++ {
		start := i - period + 1
		if start < 1 {
			start = 1
		}

		var sumGain, sumLoss float64
		for j := start; j <= i; j++ {
			sumGain += gains[j]
			sumLoss += losses[j]
		}

		n := float64(i - start + 1)
		avgGain := sumGain / n
		avgLoss := sumLoss / n

		switch {
		case avgLoss == 0 && avgGain == 0:
			rsi[i] = NaN
		case avgLoss == 0:
			rsi[i] = 100
		default:
			rs := avgGain / avgLoss
			rsi[i] = 100 - 100/(1+rs)
		}
	}

	return rsi
}

// RSILast returns the most recent RSI value for the bars.
func RSILast(bars []domain.PriceBar, period int) float64 {
	return Last(RSI(domain.Closes(bars), period))
}
