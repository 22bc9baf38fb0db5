package analysis

import (
	"context"

	"github.com/google/uuid"

	"pricemovers/internal/domain"
	"pricemovers/internal/indicators"
)

// screenResultLimit caps both screen result lists.
const screenResultLimit = 10

// VolatileStock is one row of the top-volatility screen.
type VolatileStock struct {
	Symbol      string  `json:"symbol"`
	WeeklyRange float64 `json:"weekly_range"`
	Last        float64 `json:"last"`
	ATR         Float   `json:"atr"`
}

// VolatileScreenResult is the outcome of a top-volatility screen over
// the ticker universe. RunID identifies the batch in logs.
type VolatileScreenResult struct {
	RunID   string          `json:"run_id"`
	Scanned int             `json:"scanned"`
	Skipped int             `json:"skipped"`
	Stocks  []VolatileStock `json:"stocks"`
}

// TopVolatile screens the universe for tickers whose recorded weekly
// range is at least minMove and whose last price is at most maxPrice,
// annotating each with its 14-period ATR. Tickers whose data cannot be
// fetched are skipped; one bad ticker never aborts the screen. Results
// are sorted by weekly range descending, capped at ten.
func (s *Service) TopVolatile(ctx context.Context, rows []domain.UniverseRow, minMove, maxPrice float64) (*VolatileScreenResult, error) {
	result := &VolatileScreenResult{RunID: uuid.New().String()}
	log := s.log.With().Str("run_id", result.RunID).Logger()

	log.Info().Int("universe", len(rows)).Float64("min_move", minMove).Float64("max_price", maxPrice).
		Msg("Starting volatility screen")

	for _, row := range rows {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if row.WeeklyRange() < minMove || row.Last > maxPrice {
			continue
		}
		result.Scanned++

		atr, fromCache, err := s.ATR(ctx, row.Symbol)
		if err != nil {
			log.Warn().Err(err).Str("ticker", row.Symbol).Msg("Skipping ticker in screen")
			result.Skipped++
			continue
		}
		if !fromCache {
			s.pause(ctx)
		}

		insertRanked(&result.Stocks, VolatileStock{
			Symbol:      row.Symbol,
			WeeklyRange: row.WeeklyRange(),
			Last:        row.Last,
			ATR:         Float(atr),
		}, func(a, b VolatileStock) bool { return a.WeeklyRange > b.WeeklyRange })
	}

	log.Info().Int("matched", result.Scanned).Int("skipped", result.Skipped).
		Int("returned", len(result.Stocks)).Msg("Volatility screen complete")

	return result, nil
}

// ExtremeStock is one flagged row of the extreme-level screen.
type ExtremeStock struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	RSI       float64 `json:"rsi"`
	UpperBand float64 `json:"upper_band"`
	LowerBand float64 `json:"lower_band"`
}

// ExtremeScreenResult is the outcome of an extreme-level screen.
type ExtremeScreenResult struct {
	RunID   string         `json:"run_id"`
	Scanned int            `json:"scanned"`
	Skipped int            `json:"skipped"`
	Stocks  []ExtremeStock `json:"stocks"`
}

// Extreme-level thresholds: overbought above the upper band with high
// RSI, oversold below the lower band with low RSI.
const (
	rsiOverbought = 70.0
	rsiOversold   = 30.0
)

// ExtremeLevels screens the universe for tickers trading outside their
// Bollinger Bands with confirming RSI. Flagged tickers are sorted by
// RSI descending, capped at ten.
func (s *Service) ExtremeLevels(ctx context.Context, rows []domain.UniverseRow) (*ExtremeScreenResult, error) {
	result := &ExtremeScreenResult{RunID: uuid.New().String()}
	log := s.log.With().Str("run_id", result.RunID).Logger()

	log.Info().Int("universe", len(rows)).Msg("Starting extreme-level screen")

	for _, row := range rows {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		result.Scanned++

		bars, fromCache, err := s.barsCached(ctx, row.Symbol, kindDaily3mo, domain.RangeThreeMonths, domain.IntervalDaily)
		if err != nil {
			log.Warn().Err(err).Str("ticker", row.Symbol).Msg("Skipping ticker in screen")
			result.Skipped++
			continue
		}
		if !fromCache {
			s.pause(ctx)
		}

		closes := domain.Closes(bars)
		price := closes[len(closes)-1]
		upper, _, lower := indicators.BollingerLast(closes, indicators.DefaultBollingerPeriod, indicators.DefaultBollingerK)
		rsi := indicators.Last(indicators.RSI(closes, indicators.DefaultRSIPeriod))

		if !indicators.IsDefined(upper) || !indicators.IsDefined(rsi) {
			continue
		}

		overbought := price >= upper && rsi >= rsiOverbought
		oversold := price <= lower && rsi <= rsiOversold
		if !overbought && !oversold {
			continue
		}

		insertRanked(&result.Stocks, ExtremeStock{
			Symbol:    row.Symbol,
			Price:     price,
			RSI:       rsi,
			UpperBand: upper,
			LowerBand: lower,
		}, func(a, b ExtremeStock) bool { return a.RSI > b.RSI })
	}

	log.Info().Int("flagged", len(result.Stocks)).Int("skipped", result.Skipped).
		Msg("Extreme-level screen complete")

	return result, nil
}

// insertRanked inserts item into the list ordered by less, keeping at
// most screenResultLimit entries.
func insertRanked[T any](list *[]T, item T, less func(a, b T) bool) {
	pos := len(*list)
	for i, existing := range *list {
		if less(item, existing) {
			pos = i
			break
		}
	}

	*list = append(*list, item)
	copy((*list)[pos+1:], (*list)[pos:])
	(*list)[pos] = item

	if len(*list) > screenResultLimit {
		*list = (*list)[:screenResultLimit]
	}
}
