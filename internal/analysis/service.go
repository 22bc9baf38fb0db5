// Package analysis composes the market data gateway, the expiring
// cache, and the indicator calculations into the per-ticker reports the
// CLI and the inspection API serve.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"pricemovers/internal/cache"
	"pricemovers/internal/domain"
	"pricemovers/internal/indicators"
	"pricemovers/internal/marketcal"
)

// Service is the analysis facade. Reports are cache-first: a fresh
// cached series short-circuits the provider entirely; misses fetch
// once, compute, and store with a TTL tied to the next market close
// (or a fixed daily TTL for option chains).
type Service struct {
	gateway    domain.Gateway
	store      *cache.Store
	clock      marketcal.Clock
	fetchDelay time.Duration
	log        zerolog.Logger
}

// New creates the analysis service. fetchDelay is the pause inserted
// after each upstream fetch during batch screens, to stay under the
// provider's informal rate limits.
func New(gateway domain.Gateway, store *cache.Store, clock marketcal.Clock, fetchDelay time.Duration, log zerolog.Logger) *Service {
	return &Service{
		gateway:    gateway,
		store:      store,
		clock:      clock,
		fetchDelay: fetchDelay,
		log:        log.With().Str("service", "analysis").Logger(),
	}
}

// Series kinds used in cache keys. One parametrized accessor serves
// every report; reports that need the same window share an entry.
const (
	kindWeekly   = "weekly_1wk"
	kindDaily3mo = "daily_3mo"
	kindDaily1y  = "daily_1y"
)

// barsCached returns the bar series for (ticker, kind), from cache when
// fresh. fromCache reports whether the provider was skipped. Failed or
// empty fetches are never cached.
func (s *Service) barsCached(ctx context.Context, ticker, kind string, rng domain.Range, interval domain.Interval) (bars []domain.PriceBar, fromCache bool, err error) {
	key := fmt.Sprintf("%s_%s", ticker, kind)

	hit, err := s.store.Get(key, &bars)
	if err != nil {
		return nil, false, err
	}
	if hit && len(bars) > 0 {
		s.log.Debug().Str("key", key).Msg("Cache hit")
		return bars, true, nil
	}

	s.log.Debug().Str("key", key).Msg("Cache miss, fetching")
	bars, err = s.gateway.Bars(ctx, ticker, rng, interval)
	if err != nil {
		return nil, false, err
	}

	if err := s.store.Set(key, bars, marketcal.TTLUntilClose(s.clock)); err != nil {
		// A failed write must not fail the report; the data is in hand
		s.log.Warn().Err(err).Str("key", key).Msg("Failed to cache series")
	}

	return bars, false, nil
}

// WeeklyRangeReport is the high/low/range view of the latest weekly bar.
type WeeklyRangeReport struct {
	Ticker    string          `json:"ticker" msgpack:"ticker"`
	Bar       domain.PriceBar `json:"bar" msgpack:"bar"`
	Range     float64         `json:"range" msgpack:"range"`
	FromCache bool            `json:"from_cache" msgpack:"-"`
}

// WeeklyRange reports the most recent weekly bar's trading range.
func (s *Service) WeeklyRange(ctx context.Context, ticker string) (*WeeklyRangeReport, error) {
	bars, fromCache, err := s.barsCached(ctx, ticker, kindWeekly, domain.RangeOneWeek, domain.IntervalWeekly)
	if err != nil {
		return nil, err
	}

	last := bars[len(bars)-1]
	return &WeeklyRangeReport{
		Ticker:    ticker,
		Bar:       last,
		Range:     last.Range(),
		FromCache: fromCache,
	}, nil
}

// TechnicalRow is one dated row of the technical indicator report.
// Undefined indicator values are NaN and render as "N/A".
type TechnicalRow struct {
	Time     time.Time `json:"time"`
	Close    float64   `json:"close"`
	RSI      Float     `json:"rsi"`
	BBUpper  Float     `json:"bb_upper"`
	BBMiddle Float     `json:"bb_middle"`
	BBLower  Float     `json:"bb_lower"`
	EMA      Float     `json:"ema"`
}

// TechnicalReport is the tail of the daily indicator series for a ticker.
type TechnicalReport struct {
	Ticker    string         `json:"ticker"`
	Rows      []TechnicalRow `json:"rows"`
	FromCache bool           `json:"from_cache"`
}

// technicalTailRows is how many recent rows the report shows.
const technicalTailRows = 5

// TechnicalIndicators computes RSI(14), Bollinger(20,2) and EMA(20)
// over three months of daily closes and returns the most recent rows.
func (s *Service) TechnicalIndicators(ctx context.Context, ticker string) (*TechnicalReport, error) {
	bars, fromCache, err := s.barsCached(ctx, ticker, kindDaily3mo, domain.RangeThreeMonths, domain.IntervalDaily)
	if err != nil {
		return nil, err
	}

	closes := domain.Closes(bars)
	rsi := indicators.RSI(closes, indicators.DefaultRSIPeriod)
	bands := indicators.Bollinger(closes, indicators.DefaultBollingerPeriod, indicators.DefaultBollingerK)
	ema := indicators.EMA(closes, indicators.DefaultEMAPeriod)

	start := len(bars) - technicalTailRows
	if start < 0 {
		start = 0
	}

	rows := make([]TechnicalRow, 0, technicalTailRows)
	for i := start; i < len(bars); i++ {
		rows = append(rows, TechnicalRow{
			Time:     bars[i].Time,
			Close:    closes[i],
			RSI:      Float(rsi[i]),
			BBUpper:  Float(bands.Upper[i]),
			BBMiddle: Float(bands.Middle[i]),
			BBLower:  Float(bands.Lower[i]),
			EMA:      Float(ema[i]),
		})
	}

	return &TechnicalReport{Ticker: ticker, Rows: rows, FromCache: fromCache}, nil
}

// ATR returns the latest 14-period average true range for the ticker,
// computed over three months of daily bars. NaN when history is too
// short for the window.
func (s *Service) ATR(ctx context.Context, ticker string) (value float64, fromCache bool, err error) {
	bars, fromCache, err := s.barsCached(ctx, ticker, kindDaily3mo, domain.RangeThreeMonths, domain.IntervalDaily)
	if err != nil {
		return 0, false, err
	}

	return indicators.ATRLast(bars, indicators.DefaultATRPeriod), fromCache, nil
}

// HistoricalVolatility returns annualized historical volatility over a
// year of daily closes.
func (s *Service) HistoricalVolatility(ctx context.Context, ticker string) (value float64, fromCache bool, err error) {
	bars, fromCache, err := s.barsCached(ctx, ticker, kindDaily1y, domain.RangeOneYear, domain.IntervalDaily)
	if err != nil {
		return 0, false, err
	}

	return indicators.HistoricalVolatility(domain.Closes(bars)), fromCache, nil
}

// vixTicker is the CBOE volatility index symbol at the provider.
const vixTicker = "^VIX"

// VIX returns the latest VIX close. Intentionally uncached: it is a
// point-in-time market gauge, not a weekly report.
func (s *Service) VIX(ctx context.Context) (float64, error) {
	return s.gateway.LastClose(ctx, vixTicker)
}

// Fundamentals returns the cached-or-fetched fundamental snapshot.
func (s *Service) Fundamentals(ctx context.Context, ticker string) (*domain.FundamentalSnapshot, error) {
	key := fmt.Sprintf("%s_fundamental_data", ticker)

	var snapshot domain.FundamentalSnapshot
	hit, err := s.store.Get(key, &snapshot)
	if err != nil {
		return nil, err
	}
	if hit {
		s.log.Debug().Str("key", key).Msg("Cache hit")
		return &snapshot, nil
	}

	fetched, err := s.gateway.Fundamentals(ctx, ticker)
	if err != nil {
		return nil, err
	}

	if err := s.store.Set(key, fetched, marketcal.TTLUntilClose(s.clock)); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Failed to cache fundamentals")
	}

	return fetched, nil
}

// pause sleeps the configured inter-fetch delay, honoring cancellation.
// Called between provider hits during batch screens.
func (s *Service) pause(ctx context.Context) {
	if s.fetchDelay <= 0 {
		return
	}
	select {
	case <-time.After(s.fetchDelay):
	case <-ctx.Done():
	}
}

// IsUnavailable reports whether err is the provider's "no data" marker.
// Callers treat it as a non-fatal outcome.
func IsUnavailable(err error) bool {
	return errors.Is(err, domain.ErrUnavailable)
}
