// Package domain provides core domain models and types.
package domain

import (
	"encoding/json"
	"time"
)

// Interval represents a bar aggregation interval
type Interval string

const (
	IntervalDaily  Interval = "1d"
	IntervalWeekly Interval = "1wk"
)

// Range represents a lookback window requested from the data provider
type Range string

const (
	RangeOneWeek     Range = "1wk"
	RangeThreeMonths Range = "3mo"
	RangeOneYear     Range = "1y"
)

// PriceBar is one OHLCV observation. Sequences of bars are ordered by
// ascending Time with no duplicate timestamps.
type PriceBar struct {
	Time   time.Time `json:"time" msgpack:"time"`
	Open   float64   `json:"open" msgpack:"open"`
	High   float64   `json:"high" msgpack:"high"`
	Low    float64   `json:"low" msgpack:"low"`
	Close  float64   `json:"close" msgpack:"close"`
	Volume int64     `json:"volume" msgpack:"volume"`
}

// Range returns the high-low spread of the bar.
func (b PriceBar) Range() float64 {
	return b.High - b.Low
}

// Closes extracts the close column from a bar sequence.
// True range and every indicator in this codebase use the raw close,
// never the adjusted close.
func Closes(bars []PriceBar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// Metric is an optional numeric value. Providers routinely omit
// individual fundamentals; an absent value is typed, never a sentinel
// string.
type Metric struct {
	Value     float64 `msgpack:"value"`
	Available bool    `msgpack:"available"`
}

// NewMetric returns an available metric.
func NewMetric(value float64) Metric {
	return Metric{Value: value, Available: true}
}

// Unavailable is the absent metric.
var Unavailable = Metric{}

// MarshalJSON renders unavailable metrics as null.
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Available {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

// FundamentalSnapshot holds named fundamental metrics for a ticker.
// Immutable once fetched; Names preserves display order.
type FundamentalSnapshot struct {
	Ticker         string            `json:"ticker" msgpack:"ticker"`
	AsOf           time.Time         `json:"as_of" msgpack:"as_of"`
	Names          []string          `json:"names" msgpack:"names"`
	Metrics        map[string]Metric `json:"metrics" msgpack:"metrics"`
	Recommendation string            `json:"recommendation,omitempty" msgpack:"recommendation"`
}

// Moneyness classifies an option contract against the underlying spot.
type Moneyness string

const (
	MoneynessITM Moneyness = "ITM"
	MoneynessATM Moneyness = "ATM"
	MoneynessOTM Moneyness = "OTM"
)

// OptionContract is a single listed call contract.
type OptionContract struct {
	Strike       float64   `json:"strike" msgpack:"strike"`
	LastPrice    float64   `json:"last_price" msgpack:"last_price"`
	Bid          float64   `json:"bid" msgpack:"bid"`
	Ask          float64   `json:"ask" msgpack:"ask"`
	OpenInterest int64     `json:"open_interest" msgpack:"open_interest"`
	ImpliedVol   float64   `json:"implied_volatility" msgpack:"implied_volatility"`
	Expiration   time.Time `json:"expiration" msgpack:"expiration"`
	Moneyness    Moneyness `json:"moneyness" msgpack:"moneyness"`
}

// SpreadCandidate is a call contract that survived the debit-spread
// filter, with its derived figures.
type SpreadCandidate struct {
	OptionContract  `msgpack:",inline"`
	BidAskSpreadPct float64 `json:"bid_ask_spread_pct" msgpack:"bid_ask_spread_pct"`
	BreakEven       float64 `json:"break_even" msgpack:"break_even"`
	RiskReward      float64 `json:"risk_reward" msgpack:"risk_reward"`
}

// UniverseRow is one line of the screening universe CSV.
type UniverseRow struct {
	Symbol string
	High   float64
	Low    float64
	Last   float64
}

// WeeklyRange returns the high-low spread recorded for the row.
func (r UniverseRow) WeeklyRange() float64 {
	return r.High - r.Low
}
