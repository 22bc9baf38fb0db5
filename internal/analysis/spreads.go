package analysis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"pricemovers/internal/cache"
	"pricemovers/internal/domain"
	"pricemovers/internal/indicators"
)

// ExpirationPreference is the unit of the requested option horizon.
type ExpirationPreference string

const (
	PreferDays   ExpirationPreference = "days"
	PreferWeeks  ExpirationPreference = "weeks"
	PreferMonths ExpirationPreference = "months"
)

// Horizon converts length units into a calendar duration. Months are
// approximated as 30 days.
func (p ExpirationPreference) Horizon(length int) (time.Duration, error) {
	day := 24 * time.Hour
	switch p {
	case PreferDays:
		return time.Duration(length) * day, nil
	case PreferWeeks:
		return time.Duration(length) * 7 * day, nil
	case PreferMonths:
		return time.Duration(length) * 30 * day, nil
	default:
		return 0, fmt.Errorf("unknown expiration preference %q", p)
	}
}

// SpreadReport is the ranked debit-spread candidate list for one
// ticker and expiration.
type SpreadReport struct {
	Ticker     string                   `json:"ticker" msgpack:"ticker"`
	Expiration time.Time                `json:"expiration" msgpack:"expiration"`
	Spot       float64                  `json:"spot" msgpack:"spot"`
	Candidates []domain.SpreadCandidate `json:"candidates" msgpack:"candidates"`
	FromCache  bool                     `json:"from_cache" msgpack:"-"`
}

// spreadResultLimit caps the ranked candidate list.
const spreadResultLimit = 10

// DebitSpreads selects the listed expiration nearest to now+horizon
// (ties broken by the earlier date), filters its call contracts by
// bid/ask spread percentage, derives break-even and risk/reward per
// surviving contract, and returns the top candidates by open interest.
// Results are cached for a day per (ticker, expiration).
func (s *Service) DebitSpreads(ctx context.Context, ticker string, pref ExpirationPreference, length int, spreadPctThreshold float64) (*SpreadReport, error) {
	horizon, err := pref.Horizon(length)
	if err != nil {
		return nil, err
	}

	expirations, err := s.gateway.OptionExpirations(ctx, ticker)
	if err != nil {
		return nil, err
	}

	target := s.clock.Now().Add(horizon)
	expiration := nearestExpiration(expirations, target)

	key := fmt.Sprintf("%s_debit_spread_%s", ticker, expiration.Format("2006-01-02"))

	var report SpreadReport
	hit, err := s.store.Get(key, &report)
	if err != nil {
		return nil, err
	}
	if hit {
		s.log.Debug().Str("key", key).Msg("Cache hit")
		report.FromCache = true
		return &report, nil
	}

	contracts, err := s.gateway.OptionChain(ctx, ticker, expiration)
	if err != nil {
		return nil, err
	}

	spot, err := s.gateway.LastClose(ctx, ticker)
	if err != nil {
		return nil, err
	}

	candidates := selectSpreadCandidates(contracts, spot, spreadPctThreshold)

	report = SpreadReport{
		Ticker:     ticker,
		Expiration: expiration,
		Spot:       spot,
		Candidates: candidates,
	}

	if err := s.store.Set(key, report, cache.TTLOptionChain); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Failed to cache spread report")
	}

	return &report, nil
}

// nearestExpiration picks the date with minimal absolute distance to
// target; on equal distance the earlier date wins. expirations must be
// non-empty and ascending.
func nearestExpiration(expirations []time.Time, target time.Time) time.Time {
	best := expirations[0]
	bestDist := absDuration(best.Sub(target))

	for _, date := range expirations[1:] {
		dist := absDuration(date.Sub(target))
		if dist < bestDist {
			best = date
			bestDist = dist
		}
	}

	return best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// selectSpreadCandidates applies the liquidity filter and derives the
// per-contract figures. Contracts quoting a zero ask are excluded
// before the spread percentage is computed.
func selectSpreadCandidates(contracts []domain.OptionContract, spot, spreadPctThreshold float64) []domain.SpreadCandidate {
	candidates := make([]domain.SpreadCandidate, 0, len(contracts))
	for _, c := range contracts {
		if c.Ask == 0 {
			continue
		}

		spreadPct := (c.Ask - c.Bid) / c.Ask * 100
		if spreadPct > spreadPctThreshold {
			continue
		}

		c.Moneyness = indicators.Classify(c.Strike, spot)

		candidate := domain.SpreadCandidate{
			OptionContract:  c,
			BidAskSpreadPct: spreadPct,
			BreakEven:       c.Strike + c.LastPrice,
		}
		if c.LastPrice > 0 {
			candidate.RiskReward = (c.Strike + c.LastPrice) / c.LastPrice
		}
		candidates = append(candidates, candidate)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].OpenInterest > candidates[j].OpenInterest
	})

	if len(candidates) > spreadResultLimit {
		candidates = candidates[:spreadResultLimit]
	}

	return candidates
}
