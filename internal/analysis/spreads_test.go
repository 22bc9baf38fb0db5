package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricemovers/internal/domain"
)

func TestExpirationPreference_Horizon(t *testing.T) {
	d, err := PreferDays.Horizon(10)
	require.NoError(t, err)
	assert.Equal(t, 240*time.Hour, d)

	w, err := PreferWeeks.Horizon(2)
	require.NoError(t, err)
	assert.Equal(t, 14*24*time.Hour, w)

	m, err := PreferMonths.Horizon(1)
	require.NoError(t, err)
	assert.Equal(t, 30*24*time.Hour, m)

	_, err = ExpirationPreference("fortnights").Horizon(1)
	assert.Error(t, err)
}

func TestNearestExpiration(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
	}
	expirations := []time.Time{day(1), day(8), day(15), day(22)}

	assert.Equal(t, day(8), nearestExpiration(expirations, day(9)))
	assert.Equal(t, day(1), nearestExpiration(expirations, time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)))
	// Equidistant between the 8th and the 15th: earlier date wins
	assert.Equal(t, day(8), nearestExpiration(expirations, day(8).Add(84*time.Hour)))
}

func TestSelectSpreadCandidates_SpreadFilter(t *testing.T) {
	contracts := []domain.OptionContract{
		{Strike: 100, LastPrice: 2, Bid: 0.80, Ask: 1.00, OpenInterest: 50}, // 20% spread
	}

	// 20% spread against a 15% threshold: excluded
	assert.Empty(t, selectSpreadCandidates(contracts, 101, 15))

	// Same contract against a 25% threshold: included
	kept := selectSpreadCandidates(contracts, 101, 25)
	require.Len(t, kept, 1)
	assert.InDelta(t, 20.0, kept[0].BidAskSpreadPct, 1e-9)
}

func TestSelectSpreadCandidates_ZeroAskExcluded(t *testing.T) {
	contracts := []domain.OptionContract{
		{Strike: 100, LastPrice: 2, Bid: 0, Ask: 0, OpenInterest: 999},
		{Strike: 105, LastPrice: 1, Bid: 0.95, Ask: 1.00, OpenInterest: 10},
	}

	kept := selectSpreadCandidates(contracts, 102, 50)
	require.Len(t, kept, 1)
	assert.Equal(t, 105.0, kept[0].Strike)
}

func TestSelectSpreadCandidates_Derivations(t *testing.T) {
	contracts := []domain.OptionContract{
		{Strike: 100, LastPrice: 2.50, Bid: 2.40, Ask: 2.50, OpenInterest: 500},
	}

	kept := selectSpreadCandidates(contracts, 100, 50)
	require.Len(t, kept, 1)

	assert.InDelta(t, 102.50, kept[0].BreakEven, 1e-9)
	assert.InDelta(t, 102.50/2.50, kept[0].RiskReward, 1e-9)
	assert.Equal(t, domain.MoneynessATM, kept[0].Moneyness)
}

func TestSelectSpreadCandidates_RankedByOpenInterest(t *testing.T) {
	contracts := make([]domain.OptionContract, 0, 15)
	for i := 0; i < 15; i++ {
		contracts = append(contracts, domain.OptionContract{
			Strike:       100 + float64(i),
			LastPrice:    1,
			Bid:          0.95,
			Ask:          1.00,
			OpenInterest: int64(i * 10),
		})
	}

	kept := selectSpreadCandidates(contracts, 102, 50)
	require.Len(t, kept, 10)

	for i := 1; i < len(kept); i++ {
		assert.GreaterOrEqual(t, kept[i-1].OpenInterest, kept[i].OpenInterest)
	}
	assert.Equal(t, int64(140), kept[0].OpenInterest)
}

func TestDebitSpreads_CachedByExpiration(t *testing.T) {
	expiration := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	gw := &mockGateway{
		expirations: []time.Time{expiration},
		chain: []domain.OptionContract{
			{Strike: 100, LastPrice: 2, Bid: 1.90, Ask: 2.00, OpenInterest: 100, Expiration: expiration},
		},
		lastClose: map[string]float64{"AAPL": 101},
	}
	svc := newTestService(t, gw)

	first, err := svc.DebitSpreads(context.Background(), "AAPL", PreferWeeks, 4, 25)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	require.Len(t, first.Candidates, 1)
	assert.Equal(t, domain.MoneynessITM, first.Candidates[0].Moneyness)
	assert.Equal(t, 1, gw.chainCalls)

	second, err := svc.DebitSpreads(context.Background(), "AAPL", PreferWeeks, 4, 25)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, 1, gw.chainCalls, "cached expiration must not refetch the chain")
}
