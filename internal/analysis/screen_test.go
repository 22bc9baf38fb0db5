package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricemovers/internal/domain"
)

func TestTopVolatile_FiltersAndRanks(t *testing.T) {
	gw := &mockGateway{bars: map[string][]domain.PriceBar{
		"BIG":  dailyBars(60, 100),
		"MID":  dailyBars(60, 100),
		"LOWV": dailyBars(60, 100),
		"EXPV": dailyBars(60, 100),
	}}
	svc := newTestService(t, gw)

	rows := []domain.UniverseRow{
		{Symbol: "BIG", High: 120, Low: 100, Last: 110},  // range 20
		{Symbol: "MID", High: 115, Low: 105, Last: 110},  // range 10
		{Symbol: "LOWV", High: 101, Low: 100, Last: 100}, // range 1, below minMove
		{Symbol: "EXPV", High: 700, Low: 650, Last: 690}, // above maxPrice
	}

	result, err := svc.TopVolatile(context.Background(), rows, 5, 500)
	require.NoError(t, err)
	require.Len(t, result.Stocks, 2)

	assert.Equal(t, "BIG", result.Stocks[0].Symbol)
	assert.Equal(t, "MID", result.Stocks[1].Symbol)
	assert.NotEmpty(t, result.RunID)
}

func TestTopVolatile_SkipsFailingTickers(t *testing.T) {
	gw := &mockGateway{bars: map[string][]domain.PriceBar{
		"GOOD": dailyBars(60, 100),
		// "BAD" has no data
	}}
	svc := newTestService(t, gw)

	rows := []domain.UniverseRow{
		{Symbol: "BAD", High: 120, Low: 100, Last: 110},
		{Symbol: "GOOD", High: 115, Low: 105, Last: 110},
	}

	result, err := svc.TopVolatile(context.Background(), rows, 5, 500)
	require.NoError(t, err)
	require.Len(t, result.Stocks, 1)
	assert.Equal(t, "GOOD", result.Stocks[0].Symbol)
	assert.Equal(t, 1, result.Skipped)
}

func TestTopVolatile_CapsAtTen(t *testing.T) {
	gw := &mockGateway{bars: map[string][]domain.PriceBar{}}
	rows := make([]domain.UniverseRow, 0, 15)
	for i := 0; i < 15; i++ {
		symbol := string(rune('A'+i)) + "X"
		gw.bars[symbol] = dailyBars(60, 100)
		rows = append(rows, domain.UniverseRow{
			Symbol: symbol,
			High:   110 + float64(i),
			Low:    100,
			Last:   105,
		})
	}
	svc := newTestService(t, gw)

	result, err := svc.TopVolatile(context.Background(), rows, 1, 500)
	require.NoError(t, err)
	require.Len(t, result.Stocks, 10)

	for i := 1; i < len(result.Stocks); i++ {
		assert.GreaterOrEqual(t, result.Stocks[i-1].WeeklyRange, result.Stocks[i].WeeklyRange)
	}
}

// breakoutBars produces a flat series with a large terminal jump, which
// ends above its upper Bollinger band with saturated RSI.
func breakoutBars(n int) []domain.PriceBar {
	bars := dailyBars(n, 100)
	for i := range bars {
		price := 100.0
		if i == n-1 {
			price = 130
		}
		bars[i].Close = price
		bars[i].High = price + 1
		bars[i].Low = price - 1
	}
	return bars
}

func TestExtremeLevels_FlagsOverbought(t *testing.T) {
	gw := &mockGateway{bars: map[string][]domain.PriceBar{
		"HOT":  breakoutBars(40),
		"CALM": dailyBars(60, 100),
	}}
	svc := newTestService(t, gw)

	rows := []domain.UniverseRow{
		{Symbol: "HOT", High: 1, Low: 0, Last: 1},
		{Symbol: "CALM", High: 1, Low: 0, Last: 1},
	}

	result, err := svc.ExtremeLevels(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, result.Stocks, 1)

	hot := result.Stocks[0]
	assert.Equal(t, "HOT", hot.Symbol)
	assert.GreaterOrEqual(t, hot.RSI, 70.0)
	assert.GreaterOrEqual(t, hot.Price, hot.UpperBand)
}

func TestExtremeLevels_InsideBandsNotFlagged(t *testing.T) {
	// Price between the bands with mid RSI must not be flagged even
	// if one leg of each condition holds.
	gw := &mockGateway{bars: map[string][]domain.PriceBar{
		"CALM": dailyBars(60, 100),
	}}
	svc := newTestService(t, gw)

	result, err := svc.ExtremeLevels(context.Background(), []domain.UniverseRow{
		{Symbol: "CALM", High: 1, Low: 0, Last: 1},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Stocks)
}

func TestInsertRanked(t *testing.T) {
	var list []int
	less := func(a, b int) bool { return a > b }

	for _, v := range []int{5, 1, 9, 3, 7, 2, 8, 4, 6, 0, 10, 11} {
		insertRanked(&list, v, less)
	}

	require.Len(t, list, 10)
	assert.Equal(t, 11, list[0])
	for i := 1; i < len(list); i++ {
		assert.Greater(t, list[i-1], list[i])
	}
}
