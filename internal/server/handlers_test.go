package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricemovers/internal/analysis"
	"pricemovers/internal/cache"
	"pricemovers/internal/domain"
	"pricemovers/internal/marketcal"
)

// fakeGateway serves scripted bars; everything else is unavailable.
type fakeGateway struct {
	bars map[string][]domain.PriceBar
}

func (g *fakeGateway) Bars(ctx context.Context, ticker string, rng domain.Range, interval domain.Interval) ([]domain.PriceBar, error) {
	bars, ok := g.bars[ticker]
	if !ok {
		return nil, domain.ErrUnavailable
	}
	return bars, nil
}

func (g *fakeGateway) LastClose(ctx context.Context, ticker string) (float64, error) {
	return 0, domain.ErrUnavailable
}

func (g *fakeGateway) OptionExpirations(ctx context.Context, ticker string) ([]time.Time, error) {
	return nil, domain.ErrUnavailable
}

func (g *fakeGateway) OptionChain(ctx context.Context, ticker string, expiration time.Time) ([]domain.OptionContract, error) {
	return nil, domain.ErrUnavailable
}

func (g *fakeGateway) Fundamentals(ctx context.Context, ticker string) (*domain.FundamentalSnapshot, error) {
	return nil, domain.ErrUnavailable
}

func dailyBars(n int) []domain.PriceBar {
	start := time.Date(2024, 1, 2, 21, 0, 0, 0, time.UTC)
	bars := make([]domain.PriceBar, n)
	for i := range bars {
		price := 100.0 + float64(i%5)
		bars[i] = domain.PriceBar{
			Time:  start.AddDate(0, 0, i),
			Open:  price,
			High:  price + 1,
			Low:   price - 1,
			Close: price,
		}
	}
	return bars
}

func setupTestServer(t *testing.T) (*Server, *cache.Store) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := cache.New(db, zerolog.Nop())
	require.NoError(t, store.Migrate())

	gateway := &fakeGateway{bars: map[string][]domain.PriceBar{"AAPL": dailyBars(60)}}
	clock := marketcal.FixedClock{Time: time.Date(2024, 2, 14, 12, 0, 0, 0, time.UTC)}
	svc := analysis.New(gateway, store, clock, 0, zerolog.Nop())

	srv := New(Config{
		Log:     zerolog.Nop(),
		Service: svc,
		Store:   store,
		Port:    0,
		DevMode: true,
	})
	return srv, store
}

func doRequest(t *testing.T, srv *Server, method, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHandleHealth(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec, body := doRequest(t, srv, http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
	assert.Contains(t, body, "metadata")
}

func TestHandleCacheKeys(t *testing.T) {
	srv, store := setupTestServer(t)
	require.NoError(t, store.Set("AAPL_daily_3mo", "x", time.Hour))
	require.NoError(t, store.Set("MSFT_daily_3mo", "y", -time.Hour))

	rec, body := doRequest(t, srv, http.MethodGet, "/api/cache/keys")
	assert.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["count"])

	expiredByKey := map[string]bool{}
	for _, raw := range data["keys"].([]interface{}) {
		entry := raw.(map[string]interface{})
		expiredByKey[entry["key"].(string)] = entry["expired"].(bool)
	}
	assert.False(t, expiredByKey["AAPL_daily_3mo"])
	assert.True(t, expiredByKey["MSFT_daily_3mo"])
}

func TestHandleCacheDelete(t *testing.T) {
	srv, store := setupTestServer(t)
	require.NoError(t, store.Set("AAPL_daily_3mo", "x", time.Hour))

	rec, _ := doRequest(t, srv, http.MethodDelete, "/api/cache/AAPL_daily_3mo")
	assert.Equal(t, http.StatusOK, rec.Code)

	entries, err := store.Keys()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHandleCacheDelete_UnknownKey(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec, body := doRequest(t, srv, http.MethodDelete, "/api/cache/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "cache key not found", body["error"])
}

func TestHandleCacheClear(t *testing.T) {
	srv, store := setupTestServer(t)
	require.NoError(t, store.Set("AAPL_daily_3mo", "x", time.Hour))
	require.NoError(t, store.Set("MSFT_daily_3mo", "y", time.Hour))

	rec, body := doRequest(t, srv, http.MethodDelete, "/api/cache")
	assert.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["removed"])
}

func TestHandleSystemStatus(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec, body := doRequest(t, srv, http.MethodGet, "/api/system/status")
	assert.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]interface{})
	assert.Contains(t, data, "cpu_percent")
	assert.Contains(t, data, "memory_percent")
}

func TestHandleAnalysis(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec, body := doRequest(t, srv, http.MethodGet, "/api/analysis/AAPL")
	assert.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "AAPL", data["ticker"])
	assert.Len(t, data["rows"], 5)
}

func TestHandleAnalysis_UnknownTicker(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec, body := doRequest(t, srv, http.MethodGet, "/api/analysis/NOPE")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no data for ticker", body["error"])
}
