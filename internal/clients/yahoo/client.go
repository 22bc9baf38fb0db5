// Package yahoo provides market data fetching from the Yahoo Finance
// public API: OHLC bars, option chains, and fundamental metrics.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"pricemovers/internal/domain"
)

// Yahoo rejects requests without a browser-ish user agent.
const userAgent = "Mozilla/5.0"

// Client fetches market data from Yahoo Finance. It implements
// domain.Gateway and owns no caching; callers layer the cache on top.
type Client struct {
	chartURL   string
	optionsURL string
	summaryURL string
	client     *http.Client
	log        zerolog.Logger
}

// NewClient creates a Yahoo Finance client.
func NewClient(timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		chartURL:   "https://query1.finance.yahoo.com/v8/finance/chart",
		optionsURL: "https://query1.finance.yahoo.com/v7/finance/options",
		summaryURL: "https://query1.finance.yahoo.com/v10/finance/quoteSummary",
		client:     &http.Client{Timeout: timeout},
		log:        log.With().Str("client", "yahoo").Logger(),
	}
}

func (c *Client) getJSON(ctx context.Context, rawURL string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	c.log.Debug().Str("url", rawURL).Msg("Fetching")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// Bars fetches OHLCV bars, ascending by time. Null bars (holidays) are
// skipped. Empty history maps to domain.ErrUnavailable.
func (c *Client) Bars(ctx context.Context, ticker string, rng domain.Range, interval domain.Interval) ([]domain.PriceBar, error) {
	u := fmt.Sprintf("%s/%s?interval=%s&range=%s",
		c.chartURL, url.PathEscape(ticker), interval, rng)

	var chart chartResponse
	if err := c.getJSON(ctx, u, &chart); err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		c.log.Warn().Str("ticker", ticker).Str("code", chart.Chart.Error.Code).Msg("Chart API error")
		return nil, domain.ErrUnavailable
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, domain.ErrUnavailable
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	bars := make([]domain.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		bar := domain.PriceBar{
			Time:  time.Unix(ts, 0).UTC(),
			Close: *quote.Close[i],
		}
		if i < len(quote.Open) && quote.Open[i] != nil {
			bar.Open = *quote.Open[i]
		}
		if i < len(quote.High) && quote.High[i] != nil {
			bar.High = *quote.High[i]
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			bar.Low = *quote.Low[i]
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, domain.ErrUnavailable
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// LastClose returns the latest close price for the ticker.
func (c *Client) LastClose(ctx context.Context, ticker string) (float64, error) {
	bars, err := c.Bars(ctx, ticker, "5d", domain.IntervalDaily)
	if err != nil {
		return 0, err
	}
	return bars[len(bars)-1].Close, nil
}

// OptionExpirations lists listed option expiration dates, ascending.
func (c *Client) OptionExpirations(ctx context.Context, ticker string) ([]time.Time, error) {
	u := fmt.Sprintf("%s/%s", c.optionsURL, url.PathEscape(ticker))

	var options optionsResponse
	if err := c.getJSON(ctx, u, &options); err != nil {
		return nil, err
	}
	if options.OptionChain.Error != nil || len(options.OptionChain.Result) == 0 {
		return nil, domain.ErrUnavailable
	}

	raw := options.OptionChain.Result[0].ExpirationDates
	if len(raw) == 0 {
		return nil, domain.ErrUnavailable
	}

	dates := make([]time.Time, len(raw))
	for i, ts := range raw {
		dates[i] = time.Unix(ts, 0).UTC()
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	return dates, nil
}

// OptionChain returns the call contracts for the ticker at expiration.
// Moneyness is left unclassified; the analysis layer sets it against the
// spot at fetch time.
func (c *Client) OptionChain(ctx context.Context, ticker string, expiration time.Time) ([]domain.OptionContract, error) {
	u := fmt.Sprintf("%s/%s?date=%d", c.optionsURL, url.PathEscape(ticker), expiration.Unix())

	var options optionsResponse
	if err := c.getJSON(ctx, u, &options); err != nil {
		return nil, err
	}
	if options.OptionChain.Error != nil || len(options.OptionChain.Result) == 0 {
		return nil, domain.ErrUnavailable
	}

	result := options.OptionChain.Result[0]
	if len(result.Options) == 0 {
		return nil, domain.ErrUnavailable
	}

	calls := result.Options[0].Calls
	contracts := make([]domain.OptionContract, 0, len(calls))
	for _, call := range calls {
		contracts = append(contracts, domain.OptionContract{
			Strike:       call.Strike,
			LastPrice:    call.LastPrice,
			Bid:          call.Bid,
			Ask:          call.Ask,
			OpenInterest: call.OpenInterest,
			ImpliedVol:   call.ImpliedVolatility,
			Expiration:   time.Unix(call.Expiration, 0).UTC(),
		})
	}

	if len(contracts) == 0 {
		return nil, domain.ErrUnavailable
	}

	return contracts, nil
}

// Fundamentals returns the fundamental snapshot for the ticker.
// Metrics the provider omits come back typed-unavailable.
func (c *Client) Fundamentals(ctx context.Context, ticker string) (*domain.FundamentalSnapshot, error) {
	u := fmt.Sprintf("%s/%s?modules=summaryDetail,defaultKeyStatistics,financialData",
		c.summaryURL, url.PathEscape(ticker))

	var summary quoteSummaryResponse
	if err := c.getJSON(ctx, u, &summary); err != nil {
		return nil, err
	}
	if summary.QuoteSummary.Error != nil || len(summary.QuoteSummary.Result) == 0 {
		return nil, domain.ErrUnavailable
	}

	result := summary.QuoteSummary.Result[0]
	fin := result.FinancialData

	snapshot := &domain.FundamentalSnapshot{
		Ticker:         ticker,
		AsOf:           time.Now().UTC(),
		Metrics:        map[string]domain.Metric{},
		Recommendation: fin.RecommendationKey,
	}

	add := func(name string, v *rawValue) {
		snapshot.Names = append(snapshot.Names, name)
		if v == nil {
			snapshot.Metrics[name] = domain.Unavailable
			return
		}
		snapshot.Metrics[name] = domain.NewMetric(v.Raw)
	}

	add("PE Ratio", result.SummaryDetail.ForwardPE)
	add("EPS", result.DefaultKeyStatistics.TrailingEps)
	add("Profit Margins", fin.ProfitMargins)
	add("Return on Assets", fin.ReturnOnAssets)
	add("Free Cash Flow", fin.FreeCashflow)
	add("Operating Cash Flow", fin.OperatingCashflow)
	add("Debt to Equity", fin.DebtToEquity)
	add("Revenue Growth", fin.RevenueGrowth)
	add("Gross Margins", fin.GrossMargins)
	add("Analyst Target Mean Price", fin.TargetMeanPrice)

	return snapshot, nil
}
