// Package cli implements the interactive terminal menu. It reads
// choices from stdin, runs the matching analysis operation and renders
// colored reports, re-prompting on invalid input instead of failing.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"pricemovers/internal/analysis"
	"pricemovers/internal/cache"
	"pricemovers/internal/domain"
	"pricemovers/internal/universe"
)

// ANSI colors used by the reports.
const (
	colorRed    = "\033[91m"
	colorGreen  = "\033[92m"
	colorBlue   = "\033[94m"
	colorOrange = "\033[38;5;208m"
	colorReset  = "\033[0m"
)

// Menu is the interactive command loop.
type Menu struct {
	svc          *analysis.Service
	store        *cache.Store
	universePath string
	in           *bufio.Scanner
	out          io.Writer
	log          zerolog.Logger
}

// NewMenu creates the menu. Input and output are injected so tests can
// script a session.
func NewMenu(svc *analysis.Service, store *cache.Store, universePath string, in io.Reader, out io.Writer, log zerolog.Logger) *Menu {
	return &Menu{
		svc:          svc,
		store:        store,
		universePath: universePath,
		in:           bufio.NewScanner(in),
		out:          out,
		log:          log.With().Str("service", "cli").Logger(),
	}
}

// Run drives the menu loop until the user types "exit", input ends, or
// the context is cancelled.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fmt.Fprintln(m.out, "\nSelect an option:")
		fmt.Fprintln(m.out, "1. Display data analysis for a specific stock")
		fmt.Fprintln(m.out, "2. Identify top 10 most volatile stocks with specified criteria")
		fmt.Fprintln(m.out, "3. Fetch options chain data and highlight ATM/OTM options")
		fmt.Fprintln(m.out, "4. Calculate historical volatility for a specific stock")
		fmt.Fprintln(m.out, "5. Display historical VIX value")
		fmt.Fprintln(m.out, "6. Filter extreme level stocks")
		fmt.Fprintln(m.out, "7. Clear the cache (entries expire on Friday market close)")

		choice, ok := m.readLine("\nEnter your choice or type 'exit' to quit: ")
		if !ok {
			return nil
		}

		switch strings.ToLower(choice) {
		case "exit":
			fmt.Fprintln(m.out, "Exiting program. Goodbye!")
			return nil
		case "1":
			m.analyzeStock(ctx)
		case "2":
			m.topVolatile(ctx)
		case "3":
			m.debitSpreads(ctx)
		case "4":
			m.historicalVolatility(ctx)
		case "5":
			m.vix(ctx)
		case "6":
			m.extremeLevels(ctx)
		case "7":
			m.clearCache()
		default:
			fmt.Fprintln(m.out, "\nInvalid choice. Please enter a valid option.")
		}
	}
}

func (m *Menu) analyzeStock(ctx context.Context) {
	ticker, ok := m.readTicker()
	if !ok {
		return
	}

	weekly, err := m.svc.WeeklyRange(ctx, ticker)
	if err != nil {
		m.printError(ticker, err)
		return
	}
	m.printSourceNotice(weekly.FromCache, "weekly range", ticker)
	fmt.Fprintf(m.out, "\n%s=========== Weekly Range for %s ===========%s\n\n", colorRed, ticker, colorReset)
	fmt.Fprintf(m.out, "High: %.2f  Low: %.2f  Weekly Range: %.2f\n", weekly.Bar.High, weekly.Bar.Low, weekly.Range)

	technicals, err := m.svc.TechnicalIndicators(ctx, ticker)
	if err != nil {
		m.printError(ticker, err)
		return
	}
	m.printSourceNotice(technicals.FromCache, "daily technical indicators", ticker)
	fmt.Fprintln(m.out, "\nDaily Technical Indicators (RSI, Bollinger Bands, EMA):")
	fmt.Fprintf(m.out, "\n%-12s %10s %8s %10s %10s %10s %10s\n", "Date", "Close", "RSI", "BB Upper", "BB Mid", "BB Lower", "EMA")
	for _, row := range technicals.Rows {
		fmt.Fprintf(m.out, "%-12s %10.2f %8s %10s %10s %10s %10s\n",
			row.Time.Format("2006-01-02"), row.Close,
			formatFloat(row.RSI), formatFloat(row.BBUpper), formatFloat(row.BBMiddle),
			formatFloat(row.BBLower), formatFloat(row.EMA))
	}

	atr, _, err := m.svc.ATR(ctx, ticker)
	if err != nil {
		m.printError(ticker, err)
		return
	}
	fmt.Fprintf(m.out, "\n14-Day ATR: %s\n", formatFloat(analysis.Float(atr)))

	fundamentals, err := m.svc.Fundamentals(ctx, ticker)
	if err != nil {
		m.printError(ticker, err)
		return
	}
	fmt.Fprintln(m.out, "\nFundamental Data:")
	for _, name := range fundamentals.Names {
		fmt.Fprintf(m.out, "%s: %s\n", name, formatMetric(fundamentals.Metrics[name]))
	}
	if fundamentals.Recommendation != "" {
		fmt.Fprintf(m.out, "Analyst Recommendation: %s\n", fundamentals.Recommendation)
	}
}

func (m *Menu) topVolatile(ctx context.Context) {
	minMove, ok := m.readFloat("Enter the minimum dollar movement for the week: ")
	if !ok {
		return
	}
	maxPrice, ok := m.readFloat("Enter the maximum price of the stock: ")
	if !ok {
		return
	}

	rows, err := universe.Load(m.universePath, m.log)
	if err != nil {
		fmt.Fprintf(m.out, "%sFailed to load ticker universe: %v%s\n", colorRed, err, colorReset)
		return
	}

	result, err := m.svc.TopVolatile(ctx, rows, minMove, maxPrice)
	if err != nil {
		fmt.Fprintf(m.out, "%sScreen failed: %v%s\n", colorRed, err, colorReset)
		return
	}

	fmt.Fprintln(m.out, "\nTop 10 most volatile stocks with specified criteria:")
	fmt.Fprintln(m.out)
	for _, stock := range result.Stocks {
		fmt.Fprintf(m.out, "%s%s: %.2f (last %.2f, ATR %s)%s\n",
			colorGreen, stock.Symbol, stock.WeeklyRange, stock.Last, formatFloat(stock.ATR), colorReset)
	}
	if result.Skipped > 0 {
		fmt.Fprintf(m.out, "\nSkipped %d tickers with unavailable data.\n", result.Skipped)
	}
	fmt.Fprintln(m.out)
}

func (m *Menu) debitSpreads(ctx context.Context) {
	ticker, ok := m.readTicker()
	if !ok {
		return
	}
	pref, ok := m.readPreference()
	if !ok {
		return
	}
	length, ok := m.readInt("Enter the number for the expiration length: ")
	if !ok {
		return
	}
	threshold, ok := m.readFloat("Enter the acceptable bid-ask spread threshold: ")
	if !ok {
		return
	}

	report, err := m.svc.DebitSpreads(ctx, ticker, pref, length, threshold)
	if err != nil {
		m.printError(ticker, err)
		return
	}
	m.printSourceNotice(report.FromCache, "debit spread data", ticker)

	if len(report.Candidates) == 0 {
		fmt.Fprintln(m.out, "No suitable debit call spreads found or no data to display.")
		return
	}

	fmt.Fprintf(m.out, "\n======== Debit Call Spread Data for %s (expiration %s) ========\n\n",
		ticker, report.Expiration.Format("2006-01-02"))
	fmt.Fprintf(m.out, "%10s %10s %8s %8s %10s %8s %10s %10s %8s %5s\n",
		"Strike", "Last", "Bid", "Ask", "Open Int", "IV", "Spread %", "BreakEven", "R/R", "")
	for _, c := range report.Candidates {
		fmt.Fprintf(m.out, "%10.2f %10.2f %8.2f %8.2f %10d %8.2f %10.2f %10.2f %8.2f %s\n",
			c.Strike, c.LastPrice, c.Bid, c.Ask, c.OpenInterest, c.ImpliedVol,
			c.BidAskSpreadPct, c.BreakEven, c.RiskReward, colorMoneyness(c.Moneyness))
	}
	fmt.Fprintln(m.out)
}

func (m *Menu) historicalVolatility(ctx context.Context) {
	ticker, ok := m.readTicker()
	if !ok {
		return
	}

	hv, _, err := m.svc.HistoricalVolatility(ctx, ticker)
	if err != nil {
		m.printError(ticker, err)
		return
	}
	if math.IsNaN(hv) {
		fmt.Fprintf(m.out, "\nNot enough history to compute volatility for %s.\n", ticker)
		return
	}
	fmt.Fprintf(m.out, "\nHistorical Volatility (Annualized) for %s: %.2f%%\n\n", ticker, hv*100)
}

func (m *Menu) vix(ctx context.Context) {
	vix, err := m.svc.VIX(ctx)
	if err != nil {
		m.printError("^VIX", err)
		return
	}
	fmt.Fprintf(m.out, "\nHistorical VIX (Market Volatility Expectation - Annualized): %.2f\n\n", vix)
}

func (m *Menu) extremeLevels(ctx context.Context) {
	rows, err := universe.Load(m.universePath, m.log)
	if err != nil {
		fmt.Fprintf(m.out, "%sFailed to load ticker universe: %v%s\n", colorRed, err, colorReset)
		return
	}

	result, err := m.svc.ExtremeLevels(ctx, rows)
	if err != nil {
		fmt.Fprintf(m.out, "%sScreen failed: %v%s\n", colorRed, err, colorReset)
		return
	}

	fmt.Fprintln(m.out, "\nTop Extreme Level Stocks:")
	for _, stock := range result.Stocks {
		fmt.Fprintf(m.out, "%sTicker: %s, Latest Price: %.2f, RSI: %.2f, Upper Band: %.2f, Lower Band: %.2f%s\n",
			colorOrange, stock.Symbol, stock.Price, stock.RSI, stock.UpperBand, stock.LowerBand, colorReset)
	}
	if len(result.Stocks) == 0 {
		fmt.Fprintln(m.out, "No stocks at extreme levels right now.")
	}
}

func (m *Menu) clearCache() {
	entries, err := m.store.Keys()
	if err != nil {
		fmt.Fprintf(m.out, "%sFailed to list cache keys: %v%s\n", colorRed, err, colorReset)
		return
	}
	if len(entries) == 0 {
		fmt.Fprintln(m.out, "Cache is currently empty.")
		return
	}

	fmt.Fprintln(m.out, "Available cache keys:")
	for i, entry := range entries {
		fmt.Fprintf(m.out, "%d. %s\n", i+1, entry.Key)
	}

	selection, ok := m.readInt("Enter the number of the cache key you want to clear (0 to clear all): ")
	if !ok {
		return
	}

	switch {
	case selection == 0:
		if _, err := m.store.Clear(); err != nil {
			fmt.Fprintf(m.out, "%sFailed to clear cache: %v%s\n", colorRed, err, colorReset)
			return
		}
		fmt.Fprintln(m.out, "Cleared all cache entries.")
	case selection > 0 && selection <= len(entries):
		key := entries[selection-1].Key
		if _, err := m.store.Delete(key); err != nil {
			fmt.Fprintf(m.out, "%sFailed to clear cache entry: %v%s\n", colorRed, err, colorReset)
			return
		}
		fmt.Fprintf(m.out, "Cleared cache for key: %s\n", key)
	default:
		fmt.Fprintln(m.out, "Invalid selection.")
	}
}

// readLine prompts once and returns the trimmed line. ok is false when
// input has ended.
func (m *Menu) readLine(prompt string) (string, bool) {
	fmt.Fprint(m.out, prompt)
	if !m.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.in.Text()), true
}

func (m *Menu) readTicker() (string, bool) {
	for {
		line, ok := m.readLine("Enter the ticker symbol: ")
		if !ok {
			return "", false
		}
		if line != "" {
			return strings.ToUpper(line), true
		}
	}
}

// readFloat re-prompts until the input parses.
func (m *Menu) readFloat(prompt string) (float64, bool) {
	for {
		line, ok := m.readLine(prompt)
		if !ok {
			return 0, false
		}
		value, err := strconv.ParseFloat(line, 64)
		if err != nil {
			fmt.Fprintln(m.out, "Please enter a valid number.")
			continue
		}
		return value, true
	}
}

// readInt re-prompts until the input parses.
func (m *Menu) readInt(prompt string) (int, bool) {
	for {
		line, ok := m.readLine(prompt)
		if !ok {
			return 0, false
		}
		value, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintln(m.out, "Please enter a valid number.")
			continue
		}
		return value, true
	}
}

// readPreference re-prompts until a known horizon unit is given.
func (m *Menu) readPreference() (analysis.ExpirationPreference, bool) {
	for {
		line, ok := m.readLine("Choose expiration preference (days, weeks, months): ")
		if !ok {
			return "", false
		}
		switch pref := analysis.ExpirationPreference(strings.ToLower(line)); pref {
		case analysis.PreferDays, analysis.PreferWeeks, analysis.PreferMonths:
			return pref, true
		}
		fmt.Fprintln(m.out, "Please choose days, weeks or months.")
	}
}

func (m *Menu) printSourceNotice(fromCache bool, what, ticker string) {
	if fromCache {
		fmt.Fprintf(m.out, "\n%sLoading %s from cache for %s.%s\n", colorBlue, what, ticker, colorReset)
		return
	}
	fmt.Fprintf(m.out, "\n%sFetching %s for %s.%s\n", colorGreen, what, ticker, colorReset)
}

func (m *Menu) printError(ticker string, err error) {
	if analysis.IsUnavailable(err) {
		fmt.Fprintf(m.out, "%sNo data to display for %s.%s\n", colorRed, ticker, colorReset)
		return
	}
	m.log.Error().Err(err).Str("ticker", ticker).Msg("Operation failed")
	fmt.Fprintf(m.out, "%sAn error occurred: %v%s\n", colorRed, err, colorReset)
}

// formatFloat renders an indicator value, using N/A for undefined.
func formatFloat(f analysis.Float) string {
	if !f.Defined() {
		return "N/A"
	}
	return strconv.FormatFloat(float64(f), 'f', 2, 64)
}

// formatMetric renders a fundamental metric, using N/A when the
// provider omitted it.
func formatMetric(metric domain.Metric) string {
	if !metric.Available {
		return "N/A"
	}
	return strconv.FormatFloat(metric.Value, 'f', 2, 64)
}

func colorMoneyness(mny domain.Moneyness) string {
	switch mny {
	case domain.MoneynessATM:
		return colorBlue + string(mny) + colorReset
	case domain.MoneynessITM:
		return colorGreen + string(mny) + colorReset
	default:
		return colorRed + string(mny) + colorReset
	}
}
