package cache

import "time"

// TTL constants for data that does not follow the weekly market-close
// boundary. Weekly report entries instead expire at the next Friday
// 16:00 close, computed per write by marketcal.TTLUntilClose.
const (
	// TTLOptionChain - option chains move intraday, refresh daily
	TTLOptionChain = 24 * time.Hour
)
