// Package marketcal provides market calendar time calculations.
// All computations are pinned to the exchange's local time zone
// (America/New_York) so that results are stable regardless of where
// the process runs.
package marketcal

import "time"

// Clock supplies the current time. The production implementation reads
// the wall clock in exchange-local time; tests substitute a fixed clock.
type Clock interface {
	Now() time.Time
}

// exchangeTZ is resolved once at startup. The IANA zone database is a
// hard requirement; a missing zone is a deployment error.
var exchangeTZ = mustLoadLocation("America/New_York")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic("marketcal: cannot load time zone " + name + ": " + err.Error())
	}
	return loc
}

// ExchangeClock reads the wall clock in the exchange's local time zone.
type ExchangeClock struct{}

// Now returns the current exchange-local time.
func (ExchangeClock) Now() time.Time {
	return time.Now().In(exchangeTZ)
}

// FixedClock always reports the same instant. Used in tests.
type FixedClock struct {
	Time time.Time
}

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time {
	return c.Time
}

// marketCloseHour is the exchange close in local time (16:00).
const marketCloseHour = 16

// NextMarketClose returns the next Friday 16:00 in exchange-local time,
// strictly in the future relative to now. Called on a Friday before the
// close it returns today's close; at or after the close it rolls to the
// following week.
func NextMarketClose(now time.Time) time.Time {
	now = now.In(exchangeTZ)

	daysUntilFriday := (int(time.Friday) - int(now.Weekday()) + 7) % 7
	if daysUntilFriday == 0 && now.Hour() >= marketCloseHour {
		daysUntilFriday = 7
	}

	friday := now.AddDate(0, 0, daysUntilFriday)
	return time.Date(friday.Year(), friday.Month(), friday.Day(), marketCloseHour, 0, 0, 0, exchangeTZ)
}

// minTTL guards against non-positive durations when a process runs in the
// last moments before (or just after) a close boundary. Callers storing
// cache entries must never write a zero or negative TTL by accident.
const minTTL = time.Minute

// TTLUntilClose returns the duration from now until the next market close,
// clamped to a small positive minimum.
func TTLUntilClose(clock Clock) time.Duration {
	now := clock.Now()
	ttl := NextMarketClose(now).Sub(now)
	if ttl < minTTL {
		return minTTL
	}
	return ttl
}
