package indicators

import "pricemovers/internal/domain"

// Classify returns the moneyness of a call contract against the
// underlying spot. ATM requires exact strike equality; there is no
// tolerance band.
func Classify(strike, spot float64) domain.Moneyness {
	switch {
	case strike == spot:
		return domain.MoneynessATM
	case strike < spot:
		return domain.MoneynessITM
	default:
		return domain.MoneynessOTM
	}
}
