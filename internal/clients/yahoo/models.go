package yahoo

// Response shapes for the Yahoo Finance public API. Numeric fields in
// quoteSummary arrive as {raw, fmt} wrappers; absent metrics are absent
// keys, decoded as nil pointers.

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"chart"`
}

type optionsResponse struct {
	OptionChain struct {
		Result []struct {
			ExpirationDates []int64 `json:"expirationDates"`
			Quote           struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"quote"`
			Options []struct {
				ExpirationDate int64            `json:"expirationDate"`
				Calls          []optionContract `json:"calls"`
			} `json:"options"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"optionChain"`
}

type optionContract struct {
	Strike            float64 `json:"strike"`
	LastPrice         float64 `json:"lastPrice"`
	Bid               float64 `json:"bid"`
	Ask               float64 `json:"ask"`
	OpenInterest      int64   `json:"openInterest"`
	ImpliedVolatility float64 `json:"impliedVolatility"`
	Expiration        int64   `json:"expiration"`
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			SummaryDetail struct {
				ForwardPE *rawValue `json:"forwardPE"`
			} `json:"summaryDetail"`
			DefaultKeyStatistics struct {
				TrailingEps *rawValue `json:"trailingEps"`
			} `json:"defaultKeyStatistics"`
			FinancialData struct {
				ProfitMargins     *rawValue `json:"profitMargins"`
				ReturnOnAssets    *rawValue `json:"returnOnAssets"`
				FreeCashflow      *rawValue `json:"freeCashflow"`
				OperatingCashflow *rawValue `json:"operatingCashflow"`
				DebtToEquity      *rawValue `json:"debtToEquity"`
				RevenueGrowth     *rawValue `json:"revenueGrowth"`
				GrossMargins      *rawValue `json:"grossMargins"`
				TargetMeanPrice   *rawValue `json:"targetMeanPrice"`
				RecommendationKey string    `json:"recommendationKey"`
			} `json:"financialData"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteSummary"`
}

type rawValue struct {
	Raw float64 `json:"raw"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
