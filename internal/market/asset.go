package market

import "math"

// Asset is the canonical, normalized view of one tradable instrument.
// Values are immutable once built; every fetch produces fresh ones.
type Asset struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`

	Price        float64 `json:"price"`
	Rank         int     `json:"rank"`
	ChangePct24h float64 `json:"change_pct_24h"`
	MarketCapUSD float64 `json:"market_cap_usd"`
	Volume24hUSD float64 `json:"volume_24h_usd"`

	CirculatingSupply *float64 `json:"circulating_supply"`
	TotalSupply       *float64 `json:"total_supply"`

	ATHUSD       float64 `json:"ath_usd"`
	ATHEstimated bool    `json:"ath_estimated"`
	// ATLUSD is always a placeholder (10% of price); the upstream never reports it.
	ATLUSD       float64 `json:"atl_usd"`
	ATLEstimated bool    `json:"atl_estimated"`

	Description string `json:"description"`
	HomepageURL string `json:"homepage_url"`

	// reported holds authoritative changes for timeframes other than 24h.
	reported map[Timeframe]float64
}

// WithReportedChange returns a copy of a carrying an authoritative change
// for tf. Reported values win over approximations.
func (a Asset) WithReportedChange(tf Timeframe, pct float64) Asset {
	if tf == Timeframe24h {
		a.ChangePct24h = pct
		return a
	}
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return a
	}
	m := make(map[Timeframe]float64, len(a.reported)+1)
	for k, v := range a.reported {
		m[k] = v
	}
	m[tf] = pct
	a.reported = m
	return a
}

// ReportedChange returns the authoritative change for tf, if any.
func (a Asset) ReportedChange(tf Timeframe) (float64, bool) {
	if tf == Timeframe24h {
		return a.ChangePct24h, true
	}
	v, ok := a.reported[tf]
	return v, ok
}

// ChangePct returns the change for tf, approximated when not reported.
func (a Asset) ChangePct(tf Timeframe) float64 {
	return ApproximateTimeframes(a).ChangePct(tf)
}

// Base returns a itself so Asset and RankedAsset both satisfy ranking.Rankable.
func (a Asset) Base() Asset { return a }

// PricePoint is one chart sample.
type PricePoint struct {
	TimestampMs int64   `json:"timestamp_ms"`
	Price       float64 `json:"price"`
}
