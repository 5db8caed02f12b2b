package market

// Fixed multipliers applied to the 24h change when no authoritative value
// exists for a timeframe. They are approximations with no derivation behind
// them and must be presented as such.
const (
	Approx1hFactor  = 0.3
	Approx7dFactor  = 2.5
	Approx30dFactor = 5.0
)

// RankedAsset is an Asset with every heatmap timeframe filled in.
// Approximated lists the timeframes that were derived rather than reported.
type RankedAsset struct {
	Asset

	ChangePct1h  float64      `json:"change_pct_1h"`
	ChangePct7d  float64      `json:"change_pct_7d"`
	ChangePct30d float64      `json:"change_pct_30d"`
	Approximated TimeframeSet `json:"approximated"`
}

// ChangePct returns the change for tf. Unknown timeframes fall back to 24h.
func (r RankedAsset) ChangePct(tf Timeframe) float64 {
	switch tf {
	case Timeframe1h:
		return r.ChangePct1h
	case Timeframe7d:
		return r.ChangePct7d
	case Timeframe30d:
		return r.ChangePct30d
	}
	return r.ChangePct24h
}

// ApproximateTimeframes fills the 1h, 7d and 30d changes of a by linear
// scaling of its 24h change, keeping any value the asset already reports.
// The 24h change is passed through untouched.
func ApproximateTimeframes(a Asset) RankedAsset {
	r := RankedAsset{Asset: a}
	fill := func(tf Timeframe, factor float64) float64 {
		if v, ok := a.ReportedChange(tf); ok {
			return v
		}
		r.Approximated = r.Approximated.With(tf)
		return a.ChangePct24h * factor
	}
	r.ChangePct1h = fill(Timeframe1h, Approx1hFactor)
	r.ChangePct7d = fill(Timeframe7d, Approx7dFactor)
	r.ChangePct30d = fill(Timeframe30d, Approx30dFactor)
	return r
}

// ApproximateAll maps ApproximateTimeframes over assets into a new slice.
func ApproximateAll(assets []Asset) []RankedAsset {
	out := make([]RankedAsset, len(assets))
	for i, a := range assets {
		out[i] = ApproximateTimeframes(a)
	}
	return out
}
