package aggregate

import (
	"sort"

	"marketdash/internal/market"
)

// Mover is one asset's entry in a summary's top lists.
type Mover struct {
	ID        string  `json:"id"`
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	ChangePct float64 `json:"change_pct"`
}

// Summary is a market overview across a set of assets for one timeframe.
type Summary struct {
	Timeframe      market.Timeframe `json:"timeframe"`
	Count          int              `json:"count"`
	TotalMarketCap float64          `json:"total_market_cap_usd"`
	TotalVolume    float64          `json:"total_volume_24h_usd"`
	Gainers        int              `json:"gainers"`
	Losers         int              `json:"losers"`
	Unchanged      int              `json:"unchanged"`
	AvgChangePct   float64          `json:"avg_change_pct"`
	// MarketCapWeightedChangePct weights each change by the asset's share of total market cap.
	MarketCapWeightedChangePct float64 `json:"market_cap_weighted_change_pct"`
	TopGainers                 []Mover `json:"top_gainers"`
	TopLosers                  []Mover `json:"top_losers"`
}

// Summarize folds assets into a Summary. topN caps each movers list;
// ties are broken by rank ascending, then id.
func Summarize(assets []market.RankedAsset, tf market.Timeframe, topN int) Summary {
	s := Summary{Timeframe: tf, Count: len(assets)}
	if len(assets) == 0 {
		return s
	}

	var sumChange, weighted float64
	for _, a := range assets {
		pct := a.ChangePct(tf)
		s.TotalMarketCap += a.MarketCapUSD
		s.TotalVolume += a.Volume24hUSD
		sumChange += pct
		weighted += pct * a.MarketCapUSD
		switch {
		case pct > 0:
			s.Gainers++
		case pct < 0:
			s.Losers++
		default:
			s.Unchanged++
		}
	}
	s.AvgChangePct = sumChange / float64(len(assets))
	if s.TotalMarketCap > 0 {
		s.MarketCapWeightedChangePct = weighted / s.TotalMarketCap
	}

	sorted := make([]market.RankedAsset, len(assets))
	copy(sorted, assets)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := sorted[i].ChangePct(tf), sorted[j].ChangePct(tf)
		if pi != pj {
			return pi > pj
		}
		if sorted[i].Rank != sorted[j].Rank {
			return sorted[i].Rank < sorted[j].Rank
		}
		return sorted[i].ID < sorted[j].ID
	})

	for _, a := range sorted {
		if len(s.TopGainers) == topN || a.ChangePct(tf) <= 0 {
			break
		}
		s.TopGainers = append(s.TopGainers, moverOf(a, tf))
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		a := sorted[i]
		if len(s.TopLosers) == topN || a.ChangePct(tf) >= 0 {
			break
		}
		s.TopLosers = append(s.TopLosers, moverOf(a, tf))
	}
	return s
}

func moverOf(a market.RankedAsset, tf market.Timeframe) Mover {
	return Mover{ID: a.ID, Symbol: a.Symbol, Name: a.Name, ChangePct: a.ChangePct(tf)}
}

// LatestByID collapses assets sharing an id, keeping the later occurrence.
// Output follows first-seen order. Paged upstream reads can repeat a coin
// when rankings shift between pages.
func LatestByID(assets []market.Asset) []market.Asset {
	idx := make(map[string]int, len(assets))
	out := make([]market.Asset, 0, len(assets))
	for _, a := range assets {
		if i, ok := idx[a.ID]; ok {
			out[i] = a
			continue
		}
		idx[a.ID] = len(out)
		out = append(out, a)
	}
	return out
}
