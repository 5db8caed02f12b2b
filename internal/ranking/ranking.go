package ranking

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"marketdash/internal/market"
)

// HeatmapLimit is how many bubbles the heatmap shows.
const HeatmapLimit = 50

// SortKey orders a collection, always descending, ties by upstream rank.
type SortKey string

const (
	SortMarketCap   SortKey = "market_cap"
	SortVolume      SortKey = "volume"
	SortPriceChange SortKey = "price_change"
	// SortRank keeps the upstream order.
	SortRank SortKey = "rank"
)

func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "market_cap", "marketcap":
		return SortMarketCap, nil
	case "volume":
		return SortVolume, nil
	case "price_change", "change":
		return SortPriceChange, nil
	case "rank":
		return SortRank, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// Rankable is satisfied by market.Asset and market.RankedAsset.
type Rankable interface {
	Base() market.Asset
	ChangePct(tf market.Timeframe) float64
}

// Options selects ordering, filtering and truncation.
type Options struct {
	SortKey   SortKey
	Timeframe market.Timeframe
	Query     string
	// Limit <= 0 means unbounded.
	Limit int
}

// Rank filters by Query, sorts by SortKey and truncates to Limit.
// items is never modified; the result is a fresh slice.
func Rank[T Rankable](items []T, opts Options) []T {
	out := Filter(items, opts.Query)
	Sort(out, opts.SortKey, opts.Timeframe)
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

// Filter returns the items whose name or symbol contains query,
// case-insensitively. An empty query keeps everything. Always copies.
func Filter[T Rankable](items []T, query string) []T {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]T, 0, len(items))
	for _, it := range items {
		if q == "" || matches(it.Base(), q) {
			out = append(out, it)
		}
	}
	return out
}

func matches(a market.Asset, q string) bool {
	return strings.Contains(strings.ToLower(a.Name), q) || strings.Contains(strings.ToLower(a.Symbol), q)
}

// Sort orders items in place, stable, descending by key with ascending
// rank as the tie-breaker.
func Sort[T Rankable](items []T, key SortKey, tf market.Timeframe) {
	metric := metricFor[T](key, tf)
	sort.SliceStable(items, func(i, j int) bool {
		if metric != nil {
			vi, vj := metric(items[i]), metric(items[j])
			if vi != vj {
				return vi > vj
			}
		}
		return items[i].Base().Rank < items[j].Base().Rank
	})
}

func metricFor[T Rankable](key SortKey, tf market.Timeframe) func(T) float64 {
	switch key {
	case SortRank:
		return nil
	case SortVolume:
		return func(it T) float64 { return it.Base().Volume24hUSD }
	case SortPriceChange:
		return func(it T) float64 { return math.Abs(it.ChangePct(tf)) }
	}
	return func(it T) float64 { return it.Base().MarketCapUSD }
}
