// Package encoding maps ranked assets onto the heatmap's visual channels.
//
// Everything here is a pure function of the collection handed in; callers
// re-run Encode whenever the visible collection or the selection changes.
package encoding

import (
	"fmt"
	"math"
	"strings"

	"marketdash/internal/market"
)

const (
	MinSize = 60.0
	MaxSize = 200.0

	// SaturationPct is the absolute change at which color intensity saturates.
	SaturationPct = 15.0
	// HighChangePct marks bubbles that get the extra emphasis treatment.
	HighChangePct = 10.0
)

// Dimension is the axis that drives bubble size and sort order.
type Dimension string

const (
	DimensionMarketCap       Dimension = "market_cap"
	DimensionVolume          Dimension = "volume"
	DimensionChangeMagnitude Dimension = "price_change"
)

// ParseDimension accepts the query spellings used by the API and CLI.
func ParseDimension(s string) (Dimension, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "market_cap", "marketcap":
		return DimensionMarketCap, nil
	case "volume", "24h_volume":
		return DimensionVolume, nil
	case "price_change", "change", "changemagnitude", "change_magnitude":
		return DimensionChangeMagnitude, nil
	}
	return "", fmt.Errorf("unknown dimension %q", s)
}

// Label is the human legend text for d.
func (d Dimension) Label() string {
	switch d {
	case DimensionVolume:
		return "24h Volume"
	case DimensionChangeMagnitude:
		return "Price Change"
	}
	return "Market Cap"
}

// Value is the non-negative magnitude of a along d for timeframe tf.
func Value(a market.RankedAsset, d Dimension, tf market.Timeframe) float64 {
	var v float64
	switch d {
	case DimensionVolume:
		v = a.Volume24hUSD
	case DimensionChangeMagnitude:
		v = math.Abs(a.ChangePct(tf))
	default:
		v = a.MarketCapUSD
	}
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

// MaxValue is the largest Value across items; 0 for an empty collection.
func MaxValue(items []market.RankedAsset, d Dimension, tf market.Timeframe) float64 {
	hi := 0.0
	for _, it := range items {
		if v := Value(it, d, tf); v > hi {
			hi = v
		}
	}
	return hi
}

// Size interpolates value over [0, hi] into [MinSize, MaxSize].
// A non-positive hi maps everything to MinSize.
func Size(value, hi float64) float64 {
	if !(hi > 0) || math.IsInf(hi, 0) || !(value > 0) {
		return MinSize
	}
	s := MinSize + (value/hi)*(MaxSize-MinSize)
	return math.Min(math.Max(s, MinSize), MaxSize)
}

// Encoded is the visual encoding of one asset.
type Encoded struct {
	ID         string  `json:"id"`
	Size       float64 `json:"size"`
	Color      Style   `json:"color"`
	HighChange bool    `json:"high_change"`
	ChangePct  float64 `json:"change_pct"`
}

// Encode computes size and color for every item of the visible collection.
// The size range is normalized against this collection's own maximum.
func Encode(items []market.RankedAsset, d Dimension, tf market.Timeframe) []Encoded {
	hi := MaxValue(items, d, tf)
	out := make([]Encoded, len(items))
	for i, it := range items {
		change := it.ChangePct(tf)
		out[i] = Encoded{
			ID:         it.ID,
			Size:       Size(Value(it, d, tf), hi),
			Color:      ColorFor(change),
			HighChange: math.Abs(change) > HighChangePct,
			ChangePct:  change,
		}
	}
	return out
}
