package series

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"marketdash/internal/market"
	"marketdash/internal/provider"
)

// Range is a chart window as offered to users.
type Range string

const (
	Range24h Range = "24h"
	Range7d  Range = "7d"
	Range30d Range = "30d"
	Range90d Range = "90d"
	Range1y  Range = "1y"
)

// Ranges lists chart windows in display order.
var Ranges = []Range{Range24h, Range7d, Range30d, Range90d, Range1y}

// ParseRange accepts the window names plus the day counts ("1", "7", ...).
func ParseRange(s string) (Range, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "7d", "7":
		return Range7d, nil
	case "24h", "1d", "1":
		return Range24h, nil
	case "30d", "30":
		return Range30d, nil
	case "90d", "3m", "90":
		return Range90d, nil
	case "1y", "365d", "365":
		return Range1y, nil
	}
	return "", fmt.Errorf("unknown chart range %q", s)
}

// TimePeriod is the upstream's name for r.
func (r Range) TimePeriod() string {
	if r == Range90d {
		return "3m"
	}
	return string(r)
}

// Label is the button label, e.g. "7D".
func (r Range) Label() string { return strings.ToUpper(string(r)) }

// Series is an assembled, oldest-first price history.
type Series struct {
	Points       []market.PricePoint `json:"points"`
	NetChangePct float64             `json:"net_change_pct"`
	// Dropped counts upstream samples whose price or timestamp was unusable.
	Dropped int `json:"dropped"`
}

// Empty reports that there is nothing to chart. It is a valid outcome.
func (s Series) Empty() bool { return len(s.Points) == 0 }

// Assemble turns newest-first raw history into an oldest-first series.
// Unusable samples are dropped; they never fail the assembly.
func Assemble(raw []provider.RawHistoryPoint) Series {
	pts := make([]market.PricePoint, 0, len(raw))
	dropped := 0
	for i := len(raw) - 1; i >= 0; i-- {
		p, ok := convert(raw[i])
		if !ok {
			dropped++
			continue
		}
		pts = append(pts, p)
	}
	// Reversal is enough for well-formed input; the stable sort guards
	// the non-decreasing timestamp guarantee when the upstream misorders.
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].TimestampMs < pts[j].TimestampMs })

	return Series{Points: pts, NetChangePct: NetChangePct(pts), Dropped: dropped}
}

// NetChangePct is (last-first)/first*100, or 0 with fewer than two points
// or a zero first price.
func NetChangePct(pts []market.PricePoint) float64 {
	if len(pts) < 2 {
		return 0
	}
	first, last := pts[0].Price, pts[len(pts)-1].Price
	if first == 0 {
		return 0
	}
	v := (last - first) / first * 100
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// maxEpochSec is the largest epoch second whose millisecond value fits int64.
var maxEpochSec = decimal.NewFromInt(math.MaxInt64 / 1000)

func convert(r provider.RawHistoryPoint) (market.PricePoint, bool) {
	if !r.Price.Valid || !r.Timestamp.Valid {
		return market.PricePoint{}, false
	}
	price, err := decimal.NewFromString(strings.TrimSpace(r.Price.Text))
	if err != nil || price.IsNegative() {
		return market.PricePoint{}, false
	}
	ts, err := decimal.NewFromString(strings.TrimSpace(r.Timestamp.Text))
	if err != nil || !ts.IsInteger() || ts.IsNegative() || ts.GreaterThan(maxEpochSec) {
		return market.PricePoint{}, false
	}
	f, _ := price.Float64()
	if math.IsInf(f, 0) {
		return market.PricePoint{}, false
	}
	return market.PricePoint{TimestampMs: ts.IntPart() * 1000, Price: f}, true
}
