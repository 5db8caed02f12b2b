package market

import (
	"fmt"
	"strings"
)

// Timeframe is the window a change percentage refers to.
type Timeframe string

const (
	Timeframe1h  Timeframe = "1h"
	Timeframe24h Timeframe = "24h"
	Timeframe7d  Timeframe = "7d"
	Timeframe30d Timeframe = "30d"
)

// Timeframes lists the heatmap timeframes in display order.
var Timeframes = []Timeframe{Timeframe1h, Timeframe24h, Timeframe7d, Timeframe30d}

// ParseTimeframe accepts "1h", "24h", "7d", "30d" in any case; empty means 24h.
func ParseTimeframe(s string) (Timeframe, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return Timeframe24h, nil
	case "1h":
		return Timeframe1h, nil
	case "24h", "1d":
		return Timeframe24h, nil
	case "7d", "1w":
		return Timeframe7d, nil
	case "30d":
		return Timeframe30d, nil
	}
	return "", fmt.Errorf("unknown timeframe %q", s)
}

// Label is the short button label, e.g. "24H".
func (t Timeframe) Label() string { return strings.ToUpper(string(t)) }

// TimeframeSet is a small bit set of timeframes.
type TimeframeSet uint8

func bit(t Timeframe) TimeframeSet {
	switch t {
	case Timeframe1h:
		return 1 << 0
	case Timeframe24h:
		return 1 << 1
	case Timeframe7d:
		return 1 << 2
	case Timeframe30d:
		return 1 << 3
	}
	return 0
}

func (s TimeframeSet) With(t Timeframe) TimeframeSet { return s | bit(t) }
func (s TimeframeSet) Has(t Timeframe) bool          { return bit(t) != 0 && s&bit(t) != 0 }

// List returns the members in display order.
func (s TimeframeSet) List() []Timeframe {
	out := make([]Timeframe, 0, len(Timeframes))
	for _, t := range Timeframes {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s TimeframeSet) MarshalJSON() ([]byte, error) {
	parts := s.List()
	var b strings.Builder
	b.WriteByte('[')
	for i, t := range parts {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(`"` + string(t) + `"`)
	}
	b.WriteByte(']')
	return []byte(b.String()), nil
}
