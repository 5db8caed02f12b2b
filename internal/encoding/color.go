package encoding

import (
	"fmt"
	"math"
	"strings"
)

// Branch is the three-way split of the color scale.
type Branch string

const (
	BranchGain    Branch = "gain"
	BranchLoss    Branch = "loss"
	BranchNeutral Branch = "neutral"
)

// RGBA is a CSS-style color with alpha in [0,1].
type RGBA struct {
	R, G, B uint8
	A       float64
}

func (c RGBA) CSS() string {
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, trimFloat(c.A))
}

func (c RGBA) MarshalText() ([]byte, error) { return []byte(c.CSS()), nil }

// Style is the full color treatment of one bubble.
type Style struct {
	Branch    Branch  `json:"branch"`
	Intensity float64 `json:"intensity"`
	// Stops are the three gradient stops at 0%, 50% and 100%.
	Stops  [3]RGBA `json:"stops"`
	Border RGBA    `json:"border"`
	Glow   RGBA    `json:"glow"`
}

// Background renders Stops as a CSS linear-gradient.
func (s Style) Background() string {
	return fmt.Sprintf("linear-gradient(135deg, %s 0%%, %s 50%%, %s 100%%)", s.Stops[0].CSS(), s.Stops[1].CSS(), s.Stops[2].CSS())
}

type palette struct {
	stops  [3]RGBA
	border RGBA
}

var (
	gainPalette = palette{
		stops:  [3]RGBA{{R: 34, G: 197, B: 94}, {R: 22, G: 163, B: 74}, {R: 21, G: 128, B: 61}},
		border: RGBA{R: 34, G: 197, B: 94},
	}
	lossPalette = palette{
		stops:  [3]RGBA{{R: 239, G: 68, B: 68}, {R: 220, G: 38, B: 38}, {R: 185, G: 28, B: 28}},
		border: RGBA{R: 239, G: 68, B: 68},
	}
)

// NeutralStyle is used for a zero (or non-finite) change.
var NeutralStyle = Style{
	Branch: BranchNeutral,
	Stops:  [3]RGBA{{R: 148, G: 163, B: 184, A: 0.4}, {R: 124, G: 139, B: 161, A: 0.5}, {R: 100, G: 116, B: 139, A: 0.6}},
	Border: RGBA{R: 148, G: 163, B: 184, A: 0.8},
	Glow:   RGBA{R: 148, G: 163, B: 184, A: 0.3},
}

// Intensity is min(|pct|/SaturationPct, 1).
func Intensity(pct float64) float64 {
	if math.IsNaN(pct) {
		return 0
	}
	return math.Min(math.Abs(pct)/SaturationPct, 1)
}

// ColorFor picks the branch by sign and scales alphas with intensity.
func ColorFor(pct float64) Style {
	if pct == 0 || math.IsNaN(pct) {
		return NeutralStyle
	}
	p, branch := gainPalette, BranchGain
	if pct < 0 {
		p, branch = lossPalette, BranchLoss
	}
	i := Intensity(pct)

	s := Style{Branch: branch, Intensity: i}
	base := [3]float64{0.4, 0.6, 0.7}
	gain := [3]float64{0.4, 0.3, 0.2}
	for k := range s.Stops {
		s.Stops[k] = p.stops[k]
		s.Stops[k].A = base[k] + i*gain[k]
	}
	s.Border = p.border
	s.Border.A = 0.7 + i*0.3
	s.Glow = p.border
	s.Glow.A = 0.3 + i*0.4
	return s
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%.3f", f)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
