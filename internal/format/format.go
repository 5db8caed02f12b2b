// Package format renders dashboard numbers for display.
package format

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// NotAvailable stands in for values the upstream did not report.
const NotAvailable = "N/A"

// Price formats a USD price with two fraction digits, or up to six for
// prices under one dollar.
func Price(p float64) string {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return NotAvailable
	}
	maxFrac := int32(2)
	if math.Abs(p) < 1 {
		maxFrac = 6
	}
	return currency(decimal.NewFromFloat(p), 2, maxFrac)
}

// LargeNumber abbreviates market caps and volumes as $T, $B or $M.
// Smaller values are grouped in full.
func LargeNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NotAvailable
	}
	d := decimal.NewFromFloat(v)
	abs := d.Abs()
	switch {
	case abs.GreaterThanOrEqual(decimal.New(1, 12)):
		return sign(d) + "$" + d.Abs().Div(decimal.New(1, 12)).StringFixed(2) + "T"
	case abs.GreaterThanOrEqual(decimal.New(1, 9)):
		return sign(d) + "$" + d.Abs().Div(decimal.New(1, 9)).StringFixed(2) + "B"
	case abs.GreaterThanOrEqual(decimal.New(1, 6)):
		return sign(d) + "$" + d.Abs().Div(decimal.New(1, 6)).StringFixed(2) + "M"
	}
	return currency(d, 0, 3)
}

// Supply formats a coin supply, or N/A when it is unknown.
func Supply(s *float64) string {
	if s == nil || math.IsNaN(*s) || math.IsInf(*s, 0) {
		return NotAvailable
	}
	return Number(*s, 0, 3)
}

// Percent formats a change with an explicit sign and two fraction digits.
func Percent(pct float64) string {
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return NotAvailable
	}
	s := decimal.NewFromFloat(pct).StringFixed(2)
	if pct > 0 {
		s = "+" + s
	}
	if s == "-0.00" {
		s = "0.00"
	}
	return s + "%"
}

// Symbol uppercases a ticker.
func Symbol(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

// Number groups thousands with commas and keeps between minFrac and maxFrac
// fraction digits, trimming trailing zeros beyond minFrac.
func Number(v float64, minFrac, maxFrac int32) string {
	d := decimal.NewFromFloat(v)
	return sign(d) + fixed(d.Abs(), minFrac, maxFrac)
}

func currency(d decimal.Decimal, minFrac, maxFrac int32) string {
	return sign(d) + "$" + fixed(d.Abs(), minFrac, maxFrac)
}

func sign(d decimal.Decimal) string {
	if d.Sign() < 0 {
		return "-"
	}
	return ""
}

func fixed(abs decimal.Decimal, minFrac, maxFrac int32) string {
	s := abs.StringFixed(maxFrac)
	intPart, frac, _ := strings.Cut(s, ".")
	for int32(len(frac)) > minFrac && strings.HasSuffix(frac, "0") {
		frac = frac[:len(frac)-1]
	}
	out := group(intPart)
	if frac != "" {
		out += "." + frac
	}
	return out
}

func group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
