package normalize

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"marketdash/internal/market"
	"marketdash/internal/provider"
)

// Multipliers used to synthesize extrema the upstream does not supply.
const (
	ATHFromPriceFactor = 1.5
	ATLFromPriceFactor = 0.1
)

var (
	ErrMissing     = errors.New("missing value")
	ErrNotFinite   = errors.New("value is not finite")
	ErrNegative    = errors.New("value is negative")
	ErrNotPositive = errors.New("value must be a positive integer")
	ErrDuplicateID = errors.New("duplicate id in batch")
	ErrMalformed   = errors.New("malformed record")
)

// NormalizationError reports why a single raw record was dropped.
type NormalizationError struct {
	Index  int    `json:"index"`
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Field  string `json:"field"`
	Err    error  `json:"-"`
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize record %d (id=%q symbol=%q): %s: %v", e.Index, e.ID, e.Symbol, e.Field, e.Err)
}

func (e *NormalizationError) Unwrap() error { return e.Err }

// Batch is the outcome of normalizing one upstream listing.
type Batch struct {
	Assets   []market.Asset
	Failures []*NormalizationError
}

// Empty reports whether nothing usable survived normalization.
func (b Batch) Empty() bool { return len(b.Assets) == 0 }

// Normalizer turns raw upstream coins into market.Assets.
// The zero value is ready to use and logs nothing.
type Normalizer struct {
	Log zerolog.Logger
	// OnFailure, when set, is called for every dropped record.
	OnFailure func(*NormalizationError)
}

// Normalize maps one raw record. It never panics on malformed input.
func (n *Normalizer) Normalize(raw provider.RawCoin) (market.Asset, error) {
	a, err := normalize(raw)
	if err != nil {
		var ne *NormalizationError
		if errors.As(err, &ne) {
			n.report(ne)
		}
		return market.Asset{}, err
	}
	return a, nil
}

// NormalizeBatch maps every record, isolating failures per record.
func (n *Normalizer) NormalizeBatch(raws []provider.RawCoin) Batch {
	b := Batch{Assets: make([]market.Asset, 0, len(raws))}
	seen := make(map[string]struct{}, len(raws))
	for i, raw := range raws {
		a, err := normalize(raw)
		if err == nil {
			if _, dup := seen[a.ID]; dup {
				err = &NormalizationError{ID: raw.UUID, Symbol: raw.Symbol, Field: "uuid", Err: ErrDuplicateID}
			}
		}
		if err != nil {
			var ne *NormalizationError
			if !errors.As(err, &ne) {
				ne = &NormalizationError{ID: raw.UUID, Symbol: raw.Symbol, Field: "record", Err: err}
			}
			ne.Index = i
			n.report(ne)
			b.Failures = append(b.Failures, ne)
			continue
		}
		seen[a.ID] = struct{}{}
		b.Assets = append(b.Assets, a)
	}
	if len(b.Failures) > 0 {
		n.Log.Info().Int("kept", len(b.Assets)).Int("dropped", len(b.Failures)).Msg("normalized batch with dropped records")
	}
	return b
}

func (n *Normalizer) report(ne *NormalizationError) {
	n.Log.Warn().Err(ne.Err).Str("id", ne.ID).Str("symbol", ne.Symbol).Str("field", ne.Field).Msg("dropping unnormalizable record")
	if n.OnFailure != nil {
		n.OnFailure(ne)
	}
}

func normalize(raw provider.RawCoin) (market.Asset, error) {
	fail := func(field string, err error) (market.Asset, error) {
		return market.Asset{}, &NormalizationError{ID: raw.UUID, Symbol: raw.Symbol, Field: field, Err: err}
	}

	if raw.Malformed != "" {
		return fail("record", fmt.Errorf("%w: %s", ErrMalformed, raw.Malformed))
	}

	id := strings.TrimSpace(raw.UUID)
	if id == "" {
		return fail("uuid", ErrMissing)
	}

	price, err := parseNonNegative(raw.Price)
	if err != nil {
		return fail("price", err)
	}
	change, err := parseDecimal(raw.Change)
	if err != nil {
		return fail("change", err)
	}
	marketCap, err := parseNonNegative(raw.MarketCap)
	if err != nil {
		return fail("marketCap", err)
	}
	volume, err := parseNonNegative(raw.Volume24h)
	if err != nil {
		return fail("24hVolume", err)
	}
	rank, err := parseRank(raw.Rank)
	if err != nil {
		return fail("rank", err)
	}

	symbol := raw.Symbol
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		name = FallbackName(symbol)
	}

	a := market.Asset{
		ID:           id,
		Symbol:       symbol,
		Name:         name,
		ImageURL:     imageURL(raw.IconURL, symbol),
		Price:        price,
		Rank:         rank,
		ChangePct24h: change,
		MarketCapUSD: marketCap,
		Volume24hUSD: volume,
		ATLUSD:       price * ATLFromPriceFactor,
		ATLEstimated: true,
		Description:  raw.Description,
		HomepageURL:  raw.WebsiteURL,
	}

	if raw.Supply != nil {
		a.CirculatingSupply = parseOptional(raw.Supply.Circulating)
		a.TotalSupply = parseOptional(raw.Supply.Total)
	}

	// A zero ATH is as useless as a missing one.
	var ath *float64
	if raw.AllTimeHigh != nil {
		ath = parseOptional(raw.AllTimeHigh.Price)
	}
	if ath != nil && *ath > 0 {
		a.ATHUSD = *ath
	} else {
		a.ATHUSD = price * ATHFromPriceFactor
		a.ATHEstimated = true
	}

	if strings.TrimSpace(a.Description) == "" {
		a.Description = FallbackDescription(name)
	}
	if strings.TrimSpace(a.HomepageURL) == "" {
		a.HomepageURL = PlaceholderHomepage
	}
	return a, nil
}

func imageURL(icon, symbol string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		if u, err := url.Parse(icon); err == nil && u.IsAbs() && u.Host != "" {
			return icon
		}
	}
	return FallbackImage(symbol)
}

// parseDecimal is the strict parser for required numeric fields.
func parseDecimal(s provider.Scalar) (float64, error) {
	if !s.Valid || strings.TrimSpace(s.Text) == "" {
		return 0, ErrMissing
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s.Text))
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrNotFinite
	}
	return f, nil
}

func parseNonNegative(s provider.Scalar) (float64, error) {
	f, err := parseDecimal(s)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, ErrNegative
	}
	return f, nil
}

func parseRank(s provider.Scalar) (int, error) {
	if !s.Valid || strings.TrimSpace(s.Text) == "" {
		return 0, ErrMissing
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s.Text))
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() || !d.IsPositive() || d.GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
		return 0, ErrNotPositive
	}
	return int(d.IntPart()), nil
}

// parseOptional yields nil for anything that is absent, unparsable,
// non-finite or negative.
func parseOptional(s provider.Scalar) *float64 {
	f, err := parseNonNegative(s)
	if err != nil {
		return nil
	}
	return &f
}
