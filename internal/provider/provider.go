package provider

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when the upstream has no record for the requested coin.
	ErrNotFound = errors.New("coin not found")
	// ErrRateLimited is returned when the upstream rejects a request with 429.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnauthorized is returned on 401/403 from the upstream.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnavailable is returned while a circuit breaker is refusing calls.
	ErrUnavailable = errors.New("provider unavailable")
)

// RawCoin is one coin record exactly as the upstream sent it.
// Numeric fields are kept as Scalar because the upstream mixes
// JSON strings, numbers and nulls for the same field.
type RawCoin struct {
	UUID        string     `json:"uuid"`
	Symbol      string     `json:"symbol"`
	Name        string     `json:"name"`
	IconURL     string     `json:"iconUrl"`
	Price       Scalar     `json:"price"`
	Change      Scalar     `json:"change"`
	MarketCap   Scalar     `json:"marketCap"`
	Volume24h   Scalar     `json:"24hVolume"`
	Rank        Scalar     `json:"rank"`
	Supply      *RawSupply `json:"supply,omitempty"`
	AllTimeHigh *RawATH    `json:"allTimeHigh,omitempty"`
	WebsiteURL  string     `json:"websiteUrl"`
	Description string     `json:"description"`
	// Malformed is set when the record could not be decoded at all.
	// It holds the decode error; the other fields are best effort.
	Malformed   string     `json:"malformed,omitempty"`
}

type RawSupply struct {
	Circulating Scalar `json:"circulating"`
	Total       Scalar `json:"total"`
}

type RawATH struct {
	Price     Scalar `json:"price"`
	Timestamp Scalar `json:"timestamp"`
}

// RawHistoryPoint is one sample of the upstream price history (newest-first).
type RawHistoryPoint struct {
	Timestamp Scalar `json:"timestamp"`
	Price     Scalar `json:"price"`
}

// CoinsQuery selects a page of the upstream coin listing.
type CoinsQuery struct {
	TimePeriod string
	Limit      int
	Offset     int
}

// Provider fetches raw market payloads. Implementations are transport only;
// normalization happens downstream.
type Provider interface {
	Name() string
	Coins(ctx context.Context, q CoinsQuery) ([]RawCoin, error)
	Coin(ctx context.Context, id string) (RawCoin, error)
	History(ctx context.Context, id string, period string) ([]RawHistoryPoint, error)
}
