package series_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"marketdash/internal/market"
	"marketdash/internal/provider"
	"marketdash/internal/series"
)

func point(ts, price string) provider.RawHistoryPoint {
	return provider.RawHistoryPoint{Timestamp: provider.S(ts), Price: provider.S(price)}
}

func TestAssemble_Example(t *testing.T) {
	t.Parallel()

	// Act
	s := series.Assemble([]provider.RawHistoryPoint{point("1000", "100"), point("900", "90")})

	// Assert
	require.Equal(t, []market.PricePoint{{TimestampMs: 900000, Price: 90}, {TimestampMs: 1000000, Price: 100}}, s.Points)
	require.InDelta(t, 11.1111111, s.NetChangePct, 1e-6)
	require.Equal(t, (100.0-90.0)/90.0*100, s.NetChangePct)
	require.False(t, s.Empty())
}

func TestAssemble_SinglePointHasNoChange(t *testing.T) {
	t.Parallel()

	s := series.Assemble([]provider.RawHistoryPoint{point("1700000000", "42")})

	require.Len(t, s.Points, 1)
	require.Equal(t, 0.0, s.NetChangePct)
}

func TestAssemble_DropsUnparsablePrices(t *testing.T) {
	t.Parallel()

	// Arrange: the upstream sends null prices for gaps.
	var raw []provider.RawHistoryPoint
	require.NoError(t, json.Unmarshal([]byte(`[
		{"timestamp":1700000300,"price":"110"},
		{"timestamp":1700000200,"price":null},
		{"timestamp":1700000100,"price":"abc"},
		{"timestamp":1700000000,"price":"100"}
	]`), &raw))

	// Act
	s := series.Assemble(raw)

	// Assert
	require.Len(t, s.Points, 2)
	require.Equal(t, 2, s.Dropped)
	require.Equal(t, int64(1700000000000), s.Points[0].TimestampMs)
	require.InDelta(t, 10.0, s.NetChangePct, 1e-9)
}

func TestAssemble_DropsOutOfRangeTimestamps(t *testing.T) {
	t.Parallel()

	// Act: the first timestamp would overflow once scaled to milliseconds.
	s := series.Assemble([]provider.RawHistoryPoint{
		point("9300000000000000", "100"), point("1000", "95"), point("900", "90"),
	})

	// Assert
	require.Equal(t, 1, s.Dropped)
	require.Equal(t, []market.PricePoint{{TimestampMs: 900000, Price: 90}, {TimestampMs: 1000000, Price: 95}}, s.Points)
	require.InDelta(t, 5.5555556, s.NetChangePct, 1e-6)

	// The largest representable second is still kept.
	edge := series.Assemble([]provider.RawHistoryPoint{point("9223372036854775", "1")})
	require.Zero(t, edge.Dropped)
	require.Equal(t, int64(9223372036854775000), edge.Points[0].TimestampMs)
}

func TestAssemble_AllDroppedIsEmpty(t *testing.T) {
	t.Parallel()

	s := series.Assemble([]provider.RawHistoryPoint{{Timestamp: provider.S("1")}, point("2", "x")})

	require.True(t, s.Empty())
	require.Equal(t, 0.0, s.NetChangePct)

	require.True(t, series.Assemble(nil).Empty())
}

func TestAssemble_NonDecreasingTimestamps(t *testing.T) {
	t.Parallel()

	// Arrange: not quite newest-first, with a duplicate timestamp.
	s := series.Assemble([]provider.RawHistoryPoint{
		point("50", "5"), point("40", "4"), point("45", "4.5"), point("40", "4.1"), point("10", "1"),
	})

	for i := 1; i < len(s.Points); i++ {
		require.LessOrEqual(t, s.Points[i-1].TimestampMs, s.Points[i].TimestampMs)
	}
	require.Equal(t, int64(10000), s.Points[0].TimestampMs)
	require.Equal(t, int64(50000), s.Points[len(s.Points)-1].TimestampMs)
}

func TestNetChangePct_ZeroFirstPrice(t *testing.T) {
	t.Parallel()

	require.Equal(t, 0.0, series.NetChangePct([]market.PricePoint{{Price: 0}, {Price: 10}}))
}

func TestParseRange(t *testing.T) {
	t.Parallel()

	r, err := series.ParseRange("90")
	require.NoError(t, err)
	require.Equal(t, series.Range90d, r)
	require.Equal(t, "3m", r.TimePeriod())
	require.Equal(t, "24h", series.Range24h.TimePeriod())

	_, err = series.ParseRange("5y")
	require.Error(t, err)
}
