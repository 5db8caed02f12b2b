package ranking_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"marketdash/internal/market"
	"marketdash/internal/ranking"
)

func asset(id, symbol, name string, rank int, mcap, vol, change float64) market.Asset {
	return market.Asset{ID: id, Symbol: symbol, Name: name, Rank: rank, MarketCapUSD: mcap, Volume24hUSD: vol, ChangePct24h: change}
}

func ids[T ranking.Rankable](items []T) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Base().ID
	}
	return out
}

func fixture() []market.Asset {
	return []market.Asset{
		asset("eth", "ETH", "Ethereum", 2, 300, 50, -1),
		asset("btc", "BTC", "Bitcoin", 1, 900, 40, 2),
		asset("bch", "BCH", "Bitcoin Cash", 4, 300, 10, 12),
		asset("xrp", "XRP", "XRP", 3, 300, 70, -0.5),
	}
}

func TestRank_MarketCapTiesByRank(t *testing.T) {
	t.Parallel()

	// Arrange
	in := fixture()
	before := append([]market.Asset(nil), in...)

	// Act
	out := ranking.Rank(in, ranking.Options{SortKey: ranking.SortMarketCap})

	// Assert: equal caps (eth, xrp, bch) come out by ascending rank.
	require.Equal(t, []string{"btc", "eth", "xrp", "bch"}, ids(out))
	require.Equal(t, before, in, "input must not be reordered")
}

func TestRank_ResortIsStable(t *testing.T) {
	t.Parallel()

	once := ranking.Rank(fixture(), ranking.Options{SortKey: ranking.SortMarketCap})
	twice := ranking.Rank(once, ranking.Options{SortKey: ranking.SortMarketCap})

	require.Equal(t, ids(once), ids(twice))
}

func TestRank_Volume(t *testing.T) {
	t.Parallel()

	out := ranking.Rank(fixture(), ranking.Options{SortKey: ranking.SortVolume})

	require.Equal(t, []string{"xrp", "eth", "btc", "bch"}, ids(out))
}

func TestRank_PriceChangeUsesActiveTimeframe(t *testing.T) {
	t.Parallel()

	// Arrange: eth has a reported 7d move larger than anyone's approximation.
	in := market.ApproximateAll(fixture())
	in[0] = market.ApproximateTimeframes(in[0].Asset.WithReportedChange(market.Timeframe7d, -90))

	// Act
	by24h := ranking.Rank(in, ranking.Options{SortKey: ranking.SortPriceChange, Timeframe: market.Timeframe24h})
	by7d := ranking.Rank(in, ranking.Options{SortKey: ranking.SortPriceChange, Timeframe: market.Timeframe7d})

	// Assert
	require.Equal(t, []string{"bch", "btc", "eth", "xrp"}, ids(by24h))
	require.Equal(t, []string{"eth", "bch", "btc", "xrp"}, ids(by7d))
}

func TestRank_QueryBeforeLimit(t *testing.T) {
	t.Parallel()

	// "bit" matches Bitcoin and Bitcoin Cash by name; bch would be cut by a
	// limit of 2 if truncation ran first.
	out := ranking.Rank(fixture(), ranking.Options{SortKey: ranking.SortMarketCap, Query: "  BiT ", Limit: 2})

	require.Equal(t, []string{"btc", "bch"}, ids(out))
}

func TestRank_QueryMatchesSymbol(t *testing.T) {
	t.Parallel()

	out := ranking.Rank(fixture(), ranking.Options{Query: "xr"})

	require.Equal(t, []string{"xrp"}, ids(out))
}

func TestRank_LimitAndUnbounded(t *testing.T) {
	t.Parallel()

	require.Len(t, ranking.Rank(fixture(), ranking.Options{Limit: 3}), 3)
	require.Len(t, ranking.Rank(fixture(), ranking.Options{}), 4)
	require.Empty(t, ranking.Rank([]market.Asset(nil), ranking.Options{Limit: ranking.HeatmapLimit}))
}

func TestRank_ByRank(t *testing.T) {
	t.Parallel()

	out := ranking.Rank(fixture(), ranking.Options{SortKey: ranking.SortRank})

	require.Equal(t, []string{"btc", "eth", "xrp", "bch"}, ids(out))
}

func TestParseSortKey(t *testing.T) {
	t.Parallel()

	k, err := ranking.ParseSortKey("VOLUME")
	require.NoError(t, err)
	require.Equal(t, ranking.SortVolume, k)

	_, err = ranking.ParseSortKey("alphabetical")
	require.Error(t, err)
}
