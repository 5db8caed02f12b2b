package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"marketdash/internal/aggregate"
	"marketdash/internal/encoding"
	"marketdash/internal/market"
	"marketdash/internal/normalize"
	"marketdash/internal/provider"
	"marketdash/internal/ranking"
	"marketdash/internal/series"
)

//go:generate mockgen -package=dashboard_test -destination=mock_provider_test.go marketdash/internal/provider Provider

// PageSize is the most coins the upstream returns per listing call.
const PageSize = 100

// TopMovers caps the gainers and losers lists of a listing summary.
const TopMovers = 3

// Limits caps how many coins each view asks for.
type Limits struct {
	Home    int
	List    int
	Heatmap int
}

func DefaultLimits() Limits { return Limits{Home: 10, List: 100, Heatmap: ranking.HeatmapLimit} }

// Observer receives pipeline events. metrics.Registry satisfies it.
type Observer interface {
	ObserveFetch(op string, elapsed time.Duration, err error)
	ObserveEmpty(op string)
	ObserveStale()
}

type nopObserver struct{}

func (nopObserver) ObserveFetch(string, time.Duration, error) {}
func (nopObserver) ObserveEmpty(string)                       {}
func (nopObserver) ObserveStale()                             {}

// Service runs the fetch, normalize and encode pipeline for each view.
type Service struct {
	P          provider.Provider
	Normalizer *normalize.Normalizer
	Limits     Limits
	Log        zerolog.Logger
	Observer   Observer

	now func() time.Time
}

// NewService wires a Service with default limits and a normalizer that logs to log.
func NewService(p provider.Provider, log zerolog.Logger) *Service {
	return &Service{
		P:          p,
		Normalizer: &normalize.Normalizer{Log: log},
		Limits:     DefaultLimits(),
		Log:        log,
		now:        time.Now,
	}
}

// ListQuery selects what the list view shows.
type ListQuery struct {
	Query     string
	SortKey   ranking.SortKey
	Timeframe market.Timeframe
}

// Listing is a ranked set of assets with a summary of the visible rows.
type Listing struct {
	Assets    []market.RankedAsset `json:"assets"`
	Summary   aggregate.Summary    `json:"summary"`
	Dropped   int                  `json:"dropped"`
	FetchedAt time.Time            `json:"fetched_at"`
}

// Home lists the top coins by rank for the landing page.
func (s *Service) Home(ctx context.Context) (Listing, error) {
	return s.listing(ctx, "home", s.Limits.Home, ranking.Options{SortKey: ranking.SortRank, Timeframe: market.Timeframe24h})
}

// List is the searchable, sortable coin table.
func (s *Service) List(ctx context.Context, q ListQuery) (Listing, error) {
	opts := ranking.Options{SortKey: q.SortKey, Timeframe: q.Timeframe, Query: q.Query}
	if opts.SortKey == "" {
		opts.SortKey = ranking.SortMarketCap
	}
	if opts.Timeframe == "" {
		opts.Timeframe = market.Timeframe24h
	}
	return s.listing(ctx, "list", s.Limits.List, opts)
}

func (s *Service) listing(ctx context.Context, op string, limit int, opts ranking.Options) (Listing, error) {
	assets, dropped, err := s.fetchAssets(ctx, op, limit)
	if err != nil {
		return Listing{Dropped: dropped}, err
	}
	rows := ranking.Rank(market.ApproximateAll(assets), opts)
	return Listing{
		Assets:    rows,
		Summary:   aggregate.Summarize(rows, opts.Timeframe, TopMovers),
		Dropped:   dropped,
		FetchedAt: s.clock().UTC(),
	}, nil
}

// fetchAssets pages through the upstream listing until limit coins are read
// or a short page signals the end.
func (s *Service) fetchAssets(ctx context.Context, op string, limit int) ([]market.Asset, int, error) {
	start := s.clock()
	var (
		assets  []market.Asset
		dropped int
	)
	for offset := 0; offset < limit; offset += PageSize {
		size := min(PageSize, limit-offset)
		raws, err := s.P.Coins(ctx, provider.CoinsQuery{TimePeriod: "24h", Limit: size, Offset: offset})
		if err != nil {
			err = &FetchError{Op: op, Err: err}
			s.observer().ObserveFetch(op, s.clock().Sub(start), err)
			return nil, dropped, err
		}
		batch := s.normalizer().NormalizeBatch(raws)
		assets = append(assets, batch.Assets...)
		dropped += len(batch.Failures)
		if len(raws) < size {
			break
		}
	}
	s.observer().ObserveFetch(op, s.clock().Sub(start), nil)

	assets = aggregate.LatestByID(assets)
	if len(assets) == 0 {
		s.observer().ObserveEmpty(op)
		return nil, dropped, ErrEmptyResult
	}
	return assets, dropped, nil
}

// ViewState is everything the heatmap screen lets a user change.
type ViewState struct {
	Dimension encoding.Dimension `json:"dimension"`
	Timeframe market.Timeframe   `json:"timeframe"`
	HoveredID string             `json:"hovered_id,omitempty"`
	Query     string             `json:"query,omitempty"`
}

func (v ViewState) withDefaults() ViewState {
	if v.Dimension == "" {
		v.Dimension = encoding.DimensionMarketCap
	}
	if v.Timeframe == "" {
		v.Timeframe = market.Timeframe24h
	}
	return v
}

// Tile is one heatmap bubble.
type Tile struct {
	market.RankedAsset
	Encoding encoding.Encoded `json:"encoding"`
}

// Tooltip is the detail card shown for the hovered bubble.
type Tooltip struct {
	ID           string             `json:"id"`
	Symbol       string             `json:"symbol"`
	Name         string             `json:"name"`
	Price        float64            `json:"price"`
	ChangePct    float64            `json:"change_pct"`
	Approximated bool               `json:"approximated"`
	MarketCapUSD float64            `json:"market_cap_usd"`
	Volume24hUSD float64            `json:"volume_24h_usd"`
	Rank         int                `json:"rank"`
	Timeframe    market.Timeframe   `json:"timeframe"`
	Dimension    encoding.Dimension `json:"dimension"`
}

// HeatmapView is the rendered heatmap for one ViewState.
type HeatmapView struct {
	State     ViewState         `json:"state"`
	Legend    string            `json:"legend"`
	Tiles     []Tile            `json:"tiles"`
	Hovered   *Tooltip          `json:"hovered,omitempty"`
	Summary   aggregate.Summary `json:"summary"`
	Dropped   int               `json:"dropped"`
	FetchedAt time.Time         `json:"fetched_at"`
}

// Heatmap ranks by the chosen dimension, truncates and encodes the visible set.
func (s *Service) Heatmap(ctx context.Context, vs ViewState) (HeatmapView, error) {
	vs = vs.withDefaults()
	assets, dropped, err := s.fetchAssets(ctx, "heatmap", s.Limits.Heatmap)
	if err != nil {
		return HeatmapView{State: vs, Dropped: dropped}, err
	}
	return BuildHeatmap(market.ApproximateAll(assets), vs, s.Limits.Heatmap, dropped, s.clock().UTC()), nil
}

// BuildHeatmap is the pure part of Heatmap.
func BuildHeatmap(assets []market.RankedAsset, vs ViewState, limit, dropped int, at time.Time) HeatmapView {
	vs = vs.withDefaults()
	visible := ranking.Rank(assets, ranking.Options{
		SortKey:   sortKeyFor(vs.Dimension),
		Timeframe: vs.Timeframe,
		Query:     vs.Query,
		Limit:     limit,
	})
	enc := encoding.Encode(visible, vs.Dimension, vs.Timeframe)
	tiles := make([]Tile, len(visible))
	for i := range visible {
		tiles[i] = Tile{RankedAsset: visible[i], Encoding: enc[i]}
	}
	v := HeatmapView{
		State:     vs,
		Legend:    fmt.Sprintf("%s · %s", vs.Dimension.Label(), vs.Timeframe.Label()),
		Tiles:     tiles,
		Summary:   aggregate.Summarize(visible, vs.Timeframe, TopMovers),
		Dropped:   dropped,
		FetchedAt: at,
	}
	v.Hovered = v.Tooltip(vs.HoveredID)
	return v
}

// Tooltip returns the card for id, or nil when id is not visible.
func (v HeatmapView) Tooltip(id string) *Tooltip {
	if id == "" {
		return nil
	}
	for _, t := range v.Tiles {
		if t.ID != id {
			continue
		}
		return &Tooltip{
			ID:           t.ID,
			Symbol:       t.Symbol,
			Name:         t.Name,
			Price:        t.Price,
			ChangePct:    t.ChangePct(v.State.Timeframe),
			Approximated: t.Approximated.Has(v.State.Timeframe),
			MarketCapUSD: t.MarketCapUSD,
			Volume24hUSD: t.Volume24hUSD,
			Rank:         t.Rank,
			Timeframe:    v.State.Timeframe,
			Dimension:    v.State.Dimension,
		}
	}
	return nil
}

func sortKeyFor(d encoding.Dimension) ranking.SortKey {
	switch d {
	case encoding.DimensionVolume:
		return ranking.SortVolume
	case encoding.DimensionChangeMagnitude:
		return ranking.SortPriceChange
	}
	return ranking.SortMarketCap
}

// DetailView is one coin's page: the asset and its weekly chart.
type DetailView struct {
	Asset market.RankedAsset `json:"asset"`
	Week  series.Series      `json:"week"`
	Range series.Range       `json:"range"`
}

// Detail fetches a coin and its 7 day history concurrently. When the history
// has at least two points its net change replaces the approximated 7d change.
func (s *Service) Detail(ctx context.Context, id string) (DetailView, error) {
	start := s.clock()
	var (
		raw  provider.RawCoin
		hist []provider.RawHistoryPoint
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		raw, err = s.P.Coin(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		hist, err = s.P.History(gctx, id, series.Range7d.TimePeriod())
		return err
	})
	if err := g.Wait(); err != nil {
		err = &FetchError{Op: "detail", Err: err}
		s.observer().ObserveFetch("detail", s.clock().Sub(start), err)
		return DetailView{}, err
	}
	s.observer().ObserveFetch("detail", s.clock().Sub(start), nil)

	asset, err := s.normalizer().Normalize(raw)
	if err != nil {
		s.observer().ObserveEmpty("detail")
		return DetailView{}, fmt.Errorf("%w: %w", ErrEmptyResult, err)
	}
	week := series.Assemble(hist)
	if len(week.Points) >= 2 {
		asset = asset.WithReportedChange(market.Timeframe7d, week.NetChangePct)
	}
	return DetailView{Asset: market.ApproximateTimeframes(asset), Week: week, Range: series.Range7d}, nil
}

// ChartView is one coin's price series for a chart window.
type ChartView struct {
	ID     string        `json:"id"`
	Range  series.Range  `json:"range"`
	Label  string        `json:"label"`
	Series series.Series `json:"series"`
}

// Chart fetches the history of id over r. An empty series is not an error.
func (s *Service) Chart(ctx context.Context, id string, r series.Range) (ChartView, error) {
	if r == "" {
		r = series.Range7d
	}
	start := s.clock()
	raw, err := s.P.History(ctx, id, r.TimePeriod())
	if err != nil {
		err = &FetchError{Op: "chart", Err: err}
		s.observer().ObserveFetch("chart", s.clock().Sub(start), err)
		return ChartView{ID: id, Range: r, Label: r.Label()}, err
	}
	s.observer().ObserveFetch("chart", s.clock().Sub(start), nil)
	ser := series.Assemble(raw)
	if ser.Empty() {
		s.Log.Debug().Str("id", id).Str("range", string(r)).Int("dropped", ser.Dropped).Msg("empty price series")
	}
	return ChartView{ID: id, Range: r, Label: r.Label(), Series: ser}, nil
}

func (s *Service) observer() Observer {
	if s.Observer == nil {
		return nopObserver{}
	}
	return s.Observer
}

func (s *Service) normalizer() *normalize.Normalizer {
	if s.Normalizer == nil {
		return &normalize.Normalizer{Log: s.Log}
	}
	return s.Normalizer
}

func (s *Service) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}
