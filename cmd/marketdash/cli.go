package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"marketdash/internal/dashboard"
	"marketdash/internal/encoding"
	"marketdash/internal/format"
	"marketdash/internal/market"
	"marketdash/internal/ranking"
	"marketdash/internal/series"
)

// runWithStack loads config, builds the provider stack and runs fn with a
// signal-aware context.
func runWithStack(cmd *cobra.Command, g *globals, fn func(ctx context.Context, st *stack) error) error {
	cfg, log, err := g.load()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	st, err := buildStack(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()
	return fn(ctx, st)
}

func newCoinsCmd(g *globals) *cobra.Command {
	var (
		query, sortKey, timeframe string
		limit                     int
		asJSON                    bool
	)
	cmd := &cobra.Command{
		Use:   "coins",
		Short: "Print the coin list",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := ranking.ParseSortKey(sortKey)
			if err != nil {
				return err
			}
			tf, err := market.ParseTimeframe(timeframe)
			if err != nil {
				return err
			}
			return runWithStack(cmd, g, func(ctx context.Context, st *stack) error {
				if limit > 0 {
					st.svc.Limits.List = limit
				}
				list, err := st.svc.List(ctx, dashboard.ListQuery{Query: query, SortKey: key, Timeframe: tf})
				if err != nil {
					return emptyOK(cmd.OutOrStdout(), err)
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), list)
				}
				printListing(cmd.OutOrStdout(), list, tf)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by name or symbol")
	cmd.Flags().StringVarP(&sortKey, "sort", "s", "market_cap", "sort key (market_cap|volume|price_change|rank)")
	cmd.Flags().StringVarP(&timeframe, "timeframe", "t", "24h", "change timeframe (1h|24h|7d|30d)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "coins to fetch (defaults to the list view limit)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newHeatmapCmd(g *globals) *cobra.Command {
	var (
		vs     viewFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "heatmap",
		Short: "Print the heatmap bubbles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := vs.state()
			if err != nil {
				return err
			}
			return runWithStack(cmd, g, func(ctx context.Context, st *stack) error {
				view, err := st.svc.Heatmap(ctx, state)
				if err != nil {
					return emptyOK(cmd.OutOrStdout(), err)
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), view)
				}
				printHeatmap(cmd.OutOrStdout(), view)
				return nil
			})
		},
	}
	vs.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newCoinCmd(g *globals) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "coin <id>",
		Short: "Print one coin's detail page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithStack(cmd, g, func(ctx context.Context, st *stack) error {
				d, err := st.svc.Detail(ctx, args[0])
				if err != nil {
					return emptyOK(cmd.OutOrStdout(), err)
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), d)
				}
				printDetail(cmd.OutOrStdout(), d)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newHistoryCmd(g *globals) *cobra.Command {
	var (
		rangeFlag string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "history <id>",
		Short: "Print one coin's price history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rng, err := series.ParseRange(rangeFlag)
			if err != nil {
				return err
			}
			return runWithStack(cmd, g, func(ctx context.Context, st *stack) error {
				chart, err := st.svc.Chart(ctx, args[0], rng)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), chart)
				}
				printChart(cmd.OutOrStdout(), chart)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&rangeFlag, "range", "r", "7d", "chart window (24h|7d|30d|90d|1y)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newWatchCmd(g *globals) *cobra.Command {
	var (
		vs       viewFlags
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh the heatmap on an interval",
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := vs.state()
			if err != nil {
				return err
			}
			if interval <= 0 {
				return errors.New("interval must be positive")
			}
			return runWithStack(cmd, g, func(ctx context.Context, st *stack) error {
				board := dashboard.NewBoard(st.svc)
				defer board.Close()
				return watch(ctx, cmd.OutOrStdout(), board, state, interval)
			})
		},
	}
	vs.register(cmd)
	cmd.Flags().DurationVarP(&interval, "interval", "i", 30*time.Second, "refresh interval")
	return cmd
}

// watch refreshes until ctx ends. Failed refreshes keep the last view on
// screen and are retried on the next tick.
func watch(ctx context.Context, out io.Writer, board *dashboard.Board, state dashboard.ViewState, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		view, err := board.Refresh(ctx, state)
		switch {
		case err == nil:
			printHeatmap(out, view)
		case errors.Is(err, dashboard.ErrStale):
		case errors.Is(err, dashboard.ErrEmptyResult):
			fmt.Fprintln(out, "no displayable coins")
		case ctx.Err() != nil:
			return nil
		default:
			fmt.Fprintf(out, "refresh failed (retryable=%t): %v\n", dashboard.IsRetryable(err), err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

// viewFlags binds the heatmap ViewState to command flags.
type viewFlags struct {
	dimension, timeframe, hovered, query string
}

func (v *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&v.dimension, "dimension", "d", "market_cap", "bubble size dimension (market_cap|volume|price_change)")
	cmd.Flags().StringVarP(&v.timeframe, "timeframe", "t", "24h", "change timeframe (1h|24h|7d|30d)")
	cmd.Flags().StringVar(&v.hovered, "hover", "", "coin id to show the tooltip for")
	cmd.Flags().StringVarP(&v.query, "query", "q", "", "filter by name or symbol")
}

func (v *viewFlags) state() (dashboard.ViewState, error) {
	dim, err := encoding.ParseDimension(v.dimension)
	if err != nil {
		return dashboard.ViewState{}, err
	}
	tf, err := market.ParseTimeframe(v.timeframe)
	if err != nil {
		return dashboard.ViewState{}, err
	}
	return dashboard.ViewState{Dimension: dim, Timeframe: tf, HoveredID: v.hovered, Query: v.query}, nil
}

func emptyOK(out io.Writer, err error) error {
	if errors.Is(err, dashboard.ErrEmptyResult) {
		fmt.Fprintln(out, "no displayable coins")
		return nil
	}
	return err
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func printListing(out io.Writer, l dashboard.Listing, tf market.Timeframe) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "#\tSYMBOL\tNAME\tPRICE\t%s\tMARKET CAP\tVOLUME 24H\t\n", tf.Label())
	for _, a := range l.Assets {
		change := format.Percent(a.ChangePct(tf))
		if a.Approximated.Has(tf) {
			change += "~"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			a.Rank, format.Symbol(a.Symbol), a.Name, format.Price(a.Price), change,
			format.LargeNumber(a.MarketCapUSD), format.LargeNumber(a.Volume24hUSD))
	}
	_ = tw.Flush()
	s := l.Summary
	fmt.Fprintf(out, "\n%d coins  cap %s  vol %s  up %d  down %d  flat %d  avg %s\n",
		s.Count, format.LargeNumber(s.TotalMarketCap), format.LargeNumber(s.TotalVolume),
		s.Gainers, s.Losers, s.Unchanged, format.Percent(s.AvgChangePct))
	if l.Dropped > 0 {
		fmt.Fprintf(out, "%d malformed records skipped\n", l.Dropped)
	}
}

func printHeatmap(out io.Writer, v dashboard.HeatmapView) {
	fmt.Fprintf(out, "%s  (%s)\n", v.Legend, v.FetchedAt.Format(time.RFC3339))
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tSIZE\tCHANGE\tCOLOR\t")
	for _, t := range v.Tiles {
		mark := ""
		if t.Encoding.HighChange {
			mark = " !"
		}
		fmt.Fprintf(tw, "%s\t%.0f\t%s\t%s%s\t\n",
			format.Symbol(t.Symbol), t.Encoding.Size, format.Percent(t.Encoding.ChangePct),
			t.Encoding.Color.Background(), mark)
	}
	_ = tw.Flush()
	if h := v.Hovered; h != nil {
		fmt.Fprintf(out, "\n%s (%s)  %s  %s %s  cap %s  vol %s  #%d\n",
			h.Name, format.Symbol(h.Symbol), format.Price(h.Price), h.Timeframe.Label(),
			format.Percent(h.ChangePct), format.LargeNumber(h.MarketCapUSD), format.LargeNumber(h.Volume24hUSD), h.Rank)
	}
}

func printDetail(out io.Writer, d dashboard.DetailView) {
	a := d.Asset
	fmt.Fprintf(out, "%s (%s)  #%d\n%s\n\n", a.Name, format.Symbol(a.Symbol), a.Rank, a.Description)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Price\t%s\t\n", format.Price(a.Price))
	for _, tf := range market.Timeframes {
		label := "Change " + tf.Label()
		if a.Approximated.Has(tf) {
			label += " (est.)"
		}
		fmt.Fprintf(tw, "%s\t%s\t\n", label, format.Percent(a.ChangePct(tf)))
	}
	fmt.Fprintf(tw, "Market cap\t%s\t\n", format.LargeNumber(a.MarketCapUSD))
	fmt.Fprintf(tw, "Volume 24h\t%s\t\n", format.LargeNumber(a.Volume24hUSD))
	fmt.Fprintf(tw, "Circulating supply\t%s\t\n", format.Supply(a.CirculatingSupply))
	fmt.Fprintf(tw, "Total supply\t%s\t\n", format.Supply(a.TotalSupply))
	fmt.Fprintf(tw, "All-time high\t%s%s\t\n", format.Price(a.ATHUSD), estimated(a.ATHEstimated))
	fmt.Fprintf(tw, "All-time low\t%s%s\t\n", format.Price(a.ATLUSD), estimated(a.ATLEstimated))
	fmt.Fprintf(tw, "Website\t%s\t\n", a.HomepageURL)
	_ = tw.Flush()
	fmt.Fprintf(out, "\n7D: %d points, %s\n", len(d.Week.Points), format.Percent(d.Week.NetChangePct))
}

func printChart(out io.Writer, c dashboard.ChartView) {
	if c.Series.Empty() {
		fmt.Fprintf(out, "%s %s: no price data\n", c.ID, c.Label)
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, p := range c.Series.Points {
		fmt.Fprintf(tw, "%s\t%s\t\n", time.UnixMilli(p.TimestampMs).UTC().Format(time.RFC3339), format.Price(p.Price))
	}
	_ = tw.Flush()
	fmt.Fprintf(out, "%s %s: %s over %d points\n", c.ID, c.Label, format.Percent(c.Series.NetChangePct), len(c.Series.Points))
}

func estimated(b bool) string {
	if b {
		return " (est.)"
	}
	return ""
}
