package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"marketdash/internal/config"
	"marketdash/internal/logging"
)

const version = "v0.4.0"

// globals are the persistent flags shared by every subcommand.
type globals struct {
	configPath string
	logLevel   string
	pretty     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "marketdash",
		Short:         "Crypto market dashboard backend",
		Long:          "marketdash fetches coin quotes from Coinranking and serves them as lists, detail pages and a heatmap.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	addGlobalFlags(root.PersistentFlags(), g)

	root.AddCommand(
		newServeCmd(g),
		newCoinsCmd(g),
		newHeatmapCmd(g),
		newCoinCmd(g),
		newHistoryCmd(g),
		newWatchCmd(g),
	)
	return root
}

func addGlobalFlags(fs *pflag.FlagSet, g *globals) {
	fs.StringVarP(&g.configPath, "config", "c", os.Getenv("CONFIG_FILE"), "config file (.json, .yaml or .yml)")
	fs.StringVar(&g.logLevel, "log-level", "", "log level override (debug|info|warn|error)")
	fs.BoolVar(&g.pretty, "pretty", false, "human-readable console logs")
}

// load reads config and builds the logger, applying flag overrides.
func (g *globals) load() (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return cfg, zerolog.Nop(), fmt.Errorf("config: %w", err)
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.pretty {
		cfg.Log.Pretty = true
	}
	return cfg, logging.New(cfg.Log.Level, cfg.Log.Pretty), nil
}

func newServeCmd(g *globals) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := g.load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st, err := buildStack(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer st.close()

			srv := &http.Server{
				Addr: ":" + cfg.Server.Port,
				Handler: newRouter(&server{
					svc:     st.svc,
					metrics: st.metrics,
					log:     log,
					timeout: time.Duration(cfg.Server.RequestTimeoutSec) * time.Second,
				}),
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       15 * time.Second,
				WriteTimeout:      20 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				log.Info().Str("addr", srv.Addr).Msg("server listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
				close(errc)
			}()

			// graceful shutdown
			select {
			case err := <-errc:
				return fmt.Errorf("server: %w", err)
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(max(cfg.Server.ShutdownSec, 1))*time.Second)
			defer cancel()
			log.Info().Msg("shutting down")
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides config and PORT)")
	return cmd
}
