// Package cli implements the beesync command tree
package cli

import (
	"context"
	"fmt"
	"slices"

	"beesync/internal/platform/config"
	"beesync/internal/platform/logger"
	"beesync/internal/platform/store"
	"beesync/internal/services/api"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

// RootOptions holds flags shared by every command
type RootOptions struct {
	Verbose bool
	Format  string // text | json

	// open builds the runtime; tests replace it
	open func(ctx context.Context) (*env, error)
}

var validFormats = []string{"text", "json"}

// NewRootCommand creates the beesync command tree
func NewRootCommand() *cobra.Command { return newRootCommand(&RootOptions{open: openEnv}) }

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "beesync",
		Short: "Sync health samples into goal ledger datapoints",
		Long: `beesync aggregates exported health samples per goal day and reconciles
the results with the goal's datapoints on the ledger.

Settings come from the environment: LEDGER_*, STORE_*, AUTODATA_*, POLLER_*,
DATAPOINTS_*, API_* and LOG_*.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}
			lo := logger.FromEnv()
			if opts.Verbose {
				lo.Level = "debug"
			}
			logger.Init(lo)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(newSyncCommand(opts))
	cmd.AddCommand(newWatchCommand(opts))
	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newPollCommand(opts))
	cmd.AddCommand(newGoalsCommand(opts))
	cmd.AddCommand(newMetricsCommand(opts))
	return cmd
}

func (o *RootOptions) out(cmd *cobra.Command) printer {
	return printer{w: cmd.OutOrStdout(), json: o.Format == "json"}
}

// env is the runtime a command works against
type env struct {
	cfg   config.Conf
	store *store.Store
	reg   *prometheus.Registry
	app   *api.App
}

func openEnv(ctx context.Context) (*env, error) {
	cfg := config.New()
	st, err := store.Open(ctx, store.FromConf(cfg), store.WithLogger(*logger.Get()))
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app, err := api.New(ctx, api.Options{Config: cfg, Store: st, Metrics: reg})
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return &env{cfg: cfg, store: st, reg: reg, app: app}, nil
}

func (e *env) close() {
	if e.app != nil {
		e.app.Close()
	}
	if err := e.store.Close(); err != nil {
		logger.Get().Error().Err(err).Msg("failed to close store")
	}
}

// withEnv opens the runtime for the duration of fn
func (o *RootOptions) withEnv(cmd *cobra.Command, fn func(ctx context.Context, e *env) error) error {
	ctx := cmd.Context()
	e, err := o.open(ctx)
	if err != nil {
		return err
	}
	defer e.close()
	return fn(ctx, e)
}
