package cli

import (
	"context"

	"beesync/internal/platform/logger"
	phttp "beesync/internal/platform/net/http"
	"beesync/internal/platform/net/middleware"
	"beesync/internal/services/api"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type serveOptions struct {
	*RootOptions
	NoSync bool
}

func newServeCommand(root *RootOptions) *cobra.Command {
	opts := &serveOptions{RootOptions: root}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and keep goals in sync",
		Long: `Serve /healthz, /readyz, /version, /metrics and the /v1 API on API_PORT.
Unless --no-sync is given, connected goals are synced every AUTODATA_INTERVAL
and whenever the sample export changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withEnv(cmd, func(ctx context.Context, e *env) error {
				return serve(ctx, e, !opts.NoSync)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.NoSync, "no-sync", false, "serve the API without background syncs")
	return cmd
}

func serve(ctx context.Context, e *env, sync bool) error {
	log := logger.Named("serve")
	apiCfg := e.cfg.Prefix("API_")

	srv := phttp.NewServer(e.cfg, func(m *chi.Mux) { m.Use(middleware.Defaults()...) })
	e.app.Mount(srv.Router(), api.MountOptions{
		Token:          apiCfg.MayString("TOKEN", ""),
		CORSOrigins:    apiCfg.MayCSV("CORS_ORIGINS", nil),
		MetricsHandler: promhttp.HandlerFor(e.reg, promhttp.HandlerOpts{}),
	})

	if _, err := e.app.GoalsPort.RefreshAll(ctx); err != nil {
		log.Warn().Err(err).Msg("initial goal refresh failed; serving cached goals")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })
	if sync {
		g.Go(func() error { return e.app.Autodata.Run(ctx) })
	}
	return g.Wait()
}

func newPollCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Refresh queued goals until the ledger has settled them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.withEnv(cmd, func(ctx context.Context, e *env) error {
				if err := e.app.PollerPort.Poll(ctx); err != nil {
					return err
				}
				return root.out(cmd).poller(e.app.PollerPort.Status())
			})
		},
	}
}
