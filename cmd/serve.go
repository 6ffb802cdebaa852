package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/angeloszaimis/api-health-checker/internal/endpoint"
	"github.com/angeloszaimis/api-health-checker/internal/handler"
	"github.com/angeloszaimis/api-health-checker/internal/healthcheck"
	"github.com/angeloszaimis/api-health-checker/internal/httpserver"
	"github.com/angeloszaimis/api-health-checker/internal/metrics"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve health checks over HTTP and WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return a.serve(ctx)
		},
	}

	cmd.Flags().String("addr", "", "listen address (default :8080)")
	mustBindFlags(cmd.Flags(), a.v, map[string]string{
		"addr": "server.address",
	})

	return cmd
}

func (a *app) serve(ctx context.Context) error {
	collector := metrics.NewCollector(a.cfg.Metrics.BufferSize, a.log)
	collector.Start(ctx)

	srv, err := httpserver.New(a.cfg.Server.Address, a.setupRouter(collector))
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("Serving health checks", slog.String("addr", srv.Addr()))
		return srv.Start()
	})

	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("Shutting down gracefully...")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func (a *app) setupRouter(collector *metrics.Collector) http.Handler {
	limit := handler.RateLimit{
		RPS:   a.cfg.Server.RateLimit.RPS,
		Burst: a.cfg.Server.RateLimit.Burst,
	}
	return handler.NewAPI(a.log, a.doc, a.runner(collector), collector, limit).Routes()
}

// runner starts runs whose probes are recorded by collector under the
// environment they were requested for.
func (a *app) runner(collector *metrics.Collector) handler.Runner {
	return func(ctx context.Context, env string, endpoints []endpoint.Endpoint) <-chan healthcheck.Event {
		var observer func(healthcheck.Event)
		if collector != nil {
			observer = collector.Observer(env)
		}
		return a.newEngine(observer).RunAll(ctx, endpoints)
	}
}
