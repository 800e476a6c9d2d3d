package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-formengine/pkg/server"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference Schema Provider",
		Long:  "serve exposes the configured catalog, dependent option lists and an in-memory submissions table over the provider API, plus /metrics and /openapi.json.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr = addr
			}

			srv, err := a.newServer(ctx)
			if err != nil {
				return err
			}
			return a.listen(ctx, srv)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

func (a *app) newServer(ctx context.Context) (*server.Server, error) {
	orch, closer, err := a.orchestrator(ctx)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	forms, err := a.catalog(ctx, orch)
	if err != nil {
		return nil, err
	}

	options := server.OptionCatalog(a.cfg.Server.Options)
	if len(options) == 0 {
		options = server.DefaultOptions()
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return server.New(forms,
		server.WithOptions(options),
		server.WithColumns(a.cfg.Server.Columns...),
		server.WithTitle(a.cfg.Server.Title),
		server.WithLogger(a.logger),
		server.WithRegistry(registry),
	)
}

// listen serves handler until ctx is cancelled, then shuts down gracefully.
func (a *app) listen(ctx context.Context, handler http.Handler) error {
	httpServer := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("provider listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		a.logger.Info("provider shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
