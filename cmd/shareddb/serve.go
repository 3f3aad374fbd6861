package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kubev2v/shareddb/internal/config"
	"github.com/kubev2v/shareddb/internal/handlers"
	"github.com/kubev2v/shareddb/internal/metrics"
	"github.com/kubev2v/shareddb/internal/registry"
	"github.com/kubev2v/shareddb/internal/server"
	"github.com/kubev2v/shareddb/internal/services"
	"github.com/kubev2v/shareddb/internal/settings"
	"github.com/kubev2v/shareddb/internal/store"
	"github.com/kubev2v/shareddb/internal/store/migrations"
)

func newServeCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the API over the configured databases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfiguration(cmd, v)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			zap.ReplaceGlobals(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	cmd.Flags().Int("http-port", 8000, "port the API listens on")
	cmd.Flags().String("mode", config.ServerModeDev, "server mode (dev or prod)")
	bindFlags(v, cmd.Flags(), map[string]string{
		"http-port": "server.http_port",
		"mode":      "server.mode",
	})
	return cmd
}

func serve(ctx context.Context, cfg *config.Configuration) error {
	log := zap.S().Named("serve")
	log.Infow("starting shareddb", "version", version, "configuration", cfg.DebugMap())

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	queueMetrics, err := metrics.NewQueueMetrics("", reg)
	if err != nil {
		return err
	}

	databases := settings.Patch(cfg.Databases, cfg.Delegation.Whitelist, cfg.Delegation.Blacklist)
	dbs := registry.New(databases, registry.WithMetrics(queueMetrics))
	defer func() {
		if err := dbs.Close(); err != nil {
			log.Errorw("failed to close databases", "error", err)
		}
	}()

	h, err := dbs.Get(ctx, config.DefaultAlias)
	if err != nil {
		return fmt.Errorf("failed to open the %q database: %w", config.DefaultAlias, err)
	}
	if err := migrations.Run(ctx, h.Conn, h.Driver); err != nil {
		return err
	}

	handler := handlers.New(services.NewSomethingService(store.NewStore(h.Conn)))
	srv, err := server.NewServer(cfg, func(router *gin.RouterGroup) {
		handlers.RegisterHandlers(router, handler)
	}, server.WithGatherer(reg))
	if err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Start(ctx)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	return nil
}
