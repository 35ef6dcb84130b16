package main

import (
	"context"
	"fmt"
	"net/http"

	"brawl-tracker/internal/config"
	"brawl-tracker/internal/constants"
	fxmodules "brawl-tracker/internal/fx"
	"brawl-tracker/internal/middleware"
	"brawl-tracker/internal/server"
	syncpkg "brawl-tracker/internal/sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(run),
	).Run()
}

func run(
	lc fx.Lifecycle,
	srv *server.Server,
	coordinator *syncpkg.Coordinator,
	registry *prometheus.Registry,
	cfg *config.Config,
	logger zerolog.Logger,
) {
	mux := http.NewServeMux()
	srv.Routes(mux)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: middleware.RequestID(logger)(c.Handler(mux)),
	}

	syncCtx, stopSync := context.WithCancel(context.Background())
	syncDone := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer close(syncDone)
				if err := coordinator.Run(syncCtx); err != nil {
					logger.Error().Err(err).Msg("sync coordinator stopped")
				}
			}()

			go func() {
				logger.Info().Str("addr", httpSrv.Addr).Msg("server starting")
				if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			stopSync()
			select {
			case <-syncDone:
			case <-shutdownCtx.Done():
				logger.Warn().Msg("sync coordinator did not stop in time")
			}

			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}
