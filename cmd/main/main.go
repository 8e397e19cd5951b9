package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"nameres-service/internal/config"
	"nameres-service/internal/resolve/service"
	"nameres-service/internal/store"
	serverhttp "nameres-service/server/http"
)

func main() {
	cfg := config.Load()
	logger := config.SetupLogger(cfg)

	_ = os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755)
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open store")
	}
	defer st.Close()

	weights := service.DefaultWeights()
	if cfg.Threshold > 0 {
		weights.Threshold = cfg.Threshold
	}
	res := service.NewResolver(st, st, weights, logger)

	r := serverhttp.NewRouter(cfg, logger, res, st)

	srv := &http.Server{Addr: cfg.Addr(), Handler: r}
	logger.Info().Str("addr", cfg.Addr()).Int("threshold", weights.Threshold).Msg("server starting")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	logger.Info().Msg("bye")
}
