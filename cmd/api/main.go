package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"valuation_synthesis/pkg/api/server"
	"valuation_synthesis/pkg/core/config"
	"valuation_synthesis/pkg/core/logger"
	"valuation_synthesis/pkg/core/store"
	"valuation_synthesis/pkg/core/synthesis"
)

func main() {
	// Load .env, config/valuation.yaml and env overrides
	cfg, err := config.Load("")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	l := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logger.SetGlobalLogger(l)

	// Peer sets live in Postgres when DATABASE_URL is set, otherwise in JSON files
	ctx := context.Background()
	if cfg.Store.DatabaseURL != "" {
		if err := store.InitDB(ctx, cfg.Store.DatabaseURL); err != nil {
			l.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer store.Close()
		if err := store.Migrate(ctx, store.GetPool()); err != nil {
			l.Fatal().Err(err).Msg("Failed to migrate database")
		}
		l.Info().Msg("Peer sets stored in Postgres")
	} else {
		l.Info().Str("dir", cfg.Store.PeerSetDir).Msg("Peer sets stored on disk")
	}
	pool := store.GetPool()

	repo, err := store.NewPeerSetRepo(pool, cfg.Store.PeerSetDir)
	if err != nil {
		l.Fatal().Err(err).Msg("Failed to open peer set store")
	}

	engine := synthesis.NewEngine(repo, cfg.Sensitivity, l)
	srv := server.New(server.Config{Log: l, Config: cfg, Engine: engine, Peers: repo})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("Server forced to shutdown")
	}
	l.Info().Msg("Server stopped")
}
