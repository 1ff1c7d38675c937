// Package main is the entry point for the door game service.
//
// Usage:
//
//	doorgame          run the game console with metrics exposed
//	doorgame migrate  apply the storage schema and exit
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"prize-door-game/internal/config"
	"prize-door-game/internal/game"
	"prize-door-game/internal/game/door"
	"prize-door-game/internal/metrics"
	"prize-door-game/internal/pkg/clock"
	"prize-door-game/internal/pkg/random"
	"prize-door-game/internal/progression"
	"prize-door-game/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Warn().Str("level", cfg.Log.Level).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().Str("backend", cfg.Storage.Backend).Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage backend")
	}
	defer store.Close()

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		log.Info().Msg("Schema is up to date")
		return
	}

	modes, err := game.NewRegistryFromConfig(&cfg.Games)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to register game modes")
	}
	if _, ok := modes.Get(cfg.Games.DefaultMode); !ok {
		log.Fatal().Str("mode", cfg.Games.DefaultMode).Msg("Default game mode is not registered")
	}
	log.Info().
		Int("mode_count", modes.Count()).
		Strs("modes", modes.Commands()).
		Msg("Game modes registered")

	rng := random.NewCrypto()
	if cfg.Play.RandomSeed != 0 {
		log.Warn().Int64("seed", cfg.Play.RandomSeed).Msg("Using seeded random source")
		rng = random.NewSeeded(cfg.Play.RandomSeed)
	}

	registry := metrics.NewRegistry()
	m := metrics.New(registry)
	var metricsServer *metrics.Server
	if cfg.Metrics.Addr != "" {
		metricsServer = metrics.NewServer(cfg.Metrics.Addr, cfg.Metrics.Path, registry)
		metricsServer.Start()
	}

	ledger := progression.NewLedger(
		store.store,
		clock.NewFixedOffset(cfg.Progression.ReferenceUTCOffsetHours, nil),
		&progression.Config{BonusResetValue: cfg.Progression.BonusResetValue},
	)

	playService := service.NewPlayService(
		door.NewEngine(rng),
		ledger,
		store.history,
		modes,
		m,
		service.PlayConfig{
			LockTimeout: cfg.Play.LockTimeout,
			DefaultMode: cfg.Games.DefaultMode,
		},
	)
	statsService := service.NewStatsService(store.history)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)
	go func() {
		log.Info().Msg("Console is ready, type help for commands")
		done <- newConsole(playService, statsService, modes, os.Stdout).Run(ctx, os.Stdin)
	}()

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-done:
		if err != nil {
			log.Error().Err(err).Msg("Console stopped with error")
		}
	}
	cancel()

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to stop metrics server")
		}
	}

	log.Info().
		Int("abandoned_rounds", playService.ActiveRounds()).
		Msg("Door game stopped gracefully")
}
