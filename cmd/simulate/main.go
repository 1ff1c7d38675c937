// Package main runs Monte Carlo simulations of the door game.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"prize-door-game/internal/config"
	"prize-door-game/internal/game"
	"prize-door-game/internal/metrics"
	"prize-door-game/internal/pkg/random"
	"prize-door-game/internal/simulate"
)

func main() {
	var (
		mode        string
		rounds      int
		strategy    string
		seed        int64
		configPath  string
		metricsAddr string
	)

	flag.StringVar(&mode, "mode", game.ClassicCommand, "game mode to simulate")
	flag.IntVar(&rounds, "rounds", 10000, "number of rounds to play")
	flag.StringVar(&strategy, "strategy", string(simulate.StrategySwitch), "decision strategy (stay, switch, random)")
	flag.Int64Var(&seed, "seed", 0, "random seed for reproducibility (0 = random)")
	flag.StringVar(&configPath, "config", "config", "directory holding config.yaml with extra modes")
	flag.StringVar(&metricsAddr, "metrics-addr", "", "serve metrics on this address while running (empty = off)")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	st, err := simulate.ParseStrategy(strategy)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid strategy")
	}

	modes := game.NewRegistry()
	if cfg, err := config.Load(configPath); err != nil {
		log.Warn().Err(err).Msg("Configuration not loaded, only built-in modes are available")
	} else if modes, err = game.NewRegistryFromConfig(&cfg.Games); err != nil {
		log.Fatal().Err(err).Msg("Failed to register game modes")
	}

	m, err := modes.Lookup(mode)
	if err != nil {
		log.Fatal().Err(err).Strs("modes", modes.Commands()).Msg("Invalid mode")
	}

	if seed == 0 {
		if seed, err = random.NewSeed(); err != nil {
			log.Fatal().Err(err).Msg("Failed to generate seed")
		}
	}

	var gameMetrics *metrics.Metrics
	if metricsAddr != "" {
		registry := metrics.NewRegistry()
		gameMetrics = metrics.New(registry)
		srv := metrics.NewServer(metricsAddr, "/metrics", registry)
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	log.Info().
		Str("mode", m.Command).
		Int("doors", m.Config.DoorCount).
		Int("reveals", m.Config.RevealCount).
		Str("strategy", string(st)).
		Int("rounds", rounds).
		Int64("seed", seed).
		Msg("Simulation starting")

	started := time.Now()
	res, err := simulate.Run(ctx, simulate.Options{
		Mode:     m,
		Rounds:   rounds,
		Strategy: st,
		Source:   random.NewSeeded(seed),
		Metrics:  gameMetrics,
	})
	if err != nil && res == nil {
		log.Fatal().Err(err).Msg("Simulation failed")
	}
	if err != nil {
		log.Warn().Err(err).Int("completed", res.Rounds).Msg("Simulation interrupted")
	}

	log.Info().
		Int("rounds", res.Rounds).
		Int("wins", res.Wins).
		Float64("win_rate", res.WinRate()).
		Float64("stay_win_rate", res.StayWinRate()).
		Float64("switch_win_rate", res.SwitchWinRate()).
		Float64("expected_switch_win_rate", simulate.ExpectedSwitchWinRate(m.Config)).
		Dur("elapsed", time.Since(started)).
		Msg("Simulation finished")
}
