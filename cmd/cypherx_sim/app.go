package main

import (
	"context"
	"fmt"
	"math/rand/v2"

	"cypherx_sim/internal/config"
	"cypherx_sim/internal/engine"
	"cypherx_sim/internal/logger"
	"cypherx_sim/internal/market"
	"cypherx_sim/internal/storage"
	"cypherx_sim/internal/watcher"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// globalRand uses the process-wide generator.
type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) IntN(n int) int   { return rand.IntN(n) }

// app wires configuration, logging, persistence and the engine together.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	store   storage.Store
	engine  *engine.Engine
	watcher *watcher.Watcher
	flush   func()
}

// bootstrap builds the app. With restore set, saved state is loaded into the engine.
func bootstrap(ctx context.Context, restore bool, console bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, flush := logger.Setup(logger.Options{
		Level:      cfg.LogLevel,
		Filename:   cfg.LogFile,
		MaxSizeMB:  cfg.MaxLogSizeMB,
		MaxBackups: cfg.MaxLogBackups,
		Console:    console,
	})

	var feedRand market.RandomSource = globalRand{}
	var watchRand watcher.RandomSource = globalRand{}
	if cfg.Seed != 0 {
		feedRand = rand.New(rand.NewPCG(cfg.Seed, 1))
		watchRand = rand.New(rand.NewPCG(cfg.Seed, 2))
	}

	feed, err := market.NewFeed(market.DefaultAssets(),
		market.WithRandomSource(feedRand),
		market.WithFactorRange(decimal.NewFromFloat(cfg.MinFactor), decimal.NewFromFloat(cfg.MaxFactor)))
	if err != nil {
		flush()
		return nil, fmt.Errorf("build price feed: %w", err)
	}

	eng, err := engine.New(feed, decimal.NewFromFloat(cfg.InitialBalance), engine.WithLogger(log.Named("engine")))
	if err != nil {
		flush()
		return nil, err
	}

	store, err := storage.Open(cfg.StoreBackend, cfg.StateFile, cfg.SQLitePath)
	if err != nil {
		flush()
		return nil, err
	}

	if restore {
		st, found, err := store.Load(ctx)
		if err != nil {
			store.Close()
			flush()
			return nil, fmt.Errorf("load state: %w", err)
		}
		if found {
			if err := eng.Restore(st); err != nil {
				store.Close()
				flush()
				return nil, fmt.Errorf("restore state: %w", err)
			}
		}
	}

	w := watcher.New(eng, store, watchRand, watcher.Settings{
		TradeProbability: cfg.TradeProbability,
		MinOrderSize:     cfg.MinOrderSize,
		MaxOrderSize:     cfg.MaxOrderSize,
	})

	log.Debug("app ready",
		zap.String("store", cfg.StoreBackend),
		zap.String("initial_balance", eng.InitialBalance().String()))

	return &app{cfg: cfg, log: log, store: store, engine: eng, watcher: w, flush: flush}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("close store", zap.Error(err))
	}
	a.flush()
}
