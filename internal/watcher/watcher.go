// Package watcher drives the engine the way the demo does: on every poll it
// may place a random order tagged with a hype signal, and it answers text
// commands from a host surface.
package watcher

import (
	"context"
	"sync"

	"cypherx_sim/internal/models"
	"cypherx_sim/internal/storage"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Engine is what the watcher needs from the trading engine.
type Engine interface {
	ExecuteTrade(action models.Action, symbol string, amount decimal.Decimal, signalTag string) (models.Trade, error)
	Snapshot() models.Snapshot
	Serialize() models.PortfolioState
	Recent(n int) []models.Trade
	Symbols() []string
}

// RandomSource is the subset of *rand.Rand (math/rand/v2) the watcher draws from.
type RandomSource interface {
	Float64() float64
	IntN(n int) int
}

// Settings tune the random order generator.
type Settings struct {
	TradeProbability float64 // Chance that a poll places an order
	MinOrderSize     int
	MaxOrderSize     int
}

type Watcher struct {
	engine   Engine
	store    storage.Store // nil disables persistence
	rng      RandomSource
	settings Settings
	log      *zap.Logger

	mu     sync.Mutex // guards signal
	signal string     // Current hype signal shown to the user and stamped on manual trades
}

func New(engine Engine, store storage.Store, rng RandomSource, settings Settings) *Watcher {
	w := &Watcher{
		engine:   engine,
		store:    store,
		rng:      rng,
		settings: settings,
		log:      zap.L().Named("watcher"),
	}
	w.signal = w.drawSignal()
	return w
}

// Signal returns the current hype signal.
func (w *Watcher) Signal() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.signal
}

// rotateSignal draws a new signal and returns the one it replaced.
func (w *Watcher) rotateSignal() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	prev := w.signal
	w.signal = w.drawSignal()
	return prev
}

// Poll runs one demo tick: with the configured probability it places a
// random order. It returns the trade when one executed.
func (w *Watcher) Poll(ctx context.Context) (*models.Trade, error) {
	if w.rng.Float64() >= w.settings.TradeProbability {
		return nil, nil
	}
	return w.RandomTrade(ctx)
}

// RandomTrade picks a coin, a side and a size at random and executes it.
// Rejections for balance or holdings are expected here and are not errors.
func (w *Watcher) RandomTrade(ctx context.Context) (*models.Trade, error) {
	symbols := w.engine.Symbols()
	if len(symbols) == 0 {
		return nil, nil
	}
	symbol := symbols[w.rng.IntN(len(symbols))]
	action := models.Sell
	if w.rng.Float64() > 0.5 {
		action = models.Buy
	}
	trade, err := w.Execute(ctx, action, symbol, w.orderSize())
	if models.IsRejection(err) {
		w.log.Debug("random order rejected",
			zap.String("symbol", symbol),
			zap.String("reason", models.RejectionReason(err)))
		return nil, nil
	}
	return trade, err
}

// Execute places an order stamped with the current signal, saves state on
// success and rotates the signal.
func (w *Watcher) Execute(ctx context.Context, action models.Action, symbol string, amount decimal.Decimal) (*models.Trade, error) {
	trade, err := w.engine.ExecuteTrade(action, symbol, amount, w.Signal())
	if err != nil {
		return nil, err
	}
	w.rotateSignal()

	if err := w.Save(ctx); err != nil {
		// The trade already happened; losing one save is not fatal.
		w.log.Error("save after trade failed", zap.Error(err))
	}
	return &trade, nil
}

// orderSize returns a whole number of coins in [MinOrderSize, MaxOrderSize].
func (w *Watcher) orderSize() decimal.Decimal {
	span := w.settings.MaxOrderSize - w.settings.MinOrderSize + 1
	if span < 1 {
		span = 1
	}
	return decimal.NewFromInt(int64(w.settings.MinOrderSize + w.rng.IntN(span)))
}

// Save persists the engine through the configured store.
func (w *Watcher) Save(ctx context.Context) error {
	if w.store == nil {
		return nil
	}
	return w.store.Save(ctx, w.engine.Serialize())
}
