// Package engine coordinates the price feed, the portfolio and the trade
// ledger into a single order-execution state machine.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"cypherx_sim/internal/ledger"
	"cypherx_sim/internal/market"
	"cypherx_sim/internal/models"
	"cypherx_sim/internal/portfolio"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RecentTradesInSnapshot is how many trades Snapshot includes.
const RecentTradesInSnapshot = 5

// Engine owns one portfolio and one ledger and drives one price feed.
// Every exported method holds the engine lock for its whole duration, so
// validation and mutation are atomic with respect to other callers.
type Engine struct {
	mu        sync.RWMutex
	feed      *market.Feed
	portfolio *portfolio.Portfolio
	ledger    *ledger.Ledger
	now       func() time.Time
	newID     func() string
	log       *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the source of trade timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator sets how trade IDs are minted.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New creates an Engine trading against feed with initialCash of starting balance.
func New(feed *market.Feed, initialCash decimal.Decimal, opts ...Option) (*Engine, error) {
	if feed == nil {
		return nil, fmt.Errorf("%w: nil feed", models.ErrInvalidAsset)
	}
	if initialCash.IsNegative() {
		return nil, fmt.Errorf("%w: negative initial balance %s", models.ErrInvalidOrder, initialCash)
	}
	e := &Engine{
		feed:      feed,
		portfolio: portfolio.New(initialCash),
		ledger:    ledger.New(),
		now:       time.Now,
		newID:     uuid.NewString,
		log:       zap.L(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ExecuteTrade validates and executes one order at the current price.
//
// On success the trade is appended to the ledger and the market takes exactly
// one step. On failure nothing changes and the returned error is a
// *models.TradeError wrapping one of the models sentinels.
func (e *Engine) ExecuteTrade(action models.Action, symbol string, amount decimal.Decimal, signalTag string) (models.Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	reject := func(err error) (models.Trade, error) {
		e.log.Info("order rejected",
			zap.String("action", string(action)),
			zap.String("symbol", symbol),
			zap.String("amount", amount.String()),
			zap.String("reason", models.RejectionReason(err)))
		return models.Trade{}, &models.TradeError{Action: action, Symbol: symbol, Amount: amount, Err: err}
	}

	// Received -> Validated
	price, err := e.feed.Price(symbol)
	if err != nil {
		return reject(err)
	}

	switch action {
	case models.Buy:
		err = e.portfolio.ApplyBuy(symbol, amount, price)
	case models.Sell:
		err = e.portfolio.ApplySell(symbol, amount, price)
	default:
		err = fmt.Errorf("%w: action %q", models.ErrInvalidOrder, action)
	}
	if err != nil {
		return reject(err)
	}

	// Validated -> Executed
	trade := models.Trade{
		ID:        e.newID(),
		Symbol:    symbol,
		Action:    action,
		Amount:    amount,
		Price:     price,
		Timestamp: e.now(),
		SignalTag: signalTag,
	}
	e.ledger.Append(trade)
	e.feed.Step()

	e.log.Info("trade executed",
		zap.String("id", trade.ID),
		zap.String("action", string(action)),
		zap.String("symbol", symbol),
		zap.String("amount", amount.String()),
		zap.String("price", price.String()),
		zap.String("cash", e.portfolio.Cash().String()))
	return trade, nil
}

// AdvanceMarket steps the feed once without trading, for callers that want
// prices to move on a wall-clock schedule.
func (e *Engine) AdvanceMarket() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.feed.Step()
}

// Snapshot composes a read-only view of cash, valued positions, totals and
// the latest trades.
func (e *Engine) Snapshot() models.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	positions := e.portfolio.Positions()
	views := make([]models.PositionView, 0, len(positions))
	total := e.portfolio.Cash()
	for _, pos := range positions {
		price, err := e.feed.Price(pos.Symbol)
		if err != nil {
			// Positions are only opened on feed symbols and Restore checks them.
			e.log.Error("position without price", zap.String("symbol", pos.Symbol), zap.Error(err))
			continue
		}
		abs, pct, err := e.portfolio.PositionPnL(pos.Symbol, e.feed)
		if err != nil && !errors.Is(err, models.ErrDivisionUndefined) {
			e.log.Error("position pnl", zap.String("symbol", pos.Symbol), zap.Error(err))
		}
		value := pos.Amount.Mul(price)
		total = total.Add(value)
		views = append(views, models.PositionView{
			Symbol:       pos.Symbol,
			Amount:       pos.Amount,
			CostBasis:    pos.CostBasis,
			Price:        price,
			CurrentValue: value,
			PnL:          abs,
			PnLPercent:   pct,
		})
	}

	return models.Snapshot{
		CashBalance:    e.portfolio.Cash(),
		Positions:      views,
		TotalValuation: total,
		TotalPnL:       total.Sub(e.portfolio.InitialCash()),
		TradeCount:     e.ledger.Len(),
		RecentTrades:   e.ledger.Recent(RecentTradesInSnapshot),
		Prices:         e.feed.Assets(),
	}
}

// Recent returns up to n trades, newest first.
func (e *Engine) Recent(n int) []models.Trade {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Recent(n)
}

// Trades returns the full trade history in execution order.
func (e *Engine) Trades() []models.Trade {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Trades()
}

// Symbols lists the tradable symbols in feed order.
func (e *Engine) Symbols() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	assets := e.feed.Assets()
	out := make([]string, len(assets))
	for i, a := range assets {
		out[i] = a.Symbol
	}
	return out
}
