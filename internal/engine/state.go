package engine

import (
	"fmt"
	"time"

	"cypherx_sim/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Serialize captures everything needed to rebuild the engine.
func (e *Engine) Serialize() models.PortfolioState {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return models.PortfolioState{
		Version:        models.StateVersion,
		LastSave:       e.now().UTC().Format(time.RFC3339),
		CashBalance:    e.portfolio.Cash(),
		InitialBalance: e.portfolio.InitialCash(),
		Positions:      e.portfolio.Positions(),
		TradeHistory:   e.ledger.Trades(),
		AssetPrices:    e.feed.Prices(),
	}
}

// Restore replaces the engine state with s. The whole state is checked
// against the feed before anything is modified; prices for symbols missing
// from s keep their current value.
func (e *Engine) Restore(s models.PortfolioState) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for symbol, price := range s.AssetPrices {
		if !e.feed.Has(symbol) {
			return fmt.Errorf("restore price: %w: %s", models.ErrUnknownAsset, symbol)
		}
		if !price.IsPositive() {
			return fmt.Errorf("restore price: %w: %s price %s", models.ErrInvalidAsset, symbol, price)
		}
	}
	for _, p := range s.Positions {
		if !e.feed.Has(p.Symbol) {
			return fmt.Errorf("restore position: %w: %s", models.ErrUnknownAsset, p.Symbol)
		}
	}
	for _, t := range s.TradeHistory {
		if t.Action != models.Buy && t.Action != models.Sell {
			return fmt.Errorf("restore trade %s: %w: action %q", t.ID, models.ErrInvalidOrder, t.Action)
		}
		if !e.feed.Has(t.Symbol) {
			return fmt.Errorf("restore trade %s: %w: %s", t.ID, models.ErrUnknownAsset, t.Symbol)
		}
		if !t.Amount.IsPositive() || !t.Price.IsPositive() {
			return fmt.Errorf("restore trade %s: %w", t.ID, models.ErrInvalidOrder)
		}
	}
	if s.InitialBalance.IsNegative() {
		return fmt.Errorf("restore: %w: negative initial balance %s", models.ErrInvalidOrder, s.InitialBalance)
	}

	if err := e.portfolio.Restore(s.InitialBalance, s.CashBalance, s.Positions); err != nil {
		return fmt.Errorf("restore portfolio: %w", err)
	}
	for symbol, price := range s.AssetPrices {
		// Validated above.
		_ = e.feed.SetPrice(symbol, price)
	}
	e.ledger.Reset(s.TradeHistory)

	e.log.Info("state restored",
		zap.String("version", s.Version),
		zap.String("cash", s.CashBalance.String()),
		zap.Int("positions", len(s.Positions)),
		zap.Int("trades", len(s.TradeHistory)))
	return nil
}

// InitialBalance returns the seed balance used for total P&L.
func (e *Engine) InitialBalance() decimal.Decimal {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.portfolio.InitialCash()
}
