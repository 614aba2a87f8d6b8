package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Action is the side of an order.
type Action string

const (
	Buy  Action = "BUY"
	Sell Action = "SELL"
)

// ParseAction accepts "buy"/"sell" in any case.
func ParseAction(s string) (Action, bool) {
	switch Action(strings.ToUpper(strings.TrimSpace(s))) {
	case Buy:
		return Buy, true
	case Sell:
		return Sell, true
	}
	return "", false
}

// Asset represents a tradable synthetic coin.
// Symbol and DisplayName never change once the feed is built; Price moves on every market step.
type Asset struct {
	Symbol      string          `json:"symbol"`       // e.g. "DOGE"
	DisplayName string          `json:"display_name"` // e.g. "Dogecoin"
	Price       decimal.Decimal `json:"price"`        // Always > 0
}

// Position is the holding in one asset.
//
// CostBasis is the cash paid for the units still held. It is reduced
// proportionally on sells (weighted average cost).
type Position struct {
	Symbol    string          `json:"symbol"`
	Amount    decimal.Decimal `json:"amount"`
	CostBasis decimal.Decimal `json:"cost_basis"`
}

// AveragePrice returns CostBasis / Amount, or zero for an empty position.
func (p Position) AveragePrice() decimal.Decimal {
	if p.Amount.IsZero() {
		return decimal.Zero
	}
	return p.CostBasis.Div(p.Amount)
}

// Trade is an executed order. Trades are created once and never mutated.
type Trade struct {
	ID        string          `json:"id"`
	Symbol    string          `json:"symbol"`
	Action    Action          `json:"action"`
	Amount    decimal.Decimal `json:"amount"`
	Price     decimal.Decimal `json:"price"` // Unit price resolved at execution
	Timestamp time.Time       `json:"timestamp"`
	SignalTag string          `json:"signal_tag"` // e.g. "🟢 Reddit Hype Building"
}

// Notional returns Amount * Price.
func (t Trade) Notional() decimal.Decimal {
	return t.Amount.Mul(t.Price)
}
