package models

import "github.com/shopspring/decimal"

// StateVersion is the current schema version of PortfolioState.
const StateVersion = "1.1"

// PortfolioState is the serialized form of an engine.
// This struct matches the structure of our JSON storage file, so field names must stay stable.
type PortfolioState struct {
	Version        string                     `json:"version"`         // Schema version for future compatibility
	LastSave       string                     `json:"last_save"`       // Timestamp of last file save
	CashBalance    decimal.Decimal            `json:"cash_balance"`    // Cash available to spend
	InitialBalance decimal.Decimal            `json:"initial_balance"` // Seed balance used for total P&L (added in 1.1)
	Positions      []Position                 `json:"positions"`       // Open positions, sorted by symbol
	TradeHistory   []Trade                    `json:"trade_history"`   // Execution order
	AssetPrices    map[string]decimal.Decimal `json:"asset_prices"`    // Symbol -> last price
}

// DefaultInitialBalance is the demo seed balance.
var DefaultInitialBalance = decimal.NewFromInt(10000)
