package models

import "github.com/shopspring/decimal"

// PositionView is a position valued at the current market price.
type PositionView struct {
	Symbol       string          `json:"symbol"`
	Amount       decimal.Decimal `json:"amount"`
	CostBasis    decimal.Decimal `json:"cost_basis"`
	Price        decimal.Decimal `json:"price"`
	CurrentValue decimal.Decimal `json:"current_value"`
	PnL          decimal.Decimal `json:"pnl"`
	PnLPercent   decimal.Decimal `json:"pnl_percent"` // 0 when CostBasis is zero
}

// Snapshot is a read-only view of the engine for presentation layers.
type Snapshot struct {
	CashBalance    decimal.Decimal `json:"cash_balance"`
	Positions      []PositionView  `json:"positions"`
	TotalValuation decimal.Decimal `json:"total_valuation"`
	TotalPnL       decimal.Decimal `json:"total_pnl"`
	TradeCount     int             `json:"trade_count"`
	RecentTrades   []Trade         `json:"recent_trades"`
	Prices         []Asset         `json:"prices"`
}
