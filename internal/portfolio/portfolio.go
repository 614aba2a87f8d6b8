// Package portfolio tracks cash and per-coin positions and values them
// against live prices.
package portfolio

import (
	"fmt"
	"sort"

	"cypherx_sim/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PriceSource resolves the current price of a symbol. *market.Feed implements it.
type PriceSource interface {
	Price(symbol string) (decimal.Decimal, error)
}

// Portfolio holds the cash balance and open positions.
// It is not safe for concurrent use.
type Portfolio struct {
	initialCash decimal.Decimal
	cash        decimal.Decimal
	positions   map[string]*models.Position
}

// New returns an empty portfolio seeded with initialCash.
func New(initialCash decimal.Decimal) *Portfolio {
	return &Portfolio{
		initialCash: initialCash,
		cash:        initialCash,
		positions:   make(map[string]*models.Position),
	}
}

func (p *Portfolio) InitialCash() decimal.Decimal { return p.initialCash }

func (p *Portfolio) Cash() decimal.Decimal { return p.cash }

// Position returns a copy of the position in symbol.
func (p *Portfolio) Position(symbol string) (models.Position, bool) {
	pos, ok := p.positions[symbol]
	if !ok {
		return models.Position{}, false
	}
	return *pos, true
}

// Positions returns copies of all positions sorted by symbol.
func (p *Portfolio) Positions() []models.Position {
	out := make([]models.Position, 0, len(p.positions))
	for _, pos := range p.positions {
		out = append(out, *pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Valuation is cash plus the market value of every position.
func (p *Portfolio) Valuation(prices PriceSource) (decimal.Decimal, error) {
	total := p.cash
	for symbol, pos := range p.positions {
		price, err := prices.Price(symbol)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(pos.Amount.Mul(price))
	}
	return total, nil
}

// UnrealizedPnL is the valuation minus the seed balance.
func (p *Portfolio) UnrealizedPnL(prices PriceSource) (decimal.Decimal, error) {
	v, err := p.Valuation(prices)
	if err != nil {
		return decimal.Zero, err
	}
	return v.Sub(p.initialCash), nil
}

// PositionPnL returns the absolute and percent P&L of one position.
// With a zero cost basis the percent is undefined: it is reported as zero
// together with ErrDivisionUndefined.
func (p *Portfolio) PositionPnL(symbol string, prices PriceSource) (decimal.Decimal, decimal.Decimal, error) {
	pos, ok := p.positions[symbol]
	if !ok {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: %s", models.ErrUnknownPosition, symbol)
	}
	price, err := prices.Price(symbol)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	abs := pos.Amount.Mul(price).Sub(pos.CostBasis)
	if pos.CostBasis.IsZero() {
		return abs, decimal.Zero, models.ErrDivisionUndefined
	}
	return abs, abs.Div(pos.CostBasis).Mul(hundred), nil
}

// basisPlaces bounds the precision of a cost basis after a partial sell.
// The retained basis is rounded, never the released part, so it stays within [0, previous basis].
const basisPlaces = 32

func validateOrder(amount, unitPrice decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount %s", models.ErrInvalidOrder, amount)
	}
	if !unitPrice.IsPositive() {
		return fmt.Errorf("%w: price %s", models.ErrInvalidOrder, unitPrice)
	}
	return nil
}

// ApplyBuy spends amount*unitPrice of cash on symbol.
func (p *Portfolio) ApplyBuy(symbol string, amount, unitPrice decimal.Decimal) error {
	if err := validateOrder(amount, unitPrice); err != nil {
		return err
	}
	cost := amount.Mul(unitPrice)
	if cost.GreaterThan(p.cash) {
		return fmt.Errorf("%w: cost %s exceeds cash %s", models.ErrInsufficientBalance, cost, p.cash)
	}

	p.cash = p.cash.Sub(cost)
	pos, ok := p.positions[symbol]
	if !ok {
		pos = &models.Position{Symbol: symbol}
		p.positions[symbol] = pos
	}
	pos.Amount = pos.Amount.Add(amount)
	pos.CostBasis = pos.CostBasis.Add(cost)
	return nil
}

// ApplySell sells amount of symbol at unitPrice. The cost basis shrinks in
// proportion to the units sold. A fully closed position is removed.
func (p *Portfolio) ApplySell(symbol string, amount, unitPrice decimal.Decimal) error {
	if err := validateOrder(amount, unitPrice); err != nil {
		return err
	}
	pos, ok := p.positions[symbol]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrUnknownPosition, symbol)
	}
	if pos.Amount.LessThan(amount) {
		return fmt.Errorf("%w: selling %s, holding %s", models.ErrInsufficientHoldings, amount, pos.Amount)
	}

	revenue := amount.Mul(unitPrice)
	p.cash = p.cash.Add(revenue)

	if amount.Equal(pos.Amount) {
		delete(p.positions, symbol)
		return nil
	}
	remaining := pos.Amount.Sub(amount)
	basis := pos.CostBasis.Mul(remaining).DivRound(pos.Amount, basisPlaces)
	if basis.GreaterThan(pos.CostBasis) {
		basis = pos.CostBasis
	}
	pos.CostBasis = basis
	pos.Amount = remaining
	return nil
}

// Restore replaces the whole portfolio. Inputs are validated before anything changes.
func (p *Portfolio) Restore(initialCash, cash decimal.Decimal, positions []models.Position) error {
	if cash.IsNegative() {
		return fmt.Errorf("%w: negative cash %s", models.ErrInvalidOrder, cash)
	}
	next := make(map[string]*models.Position, len(positions))
	for _, pos := range positions {
		if pos.Amount.IsNegative() || pos.CostBasis.IsNegative() {
			return fmt.Errorf("%w: negative position %s", models.ErrInvalidOrder, pos.Symbol)
		}
		if _, dup := next[pos.Symbol]; dup {
			return fmt.Errorf("%w: duplicate position %s", models.ErrInvalidOrder, pos.Symbol)
		}
		cp := pos
		next[pos.Symbol] = &cp
	}
	p.initialCash = initialCash
	p.cash = cash
	p.positions = next
	return nil
}
