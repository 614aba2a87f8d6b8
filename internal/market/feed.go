// Package market owns the synthetic coins and moves their prices with a
// multiplicative random walk.
package market

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"cypherx_sim/internal/models"

	"github.com/shopspring/decimal"
)

// PriceFloor is the lowest price any asset can reach.
var PriceFloor = decimal.New(1, -7)

// pricePlaces bounds the precision of stepped prices so repeated
// multiplication does not grow the decimal without limit.
const pricePlaces = 16

var (
	DefaultMinFactor = decimal.RequireFromString("0.85")
	DefaultMaxFactor = decimal.RequireFromString("1.25")
)

// RandomSource produces uniform floats in [0, 1).
// *rand.Rand from math/rand/v2 satisfies it, so tests can pass a seeded generator.
type RandomSource interface {
	Float64() float64
}

// globalSource uses the process-wide generator.
type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// AssetSpec describes an asset at feed construction.
type AssetSpec struct {
	Symbol       string
	DisplayName  string
	InitialPrice decimal.Decimal
}

// DefaultAssets returns the six demo coins.
func DefaultAssets() []AssetSpec {
	return []AssetSpec{
		{Symbol: "DOGE", DisplayName: "Dogecoin", InitialPrice: decimal.RequireFromString("0.15")},
		{Symbol: "SHIB", DisplayName: "Shiba Inu", InitialPrice: decimal.RequireFromString("0.000008")},
		{Symbol: "PEPE", DisplayName: "Pepe Coin", InitialPrice: decimal.RequireFromString("0.0000012")},
		{Symbol: "FLOKI", DisplayName: "Floki Inu", InitialPrice: decimal.RequireFromString("0.000025")},
		{Symbol: "BONK", DisplayName: "Bonk", InitialPrice: decimal.RequireFromString("0.000012")},
		{Symbol: "WIF", DisplayName: "dogwifhat", InitialPrice: decimal.RequireFromString("0.35")},
	}
}

// Feed holds the tradable assets in their initialization order.
// It is not safe for concurrent use; the engine serializes access.
type Feed struct {
	assets    []*models.Asset
	index     map[string]int
	rng       RandomSource
	minFactor decimal.Decimal
	maxFactor decimal.Decimal
	steps     uint64
}

// FeedOption configures a Feed.
type FeedOption func(*Feed) error

// WithRandomSource replaces the process-wide generator.
func WithRandomSource(src RandomSource) FeedOption {
	return func(f *Feed) error {
		if src == nil {
			return fmt.Errorf("%w: nil random source", models.ErrInvalidAsset)
		}
		f.rng = src
		return nil
	}
}

// WithFactorRange sets the range the per-step multiplier is drawn from.
func WithFactorRange(min, max decimal.Decimal) FeedOption {
	return func(f *Feed) error {
		if !min.IsPositive() || min.GreaterThan(max) {
			return fmt.Errorf("%w: factor range [%s, %s]", models.ErrInvalidAsset, min, max)
		}
		f.minFactor = min
		f.maxFactor = max
		return nil
	}
}

// NewFeed validates specs and builds a feed. Symbols must be unique and
// non-empty, and every initial price must be positive.
func NewFeed(specs []AssetSpec, opts ...FeedOption) (*Feed, error) {
	f := &Feed{
		assets:    make([]*models.Asset, 0, len(specs)),
		index:     make(map[string]int, len(specs)),
		rng:       globalSource{},
		minFactor: DefaultMinFactor,
		maxFactor: DefaultMaxFactor,
	}

	for _, s := range specs {
		symbol := strings.TrimSpace(s.Symbol)
		if symbol == "" {
			return nil, fmt.Errorf("%w: empty symbol", models.ErrInvalidAsset)
		}
		if _, dup := f.index[symbol]; dup {
			return nil, fmt.Errorf("%w: duplicate symbol %s", models.ErrInvalidAsset, symbol)
		}
		if !s.InitialPrice.IsPositive() {
			return nil, fmt.Errorf("%w: %s initial price %s", models.ErrInvalidAsset, symbol, s.InitialPrice)
		}
		f.index[symbol] = len(f.assets)
		f.assets = append(f.assets, &models.Asset{
			Symbol:      symbol,
			DisplayName: s.DisplayName,
			Price:       s.InitialPrice,
		})
	}

	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Price returns the current price of symbol.
func (f *Feed) Price(symbol string) (decimal.Decimal, error) {
	i, ok := f.index[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", models.ErrUnknownAsset, symbol)
	}
	return f.assets[i].Price, nil
}

// Has reports whether symbol is tradable.
func (f *Feed) Has(symbol string) bool {
	_, ok := f.index[symbol]
	return ok
}

// SetPrice overrides the price of symbol. Used when restoring saved state.
func (f *Feed) SetPrice(symbol string, price decimal.Decimal) error {
	i, ok := f.index[symbol]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrUnknownAsset, symbol)
	}
	if !price.IsPositive() {
		return fmt.Errorf("%w: %s price %s", models.ErrInvalidAsset, symbol, price)
	}
	f.assets[i].Price = price
	return nil
}

// Assets returns copies of all assets in initialization order.
func (f *Feed) Assets() []models.Asset {
	out := make([]models.Asset, len(f.assets))
	for i, a := range f.assets {
		out[i] = *a
	}
	return out
}

// Prices returns symbol -> price.
func (f *Feed) Prices() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(f.assets))
	for _, a := range f.assets {
		out[a.Symbol] = a.Price
	}
	return out
}

// Steps returns how many times Step has run.
func (f *Feed) Steps() uint64 {
	return f.steps
}

// Step moves every price by an independent factor drawn uniformly from the
// configured range, then clamps it to PriceFloor.
func (f *Feed) Step() {
	span := f.maxFactor.Sub(f.minFactor)
	for _, a := range f.assets {
		r := decimal.NewFromFloat(f.rng.Float64())
		factor := f.minFactor.Add(span.Mul(r))
		next := a.Price.Mul(factor).Round(pricePlaces)
		if next.LessThan(PriceFloor) {
			next = PriceFloor
		}
		a.Price = next
	}
	f.steps++
}
