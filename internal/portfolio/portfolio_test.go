package portfolio

import (
	"errors"
	"fmt"
	"testing"

	"cypherx_sim/internal/models"

	"github.com/shopspring/decimal"
)

// stubPrices implements PriceSource for testing
type stubPrices map[string]decimal.Decimal

func (s stubPrices) Price(symbol string) (decimal.Decimal, error) {
	if p, ok := s[symbol]; ok {
		return p, nil
	}
	return decimal.Zero, fmt.Errorf("%w: %s", models.ErrUnknownAsset, symbol)
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestApplyBuy_DOGE(t *testing.T) {
	p := New(d("10000"))

	if err := p.ApplyBuy("DOGE", d("100"), d("0.15")); err != nil {
		t.Fatalf("ApplyBuy failed: %v", err)
	}

	if !p.Cash().Equal(d("9985")) {
		t.Errorf("Expected cash 9985, got %s", p.Cash())
	}
	pos, ok := p.Position("DOGE")
	if !ok {
		t.Fatal("Expected DOGE position, found none")
	}
	if !pos.Amount.Equal(d("100")) {
		t.Errorf("Expected amount 100, got %s", pos.Amount)
	}
	if !pos.CostBasis.Equal(d("15.00")) {
		t.Errorf("Expected cost basis 15.00, got %s", pos.CostBasis)
	}
}

func TestApplyBuy_InsufficientBalance(t *testing.T) {
	p := New(d("10"))

	err := p.ApplyBuy("WIF", d("100"), d("0.35"))
	if !errors.Is(err, models.ErrInsufficientBalance) {
		t.Fatalf("Expected ErrInsufficientBalance, got %v", err)
	}
	if !p.Cash().Equal(d("10")) {
		t.Errorf("Cash changed on rejection: %s", p.Cash())
	}
	if len(p.Positions()) != 0 {
		t.Errorf("Expected no positions, got %d", len(p.Positions()))
	}
}

func TestApplyBuy_ExactBalance(t *testing.T) {
	p := New(d("35"))
	if err := p.ApplyBuy("WIF", d("100"), d("0.35")); err != nil {
		t.Fatalf("Spending the whole balance should succeed: %v", err)
	}
	if !p.Cash().IsZero() {
		t.Errorf("Expected zero cash, got %s", p.Cash())
	}
}

func TestApplyOrder_InvalidInput(t *testing.T) {
	p := New(d("100"))

	if err := p.ApplyBuy("DOGE", d("0"), d("1")); !errors.Is(err, models.ErrInvalidOrder) {
		t.Errorf("Expected ErrInvalidOrder for zero amount, got %v", err)
	}
	if err := p.ApplyBuy("DOGE", d("1"), d("-1")); !errors.Is(err, models.ErrInvalidOrder) {
		t.Errorf("Expected ErrInvalidOrder for negative price, got %v", err)
	}
	if err := p.ApplySell("DOGE", d("-5"), d("1")); !errors.Is(err, models.ErrInvalidOrder) {
		t.Errorf("Expected ErrInvalidOrder for negative sell amount, got %v", err)
	}
}

func TestApplySell_WeightedAverageCost(t *testing.T) {
	p := New(d("1000"))
	_ = p.ApplyBuy("DOGE", d("100"), d("1"))
	_ = p.ApplyBuy("DOGE", d("100"), d("2"))

	// 200 units, cost 300. Selling 50 releases a quarter of the basis.
	if err := p.ApplySell("DOGE", d("50"), d("3")); err != nil {
		t.Fatalf("ApplySell failed: %v", err)
	}

	if !p.Cash().Equal(d("850")) {
		t.Errorf("Expected cash 850, got %s", p.Cash())
	}
	pos, _ := p.Position("DOGE")
	if !pos.Amount.Equal(d("150")) {
		t.Errorf("Expected amount 150, got %s", pos.Amount)
	}
	if !pos.CostBasis.Equal(d("225")) {
		t.Errorf("Expected cost basis 225, got %s", pos.CostBasis)
	}
	if !pos.AveragePrice().Equal(d("1.5")) {
		t.Errorf("Expected average price 1.5, got %s", pos.AveragePrice())
	}
}

func TestApplySell_FullCloseRemovesPosition(t *testing.T) {
	p := New(d("100"))
	_ = p.ApplyBuy("BONK", d("10"), d("1"))

	if err := p.ApplySell("BONK", d("10"), d("2")); err != nil {
		t.Fatalf("ApplySell failed: %v", err)
	}
	if _, ok := p.Position("BONK"); ok {
		t.Error("Expected BONK position to be removed")
	}
	if !p.Cash().Equal(d("110")) {
		t.Errorf("Expected cash 110, got %s", p.Cash())
	}
}

func TestApplySell_Rejections(t *testing.T) {
	p := New(d("100"))

	if err := p.ApplySell("DOGE", d("1"), d("1")); !errors.Is(err, models.ErrUnknownPosition) {
		t.Errorf("Expected ErrUnknownPosition, got %v", err)
	}

	_ = p.ApplyBuy("DOGE", d("10"), d("1"))
	before, _ := p.Position("DOGE")
	cash := p.Cash()

	if err := p.ApplySell("DOGE", d("11"), d("1")); !errors.Is(err, models.ErrInsufficientHoldings) {
		t.Errorf("Expected ErrInsufficientHoldings, got %v", err)
	}

	after, _ := p.Position("DOGE")
	if !after.Amount.Equal(before.Amount) || !after.CostBasis.Equal(before.CostBasis) || !p.Cash().Equal(cash) {
		t.Errorf("State changed on rejection: %+v -> %+v, cash %s -> %s", before, after, cash, p.Cash())
	}
}

func TestValuationAndPnL(t *testing.T) {
	p := New(d("10000"))
	_ = p.ApplyBuy("DOGE", d("100"), d("0.15"))
	_ = p.ApplyBuy("WIF", d("10"), d("0.35"))

	prices := stubPrices{"DOGE": d("0.30"), "WIF": d("0.35")}

	v, err := p.Valuation(prices)
	if err != nil {
		t.Fatalf("Valuation failed: %v", err)
	}
	// cash 9981.5 + 30 + 3.5
	if !v.Equal(d("10015")) {
		t.Errorf("Expected valuation 10015, got %s", v)
	}

	pnl, _ := p.UnrealizedPnL(prices)
	if !pnl.Equal(d("15")) {
		t.Errorf("Expected PnL 15, got %s", pnl)
	}

	abs, pct, err := p.PositionPnL("DOGE", prices)
	if err != nil {
		t.Fatalf("PositionPnL failed: %v", err)
	}
	if !abs.Equal(d("15")) || !pct.Equal(d("100")) {
		t.Errorf("Expected DOGE PnL 15 (100%%), got %s (%s%%)", abs, pct)
	}

	if _, _, err := p.PositionPnL("SHIB", prices); !errors.Is(err, models.ErrUnknownPosition) {
		t.Errorf("Expected ErrUnknownPosition, got %v", err)
	}
}

func TestPositionPnL_ZeroCostBasis(t *testing.T) {
	p := New(d("0"))
	if err := p.Restore(d("0"), d("0"), []models.Position{{Symbol: "DOGE", Amount: d("10"), CostBasis: d("0")}}); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	abs, pct, err := p.PositionPnL("DOGE", stubPrices{"DOGE": d("2")})
	if !errors.Is(err, models.ErrDivisionUndefined) {
		t.Errorf("Expected ErrDivisionUndefined, got %v", err)
	}
	if !abs.Equal(d("20")) || !pct.IsZero() {
		t.Errorf("Expected 20 / 0%%, got %s / %s%%", abs, pct)
	}
}

func TestRestore_RejectsNegativeValues(t *testing.T) {
	p := New(d("100"))
	_ = p.ApplyBuy("DOGE", d("10"), d("1"))

	if err := p.Restore(d("100"), d("-1"), nil); !errors.Is(err, models.ErrInvalidOrder) {
		t.Errorf("Expected ErrInvalidOrder, got %v", err)
	}
	bad := []models.Position{{Symbol: "DOGE", Amount: d("-1")}}
	if err := p.Restore(d("100"), d("1"), bad); !errors.Is(err, models.ErrInvalidOrder) {
		t.Errorf("Expected ErrInvalidOrder, got %v", err)
	}

	if !p.Cash().Equal(d("90")) {
		t.Errorf("Failed restore mutated cash: %s", p.Cash())
	}
}

func TestApplySell_FractionalKeepsBasisNonNegative(t *testing.T) {
	p := New(d("100"))
	if err := p.ApplyBuy("DOGE", d("0.0000000000000006"), d("0.15")); err != nil {
		t.Fatalf("ApplyBuy failed: %v", err)
	}
	if err := p.ApplySell("DOGE", d("0.000000000000000594"), d("0.15")); err != nil {
		t.Fatalf("ApplySell failed: %v", err)
	}

	pos, ok := p.Position("DOGE")
	if !ok {
		t.Fatal("Expected DOGE position to remain open")
	}
	if pos.CostBasis.IsNegative() {
		t.Errorf("Expected non-negative cost basis, got %s", pos.CostBasis)
	}
	if !pos.CostBasis.Equal(d("0.0000000000000000009")) {
		t.Errorf("Expected basis 0.0000000000000000009, got %s", pos.CostBasis)
	}
	if !pos.Amount.Equal(d("0.000000000000000006")) {
		t.Errorf("Expected amount 0.000000000000000006, got %s", pos.Amount)
	}

	restored := New(d("100"))
	if err := restored.Restore(p.InitialCash(), p.Cash(), p.Positions()); err != nil {
		t.Errorf("Restore of own positions failed: %v", err)
	}
}

func TestApplySell_RepeatedThirds(t *testing.T) {
	p := New(d("100"))
	_ = p.ApplyBuy("PEPE", d("3"), d("1"))
	for i := 0; i < 2; i++ {
		if err := p.ApplySell("PEPE", d("1"), d("1")); err != nil {
			t.Fatalf("ApplySell %d failed: %v", i, err)
		}
		pos, _ := p.Position("PEPE")
		if pos.CostBasis.IsNegative() || pos.CostBasis.GreaterThan(d("3")) {
			t.Errorf("Basis out of range after sell %d: %s", i, pos.CostBasis)
		}
	}
	pos, _ := p.Position("PEPE")
	if !pos.CostBasis.Equal(d("1")) {
		t.Errorf("Expected basis 1 after selling two thirds, got %s", pos.CostBasis)
	}
}
