package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAction(t *testing.T) {
	if a, ok := ParseAction(" buy "); !ok || a != Buy {
		t.Errorf("Expected BUY, got %q (ok=%v)", a, ok)
	}
	if a, ok := ParseAction("Sell"); !ok || a != Sell {
		t.Errorf("Expected SELL, got %q (ok=%v)", a, ok)
	}
	if _, ok := ParseAction("hold"); ok {
		t.Error("Expected hold to be rejected")
	}
}

func TestPositionAveragePrice(t *testing.T) {
	p := Position{Symbol: "DOGE", Amount: decimal.NewFromInt(100), CostBasis: decimal.NewFromInt(15)}
	if got := p.AveragePrice(); !got.Equal(decimal.RequireFromString("0.15")) {
		t.Errorf("Expected 0.15, got %s", got)
	}
	if got := (Position{}).AveragePrice(); !got.IsZero() {
		t.Errorf("Expected 0 for empty position, got %s", got)
	}
}

func TestTradeNotional(t *testing.T) {
	tr := Trade{Amount: decimal.NewFromInt(40), Price: decimal.RequireFromString("0.35")}
	if got := tr.Notional(); !got.Equal(decimal.NewFromInt(14)) {
		t.Errorf("Expected 14, got %s", got)
	}
}

func TestTradeErrorReason(t *testing.T) {
	err := fmt.Errorf("execute: %w", &TradeError{Action: Sell, Symbol: "WIF", Amount: decimal.NewFromInt(5), Err: ErrInsufficientHoldings})

	var te *TradeError
	if !errors.As(err, &te) {
		t.Fatal("Expected TradeError in chain")
	}
	if te.Reason() != "Insufficient coins" {
		t.Errorf("Expected 'Insufficient coins', got %q", te.Reason())
	}
	if !errors.Is(err, ErrInsufficientHoldings) {
		t.Error("Expected error to unwrap to ErrInsufficientHoldings")
	}
	if !IsRejection(err) {
		t.Error("Expected holdings shortfall to be a rejection")
	}
	if IsRejection(ErrInvalidOrder) {
		t.Error("Expected invalid order not to count as a rejection")
	}
}

func TestRejectionReason(t *testing.T) {
	cases := map[error]string{
		ErrInsufficientBalance: "Insufficient balance",
		ErrUnknownPosition:     "No position",
		ErrUnknownAsset:        "Unknown coin",
		ErrInvalidOrder:        "Invalid order",
		errors.New("disk full"): "Trade failed",
		nil:                    "",
	}
	for err, want := range cases {
		if got := RejectionReason(err); got != want {
			t.Errorf("RejectionReason(%v): expected %q, got %q", err, want, got)
		}
	}
}
