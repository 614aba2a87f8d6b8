package market

import (
	"errors"
	"math/rand/v2"
	"testing"

	"cypherx_sim/internal/models"

	"github.com/shopspring/decimal"
)

// fixedSource always returns the same value.
type fixedSource struct {
	v     float64
	calls int
}

func (s *fixedSource) Float64() float64 {
	s.calls++
	return s.v
}

func TestNewFeed_Validation(t *testing.T) {
	cases := map[string][]AssetSpec{
		"zero price":     {{Symbol: "DOGE", InitialPrice: decimal.Zero}},
		"negative price": {{Symbol: "DOGE", InitialPrice: decimal.NewFromInt(-1)}},
		"empty symbol":   {{Symbol: " ", InitialPrice: decimal.NewFromInt(1)}},
		"duplicate": {
			{Symbol: "DOGE", InitialPrice: decimal.NewFromInt(1)},
			{Symbol: "DOGE", InitialPrice: decimal.NewFromInt(2)},
		},
	}
	for name, specs := range cases {
		if _, err := NewFeed(specs); !errors.Is(err, models.ErrInvalidAsset) {
			t.Errorf("%s: expected ErrInvalidAsset, got %v", name, err)
		}
	}

	if _, err := NewFeed(DefaultAssets(), WithFactorRange(decimal.NewFromInt(2), decimal.NewFromInt(1))); !errors.Is(err, models.ErrInvalidAsset) {
		t.Errorf("Expected ErrInvalidAsset for inverted range, got %v", err)
	}
}

func TestFeed_Price(t *testing.T) {
	f, err := NewFeed(DefaultAssets())
	if err != nil {
		t.Fatalf("NewFeed failed: %v", err)
	}

	p, err := f.Price("DOGE")
	if err != nil {
		t.Fatalf("Price failed: %v", err)
	}
	if !p.Equal(decimal.RequireFromString("0.15")) {
		t.Errorf("Expected DOGE 0.15, got %s", p)
	}

	if _, err := f.Price("BTC"); !errors.Is(err, models.ErrUnknownAsset) {
		t.Errorf("Expected ErrUnknownAsset, got %v", err)
	}

	assets := f.Assets()
	if len(assets) != 6 || assets[0].Symbol != "DOGE" || assets[5].Symbol != "WIF" {
		t.Errorf("Unexpected asset order: %+v", assets)
	}
}

func TestFeed_StepUsesFactorRange(t *testing.T) {
	specs := []AssetSpec{{Symbol: "DOGE", InitialPrice: decimal.NewFromInt(100)}}

	// r = 0 gives the minimum factor.
	low := &fixedSource{v: 0}
	f, _ := NewFeed(specs, WithRandomSource(low))
	f.Step()
	if p, _ := f.Price("DOGE"); !p.Equal(decimal.NewFromInt(85)) {
		t.Errorf("Expected 85 after min factor, got %s", p)
	}

	// r = 0.5 is the midpoint, 1.05.
	mid := &fixedSource{v: 0.5}
	f, _ = NewFeed(specs, WithRandomSource(mid))
	f.Step()
	if p, _ := f.Price("DOGE"); !p.Equal(decimal.NewFromInt(105)) {
		t.Errorf("Expected 105 after mid factor, got %s", p)
	}
	if f.Steps() != 1 {
		t.Errorf("Expected 1 step, got %d", f.Steps())
	}
}

func TestFeed_StepOneDrawPerAsset(t *testing.T) {
	src := &fixedSource{v: 0.25}
	f, _ := NewFeed(DefaultAssets(), WithRandomSource(src))

	f.Step()
	f.Step()

	if src.calls != 12 {
		t.Errorf("Expected 12 draws for 2 steps over 6 assets, got %d", src.calls)
	}
}

func TestFeed_PriceFloor(t *testing.T) {
	src := &fixedSource{v: 0}
	specs := []AssetSpec{{Symbol: "PEPE", InitialPrice: decimal.RequireFromString("0.0000012")}}
	f, _ := NewFeed(specs, WithRandomSource(src), WithFactorRange(decimal.RequireFromString("0.01"), decimal.RequireFromString("0.01")))

	for i := 0; i < 5; i++ {
		f.Step()
	}

	p, _ := f.Price("PEPE")
	if !p.Equal(PriceFloor) {
		t.Errorf("Expected price clamped to %s, got %s", PriceFloor, p)
	}
}

func TestFeed_RandomWalkStaysAboveFloor(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	f, _ := NewFeed(DefaultAssets(), WithRandomSource(rng))

	for i := 0; i < 500; i++ {
		f.Step()
		for _, a := range f.Assets() {
			if a.Price.LessThan(PriceFloor) {
				t.Fatalf("step %d: %s fell below floor: %s", i, a.Symbol, a.Price)
			}
		}
	}
}

func TestFeed_SeededStepsAreReproducible(t *testing.T) {
	a, _ := NewFeed(DefaultAssets(), WithRandomSource(rand.New(rand.NewPCG(1, 2))))
	b, _ := NewFeed(DefaultAssets(), WithRandomSource(rand.New(rand.NewPCG(1, 2))))

	for i := 0; i < 20; i++ {
		a.Step()
		b.Step()
	}

	pa, pb := a.Prices(), b.Prices()
	for sym, p := range pa {
		if !p.Equal(pb[sym]) {
			t.Errorf("%s diverged: %s vs %s", sym, p, pb[sym])
		}
	}
}

func TestFeed_SetPrice(t *testing.T) {
	f, _ := NewFeed(DefaultAssets())

	if err := f.SetPrice("DOGE", decimal.RequireFromString("0.2")); err != nil {
		t.Fatalf("SetPrice failed: %v", err)
	}
	if p, _ := f.Price("DOGE"); !p.Equal(decimal.RequireFromString("0.2")) {
		t.Errorf("Expected 0.2, got %s", p)
	}
	if err := f.SetPrice("DOGE", decimal.Zero); !errors.Is(err, models.ErrInvalidAsset) {
		t.Errorf("Expected ErrInvalidAsset, got %v", err)
	}
	if err := f.SetPrice("BTC", decimal.NewFromInt(1)); !errors.Is(err, models.ErrUnknownAsset) {
		t.Errorf("Expected ErrUnknownAsset, got %v", err)
	}
}
