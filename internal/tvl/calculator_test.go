package tvl

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
)

type fakeResolver struct {
	prices map[string]float64
	calls  int
}

func (f *fakeResolver) ResolveMany(_ context.Context, symbols []string) map[string]float64 {
	f.calls++
	out := make(map[string]float64)
	for _, s := range symbols {
		if v, ok := f.prices[s]; ok {
			out[s] = v
		}
	}
	return out
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeValuation(t *testing.T) {
	resolver := &fakeResolver{prices: map[string]float64{"MCH": 0.04, "WBNB": 320.0}}
	calc := NewCalculator(resolver)

	got, err := calc.Compute(context.Background(),
		Leg{Symbol: "MCH", Amount: 1000},
		Leg{Symbol: "WBNB", Amount: 5},
	)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if !almostEqual(got.Token0.ValueUSD, 40) {
		t.Fatalf("token0 value = %v, want 40", got.Token0.ValueUSD)
	}
	if !almostEqual(got.Token1.ValueUSD, 1600) {
		t.Fatalf("token1 value = %v, want 1600", got.Token1.ValueUSD)
	}
	if !almostEqual(got.TotalUSD, 1640) {
		t.Fatalf("total = %v, want 1640", got.TotalUSD)
	}
	if !almostEqual(got.Token0.SharePct+got.Token1.SharePct, 100) {
		t.Fatalf("shares %v + %v do not sum to 100", got.Token0.SharePct, got.Token1.SharePct)
	}
	if !almostEqual(got.Token0.SharePct, 40.0/1640*100) {
		t.Fatalf("token0 share = %v", got.Token0.SharePct)
	}
	if resolver.calls != 1 {
		t.Fatalf("resolver consulted %d times, want 1", resolver.calls)
	}
}

func TestComputeAllOrNothing(t *testing.T) {
	resolver := &fakeResolver{prices: map[string]float64{"WBNB": 320.0}}
	calc := NewCalculator(resolver)

	_, err := calc.Compute(context.Background(),
		Leg{Symbol: "MCH", Amount: 1000},
		Leg{Symbol: "WBNB", Amount: 5},
	)
	var unresolved *UnresolvedPriceError
	if !errors.As(err, &unresolved) {
		t.Fatalf("error = %v, want *UnresolvedPriceError", err)
	}
	if !reflect.DeepEqual(unresolved.Symbols, []string{"MCH"}) {
		t.Fatalf("missing symbols = %v, want [MCH]", unresolved.Symbols)
	}
}

func TestComputeBothMissingSorted(t *testing.T) {
	calc := NewCalculator(&fakeResolver{})

	_, err := calc.Compute(context.Background(),
		Leg{Symbol: "ZZZ", Amount: 1},
		Leg{Symbol: "AAA", Amount: 1},
	)
	var unresolved *UnresolvedPriceError
	if !errors.As(err, &unresolved) {
		t.Fatalf("error = %v, want *UnresolvedPriceError", err)
	}
	if !reflect.DeepEqual(unresolved.Symbols, []string{"AAA", "ZZZ"}) {
		t.Fatalf("missing symbols = %v, want sorted [AAA ZZZ]", unresolved.Symbols)
	}
}

func TestComputeZeroTotal(t *testing.T) {
	resolver := &fakeResolver{prices: map[string]float64{"MCH": 0.04, "WBNB": 320.0}}
	calc := NewCalculator(resolver)

	got, err := calc.Compute(context.Background(),
		Leg{Symbol: "MCH", Amount: 0},
		Leg{Symbol: "WBNB", Amount: 0},
	)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got.TotalUSD != 0 {
		t.Fatalf("total = %v, want 0", got.TotalUSD)
	}
	// Shares stay at zero rather than dividing by a zero total.
	if got.Token0.SharePct != 0 || got.Token1.SharePct != 0 {
		t.Fatalf("shares = %v / %v, want 0 / 0", got.Token0.SharePct, got.Token1.SharePct)
	}
}

func TestComputeNormalizesSymbols(t *testing.T) {
	resolver := &fakeResolver{prices: map[string]float64{"MCH": 0.04, "WBNB": 320.0}}
	calc := NewCalculator(resolver)

	got, err := calc.Compute(context.Background(),
		Leg{Symbol: " mch ", Amount: 1000},
		Leg{Symbol: "wbnb", Amount: 5},
	)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got.Token0.Symbol != "MCH" || got.Token1.Symbol != "WBNB" {
		t.Fatalf("symbols = %q / %q, want canonical MCH / WBNB", got.Token0.Symbol, got.Token1.Symbol)
	}
}
