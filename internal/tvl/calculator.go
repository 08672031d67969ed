package tvl

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"poolWatch/internal/model"
	"poolWatch/internal/price"
)

// Resolver supplies USD prices for canonical token symbols. Symbols
// absent from the returned map could not be priced by any feed.
type Resolver interface {
	ResolveMany(ctx context.Context, symbols []string) map[string]float64
}

// UnresolvedPriceError names the symbols no feed could price.
type UnresolvedPriceError struct {
	Symbols []string
}

func (e *UnresolvedPriceError) Error() string {
	return fmt.Sprintf("unresolved prices: %s", strings.Join(e.Symbols, ", "))
}

// Leg is one side of a pool before pricing: the token symbol and its
// human-unit reserve amount.
type Leg struct {
	Symbol string
	Amount float64
}

// Result is a fully priced pool valuation.
type Result struct {
	Token0   model.TokenLeg
	Token1   model.TokenLeg
	TotalUSD float64
}

// Calculator turns reserve amounts into USD valuations. A pool is
// valued all or nothing: when either leg cannot be priced the whole
// computation fails instead of reporting a partial TVL that would
// trip the change detector.
type Calculator struct {
	resolver Resolver
}

func NewCalculator(resolver Resolver) *Calculator {
	return &Calculator{resolver: resolver}
}

// Compute prices both legs with a single resolver round trip. On any
// missing price it returns an *UnresolvedPriceError listing the
// symbols in sorted order.
func (c *Calculator) Compute(ctx context.Context, leg0, leg1 Leg) (Result, error) {
	sym0 := price.Normalize(leg0.Symbol)
	sym1 := price.Normalize(leg1.Symbol)

	prices := c.resolver.ResolveMany(ctx, []string{sym0, sym1})

	var missing []string
	p0, ok := prices[sym0]
	if !ok {
		missing = append(missing, sym0)
	}
	p1, ok := prices[sym1]
	if !ok && sym1 != sym0 {
		missing = append(missing, sym1)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Result{}, &UnresolvedPriceError{Symbols: missing}
	}

	value0 := leg0.Amount * p0
	value1 := leg1.Amount * p1
	total := value0 + value1

	result := Result{
		Token0: model.TokenLeg{
			Symbol:   sym0,
			Amount:   leg0.Amount,
			PriceUSD: p0,
			ValueUSD: value0,
		},
		Token1: model.TokenLeg{
			Symbol:   sym1,
			Amount:   leg1.Amount,
			PriceUSD: p1,
			ValueUSD: value1,
		},
		TotalUSD: total,
	}
	if total > 0 {
		result.Token0.SharePct = value0 / total * 100
		result.Token1.SharePct = value1 / total * 100
	}
	return result, nil
}
