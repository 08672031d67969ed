package model

import "time"

// TokenLeg is one valued side of a pool snapshot.
type TokenLeg struct {
	Symbol   string  `json:"symbol"`
	Amount   float64 `json:"amount"`
	PriceUSD float64 `json:"price_usd"`
	ValueUSD float64 `json:"value_usd"`
	SharePct float64 `json:"share_pct"`
}

// PoolSnapshot is one fully valued observation of a pool. Snapshots are
// immutable once built; each cycle produces a new one.
type PoolSnapshot struct {
	PoolAddress       string    `json:"pool_address"`
	PoolName          string    `json:"pool_name"`
	Token0            TokenLeg  `json:"token0"`
	Token1            TokenLeg  `json:"token1"`
	TotalTVLUSD       float64   `json:"tvl_usd"`
	TargetToken       string    `json:"target_token"`
	TargetTokenAmount float64   `json:"target_token_amount"`
	TargetTokenPrice  float64   `json:"target_token_price"`
	TakenAt           time.Time `json:"taken_at"`
}
