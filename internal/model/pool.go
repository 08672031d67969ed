package model

import "strings"

// Pool types as stored in the pools file.
const (
	PoolTypeV2 = "v2"
	PoolTypeV3 = "v3"
)

// TokenRef describes one leg of a configured pool. Symbol is the only
// required field; address and decimals are backfilled by the inspect
// command, CoingeckoID extends the built-in symbol mapping.
type TokenRef struct {
	Symbol      string `json:"symbol"`
	Address     string `json:"contract_address"`
	Decimals    uint8  `json:"decimals"`
	CoingeckoID string `json:"coingecko_id,omitempty"`
}

// Pool is one monitored pool as declared in the pools file.
type Pool struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Address         string   `json:"contract_address"`
	Token0          TokenRef `json:"token0"`
	Token1          TokenRef `json:"token1"`
	FeeTier         string   `json:"fee_tier,omitempty"`
	PoolType        string   `json:"pool_type,omitempty"`
	Enabled         bool     `json:"enabled"`
	TargetToken     string   `json:"target_token"`
	DirectQuotePair string   `json:"direct_quote_pair,omitempty"`
}

// TargetLeg reports which leg the target token refers to. Pools whose
// target matches neither symbol fall back to token0.
func (p Pool) TargetLeg() TokenRef {
	if strings.EqualFold(p.TargetToken, p.Token1.Symbol) {
		return p.Token1
	}
	return p.Token0
}

// Symbols returns both leg symbols.
func (p Pool) Symbols() []string {
	return []string{p.Token0.Symbol, p.Token1.Symbol}
}
