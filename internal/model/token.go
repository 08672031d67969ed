package model

// TokenMeta captures ERC20 metadata read from chain.
type TokenMeta struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
}

// PoolReserves is one ledger read of a pool: both leg symbols and their
// human-unit balances. Amounts are already divided by token decimals.
type PoolReserves struct {
	Token0Symbol string  `json:"token0_symbol"`
	Token1Symbol string  `json:"token1_symbol"`
	Token0Amount float64 `json:"token0_amount"`
	Token1Amount float64 `json:"token1_amount"`
}
