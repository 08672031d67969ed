package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"poolWatch/internal/model"
)

// PancakeSwap factory addresses on BSC mainnet.
const (
	DefaultV3Factory = "0x0BFbCF9fa4f9C56B0F40a671Ad40E0805A091865"
	DefaultV2Factory = "0xcA143Ce32Fe78f1f7019d7d551a6402fC5350c73"
)

// V3 fee tiers probed by FindPools, in hundredths of a basis point.
var feeTiers = []uint32{100, 500, 3000, 10000}

// FoundPool is one factory hit for a token pair.
type FoundPool struct {
	Address  string
	PoolType string
	Fee      uint32
	FeeTier  string
}

// Finder locates pools for a token pair through the DEX factory
// contracts.
type Finder struct {
	client    *Client
	v3Factory common.Address
	v2Factory common.Address
	logger    *zap.Logger
}

// NewFinder builds a Finder. Empty factory addresses fall back to the
// BSC mainnet defaults.
func NewFinder(client *Client, v3Factory, v2Factory string, logger *zap.Logger) (*Finder, error) {
	if v3Factory == "" {
		v3Factory = DefaultV3Factory
	}
	if v2Factory == "" {
		v2Factory = DefaultV2Factory
	}
	v3, err := ParseAddress(v3Factory)
	if err != nil {
		return nil, fmt.Errorf("v3 factory: %w", err)
	}
	v2, err := ParseAddress(v2Factory)
	if err != nil {
		return nil, fmt.Errorf("v2 factory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Finder{client: client, v3Factory: v3, v2Factory: v2, logger: logger}, nil
}

// FindPools probes every V3 fee tier for the pair, then falls back to
// the V2 factory when no V3 pool exists. The factory answers the zero
// address for tiers it has no pool at.
func (f *Finder) FindPools(ctx context.Context, tokenA, tokenB string) ([]FoundPool, error) {
	addrA, err := ParseAddress(tokenA)
	if err != nil {
		return nil, fmt.Errorf("token a: %w", err)
	}
	addrB, err := ParseAddress(tokenB)
	if err != nil {
		return nil, fmt.Errorf("token b: %w", err)
	}

	v3ABI, err := V3FactoryABI()
	if err != nil {
		return nil, fmt.Errorf("parse v3 factory abi: %w", err)
	}

	var found []FoundPool
	for _, fee := range feeTiers {
		pool, err := f.v3PoolAt(ctx, v3ABI, addrA, addrB, fee)
		if err != nil {
			f.logger.Debug("getPool call failed", zap.Uint32("fee", fee), zap.Error(err))
			continue
		}
		if pool == (common.Address{}) {
			continue
		}
		found = append(found, FoundPool{
			Address:  pool.Hex(),
			PoolType: model.PoolTypeV3,
			Fee:      fee,
			FeeTier:  FeeTierLabel(fee),
		})
	}
	if len(found) > 0 {
		return found, nil
	}

	v2ABI, err := V2FactoryABI()
	if err != nil {
		return nil, fmt.Errorf("parse v2 factory abi: %w", err)
	}
	values, err := callMethod(ctx, f.client, f.v2Factory, v2ABI, "getPair", addrA, addrB)
	if err != nil {
		return nil, fmt.Errorf("getPair: %w", err)
	}
	pair, err := asAddress(values[0])
	if err != nil {
		return nil, fmt.Errorf("getPair result: %w", err)
	}
	if pair == (common.Address{}) {
		return nil, nil
	}
	return []FoundPool{{Address: pair.Hex(), PoolType: model.PoolTypeV2}}, nil
}

// v3PoolAt asks the factory for the pool at one fee tier, trying both
// token orders. The canonical factory sorts the pair itself, but some
// forks do not.
func (f *Finder) v3PoolAt(ctx context.Context, v3ABI abi.ABI, addrA, addrB common.Address, fee uint32) (common.Address, error) {
	tier := big.NewInt(int64(fee))
	values, err := callMethod(ctx, f.client, f.v3Factory, v3ABI, "getPool", addrA, addrB, tier)
	if err == nil {
		pool, cerr := asAddress(values[0])
		if cerr != nil {
			return common.Address{}, fmt.Errorf("getPool result: %w", cerr)
		}
		if pool != (common.Address{}) {
			return pool, nil
		}
	}
	values, rerr := callMethod(ctx, f.client, f.v3Factory, v3ABI, "getPool", addrB, addrA, tier)
	if rerr != nil {
		if err != nil {
			return common.Address{}, err
		}
		return common.Address{}, rerr
	}
	return asAddress(values[0])
}

// FeeTierLabel renders a V3 fee constant as a percentage, e.g. 500
// becomes "0.05%".
func FeeTierLabel(fee uint32) string {
	return fmt.Sprintf("%g%%", float64(fee)/10000)
}
