package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"poolWatch/internal/model"
)

// Reader turns configured pools into reserve observations. Token
// metadata and detected pool types are cached across cycles; only the
// balance and reserve calls repeat.
type Reader struct {
	client *Client
	tokens *TokenMetaCache
	logger *zap.Logger

	mu    sync.RWMutex
	types map[common.Address]string
}

func NewReader(client *Client, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{
		client: client,
		tokens: NewTokenMetaCache(),
		logger: logger,
		types:  make(map[common.Address]string),
	}
}

type legMeta struct {
	address  common.Address
	symbol   string
	decimals uint8
}

// ReadPool reads the current reserves of one pool. V3 pools hold their
// tokens directly, so both legs are balanceOf calls; V2 pairs expose
// getReserves.
func (r *Reader) ReadPool(ctx context.Context, pool model.Pool) (model.PoolReserves, error) {
	poolAddr, err := ParseAddress(pool.Address)
	if err != nil {
		return model.PoolReserves{}, err
	}

	poolType := pool.PoolType
	if poolType == "" {
		poolType, err = r.PoolType(ctx, poolAddr)
		if err != nil {
			return model.PoolReserves{}, err
		}
	}

	leg0, leg1, err := r.resolveLegs(ctx, poolAddr, pool, poolType)
	if err != nil {
		return model.PoolReserves{}, err
	}

	var raw0, raw1 *big.Int
	switch poolType {
	case model.PoolTypeV3:
		if raw0, err = r.balanceOf(ctx, leg0.address, poolAddr); err != nil {
			return model.PoolReserves{}, fmt.Errorf("token0 balance: %w", err)
		}
		if raw1, err = r.balanceOf(ctx, leg1.address, poolAddr); err != nil {
			return model.PoolReserves{}, fmt.Errorf("token1 balance: %w", err)
		}
	case model.PoolTypeV2:
		if raw0, raw1, err = r.pairReserves(ctx, poolAddr); err != nil {
			return model.PoolReserves{}, err
		}
	default:
		return model.PoolReserves{}, fmt.Errorf("unknown pool type %q", poolType)
	}

	return model.PoolReserves{
		Token0Symbol: leg0.symbol,
		Token1Symbol: leg1.symbol,
		Token0Amount: amountFromRaw(raw0, leg0.decimals),
		Token1Amount: amountFromRaw(raw1, leg1.decimals),
	}, nil
}

// PoolType probes the contract kind. A V3 pool answers fee(); a V2
// pair answers getReserves(). Results are cached per address.
func (r *Reader) PoolType(ctx context.Context, poolAddr common.Address) (string, error) {
	r.mu.RLock()
	cached, ok := r.types[poolAddr]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	poolType, err := r.detectPoolType(ctx, poolAddr)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.types[poolAddr] = poolType
	r.mu.Unlock()
	return poolType, nil
}

func (r *Reader) detectPoolType(ctx context.Context, poolAddr common.Address) (string, error) {
	v3ABI, err := V3PoolABI()
	if err != nil {
		return "", fmt.Errorf("parse v3 pool abi: %w", err)
	}
	if _, err := callMethod(ctx, r.client, poolAddr, v3ABI, "fee"); err == nil {
		return model.PoolTypeV3, nil
	}

	v2ABI, err := V2PairABI()
	if err != nil {
		return "", fmt.Errorf("parse v2 pair abi: %w", err)
	}
	if _, err := callMethod(ctx, r.client, poolAddr, v2ABI, "getReserves"); err == nil {
		return model.PoolTypeV2, nil
	}

	return "", fmt.Errorf("contract %s is neither a v3 pool nor a v2 pair", poolAddr.Hex())
}

// TokenMeta loads ERC20 metadata through the process-lifetime cache.
func (r *Reader) TokenMeta(ctx context.Context, token common.Address) (model.TokenMeta, error) {
	if meta, ok := r.tokens.Get(token); ok {
		return meta, nil
	}
	meta, err := FetchTokenMeta(ctx, r.client, token, r.logger)
	if err != nil {
		return model.TokenMeta{}, err
	}
	r.tokens.Set(token, meta)
	return meta, nil
}

// resolveLegs picks symbols, addresses and decimals for both legs. A
// fully specified roster entry is trusted as-is and costs no RPC; legs
// with missing fields are completed from chain metadata.
func (r *Reader) resolveLegs(ctx context.Context, poolAddr common.Address, pool model.Pool, poolType string) (legMeta, legMeta, error) {
	leg0, ok0 := legFromConfig(pool.Token0)
	leg1, ok1 := legFromConfig(pool.Token1)
	if ok0 && ok1 {
		return leg0, leg1, nil
	}

	addr0, addr1, err := r.legAddresses(ctx, poolAddr, poolType)
	if err != nil {
		return legMeta{}, legMeta{}, err
	}
	if !ok0 {
		if leg0, err = r.chainLeg(ctx, addr0, pool.Token0); err != nil {
			return legMeta{}, legMeta{}, fmt.Errorf("token0 metadata: %w", err)
		}
	}
	if !ok1 {
		if leg1, err = r.chainLeg(ctx, addr1, pool.Token1); err != nil {
			return legMeta{}, legMeta{}, fmt.Errorf("token1 metadata: %w", err)
		}
	}
	return leg0, leg1, nil
}

func legFromConfig(ref model.TokenRef) (legMeta, bool) {
	if ref.Address == "" || ref.Decimals == 0 {
		return legMeta{}, false
	}
	addr, err := ParseAddress(ref.Address)
	if err != nil {
		return legMeta{}, false
	}
	return legMeta{address: addr, symbol: ref.Symbol, decimals: ref.Decimals}, true
}

func (r *Reader) chainLeg(ctx context.Context, token common.Address, ref model.TokenRef) (legMeta, error) {
	meta, err := r.TokenMeta(ctx, token)
	if err != nil {
		return legMeta{}, err
	}
	leg := legMeta{address: token, symbol: meta.Symbol, decimals: meta.Decimals}
	// The roster symbol wins when both exist; it is the key the price
	// feeds are configured under.
	if ref.Symbol != "" {
		leg.symbol = ref.Symbol
	}
	return leg, nil
}

// legAddresses asks the pool contract for its two token addresses.
func (r *Reader) legAddresses(ctx context.Context, poolAddr common.Address, poolType string) (common.Address, common.Address, error) {
	poolABI, err := r.poolABI(poolType)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}

	values, err := callMethod(ctx, r.client, poolAddr, poolABI, "token0")
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	addr0, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("token0: %w", err)
	}

	values, err = callMethod(ctx, r.client, poolAddr, poolABI, "token1")
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	addr1, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("token1: %w", err)
	}

	return addr0, addr1, nil
}

func (r *Reader) poolABI(poolType string) (abi.ABI, error) {
	if poolType == model.PoolTypeV2 {
		return V2PairABI()
	}
	return V3PoolABI()
}

func (r *Reader) balanceOf(ctx context.Context, token, holder common.Address) (*big.Int, error) {
	erc20, err := erc20ABIStringInstance()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := callMethod(ctx, r.client, token, erc20, "balanceOf", holder)
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

func (r *Reader) pairReserves(ctx context.Context, pair common.Address) (*big.Int, *big.Int, error) {
	pairABI, err := V2PairABI()
	if err != nil {
		return nil, nil, fmt.Errorf("parse v2 pair abi: %w", err)
	}
	values, err := callMethod(ctx, r.client, pair, pairABI, "getReserves")
	if err != nil {
		return nil, nil, err
	}
	if len(values) < 2 {
		return nil, nil, fmt.Errorf("getReserves returned %d values", len(values))
	}
	raw0, err := asBigInt(values[0])
	if err != nil {
		return nil, nil, fmt.Errorf("reserve0: %w", err)
	}
	raw1, err := asBigInt(values[1])
	if err != nil {
		return nil, nil, fmt.Errorf("reserve1: %w", err)
	}
	return raw0, raw1, nil
}

// PoolInfo is the full on-chain picture of a pool, used by the inspect
// command and the roster backfill.
type PoolInfo struct {
	Address      string
	PoolType     string
	FeeTier      string
	Token0       model.TokenMeta
	Token1       model.TokenMeta
	Reserves     model.PoolReserves
	Liquidity    string
	SqrtPriceX96 string
	Tick         int32
}

// InspectPool reads everything knowable about a pool address: type,
// fee tier, both tokens' metadata and current reserves. V3 liquidity
// and slot0 are best effort.
func (r *Reader) InspectPool(ctx context.Context, address string) (PoolInfo, error) {
	poolAddr, err := ParseAddress(address)
	if err != nil {
		return PoolInfo{}, err
	}
	poolType, err := r.PoolType(ctx, poolAddr)
	if err != nil {
		return PoolInfo{}, err
	}

	info := PoolInfo{Address: poolAddr.Hex(), PoolType: poolType}

	addr0, addr1, err := r.legAddresses(ctx, poolAddr, poolType)
	if err != nil {
		return PoolInfo{}, err
	}
	if info.Token0, err = r.TokenMeta(ctx, addr0); err != nil {
		return PoolInfo{}, fmt.Errorf("token0 metadata: %w", err)
	}
	if info.Token1, err = r.TokenMeta(ctx, addr1); err != nil {
		return PoolInfo{}, fmt.Errorf("token1 metadata: %w", err)
	}

	var raw0, raw1 *big.Int
	switch poolType {
	case model.PoolTypeV3:
		v3ABI, abiErr := V3PoolABI()
		if abiErr != nil {
			return PoolInfo{}, fmt.Errorf("parse v3 pool abi: %w", abiErr)
		}
		if values, err := callMethod(ctx, r.client, poolAddr, v3ABI, "fee"); err == nil {
			if fee, err := asBigInt(values[0]); err == nil {
				info.FeeTier = FeeTierLabel(uint32(fee.Uint64()))
			}
		}
		if values, err := callMethod(ctx, r.client, poolAddr, v3ABI, "liquidity"); err == nil {
			if liq, err := asBigInt(values[0]); err == nil {
				info.Liquidity = liq.String()
			}
		} else {
			r.logger.Debug("liquidity call failed", zap.String("pool", poolAddr.Hex()), zap.Error(err))
		}
		if values, err := callMethod(ctx, r.client, poolAddr, v3ABI, "slot0"); err == nil && len(values) >= 2 {
			sqrt, errSqrt := asBigInt(values[0])
			tick, errTick := asBigInt(values[1])
			if errSqrt == nil && errTick == nil {
				info.SqrtPriceX96 = sqrt.String()
				info.Tick = int32(tick.Int64())
			}
		} else if err != nil {
			r.logger.Debug("slot0 call failed", zap.String("pool", poolAddr.Hex()), zap.Error(err))
		}

		if raw0, err = r.balanceOf(ctx, addr0, poolAddr); err != nil {
			return PoolInfo{}, fmt.Errorf("token0 balance: %w", err)
		}
		if raw1, err = r.balanceOf(ctx, addr1, poolAddr); err != nil {
			return PoolInfo{}, fmt.Errorf("token1 balance: %w", err)
		}
	case model.PoolTypeV2:
		if raw0, raw1, err = r.pairReserves(ctx, poolAddr); err != nil {
			return PoolInfo{}, err
		}
	}

	info.Reserves = model.PoolReserves{
		Token0Symbol: info.Token0.Symbol,
		Token1Symbol: info.Token1.Symbol,
		Token0Amount: amountFromRaw(raw0, info.Token0.Decimals),
		Token1Amount: amountFromRaw(raw1, info.Token1.Decimals),
	}
	return info, nil
}
