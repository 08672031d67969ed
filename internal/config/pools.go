package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"poolWatch/internal/model"
)

// PoolsFile is the JSON roster the pools subcommands edit and the
// monitor reads at startup.
type PoolsFile struct {
	Pools []model.Pool `json:"pools"`
}

// LoadPools reads the roster. A missing file is an empty roster, so
// the first `pools add` can bootstrap it.
func LoadPools(path string) (*PoolsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &PoolsFile{}, nil
		}
		return nil, fmt.Errorf("read pools file: %w", err)
	}

	var pf PoolsFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse pools file: %w", err)
	}
	return &pf, nil
}

// SavePools writes the roster atomically via a tmp file rename.
func SavePools(path string, pf *PoolsFile) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create pools dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(pf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal pools file: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write pools tmp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename pools file: %w", err)
	}
	return nil
}

// Find returns the pool with the given address, or nil.
func (pf *PoolsFile) Find(address string) *model.Pool {
	for i := range pf.Pools {
		if strings.EqualFold(pf.Pools[i].Address, address) {
			return &pf.Pools[i]
		}
	}
	return nil
}

// Add appends a pool, rejecting duplicate addresses. Missing fields
// get the usual defaults: a generated id, a name derived from the
// address, token0 as the target.
func (pf *PoolsFile) Add(pool model.Pool) error {
	if strings.TrimSpace(pool.Address) == "" {
		return errors.New("pool address is required")
	}
	if pf.Find(pool.Address) != nil {
		return fmt.Errorf("pool %s already exists", pool.Address)
	}

	if pool.ID == "" {
		pool.ID = fmt.Sprintf("pool_%d", len(pf.Pools))
	}
	if pool.Name == "" {
		pool.Name = fmt.Sprintf("Pool %.8s...", pool.Address)
	}
	if pool.Token0.Symbol == "" {
		pool.Token0.Symbol = "TOKEN0"
	}
	if pool.Token1.Symbol == "" {
		pool.Token1.Symbol = "TOKEN1"
	}
	if pool.FeeTier == "" {
		pool.FeeTier = "0.3%"
	}
	if pool.PoolType == "" {
		pool.PoolType = model.PoolTypeV3
	}
	if pool.TargetToken == "" {
		pool.TargetToken = pool.Token0.Symbol
	}

	pf.Pools = append(pf.Pools, pool)
	return nil
}

// Remove deletes a pool by address.
func (pf *PoolsFile) Remove(address string) bool {
	for i := range pf.Pools {
		if strings.EqualFold(pf.Pools[i].Address, address) {
			pf.Pools = append(pf.Pools[:i], pf.Pools[i+1:]...)
			return true
		}
	}
	return false
}

// SetEnabled toggles monitoring for a pool by address.
func (pf *PoolsFile) SetEnabled(address string, enabled bool) bool {
	if p := pf.Find(address); p != nil {
		p.Enabled = enabled
		return true
	}
	return false
}

// SearchByToken matches pools whose leg symbols contain the fragment,
// case-insensitively.
func (pf *PoolsFile) SearchByToken(symbol string) []model.Pool {
	needle := strings.ToUpper(strings.TrimSpace(symbol))
	if needle == "" {
		return nil
	}

	var out []model.Pool
	for _, p := range pf.Pools {
		if strings.Contains(strings.ToUpper(p.Token0.Symbol), needle) ||
			strings.Contains(strings.ToUpper(p.Token1.Symbol), needle) {
			out = append(out, p)
		}
	}
	return out
}

// Enabled returns the pools the monitor should watch.
func (pf *PoolsFile) Enabled() []model.Pool {
	var out []model.Pool
	for _, p := range pf.Pools {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out
}

// DirectQuotePairs collects target-symbol to DEX pair mappings from
// the roster for the pair-quote price feed. The first pool declaring a
// pair for a symbol wins.
func (pf *PoolsFile) DirectQuotePairs() map[string]string {
	out := make(map[string]string)
	for _, p := range pf.Pools {
		if p.DirectQuotePair == "" {
			continue
		}
		sym := strings.ToUpper(strings.TrimSpace(p.TargetLeg().Symbol))
		if sym == "" {
			continue
		}
		if _, ok := out[sym]; !ok {
			out[sym] = p.DirectQuotePair
		}
	}
	return out
}

// CoinGeckoIDs collects the roster's symbol to coingecko id overrides
// for tokens outside the built-in mapping.
func (pf *PoolsFile) CoinGeckoIDs() map[string]string {
	out := make(map[string]string)
	for _, p := range pf.Pools {
		for _, ref := range []model.TokenRef{p.Token0, p.Token1} {
			if ref.CoingeckoID == "" || ref.Symbol == "" {
				continue
			}
			sym := strings.ToUpper(strings.TrimSpace(ref.Symbol))
			if _, ok := out[sym]; !ok {
				out[sym] = ref.CoingeckoID
			}
		}
	}
	return out
}
