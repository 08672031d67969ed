package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Source tags recorded against cache entries.
const (
	SourceDexScreener = "dexscreener"
	SourceCoinGecko   = "coingecko"
)

const (
	dexscreenerBaseURL = "https://api.dexscreener.com"
	coingeckoBaseURL   = "https://api.coingecko.com"

	feedTimeout = 15 * time.Second
)

// Feed is one external quote source. Symbols passed in are canonical
// uppercase. Fetch returns the subset it can price; the error reports
// feed-level trouble without discarding the partial result.
type Feed interface {
	Name() string
	Fetch(ctx context.Context, symbols []string) (map[string]float64, error)
}

// DexScreenerFeed prices a token from its own trading pair. Only
// symbols with a configured pair address can be quoted, so it runs
// first and covers pool target tokens that no aggregator lists.
type DexScreenerFeed struct {
	base   string
	chain  string
	pairs  map[string]string
	client *http.Client
}

// NewDexScreenerFeed builds the per-pair feed. pairs maps token symbol
// to the address of the pair it trades in; an empty base selects the
// public API.
func NewDexScreenerFeed(base, chain string, pairs map[string]string) *DexScreenerFeed {
	if base == "" {
		base = dexscreenerBaseURL
	}
	table := make(map[string]string, len(pairs))
	for symbol, pair := range pairs {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		table[Normalize(symbol)] = strings.TrimSpace(pair)
	}
	return &DexScreenerFeed{
		base:   strings.TrimRight(base, "/"),
		chain:  chain,
		pairs:  table,
		client: &http.Client{Timeout: feedTimeout},
	}
}

func (f *DexScreenerFeed) Name() string { return SourceDexScreener }

type dexPair struct {
	ChainID   string `json:"chainId"`
	PriceUsd  string `json:"priceUsd"`
	Liquidity struct {
		Usd float64 `json:"usd"`
	} `json:"liquidity"`
}

// Fetch quotes each mapped symbol from its pair endpoint. Symbols
// without a pair mapping are not this feed's to answer and are skipped.
func (f *DexScreenerFeed) Fetch(ctx context.Context, symbols []string) (map[string]float64, error) {
	prices := make(map[string]float64)
	var lastErr error

	for _, symbol := range symbols {
		pair, ok := f.pairs[symbol]
		if !ok {
			continue
		}

		value, err := f.fetchPair(ctx, pair)
		if err != nil {
			lastErr = fmt.Errorf("pair %s (%s): %w", pair, symbol, err)
			continue
		}
		prices[symbol] = value
	}

	return prices, lastErr
}

func (f *DexScreenerFeed) fetchPair(ctx context.Context, pair string) (float64, error) {
	endpoint := fmt.Sprintf("%s/latest/dex/pairs/%s/%s", f.base, f.chain, pair)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("dexscreener API status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}

	var result struct {
		Pair  *dexPair  `json:"pair"`
		Pairs []dexPair `json:"pairs"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("unmarshal dexscreener: %w", err)
	}

	candidates := result.Pairs
	if result.Pair != nil {
		candidates = append(candidates, *result.Pair)
	}

	// Several candidates can come back for one pair address; trust the
	// one with the deepest liquidity.
	var bestPrice, bestLiquidity float64
	for _, candidate := range candidates {
		value, err := strconv.ParseFloat(candidate.PriceUsd, 64)
		if err != nil || value <= 0 {
			continue
		}
		if bestPrice == 0 || candidate.Liquidity.Usd > bestLiquidity {
			bestLiquidity = candidate.Liquidity.Usd
			bestPrice = value
		}
	}
	if bestPrice == 0 {
		return 0, fmt.Errorf("no usable price in pair response")
	}
	return bestPrice, nil
}

// Symbol to CoinGecko id for the assets the monitor meets most often.
// Pool configs extend this set per token via coingecko_id.
var coingeckoIDs = map[string]string{
	"WBNB": "wbnb",
	"BNB":  "binancecoin",
	"USDT": "tether",
	"USDC": "usd-coin",
	"ETH":  "ethereum",
	"BTCB": "bitcoin",
	"CAKE": "pancakeswap-token",
	"MCH":  "monsterra-mch",
}

// CoinGeckoFeed batches every symbol it has an id for into a single
// simple-price request.
type CoinGeckoFeed struct {
	base   string
	ids    map[string]string
	client *http.Client
}

// NewCoinGeckoFeed merges the built-in id table with per-token extras
// from the pool roster. An empty base selects the public API.
func NewCoinGeckoFeed(base string, extra map[string]string) *CoinGeckoFeed {
	if base == "" {
		base = coingeckoBaseURL
	}
	ids := make(map[string]string, len(coingeckoIDs)+len(extra))
	for symbol, id := range coingeckoIDs {
		ids[symbol] = id
	}
	for symbol, id := range extra {
		if strings.TrimSpace(id) == "" {
			continue
		}
		ids[Normalize(symbol)] = strings.TrimSpace(id)
	}
	return &CoinGeckoFeed{
		base:   strings.TrimRight(base, "/"),
		ids:    ids,
		client: &http.Client{Timeout: feedTimeout},
	}
}

func (f *CoinGeckoFeed) Name() string { return SourceCoinGecko }

func (f *CoinGeckoFeed) Fetch(ctx context.Context, symbols []string) (map[string]float64, error) {
	prices := make(map[string]float64)

	ids := make([]string, 0, len(symbols))
	symbolByID := make(map[string]string, len(symbols))
	for _, symbol := range symbols {
		id, ok := f.ids[symbol]
		if !ok {
			continue
		}
		ids = append(ids, id)
		symbolByID[id] = symbol
	}
	if len(ids) == 0 {
		return prices, nil
	}

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))
	query.Set("vs_currencies", "usd")
	endpoint := fmt.Sprintf("%s/api/v3/simple/price?%s", f.base, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return prices, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return prices, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return prices, fmt.Errorf("coingecko API status: %d", resp.StatusCode)
	}

	var result map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return prices, fmt.Errorf("unmarshal coingecko: %w", err)
	}

	for id, quote := range result {
		symbol, ok := symbolByID[id]
		if !ok || quote.USD <= 0 {
			continue
		}
		prices[symbol] = quote.USD
	}

	return prices, nil
}
