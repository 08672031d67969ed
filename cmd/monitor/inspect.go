package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolWatch/internal/chain"
	"poolWatch/internal/config"
	"poolWatch/internal/model"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [ADDRESS]",
		Short: "Inspect pools on-chain and backfill token metadata",
		Long: "Reads pool type, fee tier, token metadata and reserves for one pool " +
			"or every pool in the roster, and fills missing token addresses and " +
			"decimals back into the pools file.",
		Args: cobra.MaximumNArgs(1),
		RunE: runInspect,
	}
	cmd.Flags().String("rpc", "", "BSC RPC URL")
	cmd.Flags().String("pools", "./pools.json", "pools file path")
	cmd.Flags().Bool("save", true, "write backfilled token metadata to the pools file")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	save, _ := cmd.Flags().GetBool("save")

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	roster, err := config.LoadPools(cfg.PoolsFile)
	if err != nil {
		return err
	}

	var addresses []string
	if len(args) == 1 {
		addresses = args
	} else {
		for _, pool := range roster.Pools {
			addresses = append(addresses, pool.Address)
		}
	}
	if len(addresses) == 0 {
		return fmt.Errorf("nothing to inspect: pools file %s is empty", cfg.PoolsFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	reader := chain.NewReader(chainClient, logger)

	changed := false
	for _, address := range addresses {
		info, err := reader.InspectPool(ctx, address)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("inspect failed", zap.String("pool", address), zap.Error(err))
			continue
		}

		printPoolInfo(info)
		if backfillPool(roster, info) {
			changed = true
		}
	}

	if save && changed {
		if err := config.SavePools(cfg.PoolsFile, roster); err != nil {
			return err
		}
		fmt.Printf("pools file updated: %s\n", cfg.PoolsFile)
	}
	return nil
}

func printPoolInfo(info chain.PoolInfo) {
	fmt.Printf("pool %s (%s", info.Address, info.PoolType)
	if info.FeeTier != "" {
		fmt.Printf(", fee %s", info.FeeTier)
	}
	fmt.Println(")")

	printTokenMeta("token0", info.Token0, info.Reserves.Token0Amount)
	printTokenMeta("token1", info.Token1, info.Reserves.Token1Amount)

	if info.Liquidity != "" {
		fmt.Printf("   liquidity: %s\n", info.Liquidity)
	}
	fmt.Println()
}

func printTokenMeta(label string, meta model.TokenMeta, amount float64) {
	fmt.Printf("   %s: %s (%s), %d decimals\n", label, meta.Symbol, meta.Name, meta.Decimals)
	fmt.Printf("      address: %s\n", meta.Address)
	fmt.Printf("      balance: %.6f\n", amount)
}

// backfillPool copies chain-read token metadata into the roster entry
// for the inspected pool. Only fields the roster does not know yet are
// touched.
func backfillPool(roster *config.PoolsFile, info chain.PoolInfo) bool {
	pool := roster.Find(info.Address)
	if pool == nil {
		return false
	}

	changed := false
	if backfillLeg(&pool.Token0, info.Token0) {
		changed = true
	}
	if backfillLeg(&pool.Token1, info.Token1) {
		changed = true
	}
	if pool.PoolType == "" && info.PoolType != "" {
		pool.PoolType = info.PoolType
		changed = true
	}
	if pool.FeeTier == "" && info.FeeTier != "" {
		pool.FeeTier = info.FeeTier
		changed = true
	}
	return changed
}

func backfillLeg(ref *model.TokenRef, meta model.TokenMeta) bool {
	if ref.Address != "" {
		return false
	}
	if !symbolCompatible(ref.Symbol, meta.Symbol) {
		return false
	}

	ref.Address = meta.Address
	ref.Decimals = meta.Decimals
	if isPlaceholderSymbol(ref.Symbol) {
		ref.Symbol = meta.Symbol
	}
	return true
}

// symbolCompatible guards against writing one token's address next to
// another token's symbol when the roster entry and the chain disagree.
func symbolCompatible(configured, onchain string) bool {
	if isPlaceholderSymbol(configured) {
		return true
	}
	return strings.EqualFold(configured, onchain)
}

func isPlaceholderSymbol(symbol string) bool {
	switch symbol {
	case "", "TOKEN0", "TOKEN1":
		return true
	}
	return false
}
