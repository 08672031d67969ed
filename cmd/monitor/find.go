package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolWatch/internal/chain"
	"poolWatch/internal/config"
)

func newFindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find TOKEN_A TOKEN_B",
		Short: "Find pools for a token pair through the DEX factories",
		Long: "Probes the V3 factory at every fee tier for the given token " +
			"addresses and falls back to the V2 factory, printing each pool " +
			"found with its current balances.",
		Args: cobra.ExactArgs(2),
		RunE: runFind,
	}
	cmd.Flags().String("rpc", "", "BSC RPC URL")
	cmd.Flags().String("v3-factory", "", "V3 factory address (defaults to PancakeSwap BSC)")
	cmd.Flags().String("v2-factory", "", "V2 factory address (defaults to PancakeSwap BSC)")
	cmd.Flags().Bool("details", true, "read token balances for each hit")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

func runFind(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	v3Factory, _ := cmd.Flags().GetString("v3-factory")
	v2Factory, _ := cmd.Flags().GetString("v2-factory")
	details, _ := cmd.Flags().GetBool("details")

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	finder, err := chain.NewFinder(chainClient, v3Factory, v2Factory, logger)
	if err != nil {
		return err
	}

	found, err := finder.FindPools(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Println("no pools found for this pair")
		return nil
	}

	reader := chain.NewReader(chainClient, logger)
	for _, hit := range found {
		if hit.FeeTier != "" {
			fmt.Printf("%s pool at %s (fee %s)\n", hit.PoolType, hit.Address, hit.FeeTier)
		} else {
			fmt.Printf("%s pool at %s\n", hit.PoolType, hit.Address)
		}
		if !details {
			continue
		}

		info, err := reader.InspectPool(ctx, hit.Address)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("pool details unavailable", zap.String("pool", hit.Address), zap.Error(err))
			continue
		}
		fmt.Printf("   %s: %.6f\n", info.Reserves.Token0Symbol, info.Reserves.Token0Amount)
		fmt.Printf("   %s: %.6f\n", info.Reserves.Token1Symbol, info.Reserves.Token1Amount)
		if info.Reserves.Token0Amount > 0 && info.Reserves.Token1Amount > 0 {
			fmt.Println("   pool holds liquidity")
		} else {
			fmt.Println("   pool is empty")
		}
	}
	return nil
}
