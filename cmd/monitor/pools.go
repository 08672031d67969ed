package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"poolWatch/internal/config"
	"poolWatch/internal/model"
)

func newPoolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pools",
		Short: "Manage the monitored pools roster",
	}
	cmd.PersistentFlags().String("pools", "./pools.json", "pools file path")

	add := &cobra.Command{
		Use:   "add ADDRESS",
		Short: "Add a pool to the roster",
		Args:  cobra.ExactArgs(1),
		RunE:  runPoolsAdd,
	}
	add.Flags().String("name", "", "pool display name")
	add.Flags().String("token0", "", "token0 symbol")
	add.Flags().String("token1", "", "token1 symbol")
	add.Flags().String("fee", "", "fee tier label, e.g. 0.3%")
	add.Flags().String("target", "", "target token symbol (defaults to token0)")
	add.Flags().Bool("disabled", false, "add the pool disabled")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove ADDRESS",
		Short: "Remove a pool from the roster",
		Args:  cobra.ExactArgs(1),
		RunE:  runPoolsRemove,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List configured pools",
		Args:  cobra.NoArgs,
		RunE:  runPoolsList,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "enable ADDRESS",
		Short: "Enable monitoring for a pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return togglePool(cmd, args[0], true)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "disable ADDRESS",
		Short: "Disable monitoring for a pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return togglePool(cmd, args[0], false)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "search TOKEN",
		Short: "Search pools by token symbol",
		Args:  cobra.ExactArgs(1),
		RunE:  runPoolsSearch,
	})

	return cmd
}

func runPoolsAdd(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("pools")
	name, _ := cmd.Flags().GetString("name")
	token0, _ := cmd.Flags().GetString("token0")
	token1, _ := cmd.Flags().GetString("token1")
	fee, _ := cmd.Flags().GetString("fee")
	target, _ := cmd.Flags().GetString("target")
	disabled, _ := cmd.Flags().GetBool("disabled")

	roster, err := config.LoadPools(path)
	if err != nil {
		return err
	}

	pool := model.Pool{
		Name:        name,
		Address:     args[0],
		Token0:      model.TokenRef{Symbol: token0},
		Token1:      model.TokenRef{Symbol: token1},
		FeeTier:     fee,
		Enabled:     !disabled,
		TargetToken: target,
	}
	if err := roster.Add(pool); err != nil {
		return err
	}
	if err := config.SavePools(path, roster); err != nil {
		return err
	}

	added := roster.Pools[len(roster.Pools)-1]
	fmt.Printf("added %s (%s)\n", added.Name, added.Address)
	return nil
}

func runPoolsRemove(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("pools")

	roster, err := config.LoadPools(path)
	if err != nil {
		return err
	}
	if !roster.Remove(args[0]) {
		return fmt.Errorf("pool %s not found", args[0])
	}
	if err := config.SavePools(path, roster); err != nil {
		return err
	}

	fmt.Printf("removed %s\n", args[0])
	return nil
}

func runPoolsList(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("pools")

	roster, err := config.LoadPools(path)
	if err != nil {
		return err
	}
	if len(roster.Pools) == 0 {
		fmt.Println("no pools configured")
		return nil
	}

	for i, pool := range roster.Pools {
		fmt.Printf("%d. %s\n", i+1, pool.Name)
		printPool(pool)
	}
	return nil
}

func togglePool(cmd *cobra.Command, address string, enabled bool) error {
	path, _ := cmd.Flags().GetString("pools")

	roster, err := config.LoadPools(path)
	if err != nil {
		return err
	}
	if !roster.SetEnabled(address, enabled) {
		return fmt.Errorf("pool %s not found", address)
	}
	if err := config.SavePools(path, roster); err != nil {
		return err
	}

	state := "enabled"
	if !enabled {
		state = "disabled"
	}
	fmt.Printf("%s %s\n", state, address)
	return nil
}

func runPoolsSearch(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("pools")

	roster, err := config.LoadPools(path)
	if err != nil {
		return err
	}

	matches := roster.SearchByToken(args[0])
	if len(matches) == 0 {
		fmt.Printf("no pools matching %s\n", args[0])
		return nil
	}

	fmt.Printf("pools matching %s:\n", args[0])
	for _, pool := range matches {
		fmt.Printf("- %s\n", pool.Name)
		printPool(pool)
	}
	return nil
}

func printPool(pool model.Pool) {
	status := "enabled"
	if !pool.Enabled {
		status = "disabled"
	}
	fmt.Printf("   address: %s\n", pool.Address)
	fmt.Printf("   pair:    %s/%s\n", pool.Token0.Symbol, pool.Token1.Symbol)
	if pool.FeeTier != "" {
		fmt.Printf("   fee:     %s\n", pool.FeeTier)
	}
	fmt.Printf("   status:  %s\n", status)
	fmt.Printf("   target:  %s\n", pool.TargetToken)
	fmt.Println()
}
