package main

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	"github.com/spf13/cobra"

	"yotswap/pkg/orchestrator"
)

var (
	swapDirection string
	swapAmount    string
	swapSlippage  uint64
	swapStrategy  string
)

var swapCmd = &cobra.Command{
	Use:   "swap",
	Short: "Execute a swap through the multi-phase protocol",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newLogger(); err != nil {
			return err
		}
		direction, err := parseDirection(swapDirection)
		if err != nil {
			return err
		}
		amountIn, ok := math.NewIntFromString(swapAmount)
		if !ok {
			return fmt.Errorf("invalid amount %q: must be an integer", swapAmount)
		}
		if swapStrategy != "" {
			cfg.Swap.RecoveryStrategy = swapStrategy
		}

		w, err := loadWallet()
		if err != nil {
			return err
		}

		ctx := context.Background()
		client, err := newClient(ctx)
		if err != nil {
			return err
		}
		defer client.Close()

		orch, cleanup, err := buildOrchestrator(ctx, client)
		if err != nil {
			return err
		}
		defer cleanup()

		res := orch.Execute(ctx, w, orchestrator.SwapRequest{
			Direction:   direction,
			AmountIn:    amountIn,
			SlippageBps: swapSlippage,
		})
		return printResult(res)
	},
}

func init() {
	swapCmd.Flags().StringVar(&swapDirection, "direction", "sol-to-yot", "swap direction: sol-to-yot or yot-to-sol")
	swapCmd.Flags().StringVar(&swapAmount, "amount", "", "input amount in smallest units (required)")
	swapCmd.Flags().Uint64Var(&swapSlippage, "slippage", 100, "slippage tolerance in basis points")
	swapCmd.Flags().StringVar(&swapStrategy, "strategy", "", "recovery strategy override: pre_creation, simulate_first, force_through, bounded_retry")
	swapCmd.MarkFlagRequired("amount")
}
