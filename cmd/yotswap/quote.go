package main

import (
	"context"
	"encoding/json"
	"fmt"

	"cosmossdk.io/math"
	"github.com/spf13/cobra"

	"yotswap/pkg/orchestrator"
	"yotswap/pkg/pricing"
	"yotswap/pkg/swapprog"
)

type quoteResponse struct {
	Direction      string `json:"direction"`
	InAmount       string `json:"inAmount"`
	ExpectedOutput string `json:"expectedOutput"`
	UserShare      string `json:"userShare"`
	LiquidityShare string `json:"liquidityShare"`
	CashbackShare  string `json:"cashbackShare"`
	MinOutput      string `json:"minOutput"`
	SlippageBps    uint64 `json:"slippageBps"`
}

var (
	quoteDirection string
	quoteAmount    string
	quoteSlippage  uint64
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price a swap without submitting anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newLogger(); err != nil {
			return err
		}
		direction, err := parseDirection(quoteDirection)
		if err != nil {
			return err
		}
		amountIn, ok := math.NewIntFromString(quoteAmount)
		if !ok || !amountIn.IsPositive() {
			return fmt.Errorf("invalid amount %q: must be a positive integer", quoteAmount)
		}

		ctx := context.Background()
		client, err := newClient(ctx)
		if err != nil {
			return err
		}
		defer client.Close()

		accounts, err := cfg.Program.ParseAccounts()
		if err != nil {
			return err
		}
		reserves := &orchestrator.LedgerReserves{
			Ledger:  client,
			SolPool: accounts.SolPool,
			YotPool: accounts.YotPool,
		}
		snapshot, err := reserves.Snapshot(ctx, direction)
		if err != nil {
			return err
		}

		user, liquidity, cashback := cfg.Rates.DistributionRates()
		plan, err := pricing.ComputePlan(snapshot, amountIn, quoteSlippage,
			pricing.Rates{UserBps: user, LiquidityBps: liquidity, CashbackBps: cashback})
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(quoteResponse{
			Direction:      string(direction),
			InAmount:       amountIn.String(),
			ExpectedOutput: plan.ExpectedOutput.String(),
			UserShare:      plan.UserShare.String(),
			LiquidityShare: plan.LiquidityShare.String(),
			CashbackShare:  plan.CashbackShare.String(),
			MinOutput:      plan.MinOutput.String(),
			SlippageBps:    quoteSlippage,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	quoteCmd.Flags().StringVar(&quoteDirection, "direction", "sol-to-yot", "swap direction: sol-to-yot or yot-to-sol")
	quoteCmd.Flags().StringVar(&quoteAmount, "amount", "", "input amount in smallest units (required)")
	quoteCmd.Flags().Uint64Var(&quoteSlippage, "slippage", 100, "slippage tolerance in basis points")
	quoteCmd.MarkFlagRequired("amount")
}

func parseDirection(s string) (swapprog.Direction, error) {
	switch s {
	case "sol-to-yot":
		return swapprog.DirectionSolToYot, nil
	case "yot-to-sol":
		return swapprog.DirectionYotToSol, nil
	}
	return "", fmt.Errorf("unknown direction %q: use sol-to-yot or yot-to-sol", s)
}
