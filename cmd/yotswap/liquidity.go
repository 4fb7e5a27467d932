package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"yotswap/pkg/swapprog"
)

var claimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Claim the weekly YOS reward on contributed liquidity",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newLogger(); err != nil {
			return err
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

		return printResult(orch.ExecuteClaim(ctx, w))
	},
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw contributed liquidity",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newLogger(); err != nil {
			return err
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

		return printResult(orch.ExecuteWithdraw(ctx, w))
	},
}

type contributionResponse struct {
	Address           string `json:"address"`
	ContributedAmount uint64 `json:"contributedAmount"`
	StartedAt         string `json:"startedAt"`
	LastClaimAt       string `json:"lastClaimAt"`
	TotalClaimedYos   uint64 `json:"totalClaimedYos"`
	NextClaimAt       string `json:"nextClaimAt"`
}

var contributionCmd = &cobra.Command{
	Use:   "contribution",
	Short: "Show the wallet's liquidity contribution account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newLogger(); err != nil {
			return err
		}
		w, err := loadWallet()
		if err != nil {
			return err
		}
		programID, err := cfg.Program.ProgramID()
		if err != nil {
			return err
		}

		ctx := context.Background()
		client, err := newClient(ctx)
		if err != nil {
			return err
		}
		defer client.Close()

		addr, _, err := swapprog.DeriveContributionPDA(programID, w.Identity())
		if err != nil {
			return err
		}
		info, err := client.GetAccountInfo(ctx, addr)
		if err != nil {
			return fmt.Errorf("no contribution account at %s: %w", addr, err)
		}

		var contrib swapprog.LiquidityContribution
		if err := contrib.Decode(info.Value.Data.GetBinary()); err != nil {
			return err
		}

		lastClaim := time.Unix(contrib.LastClaimTime, 0).UTC()
		out, err := json.MarshalIndent(contributionResponse{
			Address:           addr.String(),
			ContributedAmount: contrib.ContributedAmount,
			StartedAt:         time.Unix(contrib.StartTimestamp, 0).UTC().Format(time.RFC3339),
			LastClaimAt:       lastClaim.Format(time.RFC3339),
			TotalClaimedYos:   contrib.TotalClaimedYos,
			NextClaimAt:       lastClaim.Add(7 * 24 * time.Hour).Format(time.RFC3339),
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}
