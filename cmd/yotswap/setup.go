package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"yotswap/pkg"
	"yotswap/pkg/orchestrator"
	"yotswap/pkg/pricing"
	"yotswap/pkg/ratelimit"
	"yotswap/pkg/sol"
	"yotswap/pkg/subscription"
	"yotswap/pkg/verify"
	"yotswap/pkg/wallet"
)

var logger *slog.Logger

// newClient builds the RPC client, load-balancing across endpoints when more
// than one is configured.
func newClient(ctx context.Context) (*sol.Client, error) {
	endpoints := cfg.Solana.RPCEndpoints
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no RPC endpoints configured")
	}
	if len(endpoints) > 1 {
		pool, err := sol.NewRPCPool(ctx, endpoints, cfg.Solana.JitoEndpoint, cfg.Solana.ReqLimitPerSecond)
		if err != nil {
			return nil, err
		}
		return pool.GetClient(), nil
	}
	return sol.NewClient(ctx, endpoints[0], cfg.Solana.JitoEndpoint, cfg.Solana.ReqLimitPerSecond)
}

// loadWallet resolves the signing key from config.
func loadWallet() (*wallet.Keypair, error) {
	if cfg.Wallet.SecretKey != "" {
		return wallet.FromBase58(cfg.Wallet.SecretKey)
	}
	if cfg.Wallet.KeypairPath != "" {
		return wallet.FromFile(cfg.Wallet.KeypairPath)
	}
	return nil, fmt.Errorf("no wallet configured: set wallet.keypair_path or wallet.secret_key")
}

// buildOrchestrator wires the full execution stack from config. The returned
// cleanup closes the reserve watcher when one was started.
func buildOrchestrator(ctx context.Context, client *sol.Client) (*orchestrator.Orchestrator, func(), error) {
	programID, err := cfg.Program.ProgramID()
	if err != nil {
		return nil, nil, err
	}
	accounts, err := cfg.Program.ParseAccounts()
	if err != nil {
		return nil, nil, err
	}

	verifier := verify.New(client, cfg.Swap.ConfirmPoll(), cfg.Swap.ConfirmTimeout())
	limiter := ratelimit.New(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst,
		time.Duration(cfg.RateLimit.TTLMinutes)*time.Minute)

	ledgerReserves := &orchestrator.LedgerReserves{
		Ledger:  client,
		SolPool: accounts.SolPool,
		YotPool: accounts.YotPool,
	}

	var reserves orchestrator.ReserveSource = ledgerReserves
	cleanup := func() {}
	if cfg.Solana.WSEndpoint != "" {
		watcher, err := subscription.NewReserveWatcher(ctx, cfg.Solana.WSEndpoint,
			accounts.SolPool, accounts.YotPool, ledgerReserves, 10*time.Second, logger)
		if err != nil {
			logger.Warn("reserve watcher unavailable; falling back to RPC reads", "error", err)
		} else {
			reserves = watcher
			cleanup = func() { watcher.Close() }
		}
	}

	user, liquidity, cashback := cfg.Rates.DistributionRates()
	strategy, ok := pkg.ParseRecoveryStrategy(cfg.Swap.RecoveryStrategy)
	if !ok {
		cleanup()
		return nil, nil, fmt.Errorf("unknown recovery strategy %q", cfg.Swap.RecoveryStrategy)
	}
	if cfg.Swap.UseJitoBundle && cfg.Solana.JitoEndpoint == "" {
		cleanup()
		return nil, nil, fmt.Errorf("swap.use_jito_bundle requires solana.jito_endpoint")
	}

	orch := orchestrator.New(client, verifier, reserves, limiter, logger, orchestrator.Options{
		ProgramID:                programID,
		Accounts:                 accounts,
		Rates:                    pricing.Rates{UserBps: user, LiquidityBps: liquidity, CashbackBps: cashback},
		Strategy:                 strategy,
		ContentionPatterns:       cfg.Swap.ContentionErrorPatterns,
		RetryBackoff:             cfg.Swap.RetryBackoff(),
		PriorityFeeMicroLamports: cfg.Swap.PriorityFeeMicroLamports,
		ComputeUnits:             cfg.Swap.ComputeUnits,
		UseJitoBundle:            cfg.Swap.UseJitoBundle,
	})
	return orch, cleanup, nil
}

// printResult renders the execution result and sets the process exit code.
func printResult(res *orchestrator.ExecutionResult) error {
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	if res.Outcome != pkg.OutcomeSuccess {
		os.Exit(1)
	}
	return nil
}
