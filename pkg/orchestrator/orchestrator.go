package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"

	"yotswap/pkg"
	"yotswap/pkg/pricing"
	"yotswap/pkg/ratelimit"
	"yotswap/pkg/sol"
	"yotswap/pkg/swapprog"
	"yotswap/pkg/verify"
	"yotswap/pkg/wallet"
)

// errSigningRejected marks a wallet-side refusal; the orchestrator aborts
// before any submission, leaving no on-chain side effects.
var errSigningRejected = errors.New("wallet rejected signing")

const secondsPerWeek = 7 * 24 * 60 * 60

// Options fixes the orchestrator's program binding and recovery policy.
type Options struct {
	ProgramID                solana.PublicKey
	Accounts                 swapprog.SwapAccounts
	Rates                    pricing.Rates
	Strategy                 pkg.RecoveryStrategy
	ContentionPatterns       []string
	RetryBackoff             time.Duration
	PriorityFeeMicroLamports uint64
	ComputeUnits             uint32
	// UseJitoBundle routes every submission through the ledger's block-engine
	// bundle path instead of direct RPC submission. Confirmation still polls
	// the transaction's own signature.
	UseJitoBundle bool
}

// Orchestrator sequences the transactions of one swap around the program's
// account-contention defect. A single request is strictly sequential: each
// phase depends on ledger state mutated by the previous one.
type Orchestrator struct {
	ledger     pkg.Ledger
	verifier   *verify.Verifier
	reserves   ReserveSource
	limiter    *ratelimit.Limiter
	classifier *Classifier
	log        *slog.Logger
	opts       Options
}

// New wires an orchestrator. All collaborators are injected; the orchestrator
// owns no global state.
func New(ledger pkg.Ledger, verifier *verify.Verifier, reserves ReserveSource, limiter *ratelimit.Limiter, log *slog.Logger, opts Options) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 500 * time.Millisecond
	}
	return &Orchestrator{
		ledger:     ledger,
		verifier:   verifier,
		reserves:   reserves,
		limiter:    limiter,
		classifier: &Classifier{ContentionPatterns: opts.ContentionPatterns, Log: log},
		log:        log,
		opts:       opts,
	}
}

// Execute runs one swap to a terminal result. Input validation failures
// resolve locally without a single network call; everything else ends in a
// classified outcome, never a raw panic or an unresolved pending state.
func (o *Orchestrator) Execute(ctx context.Context, w pkg.Wallet, req SwapRequest) *ExecutionResult {
	res := newResult()

	if err := wallet.Verify(w); err != nil {
		return res.fail(pkg.FailureWalletNotConnected, "wallet not connected", "")
	}
	if req.AmountIn.IsNil() || !req.AmountIn.IsPositive() || !req.AmountIn.IsUint64() {
		return res.fail(pkg.FailureInvalidAmount, "swap amount must be a positive 64-bit value", "")
	}
	if req.SlippageBps >= pricing.BpsDenominator {
		return res.fail(pkg.FailureInvalidAmount, "slippage tolerance out of range", "")
	}

	user := w.Identity()
	log := o.log.With("request_id", res.ID, "user", user.String(), "direction", string(req.Direction))

	if o.limiter != nil && !o.limiter.Allow(user.String()) {
		return res.fail(pkg.FailureSubmission, "duplicate submission suppressed by rate limiter", "")
	}

	snapshot, err := o.reserves.Snapshot(ctx, req.Direction)
	if err != nil {
		return res.fail(pkg.FailureSubmission, "failed to read pool reserves", err.Error())
	}
	if snapshot.ReserveIn.IsNil() || snapshot.ReserveOut.IsNil() ||
		!snapshot.ReserveIn.IsPositive() || !snapshot.ReserveOut.IsPositive() {
		return res.fail(pkg.FailureInsufficientLiquidity, "pool has no liquidity", "")
	}

	plan, err := pricing.ComputePlan(snapshot, req.AmountIn, req.SlippageBps, o.liveRates(ctx))
	if err != nil {
		switch {
		case errors.Is(err, pricing.ErrInsufficientLiquidity):
			return res.fail(pkg.FailureInsufficientLiquidity, "pool has no liquidity", err.Error())
		default:
			return res.fail(pkg.FailureInvalidAmount, "invalid swap request", err.Error())
		}
	}
	res.Plan = plan

	accounts, prelude, err := o.resolveAccounts(ctx, user)
	if err != nil {
		return res.fail(pkg.FailureSubmission, "failed to resolve accounts", err.Error())
	}

	if kind, msg := o.checkBalance(ctx, user, accounts, req); kind != pkg.FailureNone {
		return res.fail(kind, msg, "")
	}

	contribExists, err := o.verifier.AccountExists(ctx, accounts.Derived.Contribution)
	if err != nil {
		return res.fail(pkg.FailureSubmission, "failed to check contribution account", err.Error())
	}
	log.Info("contention account checked", "exists", contribExists, "strategy", string(o.opts.Strategy))

	if contribExists {
		return o.runSwapPhase(ctx, w, res, accounts, req, plan, prelude, pkg.PhaseSwapSubmit)
	}

	switch o.opts.Strategy {
	case pkg.StrategySimulateFirst:
		return o.runSimulateFirst(ctx, w, res, accounts, req, plan, prelude)
	case pkg.StrategyForceThrough:
		return o.runForceThrough(ctx, w, res, accounts, req, plan, prelude)
	case pkg.StrategyBoundedRetry:
		return o.runBoundedRetry(ctx, w, res, accounts, req, plan, prelude)
	default:
		return o.runPreCreation(ctx, w, res, accounts, req, plan, prelude)
	}
}

// liveRates reads the distribution split from the program's state PDA so a
// parameter update on chain takes effect without a config change. Falls back
// to the configured rates when the state account is unreadable.
func (o *Orchestrator) liveRates(ctx context.Context) pricing.Rates {
	state, _, err := swapprog.DeriveStatePDA(o.opts.ProgramID)
	if err != nil {
		return o.opts.Rates
	}
	info, err := o.ledger.GetAccountInfo(ctx, state)
	if err != nil || info == nil || info.Value == nil || info.Value.Data == nil {
		return o.opts.Rates
	}
	var st swapprog.ProgramState
	if err := st.Decode(info.Value.Data.GetBinary()); err != nil {
		return o.opts.Rates
	}
	if st.LpContributionRate+st.YosCashbackRate > pricing.BpsDenominator {
		return o.opts.Rates
	}
	return pricing.Rates{
		UserBps:      pricing.BpsDenominator - st.LpContributionRate - st.YosCashbackRate,
		LiquidityBps: st.LpContributionRate,
		CashbackBps:  st.YosCashbackRate,
	}
}

// resolveAccounts fills in the per-user addresses and returns any
// account-creation instructions that must precede the swap.
func (o *Orchestrator) resolveAccounts(ctx context.Context, user solana.PublicKey) (swapprog.SwapAccounts, []solana.Instruction, error) {
	accounts := o.opts.Accounts
	accounts.User = user

	derived, err := swapprog.DeriveAddresses(o.opts.ProgramID, user)
	if err != nil {
		return swapprog.SwapAccounts{}, nil, err
	}
	accounts.Derived = derived

	var prelude []solana.Instruction
	mints := []struct {
		mint solana.PublicKey
		dst  *solana.PublicKey
	}{
		{swapprog.YotMint, &accounts.UserYot},
		{accounts.YosMint, &accounts.UserYos},
	}
	for _, m := range mints {
		ata, _, err := solana.FindAssociatedTokenAddress(user, m.mint)
		if err != nil {
			return swapprog.SwapAccounts{}, nil, fmt.Errorf("derive token account: %w", err)
		}
		*m.dst = ata
		exists, err := o.verifier.AccountExists(ctx, ata)
		if err != nil {
			return swapprog.SwapAccounts{}, nil, err
		}
		if !exists {
			inst, err := sol.NewCreateTokenAccountInstruction(user, m.mint)
			if err != nil {
				return swapprog.SwapAccounts{}, nil, err
			}
			prelude = append(prelude, inst)
		}
	}
	return accounts, prelude, nil
}

// checkBalance fails fast when the user cannot fund the input side.
func (o *Orchestrator) checkBalance(ctx context.Context, user solana.PublicKey, accounts swapprog.SwapAccounts, req SwapRequest) (pkg.FailureKind, string) {
	switch req.Direction {
	case swapprog.DirectionSolToYot:
		lamports, err := o.ledger.GetBalance(ctx, user)
		if err != nil {
			return pkg.FailureSubmission, "failed to read wallet balance"
		}
		if lamports < req.AmountIn.Uint64() {
			return pkg.FailureInsufficientBalance, "wallet balance below requested input"
		}
	case swapprog.DirectionYotToSol:
		balance, err := o.ledger.GetTokenAccountBalance(ctx, accounts.UserYot)
		if err != nil {
			// A missing source token account means a zero balance.
			return pkg.FailureInsufficientBalance, "no source token balance"
		}
		if balance.LT(req.AmountIn) {
			return pkg.FailureInsufficientBalance, "token balance below requested input"
		}
	}
	return pkg.FailureNone, ""
}

// runPreCreation lands the contribution account in its own transaction, then
// submits the swap. The deterministic default: the account provably exists
// before the swap instruction executes.
func (o *Orchestrator) runPreCreation(ctx context.Context, w pkg.Wallet, res *ExecutionResult, accounts swapprog.SwapAccounts, req SwapRequest, plan pricing.Plan, prelude []solana.Instruction) *ExecutionResult {
	createIx, err := swapprog.NewCreateContributionInstruction(o.opts.ProgramID, accounts)
	if err != nil {
		return res.fail(pkg.FailureSubmission, "failed to build account-init instruction", err.Error())
	}

	instrs := append(prelude, createIx)
	conf, err := o.submitPhase(ctx, w, res, pkg.PhaseAccountInit, pkg.SubmitOptions{}, instrs...)
	if err != nil {
		return o.failFromSubmitError(res, err)
	}
	if done := o.resolveConfirmation(res, conf, pkg.PhaseAccountInit); done != nil {
		return done
	}

	// Re-verify before swapping: confirmation alone is not trusted to imply
	// the account materialized.
	exists, err := o.verifier.AccountExists(ctx, accounts.Derived.Contribution)
	if err != nil {
		return res.fail(pkg.FailureSubmission, "failed to re-verify contribution account", err.Error())
	}
	if !exists {
		return res.fail(pkg.FailureUnknownRejection, "contribution account missing after init phase", "")
	}

	return o.runSwapPhase(ctx, w, res, accounts, req, plan, nil, pkg.PhaseSwapSubmit)
}

// runSimulateFirst dry-runs the combined instruction before risking funds.
// If the simulation trips the contention signature, fall back to the
// pre-creation sequence; otherwise the combined path is safe to submit.
func (o *Orchestrator) runSimulateFirst(ctx context.Context, w pkg.Wallet, res *ExecutionResult, accounts swapprog.SwapAccounts, req SwapRequest, plan pricing.Plan, prelude []solana.Instruction) *ExecutionResult {
	combinedIx, err := swapprog.NewBuyAndDistributeInstruction(o.opts.ProgramID, accounts, req.AmountIn.Uint64())
	if err != nil {
		return res.fail(pkg.FailureSubmission, "failed to build swap instruction", err.Error())
	}

	blockhash, err := o.ledger.GetLatestBlockhash(ctx)
	if err != nil {
		return res.fail(pkg.FailureSubmission, "failed to fetch blockhash", err.Error())
	}
	tx, err := sol.BuildTransaction(blockhash, w.Identity(), o.withBudget(append(prelude, combinedIx))...)
	if err != nil {
		return res.fail(pkg.FailureSubmission, "failed to assemble transaction", err.Error())
	}
	if err := w.Sign(tx); err != nil {
		return res.fail(pkg.FailureSubmission, "wallet declined to sign; nothing submitted", err.Error())
	}

	sim, err := o.ledger.Simulate(ctx, tx)
	if err != nil {
		return res.fail(pkg.FailureSubmission, "simulation failed", err.Error())
	}
	if sim != nil && sim.Value != nil && sim.Value.Err != nil {
		raw := fmt.Sprintf("%v; logs: %s", sim.Value.Err, strings.Join(sim.Value.Logs, "\n"))
		kind := o.classifier.Classify(raw)
		if kind != pkg.FailureRecoverableContention {
			return res.fail(kind, "simulation rejected the swap", raw)
		}
		o.log.Info("simulation detected contention; switching to pre-creation", "request_id", res.ID)
		return o.runPreCreation(ctx, w, res, accounts, req, plan, prelude)
	}

	conf, err := o.submitPhase(ctx, w, res, pkg.PhaseSwapSubmit, pkg.SubmitOptions{}, append(prelude, combinedIx)...)
	if err != nil {
		return o.failFromSubmitError(res, err)
	}
	if done := o.resolveConfirmation(res, conf, pkg.PhaseSwapSubmit); done != nil {
		return done
	}
	return res.succeed("swap confirmed in a single phase")
}

// runForceThrough pushes the combined instruction with preflight disabled,
// accepting that it may move the input and abort mid-distribution. On the
// contention signature it issues a zero-value completion once the account
// exists, then re-queries ledger state because the submission's own status
// is ambiguous after skipped preflight.
func (o *Orchestrator) runForceThrough(ctx context.Context, w pkg.Wallet, res *ExecutionResult, accounts swapprog.SwapAccounts, req SwapRequest, plan pricing.Plan, prelude []solana.Instruction) *ExecutionResult {
	combinedIx, err := swapprog.NewBuyAndDistributeInstruction(o.opts.ProgramID, accounts, req.AmountIn.Uint64())
	if err != nil {
		return res.fail(pkg.FailureSubmission, "failed to build swap instruction", err.Error())
	}

	conf, err := o.submitPhase(ctx, w, res, pkg.PhaseSwapSubmit, pkg.SubmitOptions{SkipPreflight: true}, append(prelude, combinedIx)...)
	if err != nil {
		return o.failFromSubmitError(res, err)
	}

	switch conf.Status {
	case verify.StatusConfirmed:
		return res.succeed("swap confirmed in a single phase")
	case verify.StatusTimeout:
		return res.fail(pkg.FailureConfirmationTimeout, "confirmation timed out; transaction may still land", "")
	}

	kind := o.classifier.Classify(conf.RawError)
	if kind != pkg.FailureRecoverableContention {
		return res.fail(kind, "swap rejected on chain", conf.RawError)
	}

	// The aborted attempt may have debited the input before failing; report
	// it instead of dropping the fact.
	res.InputDebited = true

	exists, err := o.verifier.AccountExists(ctx, accounts.Derived.Contribution)
	if err != nil {
		return res.fail(pkg.FailureSubmission, "failed to check contribution account", err.Error())
	}
	if !exists {
		createIx, err := swapprog.NewCreateContributionInstruction(o.opts.ProgramID, accounts)
		if err != nil {
			return res.fail(pkg.FailureSubmission, "failed to build account-init instruction", err.Error())
		}
		conf, err := o.submitPhase(ctx, w, res, pkg.PhaseAccountInit, pkg.SubmitOptions{}, createIx)
		if err != nil {
			return o.failFromSubmitError(res, err)
		}
		if done := o.resolveConfirmation(res, conf, pkg.PhaseAccountInit); done != nil {
			return done
		}
	}

	completionIx, err := swapprog.NewBuyAndDistributeInstruction(o.opts.ProgramID, accounts, 0)
	if err != nil {
		return res.fail(pkg.FailureSubmission, "failed to build completion instruction", err.Error())
	}
	conf, err = o.submitPhase(ctx, w, res, pkg.PhaseRecovery, pkg.SubmitOptions{SkipPreflight: true}, completionIx)
	if err != nil {
		return o.failFromSubmitError(res, err)
	}
	if done := o.resolveConfirmation(res, conf, pkg.PhaseRecovery); done != nil {
		return done
	}

	post, err := o.verifier.CheckPostConditions(ctx, accounts.Derived.Contribution, accounts.UserYot)
	if err != nil {
		return res.fail(pkg.FailureSubmission, "failed to verify post-conditions", err.Error())
	}
	if !post.ContributionExists {
		return res.fail(pkg.FailureUnknownRejection, "completion confirmed but contribution account still missing", "")
	}
	return res.succeed("swap completed after forced-through recovery")
}

// runBoundedRetry submits the swap, and on the contention signature only,
// waits a short backoff, ensures the account exists, and retries exactly once
// with a fresh blockhash.
func (o *Orchestrator) runBoundedRetry(ctx context.Context, w pkg.Wallet, res *ExecutionResult, accounts swapprog.SwapAccounts, req SwapRequest, plan pricing.Plan, prelude []solana.Instruction) *ExecutionResult {
	conf, err := o.submitSwap(ctx, w, res, accounts, req, plan, prelude, pkg.PhaseSwapSubmit)
	if err != nil {
		return o.failFromSubmitError(res, err)
	}
	switch conf.Status {
	case verify.StatusConfirmed:
		return res.succeed("swap confirmed")
	case verify.StatusTimeout:
		return res.fail(pkg.FailureConfirmationTimeout, "confirmation timed out; transaction may still land", "")
	}

	kind := o.classifier.Classify(conf.RawError)
	if kind != pkg.FailureRecoverableContention {
		return res.fail(kind, "swap rejected on chain", conf.RawError)
	}

	select {
	case <-ctx.Done():
		return res.fail(pkg.FailureSubmission, "cancelled during retry backoff", ctx.Err().Error())
	case <-time.After(o.opts.RetryBackoff):
	}

	exists, err := o.verifier.AccountExists(ctx, accounts.Derived.Contribution)
	if err != nil {
		return res.fail(pkg.FailureSubmission, "failed to re-check contribution account", err.Error())
	}
	if !exists {
		createIx, err := swapprog.NewCreateContributionInstruction(o.opts.ProgramID, accounts)
		if err != nil {
			return res.fail(pkg.FailureSubmission, "failed to build account-init instruction", err.Error())
		}
		initConf, err := o.submitPhase(ctx, w, res, pkg.PhaseAccountInit, pkg.SubmitOptions{}, createIx)
		if err != nil {
			return o.failFromSubmitError(res, err)
		}
		if done := o.resolveConfirmation(res, initConf, pkg.PhaseAccountInit); done != nil {
			return done
		}
	}

	conf, err = o.submitSwap(ctx, w, res, accounts, req, plan, nil, pkg.PhaseRecovery)
	if err != nil {
		return o.failFromSubmitError(res, err)
	}
	switch conf.Status {
	case verify.StatusConfirmed:
		return res.succeed("swap confirmed after bounded retry")
	case verify.StatusTimeout:
		return res.fail(pkg.FailureConfirmationTimeout, "retry confirmation timed out", "")
	}
	return res.fail(o.classifier.Classify(conf.RawError), "retry exhausted", conf.RawError)
}

// runSwapPhase is the direct single-phase path used when the contention
// account already exists.
func (o *Orchestrator) runSwapPhase(ctx context.Context, w pkg.Wallet, res *ExecutionResult, accounts swapprog.SwapAccounts, req SwapRequest, plan pricing.Plan, prelude []solana.Instruction, phase pkg.TransactionPhase) *ExecutionResult {
	conf, err := o.submitSwap(ctx, w, res, accounts, req, plan, prelude, phase)
	if err != nil {
		return o.failFromSubmitError(res, err)
	}
	if done := o.resolveConfirmation(res, conf, phase); done != nil {
		return done
	}
	return res.succeed("swap confirmed")
}

func (o *Orchestrator) submitSwap(ctx context.Context, w pkg.Wallet, res *ExecutionResult, accounts swapprog.SwapAccounts, req SwapRequest, plan pricing.Plan, prelude []solana.Instruction, phase pkg.TransactionPhase) (verify.Result, error) {
	swapIx, err := swapprog.NewSwapImmediateInstruction(
		o.opts.ProgramID, req.Direction, accounts,
		req.AmountIn.Uint64(), plan.MinOutput.Uint64(),
	)
	if err != nil {
		return verify.Result{}, err
	}
	return o.submitPhase(ctx, w, res, phase, pkg.SubmitOptions{}, append(prelude, swapIx)...)
}

// submitPhase assembles, signs, submits and awaits one transaction.
func (o *Orchestrator) submitPhase(ctx context.Context, w pkg.Wallet, res *ExecutionResult, phase pkg.TransactionPhase, opts pkg.SubmitOptions, instrs ...solana.Instruction) (verify.Result, error) {
	blockhash, err := o.ledger.GetLatestBlockhash(ctx)
	if err != nil {
		return verify.Result{}, fmt.Errorf("failed to fetch blockhash: %w", err)
	}
	tx, err := sol.BuildTransaction(blockhash, w.Identity(), o.withBudget(instrs)...)
	if err != nil {
		return verify.Result{}, err
	}
	if err := w.Sign(tx); err != nil {
		return verify.Result{}, fmt.Errorf("%w: %v", errSigningRejected, err)
	}

	var sig solana.Signature
	if o.opts.UseJitoBundle {
		if len(tx.Signatures) == 0 {
			return verify.Result{}, fmt.Errorf("signed transaction carries no signature")
		}
		sig = tx.Signatures[0]
		bundleID, err := o.ledger.SubmitBundle(ctx, tx)
		if err != nil {
			return verify.Result{}, fmt.Errorf("bundle submission failed: %w", err)
		}
		o.log.Info("bundle submitted", "request_id", res.ID, "phase", string(phase), "bundle_id", bundleID, "signature", sig.String())
	} else {
		sig, err = o.ledger.Submit(ctx, tx, opts)
		if err != nil {
			return verify.Result{}, fmt.Errorf("submission failed: %w", err)
		}
		o.log.Info("transaction submitted", "request_id", res.ID, "phase", string(phase), "signature", sig.String())
	}
	res.addPhase(phase, sig)

	return o.verifier.AwaitConfirmation(ctx, sig)
}

// withBudget prepends compute budget instructions when a priority fee is set.
func (o *Orchestrator) withBudget(instrs []solana.Instruction) []solana.Instruction {
	if o.opts.PriorityFeeMicroLamports == 0 {
		return instrs
	}
	limitIx := computebudget.NewSetComputeUnitLimitInstructionBuilder().
		SetUnits(o.opts.ComputeUnits).
		Build()
	priceIx := computebudget.NewSetComputeUnitPriceInstructionBuilder().
		SetMicroLamports(o.opts.PriorityFeeMicroLamports).
		Build()
	return append([]solana.Instruction{limitIx, priceIx}, instrs...)
}

// resolveConfirmation converts a non-confirmed poll result into a terminal
// failure; returns nil when the phase confirmed and execution continues.
func (o *Orchestrator) resolveConfirmation(res *ExecutionResult, conf verify.Result, phase pkg.TransactionPhase) *ExecutionResult {
	switch conf.Status {
	case verify.StatusConfirmed:
		return nil
	case verify.StatusTimeout:
		return res.fail(pkg.FailureConfirmationTimeout,
			fmt.Sprintf("phase %s timed out awaiting confirmation; transaction may still land", phase), "")
	default:
		kind := o.classifier.Classify(conf.RawError)
		return res.fail(kind, fmt.Sprintf("phase %s rejected on chain", phase), conf.RawError)
	}
}

func (o *Orchestrator) failFromSubmitError(res *ExecutionResult, err error) *ExecutionResult {
	if errors.Is(err, errSigningRejected) {
		return res.fail(pkg.FailureSubmission, "wallet declined to sign; nothing submitted", err.Error())
	}
	return res.fail(pkg.FailureSubmission, "submission failed", err.Error())
}
