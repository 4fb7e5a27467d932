package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"yotswap/pkg"
	"yotswap/pkg/swapprog"
	"yotswap/pkg/wallet"
)

// ExecuteClaim submits a weekly reward claim. The claim window is checked
// locally first so an early claim never costs a transaction fee.
func (o *Orchestrator) ExecuteClaim(ctx context.Context, w pkg.Wallet) *ExecutionResult {
	res := newResult()

	if err := wallet.Verify(w); err != nil {
		return res.fail(pkg.FailureWalletNotConnected, "wallet not connected", "")
	}

	accounts, contrib, done := o.loadContribution(ctx, w.Identity(), res)
	if done != nil {
		return done
	}
	if contrib.ContributedAmount == 0 {
		return res.fail(pkg.FailureInvalidAmount, "no contributed liquidity; nothing to claim", "")
	}
	if elapsed := time.Now().Unix() - contrib.LastClaimTime; elapsed < secondsPerWeek {
		remaining := time.Duration(secondsPerWeek-elapsed) * time.Second
		return res.fail(pkg.FailureInvalidAmount,
			fmt.Sprintf("claim window opens in %s", remaining.Round(time.Minute)), "")
	}

	ix, err := swapprog.NewClaimWeeklyRewardInstruction(o.opts.ProgramID, accounts)
	if err != nil {
		return res.fail(pkg.FailureSubmission, "failed to build claim instruction", err.Error())
	}
	return o.runSinglePhase(ctx, w, res, ix, "weekly reward claim confirmed")
}

// ExecuteWithdraw pulls the user's contributed liquidity back out.
func (o *Orchestrator) ExecuteWithdraw(ctx context.Context, w pkg.Wallet) *ExecutionResult {
	res := newResult()

	if err := wallet.Verify(w); err != nil {
		return res.fail(pkg.FailureWalletNotConnected, "wallet not connected", "")
	}

	accounts, contrib, done := o.loadContribution(ctx, w.Identity(), res)
	if done != nil {
		return done
	}
	if contrib.ContributedAmount == 0 {
		return res.fail(pkg.FailureInvalidAmount, "no contributed liquidity to withdraw", "")
	}

	ix, err := swapprog.NewWithdrawContributionInstruction(o.opts.ProgramID, accounts)
	if err != nil {
		return res.fail(pkg.FailureSubmission, "failed to build withdraw instruction", err.Error())
	}
	return o.runSinglePhase(ctx, w, res, ix, "contribution withdrawal confirmed")
}

// loadContribution resolves the user's addresses and decodes their
// contribution account. A non-nil third return is the terminal result.
func (o *Orchestrator) loadContribution(ctx context.Context, user solana.PublicKey, res *ExecutionResult) (swapprog.SwapAccounts, *swapprog.LiquidityContribution, *ExecutionResult) {
	accounts, _, err := o.resolveAccounts(ctx, user)
	if err != nil {
		return swapprog.SwapAccounts{}, nil, res.fail(pkg.FailureSubmission, "failed to resolve accounts", err.Error())
	}

	exists, err := o.verifier.AccountExists(ctx, accounts.Derived.Contribution)
	if err != nil {
		return swapprog.SwapAccounts{}, nil, res.fail(pkg.FailureSubmission, "failed to check contribution account", err.Error())
	}
	if !exists {
		return swapprog.SwapAccounts{}, nil, res.fail(pkg.FailureInvalidAmount, "no liquidity contribution account", "")
	}

	info, err := o.ledger.GetAccountInfo(ctx, accounts.Derived.Contribution)
	if err != nil {
		return swapprog.SwapAccounts{}, nil, res.fail(pkg.FailureSubmission, "failed to read contribution account", err.Error())
	}
	if info == nil || info.Value == nil || info.Value.Data == nil {
		return swapprog.SwapAccounts{}, nil, res.fail(pkg.FailureUnknownRejection, "contribution account has no data", "")
	}

	var contrib swapprog.LiquidityContribution
	if err := contrib.Decode(info.Value.Data.GetBinary()); err != nil {
		return swapprog.SwapAccounts{}, nil, res.fail(pkg.FailureUnknownRejection, "contribution account has unexpected layout", err.Error())
	}
	return accounts, &contrib, nil
}

func (o *Orchestrator) runSinglePhase(ctx context.Context, w pkg.Wallet, res *ExecutionResult, ix solana.Instruction, message string) *ExecutionResult {
	conf, err := o.submitPhase(ctx, w, res, pkg.PhaseSwapSubmit, pkg.SubmitOptions{}, ix)
	if err != nil {
		return o.failFromSubmitError(res, err)
	}
	if done := o.resolveConfirmation(res, conf, pkg.PhaseSwapSubmit); done != nil {
		return done
	}
	return res.succeed(message)
}
