package pkg

import (
	"context"

	"cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Wallet is the capability handed to the orchestrator by a wallet provider.
// The orchestrator never inspects the concrete type behind it; it only needs
// a public identity and the ability to sign a transaction.
type Wallet interface {
	Identity() solana.PublicKey
	Sign(tx *solana.Transaction) error
}

// SubmitOptions controls how a transaction is handed to the ledger.
type SubmitOptions struct {
	// SkipPreflight forces a submission through even when simulation would
	// reject it. Used by the force-through recovery path, which relies on a
	// known-to-partially-fail first submission.
	SkipPreflight bool
}

// Ledger is the read/write surface of the chain the orchestrator drives.
// *sol.Client is the production implementation; tests substitute fakes.
type Ledger interface {
	Simulate(ctx context.Context, tx *solana.Transaction) (*rpc.SimulateTransactionResponse, error)
	Submit(ctx context.Context, tx *solana.Transaction, opts SubmitOptions) (solana.Signature, error)
	// SubmitBundle routes the signed transaction through a block engine and
	// returns the bundle id. The transaction still lands under its own
	// signature, so confirmation goes through Confirm as usual.
	SubmitBundle(ctx context.Context, tx *solana.Transaction) (string, error)
	Confirm(ctx context.Context, sig solana.Signature) (*rpc.SignatureStatusesResult, error)
	GetAccountInfo(ctx context.Context, address solana.PublicKey) (*rpc.GetAccountInfoResult, error)
	GetBalance(ctx context.Context, address solana.PublicKey) (uint64, error)
	GetTokenAccountBalance(ctx context.Context, address solana.PublicKey) (math.Int, error)
	GetLatestBlockhash(ctx context.Context) (solana.Hash, error)
}

// TransactionPhase labels which on-chain operation a submission performs.
type TransactionPhase string

const (
	PhaseAccountInit TransactionPhase = "account_init"
	PhaseSwapSubmit  TransactionPhase = "swap_submit"
	PhaseRecovery    TransactionPhase = "recovery"
)

// Outcome is the terminal classification of a swap execution.
type Outcome string

const (
	OutcomeSuccess            Outcome = "success"
	OutcomeRecoverableFailure Outcome = "recoverable_failure"
	OutcomeFatalFailure       Outcome = "fatal_failure"
)

// FailureKind classifies why an execution did not succeed. The orchestrator
// resolves RecoverableContention internally and only surfaces it when the
// recovery budget is exhausted.
type FailureKind string

const (
	FailureNone                  FailureKind = ""
	FailureWalletNotConnected    FailureKind = "wallet_not_connected"
	FailureInvalidAmount         FailureKind = "invalid_amount"
	FailureInsufficientBalance   FailureKind = "insufficient_balance"
	FailureInsufficientLiquidity FailureKind = "insufficient_liquidity"
	FailureRecoverableContention FailureKind = "recoverable_contention"
	FailureSubmission            FailureKind = "submission_failure"
	FailureConfirmationTimeout   FailureKind = "confirmation_timeout"
	FailureUnknownRejection      FailureKind = "unknown_onchain_rejection"
)

// RecoveryStrategy selects how the orchestrator works around the program's
// account-contention defect. One orchestrator, four strategies; never a
// separate code path per strategy at the call site.
type RecoveryStrategy string

const (
	StrategyPreCreation   RecoveryStrategy = "pre_creation"
	StrategySimulateFirst RecoveryStrategy = "simulate_first"
	StrategyForceThrough  RecoveryStrategy = "force_through"
	StrategyBoundedRetry  RecoveryStrategy = "bounded_retry"
)

// ParseRecoveryStrategy maps a configuration value to a strategy tag.
func ParseRecoveryStrategy(s string) (RecoveryStrategy, bool) {
	switch RecoveryStrategy(s) {
	case StrategyPreCreation, StrategySimulateFirst, StrategyForceThrough, StrategyBoundedRetry:
		return RecoveryStrategy(s), true
	}
	return "", false
}
