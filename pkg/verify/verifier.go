package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"yotswap/pkg"
)

// Status is the trichotomy a confirmation poll ends in. Timeout carries no
// information about the transaction's fate: it may still land, so callers can
// re-poll instead of assuming loss of funds.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusTimeout   Status = "timeout"
)

// Result reports how a submission resolved. RawError preserves the on-chain
// error payload verbatim for classification and diagnostics.
type Result struct {
	Status   Status
	Slot     uint64
	RawError string
}

// Verifier polls ledger state to confirm inclusion and validate
// post-conditions after each submission.
type Verifier struct {
	Ledger       pkg.Ledger
	PollInterval time.Duration
	Timeout      time.Duration
}

// New creates a verifier with the given poll cadence and budget.
func New(ledger pkg.Ledger, pollInterval, timeout time.Duration) *Verifier {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Verifier{Ledger: ledger, PollInterval: pollInterval, Timeout: timeout}
}

// AwaitConfirmation polls until the signature is confirmed, rejected, or the
// budget runs out. "Sent" is never treated as success: only the on-chain
// status field decides.
func (v *Verifier) AwaitConfirmation(ctx context.Context, sig solana.Signature) (Result, error) {
	deadline := time.Now().Add(v.Timeout)
	ticker := time.NewTicker(v.PollInterval)
	defer ticker.Stop()

	for {
		status, err := v.Ledger.Confirm(ctx, sig)
		if err != nil {
			return Result{}, fmt.Errorf("confirmation query failed: %w", err)
		}
		if status != nil {
			if status.Err != nil {
				return Result{
					Status:   StatusRejected,
					Slot:     status.Slot,
					RawError: rawErrorString(status.Err),
				}, nil
			}
			switch status.ConfirmationStatus {
			case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
				return Result{Status: StatusConfirmed, Slot: status.Slot}, nil
			}
		}

		if time.Now().After(deadline) {
			return Result{Status: StatusTimeout}, nil
		}
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// PostConditions is what a relaxed-preflight phase must re-check: the
// submission's own status can be ambiguous, so ledger state is the truth.
type PostConditions struct {
	ContributionExists bool
	DestinationBalance math.Int
}

// CheckPostConditions re-queries the contended account and the destination
// token balance after a skip-preflight submission.
func (v *Verifier) CheckPostConditions(ctx context.Context, contribution, destination solana.PublicKey) (PostConditions, error) {
	exists, err := v.AccountExists(ctx, contribution)
	if err != nil {
		return PostConditions{}, err
	}
	balance, err := v.Ledger.GetTokenAccountBalance(ctx, destination)
	if err != nil {
		return PostConditions{}, fmt.Errorf("destination balance query failed: %w", err)
	}
	return PostConditions{ContributionExists: exists, DestinationBalance: balance}, nil
}

// AccountExists reports whether an account is present on chain.
func (v *Verifier) AccountExists(ctx context.Context, address solana.PublicKey) (bool, error) {
	_, err := v.Ledger.GetAccountInfo(ctx, address)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("account query failed: %w", err)
	}
	return true, nil
}

// rawErrorString renders the RPC error payload without losing structure.
func rawErrorString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}
