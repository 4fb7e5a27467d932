package orchestrator

import (
	"cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"yotswap/pkg"
	"yotswap/pkg/pricing"
	"yotswap/pkg/swapprog"
)

// SwapRequest is the caller's immutable input.
type SwapRequest struct {
	Direction   swapprog.Direction
	AmountIn    math.Int
	SlippageBps uint64
}

// PhaseResult records one submission.
type PhaseResult struct {
	Phase     pkg.TransactionPhase
	Signature solana.Signature
}

// ExecutionResult is the single structured outcome returned to callers. It is
// terminal: the orchestrator never mutates it after return, and callers always
// receive one rather than an unresolved pending state.
type ExecutionResult struct {
	ID      string
	Outcome pkg.Outcome
	Failure pkg.FailureKind
	Phases  []PhaseResult
	Plan    pricing.Plan
	// InputDebited reports whether the input asset left the user's account
	// even though the execution did not fully succeed. Partial progress is
	// reported, never silently dropped.
	InputDebited bool
	RawError     string
	Message      string
}

// Signatures returns the signature of every submitted phase in order.
func (r *ExecutionResult) Signatures() []solana.Signature {
	sigs := make([]solana.Signature, 0, len(r.Phases))
	for _, p := range r.Phases {
		sigs = append(sigs, p.Signature)
	}
	return sigs
}

func newResult() *ExecutionResult {
	return &ExecutionResult{ID: uuid.NewString()}
}

func (r *ExecutionResult) succeed(message string) *ExecutionResult {
	r.Outcome = pkg.OutcomeSuccess
	r.Failure = pkg.FailureNone
	r.Message = message
	return r
}

func (r *ExecutionResult) fail(kind pkg.FailureKind, message, raw string) *ExecutionResult {
	switch kind {
	case pkg.FailureRecoverableContention, pkg.FailureConfirmationTimeout:
		r.Outcome = pkg.OutcomeRecoverableFailure
	default:
		r.Outcome = pkg.OutcomeFatalFailure
	}
	r.Failure = kind
	r.Message = message
	r.RawError = raw
	return r
}

func (r *ExecutionResult) addPhase(phase pkg.TransactionPhase, sig solana.Signature) {
	r.Phases = append(r.Phases, PhaseResult{Phase: phase, Signature: sig})
}
