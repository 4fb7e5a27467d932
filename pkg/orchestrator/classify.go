package orchestrator

import (
	"log/slog"
	"strings"

	"yotswap/pkg"
)

// Classifier maps raw on-chain error payloads to failure kinds. The
// contention signature is matched by configurable substrings because the
// defect is known only from observed runtime messages, not a verified root
// cause; anything unmatched is surfaced raw rather than guessed at.
type Classifier struct {
	ContentionPatterns []string
	Log                *slog.Logger
}

var insufficientFundsPatterns = []string{
	"insufficient funds",
	"insufficient lamports",
	"custom program error: 0x1", // token program InsufficientFunds
}

var insufficientLiquidityPatterns = []string{
	"InsufficientLiquidity",
	"custom program error: 0x7", // PoolNotFound family
}

// Classify buckets one rejection payload.
func (c *Classifier) Classify(raw string) pkg.FailureKind {
	lower := strings.ToLower(raw)

	for _, p := range c.ContentionPatterns {
		if strings.Contains(lower, strings.ToLower(p)) {
			return pkg.FailureRecoverableContention
		}
	}
	for _, p := range insufficientFundsPatterns {
		if strings.Contains(lower, strings.ToLower(p)) {
			return pkg.FailureInsufficientBalance
		}
	}
	for _, p := range insufficientLiquidityPatterns {
		if strings.Contains(lower, strings.ToLower(p)) {
			return pkg.FailureInsufficientLiquidity
		}
	}

	// Never misclassify an unknown failure as the known defect: surface it
	// raw and keep a trail for investigation.
	if c.Log != nil {
		c.Log.Warn("unclassified on-chain rejection", "raw_error", raw)
	}
	return pkg.FailureUnknownRejection
}
