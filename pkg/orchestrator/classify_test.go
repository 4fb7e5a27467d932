package orchestrator

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"yotswap/pkg"
)

func newClassifier() *Classifier {
	return &Classifier{
		ContentionPatterns: []string{"already borrowed", "account in use", "AccountBorrowFailed"},
		Log:                slog.New(slog.DiscardHandler),
	}
}

func TestClassifyContention(t *testing.T) {
	c := newClassifier()

	for _, raw := range []string{
		"Transaction simulation failed: Error processing Instruction 0: Account already borrowed",
		"Program log: account in use",
		"AccountBorrowFailed",
		"ACCOUNT ALREADY BORROWED", // match is case-insensitive
	} {
		assert.Equal(t, pkg.FailureRecoverableContention, c.Classify(raw), "raw: %s", raw)
	}
}

func TestClassifyInsufficientFunds(t *testing.T) {
	c := newClassifier()

	for _, raw := range []string{
		"Transfer: insufficient lamports 100, need 200",
		"Error: insufficient funds",
		"custom program error: 0x1",
	} {
		assert.Equal(t, pkg.FailureInsufficientBalance, c.Classify(raw), "raw: %s", raw)
	}
}

func TestClassifyInsufficientLiquidity(t *testing.T) {
	c := newClassifier()
	assert.Equal(t, pkg.FailureInsufficientLiquidity, c.Classify("Program log: InsufficientLiquidity"))
}

func TestClassifyUnknownStaysUnknown(t *testing.T) {
	c := newClassifier()

	for _, raw := range []string{
		"custom program error: 0x99",
		"blockhash not found",
		"",
	} {
		assert.Equal(t, pkg.FailureUnknownRejection, c.Classify(raw),
			"unknown payloads must never be mistaken for the contention defect")
	}
}

func TestClassifyContentionWinsOverOtherPatterns(t *testing.T) {
	c := newClassifier()
	// A payload carrying both signatures resolves as contention so recovery
	// still runs.
	raw := "account in use; insufficient funds"
	assert.Equal(t, pkg.FailureRecoverableContention, c.Classify(raw))
}
