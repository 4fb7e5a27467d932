package orchestrator

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yotswap/pkg"
	"yotswap/pkg/swapprog"
)

func accountData(t *testing.T, raw []byte) *rpc.DataBytesOrJSON {
	t.Helper()
	var d rpc.DataBytesOrJSON
	payload := fmt.Sprintf(`["%s","base64"]`, base64.StdEncoding.EncodeToString(raw))
	require.NoError(t, json.Unmarshal([]byte(payload), &d))
	return &d
}

func contributionData(t *testing.T, user solana.PublicKey, amount uint64, lastClaim time.Time) *rpc.DataBytesOrJSON {
	t.Helper()
	raw := make([]byte, swapprog.ContributionLen)
	copy(raw[:32], user[:])
	binary.LittleEndian.PutUint64(raw[32:40], amount)
	binary.LittleEndian.PutUint64(raw[40:48], uint64(lastClaim.Add(-30*24*time.Hour).Unix()))
	binary.LittleEndian.PutUint64(raw[48:56], uint64(lastClaim.Unix()))
	return accountData(t, raw)
}

func setContribution(t *testing.T, f *fixture, amount uint64, lastClaim time.Time) {
	t.Helper()
	f.ledger.exists[f.contribution] = true
	f.ledger.data[f.contribution] = contributionData(t, f.wallet.id, amount, lastClaim)
}

func TestClaimBeforeWindowFailsLocally(t *testing.T) {
	ledger := newFakeLedger()
	f := newFixture(t, ledger, pkg.StrategyPreCreation, healthyReserves())
	setContribution(t, f, 5_000_000, time.Now().Add(-24*time.Hour))

	res := f.orch.ExecuteClaim(context.Background(), f.wallet)
	assert.Equal(t, pkg.OutcomeFatalFailure, res.Outcome)
	assert.Equal(t, pkg.FailureInvalidAmount, res.Failure)
	assert.Empty(t, ledger.submissions, "an early claim must not cost a transaction fee")
}

func TestClaimAfterWindowSubmits(t *testing.T) {
	ledger := newFakeLedger()
	f := newFixture(t, ledger, pkg.StrategyPreCreation, healthyReserves())
	setContribution(t, f, 5_000_000, time.Now().Add(-8*24*time.Hour))

	res := f.orch.ExecuteClaim(context.Background(), f.wallet)
	require.Equal(t, pkg.OutcomeSuccess, res.Outcome, "message: %s raw: %s", res.Message, res.RawError)
	assert.Len(t, ledger.submissions, 1)
}

func TestClaimWithoutContributionFailsLocally(t *testing.T) {
	ledger := newFakeLedger()
	f := newFixture(t, ledger, pkg.StrategyPreCreation, healthyReserves())

	res := f.orch.ExecuteClaim(context.Background(), f.wallet)
	assert.Equal(t, pkg.FailureInvalidAmount, res.Failure)
	assert.Empty(t, ledger.submissions)
}

func TestWithdrawSubmitsWhenFunded(t *testing.T) {
	ledger := newFakeLedger()
	f := newFixture(t, ledger, pkg.StrategyPreCreation, healthyReserves())
	setContribution(t, f, 5_000_000, time.Now())

	res := f.orch.ExecuteWithdraw(context.Background(), f.wallet)
	require.Equal(t, pkg.OutcomeSuccess, res.Outcome, "message: %s raw: %s", res.Message, res.RawError)
	assert.Len(t, ledger.submissions, 1)
}

func TestWithdrawNothingContributedFailsLocally(t *testing.T) {
	ledger := newFakeLedger()
	f := newFixture(t, ledger, pkg.StrategyPreCreation, healthyReserves())
	setContribution(t, f, 0, time.Now())

	res := f.orch.ExecuteWithdraw(context.Background(), f.wallet)
	assert.Equal(t, pkg.FailureInvalidAmount, res.Failure)
	assert.Empty(t, ledger.submissions)
}

func TestLiveRatesOverrideConfiguredSplit(t *testing.T) {
	ledger := newFakeLedger()
	f := newFixture(t, ledger, pkg.StrategyPreCreation, healthyReserves())
	ledger.exists[f.contribution] = true

	// On-chain state advertises a 10/10 liquidity/cashback split.
	state, _, err := swapprog.DeriveStatePDA(swapprog.DefaultProgramID)
	require.NoError(t, err)
	raw := make([]byte, swapprog.ProgramStateLen)
	binary.LittleEndian.PutUint64(raw[96:104], 1000)  // lp contribution rate
	binary.LittleEndian.PutUint64(raw[112:120], 1000) // yos cashback rate
	ledger.exists[state] = true
	ledger.data[state] = accountData(t, raw)

	res := f.orch.Execute(context.Background(), f.wallet, validRequest())
	require.Equal(t, pkg.OutcomeSuccess, res.Outcome, "message: %s raw: %s", res.Message, res.RawError)

	out := res.Plan.ExpectedOutput
	assert.True(t, res.Plan.LiquidityShare.Equal(out.QuoRaw(10)), "10%% liquidity share from on-chain rates")
	assert.True(t, res.Plan.CashbackShare.Equal(out.QuoRaw(10)), "10%% cashback share from on-chain rates")
}
