package verify

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yotswap/pkg"
)

// pollLedger scripts successive Confirm responses.
type pollLedger struct {
	statuses []*rpc.SignatureStatusesResult
	i        int
	exists   map[solana.PublicKey]bool
	balances map[solana.PublicKey]math.Int
}

func (p *pollLedger) Confirm(ctx context.Context, sig solana.Signature) (*rpc.SignatureStatusesResult, error) {
	if p.i < len(p.statuses) {
		s := p.statuses[p.i]
		p.i++
		return s, nil
	}
	return nil, nil
}

func (p *pollLedger) GetAccountInfo(ctx context.Context, address solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	if p.exists[address] {
		return &rpc.GetAccountInfoResult{Value: &rpc.Account{}}, nil
	}
	return nil, rpc.ErrNotFound
}

func (p *pollLedger) GetTokenAccountBalance(ctx context.Context, address solana.PublicKey) (math.Int, error) {
	if bal, ok := p.balances[address]; ok {
		return bal, nil
	}
	return math.Int{}, fmt.Errorf("no balance for %s", address)
}

func (p *pollLedger) Simulate(context.Context, *solana.Transaction) (*rpc.SimulateTransactionResponse, error) {
	return nil, nil
}

func (p *pollLedger) Submit(context.Context, *solana.Transaction, pkg.SubmitOptions) (solana.Signature, error) {
	return solana.Signature{}, nil
}

func (p *pollLedger) SubmitBundle(context.Context, *solana.Transaction) (string, error) {
	return "", nil
}

func (p *pollLedger) GetBalance(context.Context, solana.PublicKey) (uint64, error) {
	return 0, nil
}

func (p *pollLedger) GetLatestBlockhash(context.Context) (solana.Hash, error) {
	return solana.Hash{}, nil
}

func TestAwaitConfirmationConfirmed(t *testing.T) {
	ledger := &pollLedger{statuses: []*rpc.SignatureStatusesResult{
		nil, // not yet visible
		{Slot: 42, ConfirmationStatus: rpc.ConfirmationStatusProcessed},
		{Slot: 42, ConfirmationStatus: rpc.ConfirmationStatusConfirmed},
	}}
	v := New(ledger, time.Millisecond, time.Second)

	res, err := v.AwaitConfirmation(context.Background(), solana.Signature{1})
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, res.Status)
	assert.Equal(t, uint64(42), res.Slot)
}

func TestAwaitConfirmationProcessedIsNotEnough(t *testing.T) {
	// A processed-only status keeps polling; the budget then expires.
	ledger := &pollLedger{statuses: []*rpc.SignatureStatusesResult{
		{Slot: 42, ConfirmationStatus: rpc.ConfirmationStatusProcessed},
	}}
	v := New(ledger, time.Millisecond, 20*time.Millisecond)

	res, err := v.AwaitConfirmation(context.Background(), solana.Signature{1})
	require.NoError(t, err)
	assert.Equal(t, StatusTimeout, res.Status)
}

func TestAwaitConfirmationRejected(t *testing.T) {
	ledger := &pollLedger{statuses: []*rpc.SignatureStatusesResult{
		{Slot: 42, Err: "custom program error: 0x7"},
	}}
	v := New(ledger, time.Millisecond, time.Second)

	res, err := v.AwaitConfirmation(context.Background(), solana.Signature{1})
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, res.Status)
	assert.Equal(t, "custom program error: 0x7", res.RawError)
}

func TestAwaitConfirmationRejectedStructuredError(t *testing.T) {
	ledger := &pollLedger{statuses: []*rpc.SignatureStatusesResult{
		{Slot: 42, Err: map[string]interface{}{"InstructionError": []interface{}{0, "AccountBorrowFailed"}}},
	}}
	v := New(ledger, time.Millisecond, time.Second)

	res, err := v.AwaitConfirmation(context.Background(), solana.Signature{1})
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, res.Status)
	assert.Contains(t, res.RawError, "AccountBorrowFailed", "structured payloads survive as JSON")
}

func TestAwaitConfirmationTimeoutIsNotAnError(t *testing.T) {
	ledger := &pollLedger{}
	v := New(ledger, time.Millisecond, 10*time.Millisecond)

	res, err := v.AwaitConfirmation(context.Background(), solana.Signature{1})
	require.NoError(t, err, "timeout is a result, not an error")
	assert.Equal(t, StatusTimeout, res.Status)
}

func TestAwaitConfirmationHonorsContext(t *testing.T) {
	ledger := &pollLedger{}
	v := New(ledger, 10*time.Millisecond, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := v.AwaitConfirmation(ctx, solana.Signature{1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAccountExists(t *testing.T) {
	present := solana.NewWallet().PublicKey()
	ledger := &pollLedger{exists: map[solana.PublicKey]bool{present: true}}
	v := New(ledger, time.Millisecond, time.Second)

	ok, err := v.AccountExists(context.Background(), present)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.AccountExists(context.Background(), solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.False(t, ok, "a not-found response is a clean negative, not an error")
}

func TestCheckPostConditions(t *testing.T) {
	contribution := solana.NewWallet().PublicKey()
	destination := solana.NewWallet().PublicKey()
	ledger := &pollLedger{
		exists:   map[solana.PublicKey]bool{contribution: true},
		balances: map[solana.PublicKey]math.Int{destination: math.NewInt(750)},
	}
	v := New(ledger, time.Millisecond, time.Second)

	post, err := v.CheckPostConditions(context.Background(), contribution, destination)
	require.NoError(t, err)
	assert.True(t, post.ContributionExists)
	assert.Equal(t, int64(750), post.DestinationBalance.Int64())
}
