package sol

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	jitorpc "github.com/jito-labs/jito-go-rpc"
	"golang.org/x/time/rate"

	"yotswap/pkg"
)

// Client wraps the Solana RPC connection behind the pkg.Ledger interface,
// with a per-endpoint request limiter and an optional Jito block-engine path
// for bundle submission.
type Client struct {
	RpcClient  *rpc.Client
	jitoClient *jitorpc.JitoJsonRpcClient
	limiter    *rate.Limiter
}

var _ pkg.Ledger = (*Client)(nil)

// NewClient creates a client for one RPC endpoint. jitoEndpoint is optional;
// reqLimitPerSecond caps outgoing requests.
func NewClient(ctx context.Context, endpoint, jitoEndpoint string, reqLimitPerSecond int) (*Client, error) {
	if reqLimitPerSecond <= 0 {
		reqLimitPerSecond = 10
	}
	c := &Client{
		RpcClient: rpc.New(endpoint),
		limiter:   rate.NewLimiter(rate.Limit(reqLimitPerSecond), reqLimitPerSecond),
	}
	if jitoEndpoint != "" {
		c.jitoClient = jitorpc.NewJitoJsonRpcClient(jitoEndpoint, "")
	}
	return c, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() error {
	return c.RpcClient.Close()
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// Simulate runs a non-committing dry-run of the transaction against current
// ledger state.
func (c *Client) Simulate(ctx context.Context, tx *solana.Transaction) (*rpc.SimulateTransactionResponse, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	out, err := c.RpcClient.SimulateTransaction(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to simulate transaction: %w", err)
	}
	return out, nil
}

// Submit sends a signed transaction.
func (c *Client) Submit(ctx context.Context, tx *solana.Transaction, opts pkg.SubmitOptions) (solana.Signature, error) {
	if err := c.wait(ctx); err != nil {
		return solana.Signature{}, err
	}
	sig, err := c.RpcClient.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       opts.SkipPreflight,
		PreflightCommitment: rpc.CommitmentProcessed,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig, nil
}

// SubmitBundle routes a signed transaction through the Jito block engine.
// Returns the bundle id.
func (c *Client) SubmitBundle(ctx context.Context, tx *solana.Transaction) (string, error) {
	if c.jitoClient == nil {
		return "", fmt.Errorf("no jito endpoint configured")
	}
	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to serialize transaction: %w", err)
	}
	params := [][]string{
		{base64.StdEncoding.EncodeToString(raw)},
	}
	resp, err := c.jitoClient.SendBundle(params)
	if err != nil {
		return "", fmt.Errorf("failed to send bundle: %w", err)
	}
	var bundleID string
	if err := json.Unmarshal(resp, &bundleID); err != nil {
		return "", fmt.Errorf("unexpected bundle response: %w", err)
	}
	return bundleID, nil
}

// Confirm fetches the current status of a signature. A nil result with nil
// error means the ledger has no information yet.
func (c *Client) Confirm(ctx context.Context, sig solana.Signature) (*rpc.SignatureStatusesResult, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	out, err := c.RpcClient.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return nil, fmt.Errorf("failed to get signature status: %w", err)
	}
	if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		return nil, nil
	}
	return out.Value[0], nil
}

// GetAccountInfo returns account data, or rpc.ErrNotFound when the account
// does not exist.
func (c *Client) GetAccountInfo(ctx context.Context, address solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.RpcClient.GetAccountInfo(ctx, address)
}

// GetBalance returns the lamport balance of an account.
func (c *Client) GetBalance(ctx context.Context, address solana.PublicKey) (uint64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	out, err := c.RpcClient.GetBalance(ctx, address, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return out.Value, nil
}

// GetTokenAccountBalance returns the raw token amount held by a token account.
func (c *Client) GetTokenAccountBalance(ctx context.Context, address solana.PublicKey) (math.Int, error) {
	if err := c.wait(ctx); err != nil {
		return math.Int{}, err
	}
	out, err := c.RpcClient.GetTokenAccountBalance(ctx, address, rpc.CommitmentConfirmed)
	if err != nil {
		return math.Int{}, fmt.Errorf("failed to get token account balance: %w", err)
	}
	if out == nil || out.Value == nil {
		return math.Int{}, fmt.Errorf("empty token balance response for %s", address)
	}
	amount, ok := math.NewIntFromString(out.Value.Amount)
	if !ok {
		return math.Int{}, fmt.Errorf("unparseable token amount %q", out.Value.Amount)
	}
	return amount, nil
}

// GetLatestBlockhash returns a fresh blockhash for transaction assembly.
func (c *Client) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	if err := c.wait(ctx); err != nil {
		return solana.Hash{}, err
	}
	out, err := c.RpcClient.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("failed to get latest blockhash: %w", err)
	}
	return out.Value.Blockhash, nil
}

// GetMultipleAccountsWithOpts batches several account fetches into one
// request.
func (c *Client) GetMultipleAccountsWithOpts(ctx context.Context, accounts []solana.PublicKey) (*rpc.GetMultipleAccountsResult, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.RpcClient.GetMultipleAccounts(ctx, accounts...)
}
