package sol

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/rpc"
)

// FindTokenAccount resolves the owner's associated token account for a mint
// and reports whether it exists on chain yet.
func (c *Client) FindTokenAccount(ctx context.Context, owner, mint solana.PublicKey) (solana.PublicKey, bool, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, false, fmt.Errorf("failed to derive associated token address: %w", err)
	}
	_, err = c.GetAccountInfo(ctx, ata)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return ata, false, nil
		}
		return solana.PublicKey{}, false, err
	}
	return ata, true, nil
}

// NewCreateTokenAccountInstruction builds the create-ATA instruction for an
// owner and mint, to be prepended to a transaction when the account is missing.
func NewCreateTokenAccountInstruction(owner, mint solana.PublicKey) (solana.Instruction, error) {
	inst, err := associatedtokenaccount.NewCreateInstruction(owner, owner, mint).ValidateAndBuild()
	if err != nil {
		return nil, fmt.Errorf("failed to build create token account instruction: %w", err)
	}
	return inst, nil
}
