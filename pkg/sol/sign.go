package sol

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// BuildTransaction assembles an unsigned transaction with the given payer.
// Signing happens through the wallet capability, never here.
func BuildTransaction(blockhash solana.Hash, payer solana.PublicKey, instrs ...solana.Instruction) (*solana.Transaction, error) {
	if len(instrs) == 0 {
		return nil, fmt.Errorf("at least one instruction is required")
	}
	tx, err := solana.NewTransaction(
		instrs,
		blockhash,
		solana.TransactionPayer(payer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return tx, nil
}
