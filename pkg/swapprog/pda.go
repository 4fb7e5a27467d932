package swapprog

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Addresses bundles the derived program addresses for one user. Derivation is
// pure and cheap, so the set is recomputed per request and never persisted.
type Addresses struct {
	State            solana.PublicKey
	Authority        solana.PublicKey
	Contribution     solana.PublicKey
	ContributionBump uint8
}

func DeriveStatePDA(programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(StateSeed)}, programID)
}

func DeriveAuthorityPDA(programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(AuthoritySeed)}, programID)
}

// DeriveContributionPDA derives the per-user liquidity contribution account.
// This is the account the program mutably acquires twice when it has to both
// create and update it inside one transaction.
func DeriveContributionPDA(programID, user solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(ContributionSeed), user.Bytes()}, programID)
}

// DeriveAddresses resolves every program address a swap needs.
func DeriveAddresses(programID, user solana.PublicKey) (Addresses, error) {
	state, _, err := DeriveStatePDA(programID)
	if err != nil {
		return Addresses{}, fmt.Errorf("derive state PDA: %w", err)
	}
	authority, _, err := DeriveAuthorityPDA(programID)
	if err != nil {
		return Addresses{}, fmt.Errorf("derive authority PDA: %w", err)
	}
	contribution, bump, err := DeriveContributionPDA(programID, user)
	if err != nil {
		return Addresses{}, fmt.Errorf("derive contribution PDA: %w", err)
	}
	return Addresses{
		State:            state,
		Authority:        authority,
		Contribution:     contribution,
		ContributionBump: bump,
	}, nil
}
