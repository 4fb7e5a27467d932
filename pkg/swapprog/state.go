package swapprog

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	// ProgramStateLen is the serialized size of ProgramState (3 pubkeys + 5 u64 rates).
	ProgramStateLen = 32*3 + 8*5

	// ContributionLen is the serialized size of LiquidityContribution.
	ContributionLen = 32 + 8 + 8 + 8 + 8
)

// ProgramState mirrors the program's state PDA layout.
type ProgramState struct {
	Admin              solana.PublicKey
	YotMint            solana.PublicKey
	YosMint            solana.PublicKey
	LpContributionRate uint64
	AdminFeeRate       uint64
	YosCashbackRate    uint64
	SwapFeeRate        uint64
	ReferralRate       uint64
}

// Decode decodes the state account data.
func (s *ProgramState) Decode(data []byte) error {
	if len(data) < ProgramStateLen {
		return fmt.Errorf("state data too short: expected %d bytes, got %d", ProgramStateLen, len(data))
	}
	dec := bin.NewBorshDecoder(data)
	return dec.Decode(s)
}

// LiquidityContribution mirrors the per-user contribution PDA layout.
type LiquidityContribution struct {
	User              solana.PublicKey
	ContributedAmount uint64
	StartTimestamp    int64
	LastClaimTime     int64
	TotalClaimedYos   uint64
}

// Decode decodes the contribution account data.
func (c *LiquidityContribution) Decode(data []byte) error {
	if len(data) < ContributionLen {
		return fmt.Errorf("contribution data too short: expected %d bytes, got %d", ContributionLen, len(data))
	}
	dec := bin.NewBorshDecoder(data)
	return dec.Decode(c)
}
