package orchestrator

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"

	"yotswap/pkg"
	"yotswap/pkg/pricing"
	"yotswap/pkg/swapprog"
)

// ReserveSource produces a pool snapshot for one request. Snapshots are taken
// at request time and never reused across requests; reserves move every block.
type ReserveSource interface {
	Snapshot(ctx context.Context, direction swapprog.Direction) (pricing.Reserves, error)
}

// LedgerReserves reads the SOL pool lamport balance and the YOT pool token
// balance directly from the ledger.
type LedgerReserves struct {
	Ledger  pkg.Ledger
	SolPool solana.PublicKey
	YotPool solana.PublicKey
}

func (r *LedgerReserves) Snapshot(ctx context.Context, direction swapprog.Direction) (pricing.Reserves, error) {
	lamports, err := r.Ledger.GetBalance(ctx, r.SolPool)
	if err != nil {
		return pricing.Reserves{}, fmt.Errorf("sol pool balance: %w", err)
	}
	yot, err := r.Ledger.GetTokenAccountBalance(ctx, r.YotPool)
	if err != nil {
		return pricing.Reserves{}, fmt.Errorf("yot pool balance: %w", err)
	}

	sol := math.NewIntFromUint64(lamports)
	switch direction {
	case swapprog.DirectionSolToYot:
		return pricing.Reserves{ReserveIn: sol, ReserveOut: yot}, nil
	case swapprog.DirectionYotToSol:
		return pricing.Reserves{ReserveIn: yot, ReserveOut: sol}, nil
	}
	return pricing.Reserves{}, fmt.Errorf("unknown swap direction %q", direction)
}
