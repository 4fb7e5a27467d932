package swapprog

import "github.com/gagliardetto/solana-go"

var (
	// DefaultProgramID is the deployed multi-hub swap program. Overridable
	// through configuration; instruction builders always take an explicit id.
	DefaultProgramID = solana.MustPublicKeyFromBase58("SMddVoXz2hF9jjecS5A1gZLG8TJHo34MJZuexZ8kVjE")

	// YotMint is the program-issued token users swap into.
	YotMint = solana.MustPublicKeyFromBase58("2EmUMo6kgmospSja3FUpYT3Yrps2YjHJtU9oZohr5GPF")

	// YosMint is the cashback token minted by the program authority.
	YosMint = solana.MustPublicKeyFromBase58("GcsjAVWYaTce9cpFLm2eGhRjZauvtSP3z3iMrZsrMW8n")

	TokenProgramID  = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	SystemProgramID = solana.MustPublicKeyFromBase58("11111111111111111111111111111111")
	RentSysvarID    = solana.MustPublicKeyFromBase58("SysvarRent111111111111111111111111111111111")
)

// PDA seed prefixes. These must byte-for-byte match the seeds the program
// hashes in find_program_address; a deviation produces a structurally valid
// but wrong address that only fails at submission time.
const (
	StateSeed        = "state"
	AuthoritySeed    = "authority"
	ContributionSeed = "liq"
)

// Distribution-split defaults in basis points, matching the program's
// initialize values.
const (
	DefaultUserRateBps      = 7500
	DefaultLiquidityRateBps = 2000
	DefaultCashbackRateBps  = 500
)
