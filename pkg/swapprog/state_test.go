package swapprog

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiquidityContributionDecode(t *testing.T) {
	user := solana.NewWallet().PublicKey()

	data := make([]byte, ContributionLen)
	copy(data[:32], user[:])
	binary.LittleEndian.PutUint64(data[32:40], 5_000_000)            // contributed
	binary.LittleEndian.PutUint64(data[40:48], 1_700_000_000)        // start
	binary.LittleEndian.PutUint64(data[48:56], 1_700_604_800)        // last claim
	binary.LittleEndian.PutUint64(data[56:64], 96_000)               // total claimed

	var c LiquidityContribution
	require.NoError(t, c.Decode(data))
	assert.Equal(t, user, c.User)
	assert.Equal(t, uint64(5_000_000), c.ContributedAmount)
	assert.Equal(t, int64(1_700_000_000), c.StartTimestamp)
	assert.Equal(t, int64(1_700_604_800), c.LastClaimTime)
	assert.Equal(t, uint64(96_000), c.TotalClaimedYos)
}

func TestLiquidityContributionDecodeShortData(t *testing.T) {
	var c LiquidityContribution
	assert.Error(t, c.Decode(make([]byte, ContributionLen-1)))
}

func TestProgramStateDecode(t *testing.T) {
	admin := solana.NewWallet().PublicKey()

	data := make([]byte, ProgramStateLen)
	copy(data[:32], admin[:])
	copy(data[32:64], YotMint[:])
	copy(data[64:96], YosMint[:])
	binary.LittleEndian.PutUint64(data[96:104], DefaultLiquidityRateBps)
	binary.LittleEndian.PutUint64(data[128:136], 100)

	var s ProgramState
	require.NoError(t, s.Decode(data))
	assert.Equal(t, admin, s.Admin)
	assert.Equal(t, YotMint, s.YotMint)
	assert.Equal(t, YosMint, s.YosMint)
	assert.Equal(t, uint64(DefaultLiquidityRateBps), s.LpContributionRate)
	assert.Equal(t, uint64(100), s.ReferralRate)
}
