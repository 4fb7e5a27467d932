package wallet

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromBase58(t *testing.T) {
	key := solana.NewWallet().PrivateKey
	w, err := FromBase58(base58.Encode(key))
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), w.Identity())
}

func TestFromBase58Rejects(t *testing.T) {
	_, err := FromBase58("not base58 at all!!!")
	assert.Error(t, err)

	// Valid base58 but wrong length.
	_, err = FromBase58(base58.Encode([]byte{1, 2, 3}))
	assert.Error(t, err)
}

func TestSign(t *testing.T) {
	w, err := FromBase58(base58.Encode(solana.NewWallet().PrivateKey))
	require.NoError(t, err)

	tx, err := solana.NewTransaction(
		[]solana.Instruction{solana.NewInstruction(
			solana.SystemProgramID,
			solana.AccountMetaSlice{solana.NewAccountMeta(w.Identity(), true, true)},
			[]byte{0},
		)},
		solana.Hash{1},
		solana.TransactionPayer(w.Identity()),
	)
	require.NoError(t, err)

	require.NoError(t, w.Sign(tx))
	require.Len(t, tx.Signatures, 1)
	assert.False(t, tx.Signatures[0].IsZero())
}

func TestVerify(t *testing.T) {
	assert.ErrorIs(t, Verify(nil), ErrNotConnected)

	w, err := FromBase58(base58.Encode(solana.NewWallet().PrivateKey))
	require.NoError(t, err)
	assert.NoError(t, Verify(w))
}
