package wallet

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"yotswap/pkg"
)

// ErrNotConnected is returned when a nil or unusable wallet reaches the
// boundary. Callers treat it as a local validation failure; nothing is
// submitted on chain.
var ErrNotConnected = errors.New("wallet not connected")

// Keypair is a Wallet backed by a local private key. Browser and hardware
// wallet providers implement pkg.Wallet with their own adapters; the
// orchestrator sees only the capability.
type Keypair struct {
	key solana.PrivateKey
}

var _ pkg.Wallet = (*Keypair)(nil)

// FromBase58 builds a keypair wallet from a base58-encoded secret key.
func FromBase58(encoded string) (*Keypair, error) {
	raw, err := base58.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base58 secret key: %w", err)
	}
	if len(raw) != 64 {
		return nil, fmt.Errorf("secret key must be 64 bytes, got %d", len(raw))
	}
	return &Keypair{key: solana.PrivateKey(raw)}, nil
}

// FromFile loads a solana-cli JSON keypair file.
func FromFile(path string) (*Keypair, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load keypair file: %w", err)
	}
	return &Keypair{key: key}, nil
}

func (k *Keypair) Identity() solana.PublicKey {
	return k.key.PublicKey()
}

func (k *Keypair) Sign(tx *solana.Transaction) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if k.key.PublicKey().Equals(key) {
			return &k.key
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	return nil
}

// Verify checks a wallet at the boundary before any network call.
func Verify(w pkg.Wallet) error {
	if w == nil || w.Identity().IsZero() {
		return ErrNotConnected
	}
	return nil
}
