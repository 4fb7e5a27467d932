package subscription

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"

	"yotswap/pkg/pricing"
	"yotswap/pkg/swapprog"
)

// tokenAmountOffset is where the u64 amount sits in an SPL token account
// (after the 32-byte mint and 32-byte owner).
const tokenAmountOffset = 64

// fallbackSource is queried when the cache is cold or stale.
type fallbackSource interface {
	Snapshot(ctx context.Context, direction swapprog.Direction) (pricing.Reserves, error)
}

// ReserveWatcher keeps live pool balances from account subscriptions so a
// quote does not need an RPC round trip. Entries older than MaxAge fall back
// to direct ledger reads; serving a stale reserve would quote a price the
// chain no longer honors.
type ReserveWatcher struct {
	ws       *WSClient
	fallback fallbackSource
	solPool  solana.PublicKey
	yotPool  solana.PublicKey
	maxAge   time.Duration
	log      *slog.Logger

	mu          sync.RWMutex
	solLamports uint64
	yotAmount   uint64
	solUpdated  time.Time
	yotUpdated  time.Time
	lastSlot    uint64
}

// NewReserveWatcher subscribes to the SOL and YOT pool accounts and starts
// tracking their balances.
func NewReserveWatcher(ctx context.Context, wsURL string, solPool, yotPool solana.PublicKey, fallback fallbackSource, maxAge time.Duration, log *slog.Logger) (*ReserveWatcher, error) {
	if log == nil {
		log = slog.Default()
	}
	if maxAge <= 0 {
		maxAge = 10 * time.Second
	}

	ws, err := NewWSClient(ctx, wsURL, log)
	if err != nil {
		return nil, err
	}

	w := &ReserveWatcher{
		ws:       ws,
		fallback: fallback,
		solPool:  solPool,
		yotPool:  yotPool,
		maxAge:   maxAge,
		log:      log,
	}

	if _, err := ws.SubscribeAccount(solPool.String(), w.onSolUpdate); err != nil {
		ws.Close()
		return nil, fmt.Errorf("subscribe sol pool: %w", err)
	}
	if _, err := ws.SubscribeAccount(yotPool.String(), w.onYotUpdate); err != nil {
		ws.Close()
		return nil, fmt.Errorf("subscribe yot pool: %w", err)
	}
	return w, nil
}

func (w *ReserveWatcher) onSolUpdate(_ string, lamports uint64, _ string, slot uint64) {
	w.mu.Lock()
	w.solLamports = lamports
	w.solUpdated = time.Now()
	w.lastSlot = slot
	w.mu.Unlock()
	w.log.Debug("sol pool balance updated", "lamports", lamports, "slot", slot)
}

func (w *ReserveWatcher) onYotUpdate(_ string, _ uint64, base64Data string, slot uint64) {
	raw, err := base64.StdEncoding.DecodeString(base64Data)
	if err != nil {
		w.log.Warn("undecodable yot pool payload", "error", err)
		return
	}
	if len(raw) < tokenAmountOffset+8 {
		w.log.Warn("yot pool payload too short", "len", len(raw))
		return
	}
	amount := binary.LittleEndian.Uint64(raw[tokenAmountOffset : tokenAmountOffset+8])

	w.mu.Lock()
	w.yotAmount = amount
	w.yotUpdated = time.Now()
	w.lastSlot = slot
	w.mu.Unlock()
	w.log.Debug("yot pool balance updated", "amount", amount, "slot", slot)
}

// Snapshot returns cached reserves when both sides are fresh, otherwise
// delegates to the fallback source.
func (w *ReserveWatcher) Snapshot(ctx context.Context, direction swapprog.Direction) (pricing.Reserves, error) {
	w.mu.RLock()
	solLamports := w.solLamports
	yotAmount := w.yotAmount
	fresh := time.Since(w.solUpdated) <= w.maxAge && time.Since(w.yotUpdated) <= w.maxAge
	w.mu.RUnlock()

	if !fresh || !w.ws.IsConnected() {
		if w.fallback == nil {
			return pricing.Reserves{}, fmt.Errorf("reserve cache stale and no fallback configured")
		}
		return w.fallback.Snapshot(ctx, direction)
	}

	sol := math.NewIntFromUint64(solLamports)
	yot := math.NewIntFromUint64(yotAmount)
	switch direction {
	case swapprog.DirectionSolToYot:
		return pricing.Reserves{ReserveIn: sol, ReserveOut: yot}, nil
	case swapprog.DirectionYotToSol:
		return pricing.Reserves{ReserveIn: yot, ReserveOut: sol}, nil
	}
	return pricing.Reserves{}, fmt.Errorf("unknown swap direction %q", direction)
}

// LastSlot reports the newest slot seen on either subscription.
func (w *ReserveWatcher) LastSlot() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastSlot
}

// Close tears down the websocket connection.
func (w *ReserveWatcher) Close() error {
	return w.ws.Close()
}
