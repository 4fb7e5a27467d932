package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yotswap/pkg"
	"yotswap/pkg/swapprog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, swapprog.DefaultProgramID.String(), cfg.Program.ID)
	assert.Equal(t, string(pkg.StrategyPreCreation), cfg.Swap.RecoveryStrategy)
	assert.Contains(t, cfg.Swap.ContentionErrorPatterns, "already borrowed")
	assert.Equal(t, uint64(7500), cfg.Rates.UserBps)
	assert.Equal(t, uint64(2000), cfg.Rates.LiquidityBps)
	assert.Equal(t, uint64(500), cfg.Rates.CashbackBps)

	id, err := cfg.Program.ProgramID()
	require.NoError(t, err)
	assert.Equal(t, swapprog.DefaultProgramID, id)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
solana:
  rpc_endpoints:
    - https://example.com/rpc
swap:
  slippage_bps: 250
  recovery_strategy: bounded_retry
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com/rpc"}, cfg.Solana.RPCEndpoints)
	assert.Equal(t, uint64(250), cfg.Swap.SlippageBps)
	assert.Equal(t, "bounded_retry", cfg.Swap.RecoveryStrategy)
	// Untouched sections keep their defaults.
	assert.Equal(t, 30, cfg.Swap.ConfirmTimeoutSeconds)
	assert.Equal(t, 12, cfg.RateLimit.PerMinute)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestParseAccountsRejectsBadKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Program.SolPool = "not-a-key"

	_, err := cfg.Program.ParseAccounts()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sol_pool")
}

func TestParseAccountsFillsConfiguredKeys(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Program.SolPool = swapprog.YotMint.String() // any valid base58 key

	a, err := cfg.Program.ParseAccounts()
	require.NoError(t, err)
	assert.Equal(t, swapprog.YotMint, a.SolPool)
	assert.True(t, a.CentralLiquidity.IsZero(), "unset accounts stay zero")
}

func TestDurationHelpers(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "30s", cfg.Swap.ConfirmTimeout().String())
	assert.Equal(t, "500ms", cfg.Swap.ConfirmPoll().String())
	assert.Equal(t, "500ms", cfg.Swap.RetryBackoff().String())
}
