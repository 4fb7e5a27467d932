package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"

	"yotswap/pkg"
	"yotswap/pkg/swapprog"
)

// Config holds all configuration for the swap client.
type Config struct {
	Solana    SolanaConfig    `mapstructure:"solana"`
	Program   ProgramConfig   `mapstructure:"program"`
	Rates     RatesConfig     `mapstructure:"rates"`
	Swap      SwapConfig      `mapstructure:"swap"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	Log       LogConfig       `mapstructure:"log"`
}

// SolanaConfig selects RPC endpoints and request limits.
type SolanaConfig struct {
	RPCEndpoints      []string `mapstructure:"rpc_endpoints"`
	WSEndpoint        string   `mapstructure:"ws_endpoint"`
	JitoEndpoint      string   `mapstructure:"jito_endpoint"`
	ReqLimitPerSecond int      `mapstructure:"req_limit_per_second"`
}

// ProgramConfig names the on-chain program and its fixed accounts. All values
// are base58 public keys; ParseAccounts validates them.
type ProgramConfig struct {
	ID               string `mapstructure:"id"`
	YotMint          string `mapstructure:"yot_mint"`
	YosMint          string `mapstructure:"yos_mint"`
	SolPool          string `mapstructure:"sol_pool"`
	YotPool          string `mapstructure:"yot_pool"`
	VaultYot         string `mapstructure:"vault_yot"`
	LiquidityYot     string `mapstructure:"liquidity_yot"`
	CentralLiquidity string `mapstructure:"central_liquidity"`
	PoolAuthority    string `mapstructure:"pool_authority"`
}

// RatesConfig is the distribution split in basis points.
type RatesConfig struct {
	UserBps      uint64 `mapstructure:"user_bps"`
	LiquidityBps uint64 `mapstructure:"liquidity_bps"`
	CashbackBps  uint64 `mapstructure:"cashback_bps"`
}

// SwapConfig tunes the execution protocol.
type SwapConfig struct {
	SlippageBps              uint64   `mapstructure:"slippage_bps"`
	RecoveryStrategy         string   `mapstructure:"recovery_strategy"`
	ContentionErrorPatterns  []string `mapstructure:"contention_error_patterns"`
	ConfirmTimeoutSeconds    int      `mapstructure:"confirm_timeout_seconds"`
	ConfirmPollMillis        int      `mapstructure:"confirm_poll_millis"`
	RetryBackoffMillis       int      `mapstructure:"retry_backoff_millis"`
	PriorityFeeMicroLamports uint64   `mapstructure:"priority_fee_microlamports"`
	ComputeUnits             uint32   `mapstructure:"compute_units"`
	UseJitoBundle            bool     `mapstructure:"use_jito_bundle"`
}

// RateLimitConfig tunes the advisory per-user limiter.
type RateLimitConfig struct {
	PerMinute  int `mapstructure:"per_minute"`
	Burst      int `mapstructure:"burst"`
	TTLMinutes int `mapstructure:"ttl_minutes"`
}

// WalletConfig locates the signing key for CLI use.
type WalletConfig struct {
	KeypairPath string `mapstructure:"keypair_path"`
	SecretKey   string `mapstructure:"secret_key"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// DefaultConfig returns defaults matching the deployed program.
func DefaultConfig() *Config {
	return &Config{
		Solana: SolanaConfig{
			RPCEndpoints:      []string{"https://api.mainnet-beta.solana.com"},
			ReqLimitPerSecond: 10,
		},
		Program: ProgramConfig{
			ID:      swapprog.DefaultProgramID.String(),
			YotMint: swapprog.YotMint.String(),
			YosMint: swapprog.YosMint.String(),
		},
		Rates: RatesConfig{
			UserBps:      swapprog.DefaultUserRateBps,
			LiquidityBps: swapprog.DefaultLiquidityRateBps,
			CashbackBps:  swapprog.DefaultCashbackRateBps,
		},
		Swap: SwapConfig{
			SlippageBps:      100,
			RecoveryStrategy: string(pkg.StrategyPreCreation),
			ContentionErrorPatterns: []string{
				"already borrowed",
				"account in use",
				"AccountBorrowFailed",
			},
			ConfirmTimeoutSeconds: 30,
			ConfirmPollMillis:     500,
			RetryBackoffMillis:    500,
			ComputeUnits:          400000,
		},
		RateLimit: RateLimitConfig{
			PerMinute:  12,
			Burst:      2,
			TTLMinutes: 5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from file and environment.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName(".yotswap")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	viper.SetEnvPrefix("YOTSWAP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// ProgramID parses and validates the configured program id.
func (c *ProgramConfig) ProgramID() (solana.PublicKey, error) {
	id, err := solana.PublicKeyFromBase58(c.ID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid program id %q: %w", c.ID, err)
	}
	return id, nil
}

// ParseAccounts resolves the configured fixed accounts into the instruction
// encoder's account set (user and derived addresses are filled in later).
func (c *ProgramConfig) ParseAccounts() (swapprog.SwapAccounts, error) {
	var a swapprog.SwapAccounts
	fields := []struct {
		name  string
		value string
		dst   *solana.PublicKey
	}{
		{"yos_mint", c.YosMint, &a.YosMint},
		{"sol_pool", c.SolPool, &a.SolPool},
		{"yot_pool", c.YotPool, &a.YotPool},
		{"vault_yot", c.VaultYot, &a.VaultYot},
		{"liquidity_yot", c.LiquidityYot, &a.LiquidityYot},
		{"central_liquidity", c.CentralLiquidity, &a.CentralLiquidity},
		{"pool_authority", c.PoolAuthority, &a.PoolAuthority},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		key, err := solana.PublicKeyFromBase58(f.value)
		if err != nil {
			return swapprog.SwapAccounts{}, fmt.Errorf("invalid %s %q: %w", f.name, f.value, err)
		}
		*f.dst = key
	}
	return a, nil
}

// DistributionRates returns the configured split.
func (c *RatesConfig) DistributionRates() (user, liquidity, cashback uint64) {
	return c.UserBps, c.LiquidityBps, c.CashbackBps
}

// ConfirmTimeout returns the per-phase confirmation budget.
func (c *SwapConfig) ConfirmTimeout() time.Duration {
	return time.Duration(c.ConfirmTimeoutSeconds) * time.Second
}

// ConfirmPoll returns the poll interval.
func (c *SwapConfig) ConfirmPoll() time.Duration {
	return time.Duration(c.ConfirmPollMillis) * time.Millisecond
}

// RetryBackoff returns the wait before a bounded retry.
func (c *SwapConfig) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMillis) * time.Millisecond
}
