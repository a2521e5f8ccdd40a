// Package config loads the gateway configuration from flags, the environment,
// an optional .env file and an optional YAML tables file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"solana-swap-gateway/internal/address"
	"solana-swap-gateway/internal/fee"
	"solana-swap-gateway/internal/jupiter"
	"solana-swap-gateway/internal/provider"
)

// Environment variable names.
const (
	EnvListenAddr       = "LISTEN_ADDR"
	EnvEnvironment      = "ENVIRONMENT"
	EnvSolanaRPCURL     = "SOLANA_RPC_URL"
	EnvHeliusRPCURL     = "HELIUS_RPC_URL"
	EnvJupiterURL       = "JUPITER_API_URL"
	EnvJupiterAPIKey    = "JUPITER_API_KEY" // #nosec G101 -- variable name, not a credential
	EnvDexScreenerURL   = "DEXSCREENER_URL"
	EnvGeckoTerminalURL = "GECKOTERMINAL_URL"
	EnvExchangeRateURL  = "EXCHANGE_RATE_URL"
	EnvFrankfurterURL   = "FRANKFURTER_URL"
	EnvPostgresDSN      = "POSTGRES_DSN"
	EnvClickhouseDSN    = "CLICKHOUSE_DSN"
	EnvRedisAddr        = "REDIS_ADDR"
	EnvPlatformFeeBps   = "PLATFORM_FEE_BPS"
	EnvRPCRateLimit     = "RPC_RATE_LIMIT"
	EnvAllowedOrigins   = "ALLOWED_ORIGINS"
	EnvLogLevel         = "LOG_LEVEL"
	EnvLogFormat        = "LOG_FORMAT"
	EnvTablesFile       = "TABLES_FILE"
	EnvUseMemory        = "USE_MEMORY"
)

// DefaultSolanaRPCURL is the public mainnet endpoint. It does not serve DAS
// requests, so RPC metadata falls back to on-chain accounts.
const DefaultSolanaRPCURL = "https://api.mainnet-beta.solana.com"

// Config is the gateway configuration.
type Config struct {
	ListenAddr  string `validate:"required"`
	Environment string `validate:"oneof=development test staging production"`

	SolanaRPCURL     string  `validate:"required,url"`
	RPCRateLimit     float64 `validate:"gte=0"` // requests per second, 0 disables
	JupiterURL       string  `validate:"required,url"`
	JupiterAPIKey    string
	DexScreenerURL   string `validate:"omitempty,url"`
	GeckoTerminalURL string `validate:"omitempty,url"`
	ExchangeRateURL  string `validate:"omitempty,url"`
	FrankfurterURL   string `validate:"omitempty,url"`

	UseMemory     bool
	PostgresDSN   string `validate:"required_unless=UseMemory true"`
	ClickhouseDSN string // candle archive disabled when empty
	RedisAddr     string // in-process metadata cache when empty

	PlatformFeeBps int64 `validate:"gte=0,lte=10000"`
	AllowedOrigins []string

	LogLevel  string `validate:"oneof=trace debug info warn warning error"`
	LogFormat string `validate:"oneof=text json"`

	TablesFile string
	Tables     Tables `validate:"-"`
}

// Tables are the static token table and the fee-wallet mapping.
type Tables struct {
	Tokens     []provider.StaticToken `yaml:"tokens" validate:"dive"`
	FeeWallets map[string]string      `yaml:"fee_wallets"` // output mint -> fee wallet
}

// Defaults returns the configuration with environment variables applied.
func Defaults() *Config {
	rpcURL := firstNonEmpty(os.Getenv(EnvHeliusRPCURL), os.Getenv(EnvSolanaRPCURL), DefaultSolanaRPCURL)

	return &Config{
		ListenAddr:       envOr(EnvListenAddr, ":8001"),
		Environment:      envOr(EnvEnvironment, "development"),
		SolanaRPCURL:     rpcURL,
		RPCRateLimit:     envFloat(EnvRPCRateLimit, 10),
		JupiterURL:       envOr(EnvJupiterURL, jupiter.DefaultBaseURL),
		JupiterAPIKey:    os.Getenv(EnvJupiterAPIKey),
		DexScreenerURL:   envOr(EnvDexScreenerURL, provider.DefaultDexScreenerURL),
		GeckoTerminalURL: envOr(EnvGeckoTerminalURL, provider.DefaultGeckoTerminalURL),
		ExchangeRateURL:  envOr(EnvExchangeRateURL, provider.DefaultExchangeRateAPIURL),
		FrankfurterURL:   envOr(EnvFrankfurterURL, provider.DefaultFrankfurterURL),
		UseMemory:        envBool(EnvUseMemory),
		PostgresDSN:      os.Getenv(EnvPostgresDSN),
		ClickhouseDSN:    os.Getenv(EnvClickhouseDSN),
		RedisAddr:        os.Getenv(EnvRedisAddr),
		PlatformFeeBps:   int64(envFloat(EnvPlatformFeeBps, fee.DefaultBps)),
		AllowedOrigins:   splitList(envOr(EnvAllowedOrigins, "*")),
		LogLevel:         strings.ToLower(envOr(EnvLogLevel, "info")),
		LogFormat:        strings.ToLower(envOr(EnvLogFormat, "text")),
		TablesFile:       os.Getenv(EnvTablesFile),
	}
}

// BindFlags registers persistent flags on cmd whose defaults are the current values of cfg.
func BindFlags(cmd *cobra.Command, cfg *Config) {
	f := cmd.PersistentFlags()
	f.StringVar(&cfg.ListenAddr, "listen-addr", cfg.ListenAddr, "HTTP listen address")
	f.StringVar(&cfg.Environment, "environment", cfg.Environment, "Deployment environment")
	f.StringVar(&cfg.SolanaRPCURL, "rpc-url", cfg.SolanaRPCURL, "Solana RPC HTTP endpoint")
	f.Float64Var(&cfg.RPCRateLimit, "rpc-rate-limit", cfg.RPCRateLimit, "Max Solana RPC requests per second (0 = unlimited)")
	f.StringVar(&cfg.JupiterURL, "jupiter-url", cfg.JupiterURL, "Jupiter swap API base URL")
	f.StringVar(&cfg.PostgresDSN, "postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	f.StringVar(&cfg.ClickhouseDSN, "clickhouse-dsn", cfg.ClickhouseDSN, "ClickHouse connection string for the candle archive")
	f.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address for the shared metadata cache")
	f.Int64Var(&cfg.PlatformFeeBps, "fee-bps", cfg.PlatformFeeBps, "Platform fee in basis points")
	f.StringSliceVar(&cfg.AllowedOrigins, "allowed-origins", cfg.AllowedOrigins, "CORS allowed origins")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	f.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json)")
	f.StringVar(&cfg.TablesFile, "tables", cfg.TablesFile, "YAML file with static tokens and fee wallets")
	f.BoolVar(&cfg.UseMemory, "use-memory", cfg.UseMemory, "Use in-memory storage instead of PostgreSQL")
}

// LoadEnvFile loads variables from path without overriding existing ones.
// A missing file is not an error.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Finalize loads the tables file and validates the configuration.
func (c *Config) Finalize() error {
	if c.TablesFile != "" {
		tables, err := LoadTables(c.TablesFile)
		if err != nil {
			return err
		}
		c.Tables = *tables
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// StaticTokens returns the configured token table, or nil for the built-in one.
func (c *Config) StaticTokens() []provider.StaticToken {
	if len(c.Tables.Tokens) == 0 {
		return nil
	}
	return c.Tables.Tokens
}

// FeeWallets returns the configured fee-wallet mapping, or nil for the built-in one.
func (c *Config) FeeWallets() map[string]string {
	if len(c.Tables.FeeWallets) == 0 {
		return nil
	}
	return c.Tables.FeeWallets
}

// LoadTables reads and validates a YAML tables file.
func LoadTables(path string) (*Tables, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("read tables %s: %w", path, err)
	}

	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse tables %s: %w", path, err)
	}
	if err := validator.New().Struct(&t); err != nil {
		return nil, fmt.Errorf("invalid tables %s: %w", path, err)
	}

	for _, tok := range t.Tokens {
		if _, err := address.Validate(tok.Address); err != nil {
			return nil, fmt.Errorf("tables token %s: %w", tok.Symbol, err)
		}
	}
	for mint, wallet := range t.FeeWallets {
		if _, err := address.Validate(mint); err != nil {
			return nil, fmt.Errorf("tables fee wallet mint: %w", err)
		}
		if _, err := address.Validate(wallet); err != nil {
			return nil, fmt.Errorf("tables fee wallet for %s: %w", mint, err)
		}
	}
	return &t, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envBool(key string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return b
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
