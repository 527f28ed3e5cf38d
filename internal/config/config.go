// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"

	"github.com/fd1az/flashroute/internal/apperror"
)

// Arbitrum One defaults.
const (
	DefaultChainID        = 42161
	DefaultQuoterV2       = "0x61fFE014bA17989E743c5F6cB21bF9697530B21e"
	DefaultV2Router       = "0x1b02dA8Cb0d097eB8D57A175b88c7D8b47997506"
	DefaultBaseToken      = "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"
	DefaultTokenListURL   = "https://tokens.uniswap.org"
	maxFeeTier            = 1<<24 - 1
	defaultFallbackTipWei = "200000000"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Ethereum  EthereumConfig  `mapstructure:"ethereum"`
	Venues    VenuesConfig    `mapstructure:"venues"`
	Routing   RoutingConfig   `mapstructure:"routing"`
	Gate      GateConfig      `mapstructure:"gate"`
	Polling   PollingConfig   `mapstructure:"polling"`
	Execution ExecutionConfig `mapstructure:"execution"`
	Fees      FeesConfig      `mapstructure:"fees"`
	Tokens    TokensConfig    `mapstructure:"tokens"`
	Journal   JournalConfig   `mapstructure:"journal"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Health    HealthConfig    `mapstructure:"health"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	TUIMode     bool   `mapstructure:"-"`
}

// EthereumConfig holds node endpoints.
type EthereumConfig struct {
	WebSocketURL   string        `mapstructure:"websocket_url"`
	HTTPURL        string        `mapstructure:"http_url"`
	ChainID        uint64        `mapstructure:"chain_id"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	PollInterval   time.Duration `mapstructure:"head_poll_interval"`
}

// VenuesConfig enables the two liquidity venues.
type VenuesConfig struct {
	Concentrated    ConcentratedConfig    `mapstructure:"concentrated"`
	ConstantProduct ConstantProductConfig `mapstructure:"constant_product"`
}

// ConcentratedConfig describes the concentrated-liquidity quoter.
type ConcentratedConfig struct {
	Enabled       bool     `mapstructure:"enabled"`
	QuoterAddress string   `mapstructure:"quoter_address"`
	FeeTiers      []uint32 `mapstructure:"fee_tiers"`
}

func (c *ConcentratedConfig) QuoterAddressHex() common.Address {
	return common.HexToAddress(c.QuoterAddress)
}

// ConstantProductConfig describes the constant-product router.
type ConstantProductConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	RouterAddress string `mapstructure:"router_address"`
}

func (c *ConstantProductConfig) RouterAddressHex() common.Address {
	return common.HexToAddress(c.RouterAddress)
}

// RoutingConfig drives the route search.
type RoutingConfig struct {
	BaseToken           string        `mapstructure:"base_token"`
	Amounts             []string      `mapstructure:"amounts"`
	TwoHop              bool          `mapstructure:"two_hop"`
	MaxIntermediates    int           `mapstructure:"max_intermediates"`
	MaxConcurrentQuotes int           `mapstructure:"max_concurrent_quotes"`
	QuoteRatePerSecond  float64       `mapstructure:"quote_rate_per_second"`
	QuoteBurst          int           `mapstructure:"quote_burst"`
	QuoteTimeout        time.Duration `mapstructure:"quote_timeout"`
}

func (c *RoutingConfig) BaseTokenHex() common.Address {
	return common.HexToAddress(c.BaseToken)
}

// AmountsWei parses the input sizes tried each cycle.
func (c *RoutingConfig) AmountsWei() ([]*big.Int, error) {
	out := make([]*big.Int, 0, len(c.Amounts))
	for _, s := range c.Amounts {
		v, err := parseWei(s)
		if err != nil {
			return nil, fmt.Errorf("routing.amounts: %w", err)
		}
		if v.Sign() <= 0 {
			return nil, fmt.Errorf("routing.amounts: %s must be positive", s)
		}
		out = append(out, v)
	}
	return out, nil
}

// GateConfig holds the static part of the economic threshold.
type GateConfig struct {
	SlippageBps       int64  `mapstructure:"slippage_bps"`
	MinEdgeBps        int64  `mapstructure:"min_edge_bps"`
	SafetyMarginWei   string `mapstructure:"safety_margin_wei"`
	EstimatedGasUnits uint64 `mapstructure:"estimated_gas_units"`
	LoanPremiumBps    int64  `mapstructure:"loan_premium_bps"`
}

func (c *GateConfig) SafetyMargin() (*big.Int, error) {
	return parseWei(c.SafetyMarginWei)
}

// PollingConfig bounds the cycle cadence.
type PollingConfig struct {
	Adaptive    bool          `mapstructure:"adaptive"`
	Interval    time.Duration `mapstructure:"interval"`
	MinInterval time.Duration `mapstructure:"min_interval"`
	MaxInterval time.Duration `mapstructure:"max_interval"`
	BackoffStep time.Duration `mapstructure:"backoff_step"`
}

// ExecutionConfig describes the execution contract and signer.
type ExecutionConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	DryRunOnly      bool          `mapstructure:"dry_run_only"`
	ExecutorAddress string        `mapstructure:"executor_address"`
	PrivateKey      string        `mapstructure:"private_key"`
	GasLimit        uint64        `mapstructure:"gas_limit"`
	ReceiptTimeout  time.Duration `mapstructure:"receipt_timeout"`
}

func (c *ExecutionConfig) ExecutorAddressHex() common.Address {
	return common.HexToAddress(c.ExecutorAddress)
}

// FeesConfig tunes the fee oracle.
type FeesConfig struct {
	FallbackPriorityFeeWei string        `mapstructure:"fallback_priority_fee_wei"`
	MaxGasPriceWei         string        `mapstructure:"max_gas_price_wei"`
	CacheTTL               time.Duration `mapstructure:"cache_ttl"`
}

func (c *FeesConfig) FallbackPriorityFee() (*big.Int, error) {
	return parseWei(c.FallbackPriorityFeeWei)
}

// MaxGasPrice returns nil when no cap is configured.
func (c *FeesConfig) MaxGasPrice() (*big.Int, error) {
	if strings.TrimSpace(c.MaxGasPriceWei) == "" {
		return nil, nil
	}
	return parseWei(c.MaxGasPriceWei)
}

// TokensConfig configures the intermediate token universe.
type TokensConfig struct {
	Intermediates   []string      `mapstructure:"intermediates"`
	CacheFile       string        `mapstructure:"cache_file"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	ListURL         string        `mapstructure:"list_url"`
	FetchTimeout    time.Duration `mapstructure:"fetch_timeout"`
	RefreshSchedule string        `mapstructure:"refresh_schedule"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisTTL        time.Duration `mapstructure:"redis_ttl"`
}

// JournalConfig selects cycle record sinks. Empty values disable a sink.
type JournalConfig struct {
	SQLitePath    string        `mapstructure:"sqlite_path"`
	PostgresDSN   string        `mapstructure:"postgres_dsn"`
	ClickHouseDSN string        `mapstructure:"clickhouse_dsn"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	Exporter       string `mapstructure:"exporter"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// HealthConfig holds the health server settings.
type HealthConfig struct {
	Port int `mapstructure:"port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("ARB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, apperror.New(apperror.CodeConfigurationError,
				apperror.WithCause(err),
				apperror.WithContext("read config file"))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithCause(err),
			apperror.WithContext("unmarshal config"))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	_ = v.BindEnv("app.name", "ARB_APP_NAME", "SERVICE_NAME")
	_ = v.BindEnv("app.environment", "ARB_ENVIRONMENT", "ENVIRONMENT")
	_ = v.BindEnv("app.log_level", "ARB_LOG_LEVEL", "LOG_LEVEL")

	// Ethereum
	_ = v.BindEnv("ethereum.websocket_url", "ARB_ETH_WS_URL", "ARBITRUM_MAINNET_WS_URL")
	_ = v.BindEnv("ethereum.http_url", "ARB_ETH_HTTP_URL", "ARBITRUM_MAINNET_RPC_URL")
	_ = v.BindEnv("ethereum.chain_id", "ARB_ETH_CHAIN_ID")

	// Venues
	_ = v.BindEnv("venues.concentrated.quoter_address", "ARB_QUOTER_ADDRESS", "UNIV3_QUOTER")
	_ = v.BindEnv("venues.constant_product.router_address", "ARB_V2_ROUTER_ADDRESS", "UNIV2_ROUTER")

	// Routing and gate
	_ = v.BindEnv("routing.base_token", "ARB_BASE_TOKEN", "FLASH_ASSET")
	_ = v.BindEnv("routing.amounts", "ARB_AMOUNTS_WEI", "FLASH_AMOUNT_WEI")
	_ = v.BindEnv("gate.safety_margin_wei", "ARB_SAFETY_MARGIN_WEI", "MIN_PROFIT_WEI")

	// Execution
	_ = v.BindEnv("execution.enabled", "ARB_EXECUTION_ENABLED")
	_ = v.BindEnv("execution.dry_run_only", "ARB_DRY_RUN_ONLY")
	_ = v.BindEnv("execution.executor_address", "ARB_EXECUTOR_ADDRESS", "FLASH_EXECUTOR_ADDRESS")
	_ = v.BindEnv("execution.private_key", "ARB_PRIVATE_KEY", "ROOT_KEY")

	// Tokens and journal
	_ = v.BindEnv("tokens.redis_addr", "ARB_REDIS_ADDR", "REDIS_ADDR")
	_ = v.BindEnv("journal.postgres_dsn", "ARB_POSTGRES_DSN", "DATABASE_URL")
	_ = v.BindEnv("journal.clickhouse_dsn", "ARB_CLICKHOUSE_DSN", "CLICKHOUSE_DSN")

	// Telemetry
	_ = v.BindEnv("telemetry.enabled", "ARB_OTEL_ENABLED", "OTEL_ENABLED")
	_ = v.BindEnv("telemetry.service_name", "ARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	_ = v.BindEnv("telemetry.otlp_endpoint", "ARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	_ = v.BindEnv("telemetry.otlp_headers", "ARB_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "flashroute")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("ethereum.chain_id", DefaultChainID)
	v.SetDefault("ethereum.request_timeout", "10s")
	v.SetDefault("ethereum.head_poll_interval", "2s")

	v.SetDefault("venues.concentrated.enabled", true)
	v.SetDefault("venues.concentrated.quoter_address", DefaultQuoterV2)
	v.SetDefault("venues.concentrated.fee_tiers", []uint32{500, 3000})
	v.SetDefault("venues.constant_product.enabled", true)
	v.SetDefault("venues.constant_product.router_address", DefaultV2Router)

	v.SetDefault("routing.base_token", DefaultBaseToken)
	v.SetDefault("routing.amounts", []string{"10000000000000000", "100000000000000000"})
	v.SetDefault("routing.two_hop", false)
	v.SetDefault("routing.max_intermediates", 12)
	v.SetDefault("routing.max_concurrent_quotes", 8)
	v.SetDefault("routing.quote_rate_per_second", 20)
	v.SetDefault("routing.quote_burst", 8)
	v.SetDefault("routing.quote_timeout", "5s")

	v.SetDefault("gate.slippage_bps", 15)
	v.SetDefault("gate.min_edge_bps", 1)
	v.SetDefault("gate.safety_margin_wei", "100000000000")
	v.SetDefault("gate.estimated_gas_units", 450000)
	v.SetDefault("gate.loan_premium_bps", 5)

	v.SetDefault("polling.adaptive", true)
	v.SetDefault("polling.interval", "3s")
	v.SetDefault("polling.min_interval", "500ms")
	v.SetDefault("polling.max_interval", "30s")
	v.SetDefault("polling.backoff_step", "500ms")

	v.SetDefault("execution.enabled", false)
	v.SetDefault("execution.dry_run_only", false)
	v.SetDefault("execution.receipt_timeout", "2m")

	v.SetDefault("fees.fallback_priority_fee_wei", defaultFallbackTipWei)
	v.SetDefault("fees.cache_ttl", "2s")

	v.SetDefault("tokens.cache_file", "tokens_cache.json")
	v.SetDefault("tokens.cache_ttl", "24h")
	v.SetDefault("tokens.list_url", DefaultTokenListURL)
	v.SetDefault("tokens.fetch_timeout", "10s")
	v.SetDefault("tokens.refresh_schedule", "0 */6 * * *")
	v.SetDefault("tokens.redis_ttl", "6h")

	v.SetDefault("journal.sqlite_path", "flashroute.db")
	v.SetDefault("journal.write_timeout", "5s")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "flashroute")
	v.SetDefault("telemetry.exporter", "zipkin")
	v.SetDefault("telemetry.prometheus_port", 9090)

	v.SetDefault("health.port", 8081)
}

// Validate validates the configuration. Every failure is a fatal
// CONFIGURATION_ERROR.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return apperror.Configuration(fmt.Sprintf(format, args...))
	}

	if c.Ethereum.HTTPURL == "" {
		return invalid("ethereum.http_url is required")
	}
	if !c.Venues.Concentrated.Enabled && !c.Venues.ConstantProduct.Enabled {
		return invalid("at least one venue must be enabled")
	}
	if c.Venues.Concentrated.Enabled {
		if !common.IsHexAddress(c.Venues.Concentrated.QuoterAddress) {
			return invalid("invalid venues.concentrated.quoter_address: %q", c.Venues.Concentrated.QuoterAddress)
		}
		if len(c.Venues.Concentrated.FeeTiers) == 0 {
			return invalid("venues.concentrated.fee_tiers cannot be empty")
		}
		for _, f := range c.Venues.Concentrated.FeeTiers {
			if f > maxFeeTier {
				return invalid("fee tier %d does not fit in 24 bits", f)
			}
		}
	}
	if c.Venues.ConstantProduct.Enabled && !common.IsHexAddress(c.Venues.ConstantProduct.RouterAddress) {
		return invalid("invalid venues.constant_product.router_address: %q", c.Venues.ConstantProduct.RouterAddress)
	}
	if !common.IsHexAddress(c.Routing.BaseToken) {
		return invalid("invalid routing.base_token: %q", c.Routing.BaseToken)
	}
	if len(c.Routing.Amounts) == 0 {
		return invalid("routing.amounts cannot be empty")
	}
	if _, err := c.Routing.AmountsWei(); err != nil {
		return invalid("%v", err)
	}
	if c.Routing.MaxConcurrentQuotes < 1 {
		return invalid("routing.max_concurrent_quotes must be >= 1")
	}
	if c.Gate.SlippageBps < 0 || c.Gate.SlippageBps >= 10000 {
		return invalid("gate.slippage_bps must be in [0, 10000)")
	}
	if c.Gate.MinEdgeBps < 0 || c.Gate.LoanPremiumBps < 0 {
		return invalid("gate bps values cannot be negative")
	}
	if _, err := c.Gate.SafetyMargin(); err != nil {
		return invalid("gate.safety_margin_wei: %v", err)
	}
	if c.Polling.MinInterval <= 0 || c.Polling.MaxInterval < c.Polling.MinInterval {
		return invalid("polling bounds must satisfy 0 < min_interval <= max_interval")
	}
	if _, err := c.Fees.FallbackPriorityFee(); err != nil {
		return invalid("fees.fallback_priority_fee_wei: %v", err)
	}
	if _, err := c.Fees.MaxGasPrice(); err != nil {
		return invalid("fees.max_gas_price_wei: %v", err)
	}
	if c.Execution.Enabled {
		if !common.IsHexAddress(c.Execution.ExecutorAddress) {
			return invalid("execution.executor_address is required when execution is enabled")
		}
		if strings.TrimSpace(c.Execution.PrivateKey) == "" {
			return invalid("execution.private_key is required when execution is enabled")
		}
	}
	return nil
}

func parseWei(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, fmt.Errorf("%q is not a base-10 integer", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%q is negative", s)
	}
	return v, nil
}
