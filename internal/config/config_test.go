package config_test

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/flashroute/internal/apperror"
	"github.com/fd1az/flashroute/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsAndFile(t *testing.T) {
	path := writeConfig(t, `
ethereum:
  http_url: http://localhost:8547
routing:
  amounts: ["1000", "2000"]
  two_hop: true
polling:
  max_interval: 10s
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint64(config.DefaultChainID), cfg.Ethereum.ChainID)
	assert.Equal(t, []uint32{500, 3000}, cfg.Venues.Concentrated.FeeTiers)
	assert.True(t, cfg.Routing.TwoHop)
	assert.Equal(t, 10*time.Second, cfg.Polling.MaxInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.Polling.MinInterval)

	amounts, err := cfg.Routing.AmountsWei()
	require.NoError(t, err)
	assert.Equal(t, []*big.Int{big.NewInt(1000), big.NewInt(2000)}, amounts)

	tip, err := cfg.Fees.FallbackPriorityFee()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(200_000_000), tip)
}

func TestLoad_LegacyEnvAliases(t *testing.T) {
	t.Setenv("ARBITRUM_MAINNET_RPC_URL", "http://rpc.example")
	t.Setenv("FLASH_EXECUTOR_ADDRESS", "0x00000000000000000000000000000000000000aa")
	t.Setenv("ROOT_KEY", "deadbeef")
	t.Setenv("ARB_EXECUTION_ENABLED", "true")

	cfg, err := config.Load(writeConfig(t, "app:\n  name: test\n"))
	require.NoError(t, err)

	assert.Equal(t, "http://rpc.example", cfg.Ethereum.HTTPURL)
	assert.True(t, cfg.Execution.Enabled)
	assert.Equal(t, "deadbeef", cfg.Execution.PrivateKey)
}

func TestLoad_ExecutionWithoutKeyIsFatal(t *testing.T) {
	path := writeConfig(t, `
ethereum:
  http_url: http://localhost:8547
execution:
  enabled: true
  executor_address: "0x00000000000000000000000000000000000000aa"
`)

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeConfigurationError, apperror.GetCode(err))
	assert.Equal(t, apperror.KindConfiguration, apperror.GetKind(err))
}

func TestValidate(t *testing.T) {
	base := func() config.Config {
		return config.Config{
			Ethereum: config.EthereumConfig{HTTPURL: "http://x"},
			Venues: config.VenuesConfig{
				Concentrated:    config.ConcentratedConfig{Enabled: true, QuoterAddress: config.DefaultQuoterV2, FeeTiers: []uint32{500}},
				ConstantProduct: config.ConstantProductConfig{Enabled: true, RouterAddress: config.DefaultV2Router},
			},
			Routing: config.RoutingConfig{BaseToken: config.DefaultBaseToken, Amounts: []string{"1"}, MaxConcurrentQuotes: 1},
			Gate:    config.GateConfig{SlippageBps: 15, SafetyMarginWei: "0"},
			Polling: config.PollingConfig{MinInterval: time.Second, MaxInterval: time.Second},
			Fees:    config.FeesConfig{FallbackPriorityFeeWei: "1"},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{"no venues", func(c *config.Config) {
			c.Venues.Concentrated.Enabled = false
			c.Venues.ConstantProduct.Enabled = false
		}},
		{"fee tier over 24 bits", func(c *config.Config) { c.Venues.Concentrated.FeeTiers = []uint32{1 << 24} }},
		{"bad base token", func(c *config.Config) { c.Routing.BaseToken = "weth" }},
		{"zero amount", func(c *config.Config) { c.Routing.Amounts = []string{"0"} }},
		{"non numeric amount", func(c *config.Config) { c.Routing.Amounts = []string{"1e18"} }},
		{"inverted polling bounds", func(c *config.Config) { c.Polling.MaxInterval = time.Millisecond }},
		{"slippage too high", func(c *config.Config) { c.Gate.SlippageBps = 10000 }},
	}

	ok := base()
	require.NoError(t, ok.Validate())

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := base()
			tc.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Equal(t, apperror.CodeConfigurationError, apperror.GetCode(err))
		})
	}
}
