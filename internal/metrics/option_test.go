package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptions(t *testing.T) {
	cfg := Config{}
	for _, opt := range []OptionFn{
		WithServiceName("flashroute"),
		WithProviderConfig(ProviderCfg{Provider: PrometheusProvider}),
		WithProviderConfig(NewOtelCollectorConfig("http://collector:4317", "api-key=abc", true)),
	} {
		cfg = opt(cfg)
	}

	assert.Equal(t, "flashroute", cfg.ServiceName)
	assert.Len(t, cfg.Provider, 2)
	assert.Equal(t, map[string]string{"api-key": "abc"}, cfg.Provider[1].Headers)
	assert.True(t, cfg.Provider[1].Insecure)
}
