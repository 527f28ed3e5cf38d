package tokenlist_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/flashroute/business/tokens/infra/tokenlist"
	"github.com/fd1az/flashroute/internal/apperror"
	"github.com/fd1az/flashroute/internal/httpclient"
)

const listJSON = `{
  "name": "Test List",
  "tokens": [
    {"chainId": 42161, "address": "0xaf88d065e77c8cC2239327C5EDb3A432268e5831", "symbol": "USDC", "name": "USD Coin", "decimals": 6},
    {"chainId": 1, "address": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "symbol": "USDC", "name": "USD Coin", "decimals": 6}
  ]
}`

func newClient(t *testing.T) *httpclient.InstrumentedClient {
	t.Helper()
	c, err := httpclient.NewInstrumentedClient(httpclient.WithProviderName("tokenlist"))
	require.NoError(t, err)
	return c
}

func TestFetcher_Decodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(listJSON))
	}))
	defer srv.Close()

	entries, err := tokenlist.NewFetcher(newClient(t), srv.URL).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(42161), entries[0].ChainID)
	assert.Equal(t, "USDC", entries[0].Symbol)
	assert.Equal(t, uint8(6), entries[0].Decimals)
}

func TestFetcher_Errors(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
		want apperror.Code
	}{
		{"status", http.StatusServiceUnavailable, "", apperror.CodeTokenListFetchFailed},
		{"garbage", http.StatusOK, "<html>", apperror.CodeTokenListFetchFailed},
		{"empty", http.StatusOK, `{"name":"x","tokens":[]}`, apperror.CodeTokenListInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := tokenlist.NewFetcher(newClient(t), srv.URL).Fetch(context.Background())
			assert.Equal(t, tt.want, apperror.GetCode(err))
		})
	}
}
