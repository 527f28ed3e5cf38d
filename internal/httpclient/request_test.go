package httpclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/flashroute/internal/httpclient"
)

func TestGet_DecodesResultAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "42161", r.URL.Query().Get("chainId"))
		assert.Equal(t, "flashroute", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"name":"list","version":{"major":3}}`))
	}))
	defer srv.Close()

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("test"),
		httpclient.WithHeaders(map[string]string{"User-Agent": "flashroute"}),
	)
	require.NoError(t, err)

	var out struct {
		Name    string `json:"name"`
		Version struct {
			Major int `json:"major"`
		} `json:"version"`
	}

	resp, err := client.NewRequest().
		SetQueryParam("chainId", "42161").
		SetResult(&out).
		Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "list", out.Name)
	assert.Equal(t, 3, out.Version.Major)
}

func TestGet_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := httpclient.NewInstrumentedClient()
	require.NoError(t, err)

	resp, err := client.NewRequest().Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}
