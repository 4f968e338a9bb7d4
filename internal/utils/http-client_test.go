package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientSetsHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer server.Close()

	t.Run("default user agent", func(t *testing.T) {
		client := NewHTTPClient(HTTPClientConfig{})
		req, err := http.NewRequest(http.MethodGet, server.URL, nil)
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, ToolUserAgent, got.Get("User-Agent"))
		assert.Empty(t, got.Get("Authorization"))
	})

	t.Run("custom headers and bearer token", func(t *testing.T) {
		client := NewHTTPClient(HTTPClientConfig{
			UserAgent:   "tester/1",
			Headers:     map[string]string{"X-Probe": "1"},
			BearerToken: "s3cr3t",
		})
		req, err := http.NewRequest(http.MethodGet, server.URL, nil)
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, "tester/1", got.Get("User-Agent"))
		assert.Equal(t, "1", got.Get("X-Probe"))
		assert.Equal(t, "Bearer s3cr3t", got.Get("Authorization"))
	})
}

func TestHTTPClientDoesNotDecompress(t *testing.T) {
	var acceptEncoding string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acceptEncoding = r.Header.Get("Accept-Encoding")
	}))
	defer server.Close()

	client := NewHTTPClient(HTTPClientConfig{LargeSocketBuffers: true})
	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, acceptEncoding)
}
