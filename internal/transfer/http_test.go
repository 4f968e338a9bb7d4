package transfer

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanq16/dlspeed/internal/utils"
)

func TestHTTPSourceOpen(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.Equal(t, "keep-alive", r.Header.Get("Connection"))
			io.WriteString(w, "hello")
		case "/redirect-target":
			w.WriteHeader(http.StatusNotModified)
		case "/missing":
			http.Error(w, "not here", http.StatusNotFound)
		case "/slow":
			time.Sleep(300 * time.Millisecond)
		}
	}))
	defer server.Close()
	src := NewHTTPSource(utils.NewHTTPClient(utils.HTTPClientConfig{Timeout: 100 * time.Millisecond}))

	t.Run("ok", func(t *testing.T) {
		resp, err := src.Open(context.Background(), utils.Request{Method: http.MethodGet, URL: server.URL + "/ok"})
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, "HTTP/1.1 200 OK", resp.Status)
		assert.Equal(t, int64(5), resp.ContentLength)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(body))
	})

	t.Run("3xx is not a failure", func(t *testing.T) {
		resp, err := src.Open(context.Background(), utils.Request{Method: http.MethodGet, URL: server.URL + "/redirect-target"})
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotModified, resp.StatusCode)
	})

	t.Run("4xx keeps the status line", func(t *testing.T) {
		resp, err := src.Open(context.Background(), utils.Request{Method: http.MethodGet, URL: server.URL + "/missing"})
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Nil(t, resp.Body)
		assert.Equal(t, "HTTP/1.1 404 Not Found", resp.Status)
		var te *utils.TransferError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, utils.ErrorProtocol, te.Kind)
		assert.Equal(t, http.StatusNotFound, te.StatusCode)
	})

	t.Run("header timeout", func(t *testing.T) {
		_, err := src.Open(context.Background(), utils.Request{Method: http.MethodGet, URL: server.URL + "/slow"})
		kind, ok := utils.ErrorKindOf(err)
		require.True(t, ok)
		assert.Equal(t, utils.ErrorTimeout, kind)
	})

	t.Run("invalid method", func(t *testing.T) {
		_, err := src.Open(context.Background(), utils.Request{Method: "BAD METHOD", URL: server.URL})
		kind, ok := utils.ErrorKindOf(err)
		require.True(t, ok)
		assert.Equal(t, utils.ErrorProtocol, kind)
	})
}

func TestHTTPSourceConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	src := NewHTTPSource(utils.NewHTTPClient(utils.HTTPClientConfig{}))
	resp, err := src.Open(context.Background(), utils.Request{Method: http.MethodGet, URL: url})
	assert.Nil(t, resp)
	kind, ok := utils.ErrorKindOf(err)
	require.True(t, ok)
	assert.Equal(t, utils.ErrorConnection, kind)
	assert.Contains(t, err.Error(), url)
}
