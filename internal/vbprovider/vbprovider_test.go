package vbprovider

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vibesafe/vibesafe/internal/vberrors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHTTPProvider_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req.Model)
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "func add(a, b int) int { return a + b }", Done: true})
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "", 5*time.Second, discardLogger())
	resp, err := p.Complete(context.Background(), Request{UnitID: "u1", PromptText: "prompt", Model: "llama3"})
	require.NoError(t, err)
	assert.Contains(t, resp.GeneratedText, "func add")
}

func TestHTTPProvider_CategorizesAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("bad key"))
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "", 5*time.Second, discardLogger())
	_, err := p.Complete(context.Background(), Request{UnitID: "u1", PromptText: "prompt"})
	require.Error(t, err)
}

func TestCachingProvider_HitsCacheOnSecondCall(t *testing.T) {
	var calls int32
	inner := providerFunc(func(ctx context.Context, req Request) (Response, error) {
		atomic.AddInt32(&calls, 1)
		return Response{GeneratedText: "generated"}, nil
	})

	dir := t.TempDir()
	p := NewCachingProvider(inner, dir)
	req := Request{UnitID: "u1", PromptText: "prompt text", ProviderIdentity: "ollama:llama3"}

	r1, err := p.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, r1.FromCache)

	r2, err := p.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, r2.FromCache)
	assert.Equal(t, r1.GeneratedText, r2.GeneratedText)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, filepath.Ext(entries[0].Name()) == ".bin")
}

func TestCachingProvider_DifferentProviderIdentityMisses(t *testing.T) {
	var calls int32
	inner := providerFunc(func(ctx context.Context, req Request) (Response, error) {
		atomic.AddInt32(&calls, 1)
		return Response{GeneratedText: "generated"}, nil
	})

	dir := t.TempDir()
	p := NewCachingProvider(inner, dir)

	_, err := p.Complete(context.Background(), Request{PromptText: "prompt", ProviderIdentity: "ollama:llama3"})
	require.NoError(t, err)
	_, err = p.Complete(context.Background(), Request{PromptText: "prompt", ProviderIdentity: "openai:gpt-4"})
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRetryingProvider_RetriesNetworkFailureThenSucceeds(t *testing.T) {
	var attempts int32
	inner := providerFunc(func(ctx context.Context, req Request) (Response, error) {
		n := atomic.AddInt32(&attempts, 1)
		if n < 2 {
			return Response{}, &vberrors.ProviderError{Category: vberrors.ProviderNetwork, Detail: "connection reset"}
		}
		return Response{GeneratedText: "ok"}, nil
	})

	p := NewRetryingProvider(inner, discardLogger())
	resp, err := p.Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.GeneratedText)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestRetryingProvider_DoesNotRetryAuthFailure(t *testing.T) {
	var attempts int32
	inner := providerFunc(func(ctx context.Context, req Request) (Response, error) {
		atomic.AddInt32(&attempts, 1)
		return Response{}, &vberrors.ProviderError{Category: vberrors.ProviderAuth, Detail: "bad credentials"}
	})

	p := NewRetryingProvider(inner, discardLogger())
	_, err := p.Complete(context.Background(), Request{})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

type providerFunc func(ctx context.Context, req Request) (Response, error)

func (f providerFunc) Complete(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}
