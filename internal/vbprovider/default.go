package vbprovider

import (
	"log/slog"
	"time"
)

// NewDefault composes the standard decorator stack: cache first (so a
// cache hit never touches the network), retry innermost (so only the
// actual transport call is retried, not a stale cache read).
func NewDefault(baseURL, apiKey, cacheDir string, timeout time.Duration, log *slog.Logger) Provider {
	transport := NewHTTPProvider(baseURL, apiKey, timeout, log)
	retrying := NewRetryingProvider(transport, log)
	return NewCachingProvider(retrying, cacheDir)
}
