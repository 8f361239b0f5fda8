package vbprovider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"

	"github.com/vibesafe/vibesafe/internal/vberrors"
)

// cachingProvider wraps a Provider with a content-addressed cache keyed
// by H_prompt || provider_identity. Writes are
// atomic: temp file then rename, so a reader never observes a partial
// cache entry.
type cachingProvider struct {
	inner Provider
	dir   string
}

// NewCachingProvider wraps inner with a cache rooted at dir
//.
func NewCachingProvider(inner Provider, dir string) Provider {
	return &cachingProvider{inner: inner, dir: dir}
}

func cacheKey(promptText, providerIdentity string) string {
	sum := sha256.Sum256([]byte(promptText + "\x00" + providerIdentity))
	return hex.EncodeToString(sum[:])
}

func (c *cachingProvider) cachePath(req Request) string {
	return filepath.Join(c.dir, cacheKey(req.PromptText, req.ProviderIdentity)+".bin")
}

// Refresher is implemented by providers that can bypass a cache read while
// still refreshing the cache entry on success.
type Refresher interface {
	Refresh(ctx context.Context, req Request) (Response, error)
}

// Refresh calls through to the wrapped provider unconditionally, then
// writes the result into the cache exactly as Complete would on a miss -
// so a forced regeneration also updates what future, non-forced calls see.
func (c *cachingProvider) Refresh(ctx context.Context, req Request) (Response, error) {
	resp, err := c.inner.Complete(ctx, req)
	if err != nil {
		return Response{}, err
	}
	if err := c.writeAtomic(c.cachePath(req), []byte(resp.GeneratedText)); err != nil {
		return Response{}, &vberrors.ProviderError{
			Category: vberrors.ProviderMalformed,
			UnitID:   req.UnitID,
			Detail:   "writing provider cache: " + err.Error(),
		}
	}
	return resp, nil
}

func (c *cachingProvider) Complete(ctx context.Context, req Request) (Response, error) {
	path := c.cachePath(req)

	if data, err := os.ReadFile(path); err == nil {
		return Response{GeneratedText: string(data), FromCache: true}, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return Response{}, &vberrors.ProviderError{
			Category: vberrors.ProviderMalformed,
			UnitID:   req.UnitID,
			Detail:   "reading provider cache: " + err.Error(),
		}
	}

	resp, err := c.inner.Complete(ctx, req)
	if err != nil {
		return Response{}, err
	}

	if err := c.writeAtomic(path, []byte(resp.GeneratedText)); err != nil {
		return Response{}, &vberrors.ProviderError{
			Category: vberrors.ProviderMalformed,
			UnitID:   req.UnitID,
			Detail:   "writing provider cache: " + err.Error(),
		}
	}
	return resp, nil
}

func (c *cachingProvider) writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmpPath := path + ".vibesafe.tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
