package vbprovider

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/vibesafe/vibesafe/internal/vberrors"
)

// maxRetryAttempts bounds retries to a small, fixed number: attempt 1
// plus 2 retries.
const maxRetryAttempts = 3

// retryingProvider wraps a Provider, retrying only the two categories
// are transient (network, protocol) with exponential backoff;
// auth/quota/malformed failures propagate immediately.
type retryingProvider struct {
	inner Provider
	log   *slog.Logger
}

// NewRetryingProvider wraps inner with bounded exponential-backoff retry.
func NewRetryingProvider(inner Provider, log *slog.Logger) Provider {
	return &retryingProvider{inner: inner, log: log}
}

func (r *retryingProvider) Complete(ctx context.Context, req Request) (Response, error) {
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetryAttempts-1), ctx)

	var resp Response
	attempt := 0
	err := backoff.RetryNotify(
		func() error {
			attempt++
			var completeErr error
			resp, completeErr = r.inner.Complete(ctx, req)
			if completeErr == nil {
				return nil
			}

			var provErr *vberrors.ProviderError
			if errors.As(completeErr, &provErr) && !provErr.Category.Retryable() {
				return backoff.Permanent(completeErr)
			}
			return completeErr
		},
		bo,
		func(err error, wait time.Duration) {
			r.log.Warn("provider attempt failed, retrying", "unit_id", req.UnitID, "attempt", attempt, "wait", wait, "error", err)
		},
	)
	if err != nil {
		return Response{}, err
	}
	return resp, nil
}
