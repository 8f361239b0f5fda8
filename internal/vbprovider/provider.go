// Package vbprovider implements the Provider Client: it
// turns a rendered prompt into generated code deterministically, with a
// content-addressed cache and bounded retry.
package vbprovider

import "context"

// Request carries everything a Provider needs to complete a prompt
// deterministically.
type Request struct {
	UnitID           string
	PromptText       string
	ProviderIdentity string // "<kind>:<model>", folded into H_spec
	Model            string
	Seed             *int64
	Temperature      *float64
	MaxTokens        *int
}

// Response is the generated artifact text plus whether it came from cache.
type Response struct {
	GeneratedText string
	FromCache     bool
}

// Provider turns a Request into generated text. Implementations are
// composed as decorators: a concrete transport wrapped by retryingProvider
// wrapped by cachingProvider (see NewDefault).
type Provider interface {
	Complete(ctx context.Context, req Request) (Response, error)
}
