package vbprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/vibesafe/vibesafe/internal/vberrors"
)

// httpProvider is the concrete HTTP transport, shaped after an
// Ollama-style generate endpoint: POST a JSON request, decode a JSON
// response. Most self-hosted and hosted code-completion providers speak
// a close variant of this shape.
type httpProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *slog.Logger
}

// NewHTTPProvider constructs the base transport. timeout bounds a single
// attempt; retries are added by wrapping the result in a retryingProvider.
func NewHTTPProvider(baseURL, apiKey string, timeout time.Duration, log *slog.Logger) Provider {
	return &httpProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

type generateRequest struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	Stream      bool     `json:"stream"`
	Seed        *int64   `json:"seed,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (p *httpProvider) Complete(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(generateRequest{
		Model:       req.Model,
		Prompt:      req.PromptText,
		Stream:      false,
		Seed:        req.Seed,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return Response{}, &vberrors.ProviderError{
			Category: vberrors.ProviderMalformed,
			UnitID:   req.UnitID,
			Detail:   fmt.Sprintf("marshaling request: %v", err),
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return Response{}, &vberrors.ProviderError{
			Category: vberrors.ProviderNetwork,
			UnitID:   req.UnitID,
			Detail:   fmt.Sprintf("building request: %v", err),
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	p.log.Debug("provider request", "unit_id", req.UnitID, "model", req.Model)
	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return Response{}, &vberrors.ProviderError{
			Category: vberrors.ProviderNetwork,
			UnitID:   req.UnitID,
			Detail:   err.Error(),
			Hint:     "check base_url and network connectivity",
		}
	}
	defer resp.Body.Close()
	latency := time.Since(start)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, &vberrors.ProviderError{
			Category: vberrors.ProviderNetwork,
			UnitID:   req.UnitID,
			Detail:   fmt.Sprintf("reading response body: %v", err),
		}
	}

	if category, ok := categorizeStatus(resp.StatusCode); ok {
		return Response{}, &vberrors.ProviderError{
			Category: category,
			UnitID:   req.UnitID,
			Detail:   fmt.Sprintf("status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Response{}, &vberrors.ProviderError{
			Category: vberrors.ProviderMalformed,
			UnitID:   req.UnitID,
			Detail:   fmt.Sprintf("decoding response: %v", err),
		}
	}

	p.log.Debug("provider response", "unit_id", req.UnitID, "latency", latency, "bytes", len(parsed.Response))
	return Response{GeneratedText: parsed.Response}, nil
}

// categorizeStatus maps an HTTP status to a ProviderErrorCategory. ok is
// false for 2xx, meaning no error.
func categorizeStatus(status int) (vberrors.ProviderErrorCategory, bool) {
	switch {
	case status >= 200 && status < 300:
		return "", false
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return vberrors.ProviderAuth, true
	case status == http.StatusTooManyRequests || status == http.StatusPaymentRequired:
		return vberrors.ProviderQuota, true
	case status >= 500:
		return vberrors.ProviderNetwork, true
	default:
		return vberrors.ProviderProtocol, true
	}
}
