// Package llm defines the composer's language-model backend capability
// and its implementations: a no-op stub and an HTTP-backed client.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// ErrBackendTimeout wraps completion failures caused by the backend
// not responding within its deadline, including a breaker trip.
var ErrBackendTimeout = errors.New("llm: backend timeout")

// Backend completes a prompt within the caller's context deadline.
// Implementations must return promptly on context cancellation — the
// composer relies on that to fall through to template composition.
type Backend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// NoOp never has a backend available; the composer falls straight
// through to templates. Useful for offline/test configurations.
type NoOp struct{}

func (NoOp) Complete(ctx context.Context, prompt string) (string, error) {
	return "", fmt.Errorf("llm: no backend configured")
}

// HTTPBackend calls a local or remote completion endpoint that accepts
// {"prompt": "..."} and returns {"completion": "..."}, guarded by a
// circuit breaker that trips after repeated consecutive failures
// (timeouts, transport errors or non-2xx replies) so a stalled or
// failing backend doesn't add request latency to every packet.
type HTTPBackend struct {
	URL     string
	Client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewHTTPBackend builds a backend pointed at url, with the given
// overall request timeout. The breaker trips after 3 consecutive
// failures and probes again after 30s (half-open).
func NewHTTPBackend(url string, timeout time.Duration) *HTTPBackend {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm-http-backend",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	return &HTTPBackend{URL: url, Client: &http.Client{Timeout: timeout}, breaker: breaker}
}

type completionRequest struct {
	Prompt string `json:"prompt"`
}

type completionResponse struct {
	Completion string `json:"completion"`
}

func (b *HTTPBackend) Complete(ctx context.Context, prompt string) (string, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.complete(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %v", ErrBackendTimeout, err)
		}
		return "", err
	}
	return result.(string), nil
}

func (b *HTTPBackend) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(completionRequest{Prompt: prompt})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm: backend returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var out completionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("llm: malformed response: %w", err)
	}
	return out.Completion, nil
}
