// Package remote provides transports for outbound service invokes.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bjaus/invoke"
)

// DefaultTimeout bounds a single HTTP invoke.
const DefaultTimeout = 30 * time.Second

// maxResponse caps how much of a response body is read.
const maxResponse = 6 << 20

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// HTTP calls services over HTTP. RemoteRequest.Target is the full URL.
type HTTP struct {
	Client *http.Client
}

// NewHTTP returns an HTTP transport. A nil client gets DefaultTimeout.
func NewHTTP(client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTP{Client: client}
}

var _ invoke.Transport = (*HTTP)(nil)

// Call implements invoke.Transport.
func (h *HTTP) Call(ctx context.Context, req invoke.RemoteRequest) ([]byte, error) {
	method := req.Method
	if method == "" {
		method = http.MethodPost
	}

	hr, err := http.NewRequestWithContext(ctx, method, req.Target, bytes.NewReader(req.Payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	hr.Header.Set("Content-Type", "application/json")
	hr.Header.Set("Accept", "application/json")
	for k, v := range req.Header {
		hr.Header.Set(k, v)
	}

	resp, err := h.client().Do(hr)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func (h *HTTP) client() *http.Client {
	if h == nil || h.Client == nil {
		return http.DefaultClient
	}
	return h.Client
}
