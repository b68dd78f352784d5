// Package web holds the HTTP-trigger envelope shared by the Azure and local
// provider families: the request and response shapes, the adapter that
// recognizes them and the net/http glue that carries them.
package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/bjaus/invoke"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// maxBody caps the request body read by NewRequest.
const maxBody = 6 << 20

// BodyTooLargeError is returned by NewRequest when the body exceeds the
// size limit. Nothing past the limit is read.
type BodyTooLargeError struct {
	Limit int64
}

func (e *BodyTooLargeError) Error() string {
	return fmt.Sprintf("request body exceeds %d bytes", e.Limit)
}

// Request is the HTTP-trigger event. Body holds the JSON request body, or a
// JSON string when the body is not JSON.
type Request struct {
	Method  string            `json:"method"`
	URL     string            `json:"url,omitempty"`
	Headers map[string]string `json:"headers"`
	Query   map[string]string `json:"query"`
	Params  map[string]string `json:"params"`
	Body    json.RawMessage   `json:"body,omitempty"`
}

// Response is the HTTP-trigger result shape.
type Response struct {
	Status  int               `json:"status"`
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers,omitempty"`
}

// NewRequest captures r as a Request. Header and query names keep their
// first value only. Header names are lower-cased. Bodies over 6 MiB fail
// with BodyTooLargeError.
func NewRequest(r *http.Request, params map[string]string) (Request, error) {
	req := Request{
		Method:  r.Method,
		URL:     r.URL.String(),
		Headers: make(map[string]string, len(r.Header)),
		Query:   make(map[string]string),
		Params:  params,
	}
	if req.Params == nil {
		req.Params = map[string]string{}
	}
	for k, vs := range r.Header {
		if len(vs) > 0 {
			req.Headers[strings.ToLower(k)] = vs[0]
		}
	}
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			req.Query[k] = vs[0]
		}
	}

	if r.Body == nil {
		return req, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
	if err != nil {
		return Request{}, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBody {
		return Request{}, &BodyTooLargeError{Limit: maxBody}
	}
	switch {
	case len(body) == 0:
	case json.Valid(body):
		req.Body = body
	default:
		s, err := codec.Marshal(string(body))
		if err != nil {
			return Request{}, err
		}
		req.Body = s
	}
	return req, nil
}

// Envelope encodes req as an HTTP-trigger envelope event.
func (req Request) Envelope(runtime json.RawMessage) (*invoke.Envelope, error) {
	b, err := codec.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	env := invoke.NewEnvelope(b, runtime)
	env.Trigger = invoke.TriggerHTTPTrigger
	return env, nil
}
