package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bjaus/invoke"
)

// HandlerOption configures Handler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	params  func(*http.Request) map[string]string
	runtime func(*http.Request) json.RawMessage
}

// WithParams sets how route parameters are read from a request.
func WithParams(fn func(*http.Request) map[string]string) HandlerOption {
	return func(c *handlerConfig) {
		c.params = fn
	}
}

// WithRuntime sets the runtime context attached to each envelope.
func WithRuntime(fn func(*http.Request) json.RawMessage) HandlerOption {
	return func(c *handlerConfig) {
		c.runtime = fn
	}
}

// Handler serves svc over HTTP through p. Each request is captured as a
// Request envelope whose Reply writes to the response writer, so providers
// should deliver with invoke.DeliverReply.
func Handler(p *invoke.Provider, svc *invoke.Service, opts ...HandlerOption) http.Handler {
	var cfg handlerConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := ResponseWriter{W: w}

		var params map[string]string
		if cfg.params != nil {
			params = cfg.params(r)
		}
		req, err := NewRequest(r, params)
		var tooLarge *BodyTooLargeError
		switch {
		case errors.As(err, &tooLarge):
			_ = rw.write(Response{Status: http.StatusRequestEntityTooLarge, Body: invoke.SerializeError(err)})
			return
		case err != nil:
			_ = rw.Fail(r.Context(), err)
			return
		}

		var runtime json.RawMessage
		if cfg.runtime != nil {
			runtime = cfg.runtime(r)
		}
		env, err := req.Envelope(runtime)
		if err != nil {
			_ = rw.Fail(r.Context(), err)
			return
		}
		env.Reply = rw

		_, _ = p.Handle(r.Context(), svc, env)
	})
}
