package local

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/bjaus/invoke"
	"github.com/bjaus/invoke/provider/web"
)

// RequestIDHeader carries the request id in and out of the dev server.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// Ambient is the runtime context attached to dev server envelopes.
type Ambient struct {
	RequestID string `json:"requestId"`
	Stage     string `json:"stage,omitempty"`
}

// ServerOption configures NewServer.
type ServerOption func(*serverConfig)

type serverConfig struct {
	stage   string
	origins []string
	mounts  map[string]http.Handler
}

// WithStage sets the stage reported in the ambient context.
func WithStage(stage string) ServerOption {
	return func(c *serverConfig) {
		c.stage = stage
	}
}

// WithOrigins restricts CORS to the given origins. The default allows any.
func WithOrigins(origins ...string) ServerOption {
	return func(c *serverConfig) {
		c.origins = origins
	}
}

// WithHandler mounts an extra handler, e.g. a metrics endpoint.
func WithHandler(pattern string, h http.Handler) ServerOption {
	return func(c *serverConfig) {
		c.mounts[pattern] = h
	}
}

// NewServer returns a dev server routing each service at "/" + route.
func NewServer(p *invoke.Provider, services []*invoke.Service, opts ...ServerOption) chi.Router {
	cfg := serverConfig{origins: []string{"*"}, mounts: map[string]http.Handler{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	for pattern, h := range cfg.mounts {
		r.Handle(pattern, h)
	}

	web.Mount(r, p, "", services, web.WithRuntime(func(req *http.Request) json.RawMessage {
		b, err := codec.Marshal(Ambient{RequestID: RequestID(req.Context()), Stage: cfg.stage})
		if err != nil {
			return nil
		}
		return b
	}))
	return r
}

// RequestID returns the dev server request id stored in ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}
