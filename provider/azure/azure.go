// Package azure is the Azure Functions provider family. Functions run as a
// custom handler with HTTP request forwarding: the host forwards each HTTP
// trigger to the handler's server, which replies on the same connection.
//
//	cfg, _ := config.Load()
//	p := azure.New(cfg)
//	p.Metadata().Set(invoke.AttrRoute, svc.Name, "users/{id}")
//	http.ListenAndServe(azure.ListenAddress(cfg), azure.Router(p, svc))
package azure

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bjaus/invoke"
	"github.com/bjaus/invoke/config"
	"github.com/bjaus/invoke/provider/web"
	"github.com/bjaus/invoke/remote"
)

// Name is the provider name.
const Name = "azure"

// Function key header understood by the Functions host.
const KeyHeader = "x-functions-key"

// Auth levels. Every level other than anonymous requires a function key.
const (
	AuthAnonymous = "anonymous"
	AuthFunction  = "function"
	AuthAdmin     = "admin"
)

// New creates an Azure provider. Responses are written to the forwarded
// HTTP request through the envelope reply channel.
func New(cfg *config.Config, opts ...invoke.Option) *invoke.Provider {
	defaults := []invoke.Option{
		invoke.WithDelivery(invoke.DeliverReply),
		invoke.WithTarget(Target(cfg)),
		invoke.WithTransport(remote.NewHTTP(nil)),
	}
	reg := web.NewRegistry(Name, invoke.NewBaseRegistry())
	return invoke.NewProvider(Name, reg, []invoke.Adapter{web.HTTPTrigger{}}, append(defaults, opts...)...)
}

// Target resolves the HTTP endpoint of a service:
// FUNCTIONAL_BASE_URL + "/api/" + route, where a FUNCTIONAL_SERVICE_<NAME>
// override replaces the route. Services whose auth level is not anonymous
// carry the function key from FUNCTIONAL_ACCESS_KEY.
func Target(cfg *config.Config) invoke.TargetFunc {
	return func(svc *invoke.Service, md *invoke.Metadata) (invoke.RemoteRequest, error) {
		if cfg == nil || cfg.BaseURL == "" {
			return invoke.RemoteRequest{}, &invoke.ConfigurationError{Key: config.KeyBaseURL}
		}

		route := web.Route(md, svc)
		if override, ok := cfg.ServiceOverride(svc.Name); ok {
			route = strings.Trim(override, "/")
		}

		req := invoke.RemoteRequest{
			Target: strings.TrimRight(cfg.BaseURL, "/") + "/api/" + route,
			Method: http.MethodPost,
		}
		if method, ok := md.String(invoke.AttrMethod, svc.Name); ok {
			req.Method = strings.ToUpper(method)
		}

		if AuthLevel(md, svc) != AuthAnonymous {
			key, err := cfg.RequireAccessKey()
			if err != nil {
				return invoke.RemoteRequest{}, err
			}
			req.Header = map[string]string{KeyHeader: key}
		}
		return req, nil
	}
}

// AuthLevel returns the declared auth level of a service, defaulting to
// function.
func AuthLevel(md *invoke.Metadata, svc *invoke.Service) string {
	if level, ok := md.String(invoke.AttrAuthLevel, svc.Name); ok {
		return strings.ToLower(level)
	}
	return AuthFunction
}

// Router serves services under /api, the route prefix of the Functions
// host.
func Router(p *invoke.Provider, services ...*invoke.Service) chi.Router {
	r := chi.NewRouter()
	web.Mount(r, p, "/api", services)
	return r
}

// ListenAddress returns the address the custom handler must listen on.
func ListenAddress(cfg *config.Config) string {
	if cfg == nil {
		return ":8080"
	}
	if cfg.HandlerPort != "" {
		return ":" + cfg.HandlerPort
	}
	return cfg.Listen
}

// Preflight resolves the target of every service without calling it, so
// missing base URLs or function keys fail at startup instead of on the
// first invoke.
func Preflight(cfg *config.Config, md *invoke.Metadata, services ...*invoke.Service) error {
	target := Target(cfg)
	for _, svc := range services {
		if _, err := target(svc, md); err != nil {
			return err
		}
	}
	return nil
}
