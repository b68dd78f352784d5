package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bjaus/invoke"
)

// Route returns the declared route of a service, defaulting to its name.
func Route(md *invoke.Metadata, svc *invoke.Service) string {
	if route, ok := md.String(invoke.AttrRoute, svc.Name); ok {
		return strings.Trim(route, "/")
	}
	return svc.Name
}

// Mount registers each service on r at prefix + "/" + route. Services with
// a declared method only accept that method. Route patterns use chi syntax
// and their placeholders become the params holder.
func Mount(r chi.Router, p *invoke.Provider, prefix string, services []*invoke.Service, opts ...HandlerOption) {
	opts = append([]HandlerOption{WithParams(URLParams)}, opts...)
	for _, svc := range services {
		pattern := strings.TrimRight(prefix, "/") + "/" + Route(p.Metadata(), svc)
		h := Handler(p, svc, opts...)
		if method, ok := p.Metadata().String(invoke.AttrMethod, svc.Name); ok {
			r.Method(strings.ToUpper(method), pattern, h)
			continue
		}
		r.Handle(pattern, h)
	}
}

// URLParams returns the chi route parameters of r.
func URLParams(r *http.Request) map[string]string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return nil
	}
	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, k := range rctx.URLParams.Keys {
		if k == "*" || i >= len(rctx.URLParams.Values) {
			continue
		}
		params[k] = rctx.URLParams.Values[i]
	}
	return params
}
