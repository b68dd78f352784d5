// Package local is the local development provider family. Services are
// served over HTTP by a chi dev server or called in-process with an
// explicit parameter bag and ambient context.
package local

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/bjaus/invoke"
	"github.com/bjaus/invoke/config"
	"github.com/bjaus/invoke/provider/web"
	"github.com/bjaus/invoke/remote"
)

// Name is the provider name.
const Name = "local"

// DefaultBaseURL is used for outbound invokes when FUNCTIONAL_BASE_URL is
// unset.
const DefaultBaseURL = "http://localhost:3000"

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// InProcess handles direct calls. Params are read from the parameter bag
// first and then from the ambient context.
type InProcess struct {
	invoke.BaseAdapter
}

var _ invoke.Adapter = InProcess{}

func (InProcess) Name() string            { return "inProcess" }
func (InProcess) Trigger() invoke.Trigger { return invoke.TriggerDirectCall }

func (InProcess) Discriminator() invoke.Discriminator {
	return invoke.IsObject()
}

func (InProcess) ResolveParameter(_ context.Context, p invoke.Parameter, inv *invoke.Invocation) (invoke.Value, error) {
	root := inv.Envelope.EventValue()
	switch p.Kind {
	case invoke.KindParam:
		if v := invoke.LookupChain(root, p, ""); v.Defined() || p.Source != nil {
			return v, nil
		}
		return inv.Envelope.ContextValue().Get(p.From), nil
	case invoke.KindEvent:
		return root, nil
	}
	return invoke.Undefined(), nil
}

// Adapters returns the local adapters in selection order.
func Adapters() []invoke.Adapter {
	return []invoke.Adapter{web.HTTPTrigger{}, InProcess{}}
}

// New creates a local provider. HTTP requests are answered through the
// envelope reply channel; in-process calls return their result.
func New(cfg *config.Config, opts ...invoke.Option) *invoke.Provider {
	defaults := []invoke.Option{
		invoke.WithDelivery(invoke.DeliverReply),
		invoke.WithTarget(Target(cfg)),
		invoke.WithTransport(remote.NewHTTP(nil)),
	}
	reg := web.NewRegistry(Name, invoke.NewBaseRegistry())
	return invoke.NewProvider(Name, reg, Adapters(), append(defaults, opts...)...)
}

// Target resolves services on the dev server: base URL + "/" + route, where
// a FUNCTIONAL_SERVICE_<NAME> override replaces the route.
func Target(cfg *config.Config) invoke.TargetFunc {
	return func(svc *invoke.Service, md *invoke.Metadata) (invoke.RemoteRequest, error) {
		base := DefaultBaseURL
		if cfg != nil && cfg.BaseURL != "" {
			base = cfg.BaseURL
		}
		route := web.Route(md, svc)
		if override, ok := cfg.ServiceOverride(svc.Name); ok {
			route = strings.Trim(override, "/")
		}

		req := invoke.RemoteRequest{
			Target: strings.TrimRight(base, "/") + "/" + route,
			Method: http.MethodPost,
		}
		if method, ok := md.String(invoke.AttrMethod, svc.Name); ok {
			req.Method = strings.ToUpper(method)
		}
		return req, nil
	}
}

// Call runs svc in-process. params becomes the envelope payload and ambient
// its runtime context; either may be nil. The envelope is marked as a
// direct call, so bags with HTTP-looking keys still reach InProcess.
func Call(ctx context.Context, p *invoke.Provider, svc *invoke.Service, params, ambient any) (any, error) {
	if params == nil {
		params = map[string]any{}
	}
	event, err := codec.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}

	var runtime []byte
	if ambient != nil {
		if runtime, err = codec.Marshal(ambient); err != nil {
			return nil, fmt.Errorf("encode context: %w", err)
		}
	}
	env := invoke.NewEnvelope(event, runtime)
	env.Trigger = invoke.TriggerDirectCall
	return p.Handle(ctx, svc, env)
}
