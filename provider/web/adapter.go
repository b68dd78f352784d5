package web

import (
	"context"
	"net/http"

	"github.com/bjaus/invoke"
)

// Holders probed by param lookups, in order.
var holders = []string{"body", "query", "params", "headers"}

// HTTPTrigger handles HTTP-trigger envelopes. It claims any envelope with a
// method or headers field.
type HTTPTrigger struct{}

var _ invoke.Adapter = HTTPTrigger{}

func (HTTPTrigger) Name() string            { return "httpTrigger" }
func (HTTPTrigger) Trigger() invoke.Trigger { return invoke.TriggerHTTPTrigger }

func (HTTPTrigger) Discriminator() invoke.Discriminator {
	return invoke.Or(invoke.HasFields("method"), invoke.HasFields("headers"))
}

// ResolveParameter reads params through body, query, params and headers.
// The request kind yields the raw request; the event kind a decoded Request.
func (HTTPTrigger) ResolveParameter(_ context.Context, p invoke.Parameter, inv *invoke.Invocation) (invoke.Value, error) {
	root := inv.Envelope.EventValue()
	switch p.Kind {
	case invoke.KindParam:
		return invoke.LookupChain(root, p, holders...), nil
	case invoke.KindRequest:
		return root, nil
	case invoke.KindEvent:
		var req Request
		if err := root.Decode(&req); err != nil {
			return invoke.Undefined(), err
		}
		return invoke.Of(req), nil
	}
	return invoke.Undefined(), nil
}

// TransformResult shapes the outcome into a Response. Handler errors
// become a 500 carrying the serialized error, response-shaped results pass
// through unchanged and anything else is wrapped in a 200.
func (HTTPTrigger) TransformResult(_ context.Context, err error, result any, _ *invoke.Envelope) (any, error) {
	return Transform(err, result)
}

// Transform is the HTTP-trigger result transformation.
func Transform(err error, result any) (any, error) {
	if err != nil {
		return Response{Status: http.StatusInternalServerError, Body: invoke.SerializeError(err)}, nil
	}
	if IsResponse(result) {
		return result, nil
	}
	body, merr := invoke.Marshal(result)
	if merr != nil {
		return nil, merr
	}
	return Response{Status: http.StatusOK, Body: body}, nil
}

// IsResponse reports whether v already has the Response shape.
func IsResponse(v any) bool {
	switch v.(type) {
	case Response, *Response:
		return true
	}
	return invoke.IsResponseShaped(v, "status")
}

// NewRegistry returns a registry below parent that resolves param, request
// and event parameters through the selected adapter.
func NewRegistry(name string, parent *invoke.Registry) *invoke.Registry {
	reg := invoke.NewRegistry(name, parent)
	reg.Register(invoke.KindParam, invoke.FromAdapter)
	reg.Register(invoke.KindRequest, invoke.FromAdapter)
	reg.Register(invoke.KindEvent, invoke.FromAdapter)
	return reg
}
