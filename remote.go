package invoke

import (
	"context"
	"errors"
	"time"

	"github.com/tidwall/gjson"
)

// RemoteRequest is an outbound call prepared by a TargetFunc.
type RemoteRequest struct {
	// Target is a function name or URL, depending on the transport.
	Target string

	// Method is the HTTP method for URL-based transports.
	Method string

	// Header carries transport headers such as access keys.
	Header map[string]string

	// Payload is the JSON-encoded parameter bag.
	Payload []byte
}

// Transport places outbound calls. Implementations own authentication on
// the wire, retries and connection management.
type Transport interface {
	Call(ctx context.Context, req RemoteRequest) ([]byte, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req RemoteRequest) ([]byte, error)

// Call implements Transport.
func (f TransportFunc) Call(ctx context.Context, req RemoteRequest) ([]byte, error) {
	return f(ctx, req)
}

// TargetFunc resolves where and how to call svc. It must return a
// ConfigurationError when required metadata or environment values are
// missing; it never performs network calls.
type TargetFunc func(svc *Service, md *Metadata) (RemoteRequest, error)

// WithTarget sets the outbound target resolver.
func WithTarget(fn TargetFunc) Option {
	return func(p *Provider) {
		p.target = fn
	}
}

// WithTransport sets the outbound transport.
func WithTransport(t Transport) Option {
	return func(p *Provider) {
		p.transport = t
	}
}

// Invoke calls svc remotely with params and decodes its JSON response.
// An empty response yields Undefined.
//
// Configuration problems are reported as ConfigurationError before any
// network interaction; transport failures and undecodable responses as
// InvokeTransportError.
func (p *Provider) Invoke(ctx context.Context, svc *Service, params any) (Value, error) {
	start := time.Now()
	v, target, err := p.invoke(ctx, svc, params)
	p.callOnInvoke(ctx, svc.Name, target, err, time.Since(start))
	return v, err
}

func (p *Provider) invoke(ctx context.Context, svc *Service, params any) (Value, string, error) {
	if p.target == nil {
		return Undefined(), "", &ConfigurationError{Key: "target", Msg: "provider " + p.name + " cannot invoke services"}
	}
	req, err := p.target(svc, p.metadata)
	if err != nil {
		return Undefined(), "", err
	}
	if p.transport == nil {
		return Undefined(), req.Target, &ConfigurationError{Key: "transport", Msg: "provider " + p.name + " has no transport"}
	}

	if params == nil {
		params = map[string]any{}
	}
	payload, err := codec.Marshal(params)
	if err != nil {
		return Undefined(), req.Target, &InvokeTransportError{Target: req.Target, Err: err}
	}
	req.Payload = payload

	raw, err := p.transport.Call(ctx, req)
	if err != nil {
		return Undefined(), req.Target, &InvokeTransportError{Target: req.Target, Err: err}
	}
	if len(raw) == 0 {
		return Undefined(), req.Target, nil
	}
	if !gjson.ValidBytes(raw) {
		return Undefined(), req.Target, &InvokeTransportError{Target: req.Target, Err: errors.Join(ErrInvalidJSON, errors.New(truncate(raw, 128)))}
	}
	return JSON(raw), req.Target, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
