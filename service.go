package invoke

import (
	"context"
	"fmt"
)

// Kind selects the strategy that resolves a handler parameter.
type Kind string

const (
	// KindParam reads a value out of the envelope through the adapter.
	KindParam Kind = "param"

	// KindInject constructs or reuses a service from the container.
	KindInject Kind = "inject"

	// KindRequest returns the whole request holder of HTTP-style adapters.
	KindRequest Kind = "request"

	// KindServiceParams returns the invocation itself.
	KindServiceParams Kind = "serviceParams"

	// KindEvent returns the envelope decoded into the adapter's typed event.
	KindEvent Kind = "event"
)

// Parameter describes how to resolve one handler argument. Parameters are
// declared once per service and never modified afterwards.
type Parameter struct {
	// Index is the ordinal position in the handler's argument list.
	Index int

	// Kind selects the resolution strategy.
	Kind Kind

	// From is a dotted path into the holder.
	From string

	// Source optionally names a single holder within the envelope. nil
	// means the adapter's fallback chain is used; a pointer to "" means the
	// envelope root.
	Source *string

	// Service is the container key of the service to inject.
	Service string

	// Params are constructor arguments for the injected service. Elements
	// of type ioc.Lazy are evaluated only when construction happens.
	Params []any
}

// Param declares a parameter read from path from.
func Param(from string) Parameter {
	return Parameter{Kind: KindParam, From: from}
}

// In restricts the lookup to a single named holder.
//
//	invoke.Param("authorization").In("headers")
func (p Parameter) In(source string) Parameter {
	p.Source = &source
	return p
}

// Inject declares a parameter resolved from the container.
func Inject(service string, params ...any) Parameter {
	return Parameter{Kind: KindInject, Service: service, Params: params}
}

// Request declares a parameter receiving the whole HTTP request holder.
func Request() Parameter {
	return Parameter{Kind: KindRequest}
}

// ServiceParams declares a parameter receiving the *Invocation.
func ServiceParams() Parameter {
	return Parameter{Kind: KindServiceParams}
}

// Event declares a parameter receiving the adapter's typed event.
func Event() Parameter {
	return Parameter{Kind: KindEvent}
}

// Args holds resolved handler arguments in declaration order.
type Args []Value

// At returns argument i, or Undefined when i is out of range.
func (a Args) At(i int) Value {
	if i < 0 || i >= len(a) {
		return Undefined()
	}
	return a[i]
}

// HandlerFunc is the uniform business logic contract.
type HandlerFunc func(ctx context.Context, args Args) (any, error)

// Service is a handler together with its parameter declarations.
type Service struct {
	// Name identifies the service in metadata, configuration and logs.
	Name string

	// Handler is the business logic.
	Handler HandlerFunc

	// Parameters are the declared arguments, ordered by Index.
	Parameters []Parameter
}

// NewService declares a service. Parameters are indexed by position.
//
//	svc := invoke.NewService("hello", handler,
//	    invoke.Param("name"),
//	    invoke.Inject("greeter"),
//	)
func NewService(name string, h HandlerFunc, params ...Parameter) *Service {
	ps := make([]Parameter, len(params))
	for i, p := range params {
		p.Index = i
		ps[i] = p
	}
	return &Service{Name: name, Handler: h, Parameters: ps}
}

// Bind1 adapts a typed single-argument function to HandlerFunc.
//
//	invoke.NewService("hello", invoke.Bind1(func(ctx context.Context, name string) (string, error) {
//	    return "hello " + name, nil
//	}), invoke.Param("name"))
func Bind1[A, R any](fn func(ctx context.Context, a A) (R, error)) HandlerFunc {
	return func(ctx context.Context, args Args) (any, error) {
		a, err := argAs[A](args, 0)
		if err != nil {
			return nil, err
		}
		return fn(ctx, a)
	}
}

// Bind2 adapts a typed two-argument function to HandlerFunc.
func Bind2[A, B, R any](fn func(ctx context.Context, a A, b B) (R, error)) HandlerFunc {
	return func(ctx context.Context, args Args) (any, error) {
		a, err := argAs[A](args, 0)
		if err != nil {
			return nil, err
		}
		b, err := argAs[B](args, 1)
		if err != nil {
			return nil, err
		}
		return fn(ctx, a, b)
	}
}

func argAs[T any](args Args, i int) (T, error) {
	var out T
	v := args.At(i)
	if t, ok := any(v).(T); ok {
		return t, nil
	}
	if !v.Defined() {
		return out, nil
	}
	if v.state == stateNative {
		if t, ok := v.native.(T); ok {
			return t, nil
		}
	}
	if err := v.Decode(&out); err != nil {
		return out, fmt.Errorf("decode argument %d: %w", i, err)
	}
	return out, nil
}
