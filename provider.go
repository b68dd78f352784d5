package invoke

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bjaus/invoke/ioc"
)

// Invocation is the per-call state shared with parameter implementations.
// Each invocation builds its own; nothing in it is shared across calls.
type Invocation struct {
	// ID uniquely identifies the invocation.
	ID string

	Service  *Service
	Envelope *Envelope

	// Adapter is the adapter selected for Envelope.
	Adapter Adapter

	Provider *Provider
}

// DeliverFunc hands the final response, or an unrecoverable error, to the
// provider's outbound channel. It is the only place provider families
// differ in delivery.
type DeliverFunc func(ctx context.Context, env *Envelope, response any, err error) (any, error)

// Option configures a Provider.
type Option func(*Provider)

// Provider runs the invocation lifecycle for one provider family: adapter
// selection, parameter resolution, handler execution, result transformation
// and delivery. It also places outbound calls to other services.
//
// Usage:
//  1. Create a provider with NewProvider (or a family constructor)
//  2. Declare services with NewService
//  3. Call Handle for each trigger envelope
//
// Provider is safe for concurrent use after configuration. Do not modify its
// registry, adapters or options after calling Handle.
type Provider struct {
	name      string
	registry  *Registry
	adapters  []Adapter
	inspector Inspector
	container *ioc.Container
	metadata  *Metadata
	deliver   DeliverFunc
	target    TargetFunc
	transport Transport
	hooks     hooks
}

// NewProvider creates a Provider. Adapters are tried in the given order.
// A nil registry is replaced by NewBaseRegistry().
//
// Example:
//
//	base := invoke.NewBaseRegistry()
//	reg := invoke.NewRegistry("custom", base)
//	reg.Register(invoke.KindParam, invoke.FromAdapter)
//
//	p := invoke.NewProvider("custom", reg, []invoke.Adapter{gateway, direct},
//	    invoke.WithDelivery(invoke.DeliverCallback),
//	)
func NewProvider(name string, registry *Registry, adapters []Adapter, opts ...Option) *Provider {
	if registry == nil {
		registry = NewBaseRegistry()
	}
	p := &Provider{
		name:      name,
		registry:  registry,
		adapters:  append([]Adapter(nil), adapters...),
		inspector: JSONInspector(),
		container: ioc.New(),
		metadata:  NewMetadata(),
		deliver:   DeliverReturn,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithInspector sets the inspector used for adapter selection.
func WithInspector(i Inspector) Option {
	return func(p *Provider) {
		p.inspector = i
	}
}

// WithContainer sets the container used by inject parameters.
func WithContainer(c *ioc.Container) Option {
	return func(p *Provider) {
		p.container = c
	}
}

// WithMetadata sets the service metadata store.
func WithMetadata(m *Metadata) Option {
	return func(p *Provider) {
		p.metadata = m
	}
}

// WithDelivery sets the outbound delivery mechanism.
func WithDelivery(fn DeliverFunc) Option {
	return func(p *Provider) {
		p.deliver = fn
	}
}

// WithAdapters replaces the adapter list. Order is priority.
func WithAdapters(adapters ...Adapter) Option {
	return func(p *Provider) {
		p.adapters = append([]Adapter(nil), adapters...)
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return p.name }

// Registry returns the provider's decorator implementation registry.
func (p *Provider) Registry() *Registry { return p.registry }

// Container returns the provider's instance container.
func (p *Provider) Container() *ioc.Container { return p.container }

// Metadata returns the provider's service metadata store.
func (p *Provider) Metadata() *Metadata { return p.metadata }

// Adapters returns a copy of the adapter list in priority order.
func (p *Provider) Adapters() []Adapter {
	return append([]Adapter(nil), p.adapters...)
}

// Select returns the first adapter whose discriminator matches env. An
// envelope with a Trigger only matches adapters of that trigger.
func (p *Provider) Select(env *Envelope) (Adapter, error) {
	view, err := p.inspector.Inspect(env.Event)
	if err != nil {
		return nil, errors.Join(ErrNoAdapter, err)
	}
	for _, a := range p.adapters {
		if env.Trigger != TriggerUnknown && a.Trigger() != env.Trigger {
			continue
		}
		if a.Discriminator().Match(view) {
			return a, nil
		}
	}
	return nil, ErrNoAdapter
}

// Invoker returns svc bound to p, suitable for registering with a runtime.
func (p *Provider) Invoker(svc *Service) func(ctx context.Context, env *Envelope) (any, error) {
	return func(ctx context.Context, env *Envelope) (any, error) {
		return p.Handle(ctx, svc, env)
	}
}

// Handle runs one invocation of svc for env and delivers the outcome.
//
// The lifecycle:
//  1. Select the first adapter whose discriminator matches
//  2. Resolve every declared parameter through the registry chain
//  3. Call the handler, capturing errors and panics
//  4. Let the adapter transform the outcome into a response
//  5. Deliver the response through the provider's DeliverFunc
//
// Handler errors are handed to the adapter. Every other failure
// (SelectionError, ResolutionError, TransformError) is delivered as an
// unrecoverable error.
func (p *Provider) Handle(ctx context.Context, svc *Service, env *Envelope) (any, error) {
	if env == nil {
		env = &Envelope{}
	}
	resp, err := p.run(ctx, svc, env)
	return p.deliver(ctx, env, resp, err)
}

func (p *Provider) run(ctx context.Context, svc *Service, env *Envelope) (any, error) {
	adapter, err := p.Select(env)
	if err != nil {
		p.callOnNoAdapter(ctx, svc.Name, env.Event)
		return nil, &SelectionError{Provider: p.name, Service: svc.Name, Err: err}
	}

	inv := &Invocation{
		ID:       uuid.NewString(),
		Service:  svc,
		Envelope: env,
		Adapter:  adapter,
		Provider: p,
	}

	ctx = p.callOnSelect(ctx, adapter, svc.Name)

	args, err := p.resolve(ctx, inv)
	if err != nil {
		p.callOnResolveError(ctx, adapter, svc.Name, err)
		return nil, err
	}

	p.callOnDispatch(ctx, adapter, svc.Name)

	start := time.Now()
	result, herr := call(ctx, svc.Handler, args)
	duration := time.Since(start)

	if herr != nil {
		p.callOnFailure(ctx, adapter, svc.Name, herr, duration)
	} else {
		p.callOnSuccess(ctx, adapter, svc.Name, duration)
	}

	resp, terr := transform(ctx, adapter, herr, result, env)
	if terr != nil {
		if herr != nil && errors.Is(terr, herr) {
			return nil, &HandlerError{Err: herr}
		}
		p.callOnTransformError(ctx, adapter, svc.Name, terr)
		return nil, &TransformError{Adapter: adapter.Name(), Err: terr}
	}
	return resp, nil
}

// resolve resolves every parameter. A failing parameter does not stop the
// others; the failure with the lowest index is reported.
func (p *Provider) resolve(ctx context.Context, inv *Invocation) (Args, error) {
	params := inv.Service.Parameters

	size := 0
	for _, prm := range params {
		if prm.Index >= size {
			size = prm.Index + 1
		}
	}
	args := make(Args, size)

	var first *ResolutionError
	for _, prm := range params {
		v, err := p.resolveOne(ctx, prm, inv)
		if err != nil {
			if first == nil || prm.Index < first.Index {
				first = &ResolutionError{Index: prm.Index, Kind: prm.Kind, Err: err}
			}
			continue
		}
		if prm.Index >= 0 {
			args[prm.Index] = v
		}
	}
	if first != nil {
		return nil, first
	}
	return args, nil
}

func (p *Provider) resolveOne(ctx context.Context, prm Parameter, inv *Invocation) (v Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r}
		}
	}()
	if prm.Index < 0 {
		return Undefined(), fmt.Errorf("negative parameter index %d", prm.Index)
	}
	impl, ok := p.registry.Lookup(prm.Kind)
	if !ok {
		return Undefined(), nil
	}
	return impl(ctx, prm, inv)
}

func call(ctx context.Context, h HandlerFunc, args Args) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r}
		}
	}()
	if h == nil {
		return nil, errors.New("service has no handler")
	}
	return h(ctx, args)
}

func transform(ctx context.Context, a Adapter, herr error, result any, env *Envelope) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r}
		}
	}()
	return a.TransformResult(ctx, herr, result, env)
}

// DeliverReturn returns the outcome to the caller unchanged.
func DeliverReturn(_ context.Context, _ *Envelope, response any, err error) (any, error) {
	return response, err
}

// DeliverCallback passes the outcome to env.Callback when set, then
// returns it.
func DeliverCallback(ctx context.Context, env *Envelope, response any, err error) (any, error) {
	if env != nil && env.Callback != nil {
		env.Callback(err, response)
	}
	return DeliverReturn(ctx, env, response, err)
}

// DeliverReply writes the outcome to env.Reply when set: responses through
// Reply, unrecoverable errors through Fail. Envelopes without a Replier
// fall back to DeliverCallback.
func DeliverReply(ctx context.Context, env *Envelope, response any, err error) (any, error) {
	if env == nil || env.Reply == nil {
		return DeliverCallback(ctx, env, response, err)
	}
	if err != nil {
		if ferr := env.Reply.Fail(ctx, err); ferr != nil {
			return nil, errors.Join(err, ferr)
		}
		return nil, err
	}
	if rerr := env.Reply.Reply(ctx, response); rerr != nil {
		return response, fmt.Errorf("deliver reply: %w", rerr)
	}
	return response, nil
}
