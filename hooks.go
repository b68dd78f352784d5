package invoke

import (
	"context"
	"time"
)

// OnSelectFunc is called after an adapter is selected for an envelope.
// Use this to enrich the context with logging fields or trace spans.
// The returned context is used for the rest of the invocation.
type OnSelectFunc func(ctx context.Context, service, adapter string) context.Context

// OnDispatchFunc is called just before the handler executes.
type OnDispatchFunc func(ctx context.Context, service, adapter string)

// OnSuccessFunc is called after the handler completes successfully.
type OnSuccessFunc func(ctx context.Context, service, adapter string, duration time.Duration)

// OnFailureFunc is called after the handler fails.
type OnFailureFunc func(ctx context.Context, service, adapter string, err error, duration time.Duration)

// OnNoAdapterFunc is called when no adapter claims an envelope. The
// invocation still fails with a SelectionError.
type OnNoAdapterFunc func(ctx context.Context, service string, raw []byte)

// OnResolveErrorFunc is called when a parameter implementation fails.
type OnResolveErrorFunc func(ctx context.Context, service, adapter string, err error)

// OnTransformErrorFunc is called when an adapter fails to shape a response.
type OnTransformErrorFunc func(ctx context.Context, service, adapter string, err error)

// OnInvokeFunc is called after every outbound Invoke, successful or not.
type OnInvokeFunc func(ctx context.Context, service, target string, err error, duration time.Duration)

// hooks holds all configured hook functions.
type hooks struct {
	onSelect         []OnSelectFunc
	onDispatch       []OnDispatchFunc
	onSuccess        []OnSuccessFunc
	onFailure        []OnFailureFunc
	onNoAdapter      []OnNoAdapterFunc
	onResolveError   []OnResolveErrorFunc
	onTransformError []OnTransformErrorFunc
	onInvoke         []OnInvokeFunc
}

// WithOnSelect adds a hook called after adapter selection.
// Multiple hooks are called in order, with context chaining through each.
//
// Example:
//
//	invoke.WithOnSelect(func(ctx context.Context, service, adapter string) context.Context {
//	    return logx.WithCtx(ctx, slog.String("adapter", adapter))
//	})
func WithOnSelect(fn OnSelectFunc) Option {
	return func(p *Provider) {
		p.hooks.onSelect = append(p.hooks.onSelect, fn)
	}
}

// WithOnDispatch adds a hook called just before the handler executes.
func WithOnDispatch(fn OnDispatchFunc) Option {
	return func(p *Provider) {
		p.hooks.onDispatch = append(p.hooks.onDispatch, fn)
	}
}

// WithOnSuccess adds a hook called after the handler completes successfully.
//
// Example:
//
//	invoke.WithOnSuccess(func(ctx context.Context, service, adapter string, d time.Duration) {
//	    metrics.Timing("invoke.success", d, "adapter:"+adapter)
//	})
func WithOnSuccess(fn OnSuccessFunc) Option {
	return func(p *Provider) {
		p.hooks.onSuccess = append(p.hooks.onSuccess, fn)
	}
}

// WithOnFailure adds a hook called after the handler fails, whether or not
// the adapter turns the failure into a response.
func WithOnFailure(fn OnFailureFunc) Option {
	return func(p *Provider) {
		p.hooks.onFailure = append(p.hooks.onFailure, fn)
	}
}

// WithOnNoAdapter adds a hook called when no adapter claims an envelope.
func WithOnNoAdapter(fn OnNoAdapterFunc) Option {
	return func(p *Provider) {
		p.hooks.onNoAdapter = append(p.hooks.onNoAdapter, fn)
	}
}

// WithOnResolveError adds a hook called when parameter resolution fails.
func WithOnResolveError(fn OnResolveErrorFunc) Option {
	return func(p *Provider) {
		p.hooks.onResolveError = append(p.hooks.onResolveError, fn)
	}
}

// WithOnTransformError adds a hook called when result transformation fails.
func WithOnTransformError(fn OnTransformErrorFunc) Option {
	return func(p *Provider) {
		p.hooks.onTransformError = append(p.hooks.onTransformError, fn)
	}
}

// WithOnInvoke adds a hook called after each outbound Invoke.
func WithOnInvoke(fn OnInvokeFunc) Option {
	return func(p *Provider) {
		p.hooks.onInvoke = append(p.hooks.onInvoke, fn)
	}
}

// OnSelectHook is an optional interface that adapters can implement to add
// adapter-specific context enrichment. Called after global OnSelect hooks.
type OnSelectHook interface {
	OnSelect(ctx context.Context, service string) context.Context
}

// OnSuccessHook is an optional interface that adapters can implement to add
// adapter-specific behavior on handler success. Called after global hooks.
type OnSuccessHook interface {
	OnSuccess(ctx context.Context, service string, duration time.Duration)
}

// OnFailureHook is an optional interface that adapters can implement to add
// adapter-specific behavior on handler failure. Called after global hooks.
type OnFailureHook interface {
	OnFailure(ctx context.Context, service string, err error, duration time.Duration)
}

func (p *Provider) callOnSelect(ctx context.Context, a Adapter, service string) context.Context {
	name := a.Name()
	for _, fn := range p.hooks.onSelect {
		ctx = fn(ctx, service, name)
	}
	if h, ok := a.(OnSelectHook); ok {
		ctx = h.OnSelect(ctx, service)
	}
	return ctx
}

func (p *Provider) callOnDispatch(ctx context.Context, a Adapter, service string) {
	for _, fn := range p.hooks.onDispatch {
		fn(ctx, service, a.Name())
	}
}

func (p *Provider) callOnSuccess(ctx context.Context, a Adapter, service string, d time.Duration) {
	for _, fn := range p.hooks.onSuccess {
		fn(ctx, service, a.Name(), d)
	}
	if h, ok := a.(OnSuccessHook); ok {
		h.OnSuccess(ctx, service, d)
	}
}

func (p *Provider) callOnFailure(ctx context.Context, a Adapter, service string, err error, d time.Duration) {
	for _, fn := range p.hooks.onFailure {
		fn(ctx, service, a.Name(), err, d)
	}
	if h, ok := a.(OnFailureHook); ok {
		h.OnFailure(ctx, service, err, d)
	}
}

func (p *Provider) callOnNoAdapter(ctx context.Context, service string, raw []byte) {
	for _, fn := range p.hooks.onNoAdapter {
		fn(ctx, service, raw)
	}
}

func (p *Provider) callOnResolveError(ctx context.Context, a Adapter, service string, err error) {
	for _, fn := range p.hooks.onResolveError {
		fn(ctx, service, a.Name(), err)
	}
}

func (p *Provider) callOnTransformError(ctx context.Context, a Adapter, service string, err error) {
	for _, fn := range p.hooks.onTransformError {
		fn(ctx, service, a.Name(), err)
	}
}

func (p *Provider) callOnInvoke(ctx context.Context, service, target string, err error, d time.Duration) {
	for _, fn := range p.hooks.onInvoke {
		fn(ctx, service, target, err, d)
	}
}
