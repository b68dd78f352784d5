package invoke

import (
	"context"
)

// Trigger identifies the kind of event source an adapter understands.
// It is a closed set; branch on it instead of on adapter type names.
type Trigger int

const (
	TriggerUnknown Trigger = iota
	TriggerHTTPGateway
	TriggerObjectStorage
	TriggerPubSub
	TriggerChangeStream
	TriggerEventBus
	TriggerDirectCall
	TriggerHTTPTrigger
)

func (t Trigger) String() string {
	switch t {
	case TriggerHTTPGateway:
		return "http-gateway"
	case TriggerObjectStorage:
		return "object-storage"
	case TriggerPubSub:
		return "pubsub"
	case TriggerChangeStream:
		return "change-stream"
	case TriggerEventBus:
		return "event-bus"
	case TriggerDirectCall:
		return "direct-call"
	case TriggerHTTPTrigger:
		return "http-trigger"
	default:
		return "unknown"
	}
}

// Adapter recognizes one provider-specific envelope shape, extracts
// handler arguments from it and shapes handler results into the response
// the provider expects.
//
// Adapters are registered on a Provider in priority order. The first adapter
// whose Discriminator matches an envelope handles it, so the order is part
// of the provider's contract.
//
// Embed BaseAdapter to inherit no-op defaults:
//
//	type queueAdapter struct {
//	    invoke.BaseAdapter
//	}
//
//	func (queueAdapter) Name() string                  { return "queue" }
//	func (queueAdapter) Trigger() invoke.Trigger        { return invoke.TriggerPubSub }
//	func (queueAdapter) Discriminator() invoke.Discriminator {
//	    return invoke.RecordSource("aws:sqs")
//	}
type Adapter interface {
	// Name returns the adapter identifier for logging and metrics.
	Name() string

	// Trigger returns the event source variant.
	Trigger() Trigger

	// Discriminator returns the availability predicate.
	Discriminator() Discriminator

	// ResolveParameter extracts the value of p from the invocation's
	// envelope. Kinds the adapter does not know resolve to Undefined.
	ResolveParameter(ctx context.Context, p Parameter, inv *Invocation) (Value, error)

	// TransformResult converts the handler outcome into the provider
	// response. Returning the handler error unchanged reports the handler
	// failure to the runtime; any other error is treated as fatal.
	TransformResult(ctx context.Context, err error, result any, env *Envelope) (any, error)
}

// BaseAdapter provides defaults for partially implemented adapters.
type BaseAdapter struct{}

// ResolveParameter resolves every kind to Undefined.
func (BaseAdapter) ResolveParameter(context.Context, Parameter, *Invocation) (Value, error) {
	return Undefined(), nil
}

// TransformResult passes the result through and hands back the handler error.
func (BaseAdapter) TransformResult(_ context.Context, err error, result any, _ *Envelope) (any, error) {
	if err != nil {
		return nil, err
	}
	return result, nil
}

// LookupChain resolves p.From against a list of holders below root.
//
// When p.Source is set the chain is bypassed and only that holder is
// consulted; an empty source names root itself. Otherwise the holders are
// probed in order and the first defined value wins. String holders that
// encode JSON (request bodies) are expanded before the lookup.
func LookupChain(root Value, p Parameter, holders ...string) Value {
	if p.Source != nil {
		return root.Get(*p.Source).Expand().Get(p.From)
	}
	for _, h := range holders {
		if v := root.Get(h).Expand().Get(p.From); v.Defined() {
			return v
		}
	}
	return Undefined()
}
