package invoke

import (
	"context"
	"encoding/json"
)

// Envelope is the raw trigger received by one invocation: the provider
// payload, the provider runtime context and the optional outbound channels.
// The engine never mutates an Envelope; adapters only read it.
type Envelope struct {
	// Event is the provider-specific payload as JSON.
	Event json.RawMessage

	// Context is the provider runtime context as JSON, if any. Direct
	// in-process calls carry their ambient execution context here.
	Context json.RawMessage

	// Trigger, when set, names the event source that produced the envelope.
	// Only adapters of that trigger are considered during selection.
	Trigger Trigger

	// Callback, when set, receives the final response or distress error.
	// Runtimes with invocation-style callbacks use it.
	Callback Callback

	// Reply, when set, receives the final response through a context
	// reply channel (e.g. writing an HTTP response).
	Reply Replier
}

// NewEnvelope creates an Envelope for the given payload and runtime context.
func NewEnvelope(event, runtime json.RawMessage) *Envelope {
	return &Envelope{Event: event, Context: runtime}
}

// EventValue returns the payload root for property lookups.
func (e *Envelope) EventValue() Value {
	return JSON(e.Event)
}

// ContextValue returns the runtime context root for property lookups.
func (e *Envelope) ContextValue() Value {
	return JSON(e.Context)
}

// Callback receives the outcome of an invocation.
type Callback func(err error, response any)

// Replier sends responses back to the originator of an envelope.
type Replier interface {
	// Reply sends a successful, already transformed response.
	Reply(ctx context.Context, response any) error

	// Fail sends a distress response for an unrecoverable error.
	Fail(ctx context.Context, err error) error
}
