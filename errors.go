package invoke

import (
	"errors"
	"fmt"
)

// ErrNoAdapter is wrapped by SelectionError.
var ErrNoAdapter = errors.New("no adapter available")

// SelectionError reports that no adapter claimed an envelope. It is raised
// before any parameter is resolved.
type SelectionError struct {
	Provider string
	Service  string
	// Err is ErrNoAdapter, or joins it with the inspection failure.
	Err error
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("%s: service %s: %v", e.Provider, e.Service, e.Err)
}

func (e *SelectionError) Unwrap() error { return e.Err }

// ResolutionError reports that a parameter implementation failed. The
// handler is not called.
type ResolutionError struct {
	Index int
	Kind  Kind
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve parameter %d (%s): %v", e.Index, e.Kind, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// HandlerError reports a handler failure that the selected adapter chose
// not to shape into a response.
type HandlerError struct {
	Err error
}

func (e *HandlerError) Error() string { return "handler: " + e.Err.Error() }

func (e *HandlerError) Unwrap() error { return e.Err }

// TransformError reports that an adapter failed to shape a response. It is
// not recoverable.
type TransformError struct {
	Adapter string
	Err     error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform result (%s): %v", e.Adapter, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

// ConfigurationError reports missing configuration or metadata. It is raised
// before any network interaction.
type ConfigurationError struct {
	// Key names the missing environment variable or metadata attribute.
	Key string
	Msg string
}

func (e *ConfigurationError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("configuration: %s is required", e.Key)
	}
	return fmt.Sprintf("configuration: %s: %s", e.Key, e.Msg)
}

// InvokeTransportError reports a failed outbound call or an undecodable
// response.
type InvokeTransportError struct {
	Target string
	Err    error
}

func (e *InvokeTransportError) Error() string {
	return fmt.Sprintf("invoke %s: %v", e.Target, e.Err)
}

func (e *InvokeTransportError) Unwrap() error { return e.Err }

// panicError carries a recovered panic value.
type panicError struct {
	value any
}

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.value) }
