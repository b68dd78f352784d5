package invoke

import (
	"sync"
)

// Attribute names a piece of declared service metadata.
type Attribute string

// Well-known attributes read by provider families.
const (
	AttrFunctionName Attribute = "functionName"
	AttrRoute        Attribute = "route"
	AttrMethod       Attribute = "method"
	AttrAuthLevel    Attribute = "authLevel"
)

type attrKey struct {
	attr    Attribute
	service string
}

// Metadata is an attribute store keyed by attribute and service name.
// Build tooling and service declarations write it; providers read it when
// routing or invoking services.
type Metadata struct {
	mu    sync.RWMutex
	attrs map[attrKey]any
}

// NewMetadata creates an empty store.
func NewMetadata() *Metadata {
	return &Metadata{attrs: make(map[attrKey]any)}
}

// Set stores v for attr on service.
func (m *Metadata) Set(attr Attribute, service string, v any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attrs[attrKey{attr: attr, service: service}] = v
}

// Get returns the stored value for attr on service.
func (m *Metadata) Get(attr Attribute, service string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.attrs[attrKey{attr: attr, service: service}]
	return v, ok
}

// String returns the stored value when it is a non-empty string.
func (m *Metadata) String(attr Attribute, service string) (string, bool) {
	v, ok := m.Get(attr, service)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}
