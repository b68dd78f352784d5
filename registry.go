package invoke

import (
	"context"
	"fmt"
)

// Implementation resolves one parameter kind.
type Implementation func(ctx context.Context, p Parameter, inv *Invocation) (Value, error)

// Registry maps parameter kinds to implementations for one provider class.
//
// Registries form a chain: Lookup checks the registry's own mapping first
// and then walks parent pointers until a match is found. Register is always
// local, so a family registry can override a kind without affecting its
// ancestors or siblings.
//
//	base := invoke.NewBaseRegistry()
//	family := invoke.NewRegistry("aws", base)
//	family.Register(invoke.KindParam, invoke.FromAdapter)
//
// Registries are populated at startup and must not be modified once
// invocations are running.
type Registry struct {
	name   string
	parent *Registry
	impls  map[Kind]Implementation
}

// NewRegistry creates an empty registry whose lookups fall back to parent.
// parent may be nil for a root registry.
func NewRegistry(name string, parent *Registry) *Registry {
	return &Registry{
		name:   name,
		parent: parent,
		impls:  make(map[Kind]Implementation),
	}
}

// NewBaseRegistry creates the root registry with the implementations every
// provider shares: inject and serviceParams.
func NewBaseRegistry() *Registry {
	r := NewRegistry("base", nil)
	r.Register(KindInject, injectParameter)
	r.Register(KindServiceParams, serviceParameter)
	return r
}

// Name returns the registry name.
func (r *Registry) Name() string { return r.name }

// Parent returns the next registry in the chain, or nil.
func (r *Registry) Parent() *Registry { return r.parent }

// Register sets the implementation for kind on this registry only.
func (r *Registry) Register(kind Kind, impl Implementation) {
	r.impls[kind] = impl
}

// Lookup returns the nearest implementation for kind along the chain.
func (r *Registry) Lookup(kind Kind) (Implementation, bool) {
	for cur := r; cur != nil; cur = cur.parent {
		if impl, ok := cur.impls[kind]; ok {
			return impl, true
		}
	}
	return nil, false
}

// Owner returns the name of the registry whose implementation Lookup would
// use for kind, or "" if none.
func (r *Registry) Owner(kind Kind) string {
	for cur := r; cur != nil; cur = cur.parent {
		if _, ok := cur.impls[kind]; ok {
			return cur.name
		}
	}
	return ""
}

// FromAdapter delegates resolution to the invocation's selected adapter.
// Family registries register it for the kinds their adapters understand.
func FromAdapter(ctx context.Context, p Parameter, inv *Invocation) (Value, error) {
	return inv.Adapter.ResolveParameter(ctx, p, inv)
}

// Injectable is implemented by injected services that need to observe the
// invocation they are injected into.
type Injectable interface {
	OnInject(ctx context.Context, inv *Invocation, p Parameter) error
}

func injectParameter(ctx context.Context, p Parameter, inv *Invocation) (Value, error) {
	if p.Service == "" {
		return Undefined(), fmt.Errorf("inject parameter %d: no service key", p.Index)
	}
	instance, err := inv.Provider.Container().Resolve(ctx, p.Service, p.Params...)
	if err != nil {
		return Undefined(), err
	}
	if h, ok := instance.(Injectable); ok {
		if err := h.OnInject(ctx, inv, p); err != nil {
			return Undefined(), fmt.Errorf("on inject %q: %w", p.Service, err)
		}
	}
	return Of(instance), nil
}

func serviceParameter(_ context.Context, _ Parameter, inv *Invocation) (Value, error) {
	return Of(inv), nil
}
