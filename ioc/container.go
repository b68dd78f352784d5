// Package ioc provides the minimal dependency container used to build
// adapters and injected collaborators.
//
// Types are declared under string keys with a Scope and a constructor:
//
//	c := ioc.New()
//	c.Declare("greeter", ioc.Singleton, func(ctx context.Context, args ...any) (any, error) {
//	    return &Greeter{}, nil
//	})
//
//	g, err := ioc.ResolveAs[*Greeter](ctx, c, "greeter")
//
// Singleton keys are constructed at most once per container, even under
// concurrent first resolution. Transient keys are constructed on every
// Resolve.
//
// Constructors that resolve their own dependencies must pass the ctx they
// were given to Resolve. The keys under construction travel in it, and a key
// that reappears in its own chain fails with ErrCycle.
package ioc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrNotDeclared is returned when resolving a key with neither a
// declaration nor a registered instance.
var ErrNotDeclared = errors.New("type not declared")

// ErrCycle is returned when a constructor resolves a key that is already
// being constructed further up the same chain.
var ErrCycle = errors.New("dependency cycle")

type chainKey struct{}

// Scope is the lifecycle policy of a declared type.
type Scope int

const (
	// Transient builds a new instance on every Resolve. It is the default
	// for undeclared scopes.
	Transient Scope = iota

	// Singleton builds one instance lazily and keeps it for the lifetime of
	// the container.
	Singleton
)

func (s Scope) String() string {
	if s == Singleton {
		return "singleton"
	}
	return "transient"
}

// Constructor builds an instance from constructor arguments.
type Constructor func(ctx context.Context, args ...any) (any, error)

// Lazy is a constructor argument evaluated only when construction happens.
type Lazy func() (any, error)

type definition struct {
	scope Scope
	ctor  Constructor
}

// entry holds one singleton. mu serializes construction so that exactly one
// caller builds the instance and the others observe it.
type entry struct {
	mu    sync.Mutex
	value any
	ready bool
}

// Container creates and caches instances by declared scope.
type Container struct {
	mu        sync.Mutex
	defs      map[string]definition
	aliases   map[string]string
	instances map[string]*entry
}

// New creates an empty Container.
func New() *Container {
	return &Container{
		defs:      make(map[string]definition),
		aliases:   make(map[string]string),
		instances: make(map[string]*entry),
	}
}

// Declare sets the scope and constructor for key. Declaring a key twice
// replaces the earlier declaration; cached singletons are kept.
func (c *Container) Declare(key string, scope Scope, ctor Constructor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defs[key] = definition{scope: scope, ctor: ctor}
}

// Alias makes resolving from behave like resolving to. Use it to substitute
// an implementation, for example a stub in tests.
func (c *Container) Alias(from, to string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aliases[from] = to
}

// Register stores a pre-built instance under key. A singleton key resolves
// to it from then on.
func (c *Container) Register(key string, instance any) {
	e := c.entry(c.target(key))
	e.mu.Lock()
	e.value = instance
	e.ready = true
	e.mu.Unlock()
}

// Resolve returns an instance for key according to its scope.
func (c *Container) Resolve(ctx context.Context, key string, args ...any) (any, error) {
	key = c.target(key)

	chain, _ := ctx.Value(chainKey{}).([]string)
	for _, k := range chain {
		if k == key {
			return nil, fmt.Errorf("resolve %q: %w: %s -> %s", key, ErrCycle, strings.Join(chain, " -> "), key)
		}
	}

	c.mu.Lock()
	def, declared := c.defs[key]
	c.mu.Unlock()

	if def.scope == Singleton {
		return c.singleton(ctx, key, def, args)
	}

	if !declared {
		// A registered instance under an undeclared key stands in for the
		// missing declaration.
		if e := c.lookup(key); e != nil {
			e.mu.Lock()
			defer e.mu.Unlock()
			if e.ready {
				return e.value, nil
			}
		}
		return nil, fmt.Errorf("resolve %q: %w", key, ErrNotDeclared)
	}
	return construct(ctx, key, def, args)
}

// Contains reports whether key is a singleton with a cached instance.
// Transient keys always report false.
func (c *Container) Contains(key string) bool {
	key = c.target(key)

	c.mu.Lock()
	def := c.defs[key]
	c.mu.Unlock()

	if def.scope != Singleton {
		return false
	}
	e := c.lookup(key)
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

// ScopeOf returns the declared scope of key, Transient if undeclared.
func (c *Container) ScopeOf(key string) Scope {
	key = c.target(key)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.defs[key].scope
}

func (c *Container) singleton(ctx context.Context, key string, def definition, args []any) (any, error) {
	e := c.entry(key)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ready {
		return e.value, nil
	}
	v, err := construct(ctx, key, def, args)
	if err != nil {
		return nil, err
	}
	e.value = v
	e.ready = true
	return v, nil
}

func (c *Container) target(key string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	seen := map[string]bool{}
	for {
		to, ok := c.aliases[key]
		if !ok || seen[key] {
			return key
		}
		seen[key] = true
		key = to
	}
}

func (c *Container) entry(key string) *entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.instances[key]
	if !ok {
		e = &entry{}
		c.instances[key] = e
	}
	return e
}

func (c *Container) lookup(key string) *entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.instances[key]
}

func construct(ctx context.Context, key string, def definition, args []any) (any, error) {
	if def.ctor == nil {
		return nil, fmt.Errorf("resolve %q: %w", key, ErrNotDeclared)
	}
	evaluated := make([]any, len(args))
	for i, a := range args {
		var lazy Lazy
		switch f := a.(type) {
		case Lazy:
			lazy = f
		case func() (any, error):
			lazy = f
		default:
			evaluated[i] = a
			continue
		}
		v, err := lazy()
		if err != nil {
			return nil, fmt.Errorf("resolve %q: argument %d: %w", key, i, err)
		}
		evaluated[i] = v
	}
	chain, _ := ctx.Value(chainKey{}).([]string)
	ctx = context.WithValue(ctx, chainKey{}, append(chain[:len(chain):len(chain)], key))
	v, err := def.ctor(ctx, evaluated...)
	if err != nil {
		return nil, fmt.Errorf("construct %q: %w", key, err)
	}
	return v, nil
}

// ResolveAs resolves key and asserts the instance type.
func ResolveAs[T any](ctx context.Context, c *Container, key string, args ...any) (T, error) {
	var zero T
	v, err := c.Resolve(ctx, key, args...)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("resolve %q: instance is %T, not %T", key, v, zero)
	}
	return t, nil
}
