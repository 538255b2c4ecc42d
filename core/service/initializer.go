package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Initializer populates a worker's service registry at startup. Initialize is
// called lazily, at most once per worker process; if it fails, the failure is
// reported to the request that triggered it and a later request retries.
type Initializer interface {
	Initialize(ctx context.Context, reg *Registry) error
}

// InitializerFunc adapts a function to the Initializer interface.
type InitializerFunc func(ctx context.Context, reg *Registry) error

func (f InitializerFunc) Initialize(ctx context.Context, reg *Registry) error {
	return f(ctx, reg)
}

var (
	initializersMu sync.RWMutex
	initializers   = make(map[string]func() Initializer)
)

// RegisterInitializer records an initializer factory under a name so worker
// processes can select it with the --serviceInitializer argument. Typically
// called from an init function in the package that defines the services.
// Panics on a duplicate name, mirroring database/sql driver registration.
func RegisterInitializer(name string, factory func() Initializer) {
	name = strings.TrimSpace(name)
	if name == "" {
		panic("service: initializer name must not be empty")
	}
	if factory == nil {
		panic("service: initializer factory must not be nil")
	}

	initializersMu.Lock()
	defer initializersMu.Unlock()

	if _, exists := initializers[name]; exists {
		panic(fmt.Sprintf("service: initializer %q already registered", name))
	}
	initializers[name] = factory
}

// RegisteredInitializer returns the factory registered under name.
func RegisteredInitializer(name string) (func() Initializer, error) {
	initializersMu.RLock()
	defer initializersMu.RUnlock()

	factory, exists := initializers[strings.TrimSpace(name)]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrInitializerNotFound, name)
	}
	return factory, nil
}
