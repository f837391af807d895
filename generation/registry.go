package generation

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Factory creates a Generator from configuration.
type Factory func(ctx context.Context, cfg *Config) (Generator, error)

var (
	factories = map[string]Factory{}
	mutex     sync.RWMutex
)

// Register adds or replaces a named provider factory. Provider packages call
// it from init.
func Register(name string, factory Factory) {
	mutex.Lock()
	defer mutex.Unlock()

	factories[name] = factory
}

// Providers returns the registered provider names, sorted.
func Providers() []string {
	mutex.RLock()
	defer mutex.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates the Generator named by cfg.Provider.
func New(ctx context.Context, cfg *Config) (Generator, error) {
	mutex.RLock()
	factory, exists := factories[cfg.Provider]
	mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
	return factory(ctx, cfg)
}
