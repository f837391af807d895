package observability

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Factory builds an observer that writes through logger.
type Factory func(logger *slog.Logger) Observer

var (
	factories = map[string]Factory{
		"noop": func(*slog.Logger) Observer { return Discard },
		"slog": func(l *slog.Logger) Observer { return NewSlogObserver(l) },
		"warnings": func(l *slog.Logger) Observer {
			return AtLeast(LevelWarning, NewSlogObserver(l))
		},
	}
	mutex sync.RWMutex
)

// New builds the observer registered under name. A nil logger uses
// slog.Default. Built in: "noop", "slog", and "warnings" (slog, warnings and
// errors only).
func New(name string, logger *slog.Logger) (Observer, error) {
	mutex.RLock()
	factory, exists := factories[name]
	mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unknown observer: %s", name)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return factory(logger), nil
}

// Register adds or replaces a named observer factory.
func Register(name string, factory Factory) {
	mutex.Lock()
	defer mutex.Unlock()

	factories[name] = factory
}

// Names lists the registered observer names, sorted.
func Names() []string {
	mutex.RLock()
	defer mutex.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
