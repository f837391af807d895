package observability

import (
	"context"
	"sync"
)

// Discard drops every event.
var Discard Observer = discard{}

type discard struct{}

func (discard) OnEvent(context.Context, Event) {}

type tee []Observer

func (t tee) OnEvent(ctx context.Context, event Event) {
	for _, obs := range t {
		obs.OnEvent(ctx, event)
	}
}

// Tee forwards events to every non-nil observer. It returns nil when none
// remain, so the result can be passed to Emit directly.
func Tee(observers ...Observer) Observer {
	filtered := make(tee, 0, len(observers))
	for _, obs := range observers {
		if obs != nil {
			filtered = append(filtered, obs)
		}
	}
	switch len(filtered) {
	case 0:
		return nil
	case 1:
		return filtered[0]
	}
	return filtered
}

type atLeast struct {
	min  Level
	next Observer
}

func (a atLeast) OnEvent(ctx context.Context, event Event) {
	if event.Level >= a.min {
		a.next.OnEvent(ctx, event)
	}
}

// AtLeast forwards only events at or above min.
func AtLeast(min Level, obs Observer) Observer {
	if obs == nil {
		return nil
	}
	return atLeast{min: min, next: obs}
}

// Counter tallies events by type and level. Safe for concurrent use.
type Counter struct {
	mu     sync.Mutex
	types  map[EventType]int
	levels map[string]int
}

func (c *Counter) OnEvent(_ context.Context, event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.types == nil {
		c.types = map[EventType]int{}
		c.levels = map[string]int{}
	}
	c.types[event.Type]++
	c.levels[event.Level.String()]++
}

// Count returns how many events of typ were seen.
func (c *Counter) Count(typ EventType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.types[typ]
}

// Stats is a point-in-time copy of a Counter.
type Stats struct {
	Total  int               `json:"total"`
	Types  map[EventType]int `json:"types"`
	Levels map[string]int    `json:"levels"`
}

// Snapshot copies the current counts.
func (c *Counter) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{Types: make(map[EventType]int, len(c.types)), Levels: make(map[string]int, len(c.levels))}
	for t, n := range c.types {
		s.Types[t] = n
		s.Total += n
	}
	for l, n := range c.levels {
		s.Levels[l] = n
	}
	return s
}
