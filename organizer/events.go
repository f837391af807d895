package organizer

import "github.com/garygangwu/tax-copilot/observability"

// Organizer event types.
const (
	EventOrganize observability.EventType = "organizer.organize"
	EventFallback observability.EventType = "organizer.fallback"
)
