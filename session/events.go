package session

import "github.com/garygangwu/tax-copilot/observability"

// Session store event types.
const (
	EventCreate      observability.EventType = "session.create"
	EventSave        observability.EventType = "session.save"
	EventLoad        observability.EventType = "session.load"
	EventDelete      observability.EventType = "session.delete"
	EventSkipCorrupt observability.EventType = "session.list.skip_corrupt"
)
