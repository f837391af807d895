package interview

import "github.com/garygangwu/tax-copilot/observability"

// Interview event types.
const (
	EventStart         observability.EventType = "interview.start"
	EventTurn          observability.EventType = "interview.turn"
	EventTransition    observability.EventType = "interview.transition"
	EventFallback      observability.EventType = "interview.fallback"
	EventCanceled      observability.EventType = "interview.canceled"
	EventComplete      observability.EventType = "interview.complete"
	EventFinalize      observability.EventType = "interview.finalize"
	EventFinalizeError observability.EventType = "interview.finalize.error"
)
