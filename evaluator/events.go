package evaluator

import "github.com/garygangwu/tax-copilot/observability"

// Evaluator event types.
const (
	EventEvaluate observability.EventType = "evaluator.evaluate"
	EventFallback observability.EventType = "evaluator.fallback"
)
