package profile

import "github.com/garygangwu/tax-copilot/observability"

// Profile event types.
const (
	EventBuild        observability.EventType = "profile.build"
	EventSave         observability.EventType = "profile.save"
	EventHistory      observability.EventType = "profile.history.record"
	EventHistoryError observability.EventType = "profile.history.error"
	EventSkipCorrupt  observability.EventType = "profile.list.skip_corrupt"
)
