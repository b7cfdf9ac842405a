package checkpoint

import "github.com/tailored-agentic-units/statecore/observability"

// Checkpoint event types.
const (
	EventSave       observability.EventType = "checkpoint.save"
	EventSaveFailed observability.EventType = "checkpoint.save.failed"
	EventLoad       observability.EventType = "checkpoint.load"
	EventDelete     observability.EventType = "checkpoint.delete"
)
