package models

import "time"

// ControllerEvent is a single log entry.
type ControllerEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}

const (
	EventStartup       = "STARTUP"
	EventShutdown      = "SHUTDOWN"
	EventModeChange    = "MODE_CHANGE"
	EventTargetSet     = "TARGET_SET"
	EventTargetCleared = "TARGET_CLEARED"
	EventSensorError   = "SENSOR_ERROR"
	EventActuatorError = "ACTUATOR_ERROR"
)
