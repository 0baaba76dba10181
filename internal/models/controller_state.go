package models

import "time"

// ControllerState is the snapshot written after every scheduler tick.
// Light/heater flags reflect the last command sent, never a read-back.
type ControllerState struct {
	ID           int       `json:"id"`
	Mode         string    `json:"mode"`                     // sleep | wait | heat | "" when no slot is active
	Slot         string    `json:"slot,omitempty"`           // e.g. "10:20-10:35"
	CurrentTempC *float64  `json:"current_temp_c,omitempty"` // °C, nil when no sample
	TargetTempC  *float64  `json:"target_temp_c,omitempty"`  // °C, nil outside heat episodes
	LightOn      bool      `json:"light_on"`
	HeaterOn     bool      `json:"heater_on"`
	ErrorCodes   []string  `json:"error_codes,omitempty"` // e.g. ["SENSOR_FAULT"]
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fault codes carried in ControllerState.ErrorCodes.
const (
	FaultSensor   = "SENSOR_FAULT"
	FaultActuator = "ACTUATOR_FAULT"
	FaultStore    = "STORE_FAULT"
)
