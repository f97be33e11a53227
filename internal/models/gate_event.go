package models

import "time"

// Gate event kinds published on the live feed and written to the scan audit log.
const (
	EventEntry       = "entry"
	EventExit        = "exit"
	EventManualExit  = "manual_exit"
	EventForceClosed = "force_closed"
	EventRejected    = "rejected"
)

// GateEvent is one scan decision as seen by dashboards and auditors.
type GateEvent struct {
	EventID    string    `json:"event_id"`
	Kind       string    `json:"kind"`
	DriverID   string    `json:"driver_id,omitempty"`
	DriverName string    `json:"driver_name,omitempty"`
	Gate       string    `json:"gate,omitempty"`
	OperatorID string    `json:"operator_id,omitempty"`
	SessionID  int64     `json:"session_id,omitempty"`
	Amount     float64   `json:"amount,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	At         time.Time `json:"at"`
}
