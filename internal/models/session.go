package models

import (
	"database/sql"
	"time"
)

// Session status constants.
const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
	SessionStatusNone      = "none"
)

// ParkingSession represents one physical parking occupancy.
type ParkingSession struct {
	ID              int64          `db:"id" json:"id"`
	DriverID        string         `db:"driver_id" json:"driver_id"`
	DriverName      string         `db:"driver_name" json:"driver_name"`
	VehicleNumber   string         `db:"vehicle_number" json:"vehicle_number"`
	Tier            Tier           `db:"tier" json:"tier"`
	Status          string         `db:"status" json:"status"`
	Gate            string         `db:"gate" json:"gate"`
	OperatorID      string         `db:"operator_id" json:"operator_id"`
	EntryTime       time.Time      `db:"entry_time" json:"entry_time"`
	ExitTime        sql.NullTime   `db:"exit_time" json:"exit_time,omitempty"`
	DurationMinutes int            `db:"duration_minutes" json:"duration_minutes"`
	Amount          float64        `db:"amount" json:"amount"`
	EntryCredential string         `db:"entry_credential" json:"-"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// StatusLabel returns a stable label usable as a debounce key component.
func (s *ParkingSession) StatusLabel() string {
	if s == nil {
		return SessionStatusNone
	}
	return s.Status
}
