package service

import (
	"fmt"
	"time"

	"parktrack/internal/models"
)

// ConflictAction suggests how the operator can resolve a conflict.
type ConflictAction string

// Suggested resolutions.
const (
	ActionNone          ConflictAction = "none"
	ActionForceNewEntry ConflictAction = "force_new_entry"
)

// ConflictResult describes whether an entry attempt collides with an
// existing active session.
type ConflictResult struct {
	HasConflict     bool                   `json:"has_conflict"`
	Message         string                 `json:"message,omitempty"`
	ExistingSession *models.ParkingSession `json:"existing_session,omitempty"`
	SuggestedAction ConflictAction         `json:"suggested_action"`
}

// DetectConflict classifies an entry attempt against the driver's current
// session snapshot. Pure: it never mutates state; acting on the suggested
// force-new-entry resolution (closing the stale session first) is the
// coordinator's job.
func DetectConflict(active *models.ParkingSession, driverID, vehicleNumber string) ConflictResult {
	if active == nil ||
		active.Status != models.SessionStatusActive ||
		active.DriverID != driverID ||
		active.VehicleNumber != vehicleNumber {
		return ConflictResult{SuggestedAction: ActionNone}
	}

	return ConflictResult{
		HasConflict: true,
		Message: fmt.Sprintf("%s already has an active session at gate %s (entered %s)",
			active.DriverName, active.Gate, relativeTime(active.EntryTime, time.Now())),
		ExistingSession: active,
		SuggestedAction: ActionForceNewEntry,
	}
}

// activeSessionConflict builds the rejection payload for an entry the store
// refused because an active row already exists, whichever vehicle it was
// opened on. existing may be nil when the row could not be re-read.
func activeSessionConflict(existing *models.ParkingSession, now time.Time) ConflictResult {
	if existing == nil {
		return ConflictResult{
			HasConflict:     true,
			Message:         "driver already has an active session",
			SuggestedAction: ActionForceNewEntry,
		}
	}
	return ConflictResult{
		HasConflict: true,
		Message: fmt.Sprintf("%s already has an active session on %s at gate %s (entered %s)",
			existing.DriverName, existing.VehicleNumber, existing.Gate, relativeTime(existing.EntryTime, now)),
		ExistingSession: existing,
		SuggestedAction: ActionForceNewEntry,
	}
}

// relativeTime renders a timestamp the way operators read it on the gate
// screen: "just now", "5 minutes ago", "3 hours ago", "2 days ago".
func relativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		m := int(d.Minutes())
		if m == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", m)
	case d < 24*time.Hour:
		h := int(d.Hours())
		if h == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", h)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}
