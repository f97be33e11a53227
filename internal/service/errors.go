package service

import (
	"errors"
	"fmt"
	"time"
)

// Precondition failures. Each one is returned before any store mutation is
// attempted; store failures propagate unchanged and carry no retry policy here.
var (
	// ErrCredentialFormat covers malformed payloads: wrong marker, wrong
	// arity, non-numeric timestamp. Shown to operators as "invalid QR".
	ErrCredentialFormat = errors.New("sessions: malformed credential")
	// ErrCredentialExpired means the validity window was exceeded; the driver
	// must present a fresh code.
	ErrCredentialExpired = errors.New("sessions: credential expired")
	// ErrCredentialIntegrity means the integrity hash did not match. Logged
	// separately from format errors as a potential tampering signal.
	ErrCredentialIntegrity = errors.New("sessions: credential integrity check failed")
	// ErrScanThrottled means the debouncer suppressed a duplicate scan.
	ErrScanThrottled = errors.New("sessions: duplicate scan suppressed")
	// ErrNoActiveSession means an exit was attempted with nothing open.
	ErrNoActiveSession = errors.New("sessions: no active session for driver")
	// ErrSessionNotFound means a manual exit referenced an unknown session.
	ErrSessionNotFound = errors.New("sessions: session not found")
)

// ConflictError reports an entry attempt while the driver already has an
// active session. Recoverable only by an explicit force-new-entry override.
type ConflictError struct {
	Result ConflictResult
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("sessions: conflict: %s", e.Result.Message)
}

// ImplausibleDurationError reports an elapsed time outside the plausible
// range. Flagged for manual review, never auto-corrected.
type ImplausibleDurationError struct {
	Elapsed time.Duration
}

func (e *ImplausibleDurationError) Error() string {
	return fmt.Sprintf("sessions: implausible duration %s (allowed %s..%s)", e.Elapsed, minPlausibleDuration, maxPlausibleDuration)
}
