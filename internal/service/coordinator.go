package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"parktrack/internal/billing"
	"parktrack/internal/credential"
	"parktrack/internal/models"
	"parktrack/internal/repository"
	"parktrack/internal/scan"
)

// Elapsed-time bounds for a completed session. Anything outside indicates a
// data or clock fault and is rejected rather than silently recorded.
const (
	minPlausibleDuration = time.Minute
	maxPlausibleDuration = 24 * time.Hour
)

// SessionStore is the external store contract. The at-most-one-active-session
// invariant is enforced there: CreateSession must fail with
// repository.ErrDriverHasActiveSession when the driver already has an open row.
type SessionStore interface {
	CreateSession(ctx context.Context, session *models.ParkingSession) (int64, error)
	GetActiveSessionForDriver(ctx context.Context, driverID string) (*models.ParkingSession, error)
	GetSessionByID(ctx context.Context, id int64) (*models.ParkingSession, error)
	CompleteSession(ctx context.Context, id int64, exitTime time.Time, durationMinutes int, amount float64) error
}

// DriverDirectory resolves the account behind a scanned driver identity.
type DriverDirectory interface {
	GetByDriverID(ctx context.Context, driverID string) (*models.User, error)
}

// AuditRecorder appends scan decisions to the audit log.
type AuditRecorder interface {
	Record(ctx context.Context, event models.GateEvent) error
}

// FeedPublisher pushes gate events to live dashboards.
type FeedPublisher interface {
	Publish(event models.GateEvent)
}

// ActiveCache mirrors open sessions for quick lookups, best-effort.
type ActiveCache interface {
	SaveActive(ctx context.Context, session *models.ParkingSession) error
	DeleteActive(ctx context.Context, driverID string) error
}

// Coordinator orchestrates one scan event end to end: validate the
// credential, resolve entry versus exit, apply debounce and conflict checks,
// compute the charge on exit and request the store mutation. It keeps no
// session state of its own; the store's view is authoritative.
type Coordinator struct {
	store     SessionStore
	drivers   DriverDirectory
	rates     *RateService
	validator *credential.Validator
	debouncer *scan.Debouncer
	audit     AuditRecorder
	cache     ActiveCache
	feed      FeedPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewCoordinator builds the orchestrator. audit, cache and feed may be nil.
func NewCoordinator(
	store SessionStore,
	drivers DriverDirectory,
	rates *RateService,
	validator *credential.Validator,
	debouncer *scan.Debouncer,
	audit AuditRecorder,
	cache ActiveCache,
	feed FeedPublisher,
	logger *zap.Logger,
) *Coordinator {
	return &Coordinator{
		store:     store,
		drivers:   drivers,
		rates:     rates,
		validator: validator,
		debouncer: debouncer,
		audit:     audit,
		cache:     cache,
		feed:      feed,
		logger:    logger,
		now:       time.Now,
	}
}

// ScanInput is one scan event as delivered by a gate camera or operator device.
type ScanInput struct {
	Code          string
	Gate          string
	OperatorID    string
	ForceNewEntry bool
}

// ScanResult reports the applied transition.
type ScanResult struct {
	Operation string                 `json:"operation"`
	SessionID int64                  `json:"session_id"`
	Session   *models.ParkingSession `json:"session,omitempty"`
	Charge    *models.Charge         `json:"charge,omitempty"`
}

// HandleScan processes one scan event. Every precondition failure returns a
// typed error before any store mutation; store failures propagate unchanged.
func (c *Coordinator) HandleScan(ctx context.Context, input ScanInput) (*ScanResult, error) {
	cred, status := c.validator.Check(input.Code)
	if status != credential.StatusValid {
		return nil, c.rejectCredential(ctx, input, cred, status)
	}

	active, err := c.store.GetActiveSessionForDriver(ctx, cred.DriverID)
	if err != nil {
		return nil, err
	}

	// The debouncer is the per-driver serialization point; its state is
	// updated synchronously here, before the store round trip.
	if !c.debouncer.ShouldProcess(cred.DriverID, active.StatusLabel()) {
		c.recordRejection(ctx, input, cred.DriverID, "throttled")
		return nil, ErrScanThrottled
	}

	if active == nil {
		if cred.Type == models.CredentialExit {
			c.recordRejection(ctx, input, cred.DriverID, "no_active_session")
			return nil, ErrNoActiveSession
		}
		return c.enter(ctx, cred, input)
	}

	if cred.Type == models.CredentialEntry {
		conflict := DetectConflict(active, cred.DriverID, cred.VehicleNumber)
		if conflict.HasConflict {
			if !input.ForceNewEntry {
				c.recordRejection(ctx, input, cred.DriverID, "conflict")
				return nil, &ConflictError{Result: conflict}
			}
			// Operator authorized a force-new-entry: close the stale
			// session first, then open the new one.
			if _, err := c.complete(ctx, active, input.OperatorID, models.EventForceClosed, true); err != nil {
				return nil, err
			}
			return c.enter(ctx, cred, input)
		}
		// Same driver, different vehicle: treated as a fresh entry
		// attempt; the store's conditional create rejects it and enter
		// resolves the collision against the surviving row.
		return c.enter(ctx, cred, input)
	}

	return c.complete(ctx, active, input.OperatorID, models.EventExit, false)
}

// ManualExit closes an active session without a credential, e.g. from the
// admin dashboard. The plausibility gate still applies.
func (c *Coordinator) ManualExit(ctx context.Context, sessionID int64, operatorID string) (*ScanResult, error) {
	session, err := c.store.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.Status != models.SessionStatusActive {
		return nil, ErrNoActiveSession
	}
	return c.complete(ctx, session, operatorID, models.EventManualExit, false)
}

func (c *Coordinator) enter(ctx context.Context, cred *models.Credential, input ScanInput) (*ScanResult, error) {
	now := c.now().UTC()

	var name string
	tier := models.TierNormal
	driver, err := c.drivers.GetByDriverID(ctx, cred.DriverID)
	switch {
	case err == nil:
		name = driver.FullName
		tier = driver.Tier
	case errors.Is(err, repository.ErrUserNotFound):
		c.logger.Warn("entry for unregistered driver", zap.String("driver_id", cred.DriverID))
	default:
		return nil, err
	}

	session := &models.ParkingSession{
		DriverID:        cred.DriverID,
		DriverName:      name,
		VehicleNumber:   cred.VehicleNumber,
		Tier:            tier,
		Status:          models.SessionStatusActive,
		Gate:            input.Gate,
		OperatorID:      input.OperatorID,
		EntryTime:       now,
		EntryCredential: input.Code,
	}

	res, err := c.open(ctx, session)
	if err == nil || !errors.Is(err, repository.ErrDriverHasActiveSession) {
		return res, err
	}

	// The store refused the insert: an active row survived the pre-check,
	// either a create race or a second vehicle on the same driver. Any
	// surviving row blocks the entry, whichever vehicle it was opened on.
	existing, lookupErr := c.store.GetActiveSessionForDriver(ctx, cred.DriverID)
	if lookupErr != nil {
		return nil, lookupErr
	}
	if existing != nil && input.ForceNewEntry {
		if _, err := c.complete(ctx, existing, input.OperatorID, models.EventForceClosed, true); err != nil {
			return nil, err
		}
		res, err = c.open(ctx, session)
		if err == nil || !errors.Is(err, repository.ErrDriverHasActiveSession) {
			return res, err
		}
		existing = nil
	}
	c.recordRejection(ctx, input, cred.DriverID, "conflict")
	return nil, &ConflictError{Result: activeSessionConflict(existing, c.now())}
}

// open requests the conditional create and, on success, fans the new session
// out to the cache, the audit log and the live feed.
func (c *Coordinator) open(ctx context.Context, session *models.ParkingSession) (*ScanResult, error) {
	id, err := c.store.CreateSession(ctx, session)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if cacheErr := c.cache.SaveActive(ctx, session); cacheErr != nil {
			c.logger.Warn("failed to cache active session", zap.Error(cacheErr))
		}
	}

	c.publish(ctx, models.GateEvent{
		EventID:    uuid.NewString(),
		Kind:       models.EventEntry,
		DriverID:   session.DriverID,
		DriverName: session.DriverName,
		Gate:       session.Gate,
		OperatorID: session.OperatorID,
		SessionID:  id,
		At:         session.EntryTime,
	})

	c.logger.Info("parking session opened",
		zap.Int64("session_id", id),
		zap.String("driver_id", session.DriverID),
		zap.String("gate", session.Gate),
	)
	return &ScanResult{Operation: models.EventEntry, SessionID: id, Session: session}, nil
}

// complete finalizes a session. forced skips the plausibility gate: a
// force-new-entry cleanup must be able to close arbitrarily stale rows.
func (c *Coordinator) complete(ctx context.Context, session *models.ParkingSession, operatorID, kind string, forced bool) (*ScanResult, error) {
	now := c.now().UTC()
	elapsed := now.Sub(session.EntryTime)
	if !forced && (elapsed < minPlausibleDuration || elapsed > maxPlausibleDuration) {
		c.recordRejection(ctx, ScanInput{Gate: session.Gate, OperatorID: operatorID}, session.DriverID, "implausible_duration")
		return nil, &ImplausibleDurationError{Elapsed: elapsed}
	}
	minutes := int(elapsed.Minutes())

	charge := billing.ComputeCharge(minutes, session.Tier, c.rates.Active(ctx))
	if forced {
		// An administrative force-close carries no charge: the stale
		// duration reflects a missed exit, not billable parking time.
		charge = models.Charge{Tier: session.Tier, DurationMinutes: minutes, RatePerHour: charge.RatePerHour}
	}

	if err := c.store.CompleteSession(ctx, session.ID, now, minutes, charge.Amount); err != nil {
		return nil, err
	}
	session.Status = models.SessionStatusCompleted
	session.ExitTime = sql.NullTime{Time: now, Valid: true}
	session.DurationMinutes = minutes
	session.Amount = charge.Amount

	if c.cache != nil {
		if cacheErr := c.cache.DeleteActive(ctx, session.DriverID); cacheErr != nil {
			c.logger.Warn("failed to drop active session cache", zap.Error(cacheErr))
		}
	}

	c.publish(ctx, models.GateEvent{
		EventID:    uuid.NewString(),
		Kind:       kind,
		DriverID:   session.DriverID,
		DriverName: session.DriverName,
		Gate:       session.Gate,
		OperatorID: operatorID,
		SessionID:  session.ID,
		Amount:     charge.Amount,
		At:         now,
	})

	c.logger.Info("parking session completed",
		zap.Int64("session_id", session.ID),
		zap.String("driver_id", session.DriverID),
		zap.Int("duration_minutes", minutes),
		zap.Float64("amount", charge.Amount),
		zap.Bool("forced", forced),
	)
	return &ScanResult{Operation: kind, SessionID: session.ID, Session: session, Charge: &charge}, nil
}

func (c *Coordinator) rejectCredential(ctx context.Context, input ScanInput, cred *models.Credential, status credential.Status) error {
	driverID := ""
	if cred != nil {
		driverID = cred.DriverID
	}
	c.recordRejection(ctx, input, driverID, status.String())

	switch status {
	case credential.StatusInvalidHash:
		// Tampering or clock-skew signal, kept apart from format noise.
		c.logger.Warn("credential integrity failure",
			zap.String("driver_id", driverID),
			zap.String("gate", input.Gate),
		)
		return ErrCredentialIntegrity
	case credential.StatusExpired:
		return ErrCredentialExpired
	default:
		return ErrCredentialFormat
	}
}

func (c *Coordinator) recordRejection(ctx context.Context, input ScanInput, driverID, detail string) {
	c.publish(ctx, models.GateEvent{
		EventID:    uuid.NewString(),
		Kind:       models.EventRejected,
		DriverID:   driverID,
		Gate:       input.Gate,
		OperatorID: input.OperatorID,
		Detail:     detail,
		At:         c.now().UTC(),
	})
}

func (c *Coordinator) publish(ctx context.Context, event models.GateEvent) {
	if c.audit != nil {
		if err := c.audit.Record(ctx, event); err != nil {
			c.logger.Warn("failed to append scan audit log", zap.Error(err))
		}
	}
	if c.feed != nil {
		c.feed.Publish(event)
	}
}
