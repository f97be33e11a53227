package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"parktrack/internal/models"
)

// Sentinel errors surfaced to the service layer.
var (
	// ErrSessionNotFound indicates a missing session row.
	ErrSessionNotFound = errors.New("session not found")
	// ErrDriverHasActiveSession is returned when the conditional create hits
	// the partial unique index on (driver_id) WHERE status = 'active'.
	ErrDriverHasActiveSession = errors.New("driver already has an active session")
)

const pgUniqueViolation = "23505"

// SessionRepository handles persistence of parking sessions.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository returns repository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateSession inserts a new active session. The parking_sessions table
// carries a unique index on (driver_id) restricted to active rows, so two
// concurrent entries for the same driver cannot both commit; the loser gets
// ErrDriverHasActiveSession.
func (r *SessionRepository) CreateSession(ctx context.Context, session *models.ParkingSession) (int64, error) {
	const query = `
		INSERT INTO parking_sessions
			(driver_id, driver_name, vehicle_number, tier, status, gate, operator_id, entry_time, entry_credential, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		session.DriverID,
		session.DriverName,
		session.VehicleNumber,
		string(session.Tier),
		session.Status,
		session.Gate,
		session.OperatorID,
		session.EntryTime,
		session.EntryCredential,
	).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return 0, ErrDriverHasActiveSession
		}
		return 0, err
	}
	return session.ID, nil
}

// GetActiveSessionForDriver returns the driver's open session, or nil when
// nothing is open.
func (r *SessionRepository) GetActiveSessionForDriver(ctx context.Context, driverID string) (*models.ParkingSession, error) {
	const query = `
		SELECT id, driver_id, driver_name, vehicle_number, tier, status, gate, operator_id,
		       entry_time, exit_time, duration_minutes, amount, entry_credential, created_at, updated_at
		FROM parking_sessions
		WHERE driver_id = $1 AND status = 'active'
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query, driverID)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

// GetSessionByID fetches one session.
func (r *SessionRepository) GetSessionByID(ctx context.Context, id int64) (*models.ParkingSession, error) {
	const query = `
		SELECT id, driver_id, driver_name, vehicle_number, tier, status, gate, operator_id,
		       entry_time, exit_time, duration_minutes, amount, entry_credential, created_at, updated_at
		FROM parking_sessions
		WHERE id = $1
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query, id)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

// CompleteSession finalizes a session with its exit time, fixed duration and
// computed amount. Only active rows transition; a completed session stays as
// the store recorded it.
func (r *SessionRepository) CompleteSession(ctx context.Context, id int64, exitTime time.Time, durationMinutes int, amount float64) error {
	const query = `
		UPDATE parking_sessions
		SET exit_time = $2,
		    duration_minutes = $3,
		    amount = $4,
		    status = 'completed',
		    updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`
	result, err := r.db.ExecContext(ctx, query, id, exitTime, durationMinutes, amount)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListByDriver returns the driver's last N sessions.
func (r *SessionRepository) ListByDriver(ctx context.Context, driverID string, limit int) ([]models.ParkingSession, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT id, driver_id, driver_name, vehicle_number, tier, status, gate, operator_id,
		       entry_time, exit_time, duration_minutes, amount, entry_credential, created_at, updated_at
		FROM parking_sessions
		WHERE driver_id = $1
		ORDER BY entry_time DESC
		LIMIT $2
	`
	return r.querySessions(ctx, query, driverID, limit)
}

// ListActive returns currently open sessions across all gates.
func (r *SessionRepository) ListActive(ctx context.Context, limit int) ([]models.ParkingSession, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT id, driver_id, driver_name, vehicle_number, tier, status, gate, operator_id,
		       entry_time, exit_time, duration_minutes, amount, entry_credential, created_at, updated_at
		FROM parking_sessions
		WHERE status = 'active'
		ORDER BY entry_time DESC
		LIMIT $1
	`
	return r.querySessions(ctx, query, limit)
}

func (r *SessionRepository) querySessions(ctx context.Context, query string, args ...interface{}) ([]models.ParkingSession, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.ParkingSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*models.ParkingSession, error) {
	var s models.ParkingSession
	var tier string
	if err := row.Scan(
		&s.ID,
		&s.DriverID,
		&s.DriverName,
		&s.VehicleNumber,
		&tier,
		&s.Status,
		&s.Gate,
		&s.OperatorID,
		&s.EntryTime,
		&s.ExitTime,
		&s.DurationMinutes,
		&s.Amount,
		&s.EntryCredential,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	s.Tier = models.ParseTier(tier)
	return &s, nil
}
