package repository

import (
	"context"
	"database/sql"

	"parktrack/internal/models"
)

// ScanLogRepository appends scan decisions to the audit log. Rows are never
// updated or deleted; integrity failures land here under their own result
// label so they can be reviewed separately from plain format errors.
type ScanLogRepository struct {
	db *sql.DB
}

// NewScanLogRepository returns repository.
func NewScanLogRepository(db *sql.DB) *ScanLogRepository {
	return &ScanLogRepository{db: db}
}

// Record stores one scan decision.
func (r *ScanLogRepository) Record(ctx context.Context, event models.GateEvent) error {
	const query = `
		INSERT INTO scan_events (event_id, kind, driver_id, gate, operator_id, session_id, amount, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.EventID,
		event.Kind,
		event.DriverID,
		event.Gate,
		event.OperatorID,
		event.SessionID,
		event.Amount,
		event.Detail,
		event.At,
	)
	return err
}

// ListRecent returns the newest audit entries for review dashboards.
func (r *ScanLogRepository) ListRecent(ctx context.Context, limit int) ([]models.GateEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT event_id, kind, driver_id, gate, operator_id, session_id, amount, detail, occurred_at
		FROM scan_events
		ORDER BY occurred_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.GateEvent
	for rows.Next() {
		var e models.GateEvent
		if err := rows.Scan(
			&e.EventID,
			&e.Kind,
			&e.DriverID,
			&e.Gate,
			&e.OperatorID,
			&e.SessionID,
			&e.Amount,
			&e.Detail,
			&e.At,
		); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
