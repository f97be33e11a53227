package repository

import (
	"context"
	"database/sql"
	"errors"

	"parktrack/internal/models"
)

// ErrNoActiveRates indicates no rate table row is flagged active.
var ErrNoActiveRates = errors.New("no active rate table")

// RateRepository reads the per-tier rate configuration.
type RateRepository struct {
	db *sql.DB
}

// NewRateRepository returns repository.
func NewRateRepository(db *sql.DB) *RateRepository {
	return &RateRepository{db: db}
}

// GetActive returns the currently active rate table.
func (r *RateRepository) GetActive(ctx context.Context) (*models.RateTable, error) {
	const query = `
		SELECT id, name, normal_per_hour, gold_per_hour, platinum_per_hour,
		       vip_multiplier, overnight_rate, overnight_start_hour, overnight_end_hour,
		       daily_cap, is_active, created_at, updated_at
		FROM rate_tables
		WHERE is_active = TRUE
		ORDER BY updated_at DESC
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query)
	var t models.RateTable
	if err := row.Scan(
		&t.ID,
		&t.Name,
		&t.NormalPerHour,
		&t.GoldPerHour,
		&t.PlatinumPerHour,
		&t.VIPMultiplier,
		&t.OvernightRate,
		&t.OvernightStart,
		&t.OvernightEnd,
		&t.DailyCap,
		&t.IsActive,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoActiveRates
		}
		return nil, err
	}
	return &t, nil
}
