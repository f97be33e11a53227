package models

import "time"

// RateTable describes per-tier hourly rates plus lot-level pricing knobs.
// Non-positive values mean "use the compiled-in default" for that field.
type RateTable struct {
	ID              int64     `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	NormalPerHour   float64   `db:"normal_per_hour" json:"normal_per_hour"`
	GoldPerHour     float64   `db:"gold_per_hour" json:"gold_per_hour"`
	PlatinumPerHour float64   `db:"platinum_per_hour" json:"platinum_per_hour"`
	VIPMultiplier   float64   `db:"vip_multiplier" json:"vip_multiplier"`
	OvernightRate   float64   `db:"overnight_rate" json:"overnight_rate"`
	OvernightStart  int       `db:"overnight_start_hour" json:"overnight_start_hour"`
	OvernightEnd    int       `db:"overnight_end_hour" json:"overnight_end_hour"`
	DailyCap        float64   `db:"daily_cap" json:"daily_cap"`
	IsActive        bool      `db:"is_active" json:"is_active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
