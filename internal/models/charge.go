package models

// Charge is the billing outcome for a completed session. Computed fresh on every
// exit from the authoritative duration; never cached across sessions.
type Charge struct {
	Amount           float64 `json:"amount"`
	Tier             Tier    `json:"tier"`
	DurationMinutes  int     `json:"duration_minutes"`
	RatePerHour      float64 `json:"rate_per_hour"`
	ChargeableHours  int     `json:"chargeable_hours"`
	FreeHoursApplied bool    `json:"free_hours_applied"`
}
