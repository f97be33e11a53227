package models

import "time"

// User roles.
const (
	RoleDriver   = "driver"
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

// User is a driver or operator account.
type User struct {
	ID            int64     `db:"id" json:"id"`
	DriverID      string    `db:"driver_id" json:"driver_id"`
	Email         string    `db:"email" json:"email"`
	FullName      string    `db:"full_name" json:"full_name"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	Role          string    `db:"role" json:"role"`
	Tier          Tier      `db:"tier" json:"tier"`
	VehicleNumber string    `db:"vehicle_number" json:"vehicle_number"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
