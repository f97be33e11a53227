package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"parktrack/internal/models"
)

// ErrUserNotFound represents missing user rows.
var ErrUserNotFound = errors.New("user not found")

// UserRepository handles CRUD for driver and operator accounts.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository returns repository instance.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new account.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	const query = `
		INSERT INTO users (driver_id, email, full_name, password_hash, role, tier, vehicle_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		user.DriverID,
		user.Email,
		user.FullName,
		user.PasswordHash,
		user.Role,
		string(user.Tier),
		user.VehicleNumber,
	).Scan(&user.ID, &user.CreatedAt)
}

// GetByEmail fetches an account by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = `
		SELECT id, driver_id, email, full_name, password_hash, role, tier, vehicle_number, created_at
		FROM users
		WHERE email = $1
		LIMIT 1
	`
	return r.getOne(ctx, query, strings.ToLower(strings.TrimSpace(email)))
}

// GetByDriverID fetches an account by its driver identity, the key carried in
// scanned credentials.
func (r *UserRepository) GetByDriverID(ctx context.Context, driverID string) (*models.User, error) {
	const query = `
		SELECT id, driver_id, email, full_name, password_hash, role, tier, vehicle_number, created_at
		FROM users
		WHERE driver_id = $1
		LIMIT 1
	`
	return r.getOne(ctx, query, driverID)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, query, arg)
	var user models.User
	var tier string
	if err := row.Scan(
		&user.ID,
		&user.DriverID,
		&user.Email,
		&user.FullName,
		&user.PasswordHash,
		&user.Role,
		&tier,
		&user.VehicleNumber,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.Tier = models.ParseTier(tier)
	return &user, nil
}
