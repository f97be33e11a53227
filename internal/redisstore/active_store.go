package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"parktrack/internal/models"
)

// ActiveSession mirrors an open session for quick dashboard lookups. The
// Postgres store stays authoritative; this cache is maintained best-effort.
type ActiveSession struct {
	SessionID     int64     `json:"session_id"`
	DriverID      string    `json:"driver_id"`
	DriverName    string    `json:"driver_name"`
	VehicleNumber string    `json:"vehicle_number"`
	Gate          string    `json:"gate"`
	EntryTime     time.Time `json:"entry_time"`
}

// Store manages the active session cache.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore returns redis-backed store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) key(driverID string) string {
	return fmt.Sprintf("parking:active:%s", driverID)
}

// Save caches an open session keyed by driver.
func (s *Store) Save(ctx context.Context, session ActiveSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(session.DriverID), data, s.ttl).Err()
}

// Get returns the cached open session for a driver.
func (s *Store) Get(ctx context.Context, driverID string) (*ActiveSession, error) {
	result, err := s.client.Get(ctx, s.key(driverID)).Result()
	if err != nil {
		return nil, err
	}
	var session ActiveSession
	if err := json.Unmarshal([]byte(result), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Delete removes a driver's cached session.
func (s *Store) Delete(ctx context.Context, driverID string) error {
	return s.client.Del(ctx, s.key(driverID)).Err()
}

// SaveActive mirrors a freshly opened session.
func (s *Store) SaveActive(ctx context.Context, session *models.ParkingSession) error {
	return s.Save(ctx, ActiveSession{
		SessionID:     session.ID,
		DriverID:      session.DriverID,
		DriverName:    session.DriverName,
		VehicleNumber: session.VehicleNumber,
		Gate:          session.Gate,
		EntryTime:     session.EntryTime,
	})
}

// DeleteActive drops the mirror after completion.
func (s *Store) DeleteActive(ctx context.Context, driverID string) error {
	return s.Delete(ctx, driverID)
}
