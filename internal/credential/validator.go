package credential

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"parktrack/internal/models"
)

// Status classifies the outcome of credential validation.
type Status int

// Validation outcomes, checked in fixed order: format, then hash, then expiry.
const (
	StatusValid Status = iota
	StatusInvalidFormat
	StatusInvalidHash
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusInvalidFormat:
		return "invalid_format"
	case StatusInvalidHash:
		return "invalid_hash"
	case StatusExpired:
		return "expired"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

const defaultValidityWindow = 30 * time.Second

// Validator checks decoded credentials against the shared secret and
// validity window. Validation has no side effects: the same unmodified,
// unexpired credential validates identically on every call.
type Validator struct {
	secret []byte
	window time.Duration
	now    func() time.Time
}

// NewValidator builds a validator. A non-positive window falls back to 30s.
func NewValidator(secret string, window time.Duration) *Validator {
	if window <= 0 {
		window = defaultValidityWindow
	}
	return &Validator{secret: []byte(secret), window: window, now: time.Now}
}

// ComputeHash derives the integrity hash carried in the wire payload:
// hex-encoded HMAC-SHA256 over "driverID|issuedAtMs".
func (v *Validator) ComputeHash(driverID string, issuedAtMs int64) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(driverID + Delimiter + strconv.FormatInt(issuedAtMs, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Validate checks an already-decoded credential: hash first, then expiry.
func (v *Validator) Validate(c *models.Credential) Status {
	if c == nil {
		return StatusInvalidFormat
	}
	expected := v.ComputeHash(c.DriverID, c.IssuedAtMs)
	if !hmac.Equal([]byte(expected), []byte(c.Hash)) {
		return StatusInvalidHash
	}
	issued := time.UnixMilli(c.IssuedAtMs)
	if v.now().Sub(issued) > v.window {
		return StatusExpired
	}
	return StatusValid
}

// Check decodes and validates a raw payload in one step.
func (v *Validator) Check(raw string) (*models.Credential, Status) {
	c, err := Decode(raw)
	if err != nil {
		return nil, StatusInvalidFormat
	}
	return c, v.Validate(c)
}

// Issue builds a signed credential for the given identity. Used by the
// driver-side QR generator and by tests.
func (v *Validator) Issue(driverID, vehicleNumber string, typ models.CredentialType) *models.Credential {
	issued := v.now().UnixMilli()
	return &models.Credential{
		DriverID:      driverID,
		VehicleNumber: vehicleNumber,
		IssuedAtMs:    issued,
		Type:          typ,
		Hash:          v.ComputeHash(driverID, issued),
	}
}
