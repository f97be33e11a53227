package credential

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"parktrack/internal/models"
)

// Wire format constants. The payload is an ASCII string of pipe-joined fields
// beginning with the literal marker. Three arities are accepted on decode:
// 5 fields (legacy, entry intent implied), 6 fields (adds the type tag) and
// 9 fields (adds vehicle id/model/color).
const (
	Marker    = "PARKTRACK"
	Delimiter = "|"
)

// Decode failure reasons.
var (
	ErrBadMarker    = errors.New("credential: bad marker")
	ErrBadArity     = errors.New("credential: unexpected field count")
	ErrBadTimestamp = errors.New("credential: non-numeric timestamp")
	ErrBadType      = errors.New("credential: unknown type tag")
	ErrBadField     = errors.New("credential: field contains delimiter")
)

// Encode serializes a credential into the current 9-field wire form.
// Fields containing the delimiter are rejected rather than escaped.
func Encode(c *models.Credential) (string, error) {
	fields := []string{
		Marker,
		c.DriverID,
		c.VehicleNumber,
		c.VehicleID,
		c.VehicleModel,
		c.VehicleColor,
		strconv.FormatInt(c.IssuedAtMs, 10),
		string(c.Type),
		c.Hash,
	}
	for i, f := range fields {
		if strings.Contains(f, Delimiter) {
			return "", fmt.Errorf("%w: field %d", ErrBadField, i)
		}
	}
	return strings.Join(fields, Delimiter), nil
}

// Decode parses a scanned payload. Dispatch is purely on field count after
// splitting; any other count is a format failure.
func Decode(raw string) (*models.Credential, error) {
	fields := strings.Split(raw, Delimiter)
	if fields[0] != Marker {
		return nil, ErrBadMarker
	}

	c := &models.Credential{Type: models.CredentialEntry}

	switch len(fields) {
	case 5:
		c.DriverID = fields[1]
		c.VehicleNumber = fields[2]
		if err := parseTimestamp(fields[3], c); err != nil {
			return nil, err
		}
		c.Hash = fields[4]
	case 6:
		c.DriverID = fields[1]
		c.VehicleNumber = fields[2]
		if err := parseTimestamp(fields[3], c); err != nil {
			return nil, err
		}
		if err := parseType(fields[4], c); err != nil {
			return nil, err
		}
		c.Hash = fields[5]
	case 9:
		c.DriverID = fields[1]
		c.VehicleNumber = fields[2]
		c.VehicleID = fields[3]
		c.VehicleModel = fields[4]
		c.VehicleColor = fields[5]
		if err := parseTimestamp(fields[6], c); err != nil {
			return nil, err
		}
		if err := parseType(fields[7], c); err != nil {
			return nil, err
		}
		c.Hash = fields[8]
	default:
		return nil, fmt.Errorf("%w: %d", ErrBadArity, len(fields))
	}

	return c, nil
}

func parseTimestamp(s string, c *models.Credential) error {
	ts, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return ErrBadTimestamp
	}
	c.IssuedAtMs = ts
	return nil
}

func parseType(s string, c *models.Credential) error {
	switch models.CredentialType(s) {
	case models.CredentialEntry:
		c.Type = models.CredentialEntry
	case models.CredentialExit:
		c.Type = models.CredentialExit
	default:
		return fmt.Errorf("%w: %q", ErrBadType, s)
	}
	return nil
}
