package credential

import (
	"testing"
	"time"

	"parktrack/internal/models"
)

func newTestValidator(now time.Time) *Validator {
	v := NewValidator("test-secret", 30*time.Second)
	v.now = func() time.Time { return now }
	return v
}

func TestValidateFreshCredential(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	v := newTestValidator(now)

	c := v.Issue("drv-5", "ZZ1111", models.CredentialEntry)
	if got := v.Validate(c); got != StatusValid {
		t.Fatalf("expected valid, got %s", got)
	}
	// Validation has no side effects.
	if got := v.Validate(c); got != StatusValid {
		t.Fatalf("second validation changed outcome: %s", got)
	}
}

func TestValidateExpiredCredential(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	v := newTestValidator(now)

	c := v.Issue("drv-5", "ZZ1111", models.CredentialEntry)
	v.now = func() time.Time { return now.Add(31 * time.Second) }
	if got := v.Validate(c); got != StatusExpired {
		t.Fatalf("expected expired, got %s", got)
	}
}

func TestValidateWithinWindowBoundary(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	v := newTestValidator(now)

	c := v.Issue("drv-5", "ZZ1111", models.CredentialEntry)
	v.now = func() time.Time { return now.Add(30 * time.Second) }
	if got := v.Validate(c); got != StatusValid {
		t.Fatalf("credential at exactly the window edge must still be valid, got %s", got)
	}
}

func TestValidateTamperedHash(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	v := newTestValidator(now)

	c := v.Issue("drv-5", "ZZ1111", models.CredentialEntry)
	c.Hash = "0000000000000000"
	if got := v.Validate(c); got != StatusInvalidHash {
		t.Fatalf("expected invalid hash, got %s", got)
	}
}

func TestValidateHashBoundToIdentity(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	v := newTestValidator(now)

	c := v.Issue("drv-5", "ZZ1111", models.CredentialEntry)
	c.DriverID = "drv-6"
	if got := v.Validate(c); got != StatusInvalidHash {
		t.Fatalf("hash must cover driver identity, got %s", got)
	}
}

func TestCheckOrderFormatBeforeHash(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	v := newTestValidator(now)

	if _, got := v.Check("garbage"); got != StatusInvalidFormat {
		t.Fatalf("expected invalid format, got %s", got)
	}

	// Structurally valid payload with a wrong hash and an expired timestamp:
	// hash failure must win because hash is checked before expiry.
	raw := "PARKTRACK|drv-5|ZZ1111|1000|wronghash"
	if _, got := v.Check(raw); got != StatusInvalidHash {
		t.Fatalf("expected invalid hash before expiry, got %s", got)
	}
}

func TestCheckRoundTripThroughWire(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	v := newTestValidator(now)

	c := v.Issue("drv-9", "QQ7777", models.CredentialExit)
	raw, err := Encode(c)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, got := v.Check(raw)
	if got != StatusValid {
		t.Fatalf("expected valid, got %s", got)
	}
	if decoded.DriverID != "drv-9" || decoded.Type != models.CredentialExit {
		t.Fatalf("unexpected decode: %+v", decoded)
	}
}
