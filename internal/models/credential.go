package models

// CredentialType tells whether the driver presented the QR to enter or to leave.
type CredentialType string

// Credential intents carried in the QR payload.
const (
	CredentialEntry CredentialType = "entry"
	CredentialExit  CredentialType = "exit"
)

// Credential is a decoded QR scan payload.
type Credential struct {
	DriverID      string
	VehicleNumber string
	VehicleID     string
	VehicleModel  string
	VehicleColor  string
	IssuedAtMs    int64
	Type          CredentialType
	Hash          string
}
