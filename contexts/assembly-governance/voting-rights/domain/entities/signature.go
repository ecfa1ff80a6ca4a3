package entities

import (
	"encoding/json"
	"time"
)

type SignatureStatus string

const (
	SignatureStatusPending  SignatureStatus = "PENDING"
	SignatureStatusVerified SignatureStatus = "VERIFIED"
	SignatureStatusExpired  SignatureStatus = "EXPIRED"
)

// DigitalSignature pairs a PENDING digital proxy with its one-time code.
// DocumentHash and SignedPayload are written once, at verification.
type DigitalSignature struct {
	SignatureID    string
	ProxyID        string
	PrincipalID    string
	OTPCode        string
	OTPExpiresAt   time.Time
	Status         SignatureStatus
	FailedAttempts int
	DocumentHash   string
	SignedPayload  json.RawMessage
	IPAddress      string
	UserAgent      string
	VerifiedAt     *time.Time
	CreatedAt      time.Time
}

func (s DigitalSignature) ExpiredAt(now time.Time) bool {
	return now.After(s.OTPExpiresAt)
}
