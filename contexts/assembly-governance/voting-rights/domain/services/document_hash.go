package services

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// SignedPayload is the exact tuple a verified digital delegation attests to.
type SignedPayload struct {
	ProxyID          string    `json:"proxy_id"`
	PrincipalID      string    `json:"principal_id"`
	RepresentativeID string    `json:"representative_id"`
	ExternalName     string    `json:"external_name"`
	IPAddress        string    `json:"ip_address"`
	UserAgent        string    `json:"user_agent"`
	SignedAt         time.Time `json:"signed_at"`
}

// DocumentHash encodes the payload with a fixed field order and returns the
// sha256 hex digest together with the encoded bytes.
func DocumentHash(payload SignedPayload) (string, []byte, error) {
	payload.SignedAt = payload.SignedAt.UTC()
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return "", nil, err
	}
	canonical := bytes.TrimSpace(buf.Bytes())
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), canonical, nil
}
