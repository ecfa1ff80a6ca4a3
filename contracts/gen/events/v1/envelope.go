package v1

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Envelope is the canonical, versioned event envelope carried on the change
// feed. Fields must stay backward compatible across schema versions.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

// Event types published by the voting-rights service.
const (
	EventProxyApproved      = "proxy.approved"
	EventProxyRevoked       = "proxy.revoked"
	EventProxyExpired       = "proxy.expired"
	EventBallotCast         = "ballot.cast"
	EventVoteCreated        = "vote.created"
	EventVoteStatusChanged  = "vote.status_changed"
	EventVoteUpdated        = "vote.updated"
	EventVoteDeleted        = "vote.deleted"
	EventAttendanceToggled  = "attendance.toggled"
	EventRepresentationMove = "representation.transferred"
)

var ErrInvalidEnvelope = errors.New("invalid event envelope")

// Validate checks the fields every consumer relies on for dedupe and routing.
func (e Envelope) Validate() error {
	if strings.TrimSpace(e.EventID) == "" ||
		strings.TrimSpace(e.EventType) == "" ||
		e.SchemaVersion <= 0 ||
		e.OccurredAt.IsZero() ||
		len(e.Data) == 0 {
		return ErrInvalidEnvelope
	}
	if !json.Valid(e.Data) {
		return ErrInvalidEnvelope
	}
	return nil
}
