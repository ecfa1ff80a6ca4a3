package commands

import (
	"context"
	"encoding/json"
	"time"

	"assembly/contexts/assembly-governance/voting-rights/ports"
)

const sourceService = "voting-rights"

// newEnvelope builds the canonical outbox envelope. The partition key path
// names the payload field consumers shard on.
func newEnvelope(
	eventID string,
	eventType string,
	partitionKeyPath string,
	partitionKey string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    sourceService,
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: partitionKeyPath,
		PartitionKey:     partitionKey,
		Data:             payload,
	}, nil
}

// appendEvent writes one event through the transactional store so it
// commits or rolls back with the state change it describes.
func appendEvent(
	ctx context.Context,
	tx ports.OutboxWriter,
	idGen ports.IDGenerator,
	eventType string,
	partitionKeyPath string,
	partitionKey string,
	occurredAt time.Time,
	data map[string]any,
) error {
	eventID, err := idGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newEnvelope(eventID, eventType, partitionKeyPath, partitionKey, occurredAt, data)
	if err != nil {
		return err
	}
	return tx.AppendOutbox(ctx, envelope)
}
