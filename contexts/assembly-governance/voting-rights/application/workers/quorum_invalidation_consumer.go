package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	application "assembly/contexts/assembly-governance/voting-rights/application"
	"assembly/contexts/assembly-governance/voting-rights/ports"
	contractsv1 "assembly/contracts/gen/events/v1"
)

const defaultQuorumCG = "voting-rights-quorum-cache"

// QuorumInvalidator is satisfied by queries.QuorumCache.
type QuorumInvalidator interface {
	Invalidate(assemblyID string)
}

// QuorumInvalidationConsumer drops cached quorum values when another process
// toggles attendance.
type QuorumInvalidationConsumer struct {
	Subscriber    ports.EventSubscriber
	Cache         QuorumInvalidator
	ConsumerGroup string
	Logger        *slog.Logger
}

func (c QuorumInvalidationConsumer) Start(ctx context.Context) error {
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultQuorumCG
	}
	return c.Subscriber.Subscribe(ctx, contractsv1.EventAttendanceToggled, group, c.handle)
}

func (c QuorumInvalidationConsumer) handle(_ context.Context, event ports.EventEnvelope) error {
	var payload struct {
		AssemblyID string `json:"assembly_id"`
	}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return err
	}
	c.Cache.Invalidate(payload.AssemblyID)
	application.ResolveLogger(c.Logger).Debug("quorum cache invalidated",
		"event", "voting_rights_quorum_cache_invalidated",
		"module", "assembly-governance/voting-rights",
		"layer", "worker",
		"assembly_id", payload.AssemblyID,
	)
	return nil
}
