package workers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	application "assembly/contexts/assembly-governance/voting-rights/application"
	"assembly/contexts/assembly-governance/voting-rights/ports"
)

const (
	defaultRelayBatch      = 100
	defaultRelayBackoff    = 2 * time.Second
	defaultRelayMaxBackoff = time.Minute
)

// OutboxRelay moves committed voting-rights events (ballots, proxy
// transitions, vote lifecycle) from the outbox to the change feed.
//
// Events sharing a partition key (a vote, a principal) are published in
// outbox order: once one fails, the rest of that partition waits for the
// next cycle while other partitions keep flowing. A cycle with failures
// backs the relay off exponentially up to MaxBackoff.
type OutboxRelay struct {
	Outbox     ports.OutboxRepository
	Publisher  ports.EventPublisher
	Clock      ports.Clock
	BatchSize  int
	Backoff    time.Duration
	MaxBackoff time.Duration
	Logger     *slog.Logger

	mu       sync.Mutex
	failures int
	retryAt  time.Time
}

type relayCycle struct {
	published map[string]int
	failed    map[string]int
	deferred  int
	errs      []error
}

func (r *OutboxRelay) RunOnce(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger := application.ResolveLogger(r.Logger)
	now := r.now()
	if now.Before(r.retryAt) {
		logger.Debug("voting rights outbox relay backing off",
			"event", "voting_rights_outbox_relay_backing_off",
			"module", "assembly-governance/voting-rights",
			"layer", "worker",
			"failed_cycles", r.failures,
			"retry_at", r.retryAt,
		)
		return nil
	}

	limit := r.BatchSize
	if limit <= 0 {
		limit = defaultRelayBatch
	}
	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("voting rights outbox list failed",
			"event", "voting_rights_outbox_list_failed",
			"module", "assembly-governance/voting-rights",
			"layer", "worker",
			"error", err.Error(),
		)
		r.recordFailure(now)
		return err
	}
	if len(pending) == 0 {
		r.recordSuccess()
		return nil
	}

	cycle := relayCycle{published: make(map[string]int), failed: make(map[string]int)}
	blocked := make(map[string]bool)
	for _, row := range pending {
		if blocked[row.PartitionKey] {
			cycle.deferred++
			continue
		}
		if err := r.relay(ctx, logger, row, now, &cycle); err != nil {
			cycle.errs = append(cycle.errs, err)
			blocked[row.PartitionKey] = true
		}
	}

	if len(cycle.errs) > 0 {
		r.recordFailure(now)
		logger.Warn("voting rights outbox relay cycle incomplete",
			"event", "voting_rights_outbox_relay_incomplete",
			"module", "assembly-governance/voting-rights",
			"layer", "worker",
			"published_by_type", cycle.published,
			"failed_by_type", cycle.failed,
			"blocked_partitions", len(blocked),
			"deferred", cycle.deferred,
			"failed_cycles", r.failures,
			"retry_at", r.retryAt,
		)
		return errors.Join(cycle.errs...)
	}
	r.recordSuccess()
	logger.Info("voting rights outbox relay cycle completed",
		"event", "voting_rights_outbox_relay_completed",
		"module", "assembly-governance/voting-rights",
		"layer", "worker",
		"published_by_type", cycle.published,
	)
	return nil
}

// relay publishes one row and marks it published once the feed accepted it.
func (r *OutboxRelay) relay(
	ctx context.Context,
	logger *slog.Logger,
	row ports.OutboxMessage,
	now time.Time,
	cycle *relayCycle,
) error {
	var event ports.EventEnvelope
	if err := json.Unmarshal(row.Payload, &event); err != nil {
		cycle.failed[row.EventType]++
		logger.Error("voting rights outbox decode failed",
			"event", "voting_rights_outbox_decode_failed",
			"module", "assembly-governance/voting-rights",
			"layer", "worker",
			"outbox_id", row.OutboxID,
			"event_type", row.EventType,
			"partition_key", row.PartitionKey,
			"error", err.Error(),
		)
		return err
	}
	topic := event.EventType
	if topic == "" {
		topic = row.EventType
	}
	if err := r.Publisher.Publish(ctx, topic, event); err != nil {
		cycle.failed[topic]++
		logger.Error("voting rights outbox publish failed",
			"event", "voting_rights_outbox_publish_failed",
			"module", "assembly-governance/voting-rights",
			"layer", "worker",
			"outbox_id", row.OutboxID,
			"event_id", event.EventID,
			"event_type", topic,
			"partition_key", row.PartitionKey,
			"error", err.Error(),
		)
		return err
	}
	if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
		// Already on the feed; consumers dedupe the republish.
		cycle.failed[topic]++
		logger.Error("voting rights outbox mark published failed",
			"event", "voting_rights_outbox_mark_published_failed",
			"module", "assembly-governance/voting-rights",
			"layer", "worker",
			"outbox_id", row.OutboxID,
			"event_type", topic,
			"error", err.Error(),
		)
		return err
	}
	cycle.published[topic]++
	return nil
}

func (r *OutboxRelay) recordFailure(now time.Time) {
	r.failures++
	backoff := r.Backoff
	if backoff <= 0 {
		backoff = defaultRelayBackoff
	}
	limit := r.MaxBackoff
	if limit <= 0 {
		limit = defaultRelayMaxBackoff
	}
	for i := 1; i < r.failures && backoff < limit; i++ {
		backoff *= 2
	}
	if backoff > limit {
		backoff = limit
	}
	r.retryAt = now.Add(backoff)
}

func (r *OutboxRelay) recordSuccess() {
	r.failures = 0
	r.retryAt = time.Time{}
}

func (r *OutboxRelay) now() time.Time {
	if r.Clock != nil {
		return r.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
