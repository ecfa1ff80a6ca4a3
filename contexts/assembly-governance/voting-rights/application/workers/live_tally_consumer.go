package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	application "assembly/contexts/assembly-governance/voting-rights/application"
	"assembly/contexts/assembly-governance/voting-rights/domain/entities"
	"assembly/contexts/assembly-governance/voting-rights/domain/services"
	"assembly/contexts/assembly-governance/voting-rights/ports"
	contractsv1 "assembly/contracts/gen/events/v1"

	"github.com/shopspring/decimal"
)

const defaultLiveTallyCG = "voting-rights-live-tally-cg"

// LiveTallyConsumer keeps an incremental tally per vote from the ballot.cast
// feed. A vote's tally is seeded from stored ballots the first time it is
// seen, so a consumer that starts late still converges. Events are reserved
// in Dedup only once every fallible step succeeded, so a redelivery after a
// failure is applied again.
type LiveTallyConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Votes         ports.VoteStore
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Logger        *slog.Logger

	mu      sync.RWMutex
	tallies map[string]*services.LiveTally
}

func (c *LiveTallyConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	group := c.group()
	for topic, handler := range map[string]func(context.Context, ports.EventEnvelope) error{
		contractsv1.EventBallotCast:  c.handleBallotCast,
		contractsv1.EventVoteDeleted: c.handleVoteDeleted,
	} {
		if err := c.Subscriber.Subscribe(ctx, topic, group, handler); err != nil {
			logger.Error("live tally subscribe failed",
				"event", "voting_rights_live_tally_subscribe_failed",
				"module", "assembly-governance/voting-rights",
				"layer", "worker",
				"topic", topic,
				"consumer_group", group,
				"error", err.Error(),
			)
			return err
		}
	}
	logger.Info("live tally subscriptions active",
		"event", "voting_rights_live_tally_started",
		"module", "assembly-governance/voting-rights",
		"layer", "worker",
		"consumer_group", group,
	)
	return nil
}

// Snapshot returns the current live tally of a vote, if one is tracked.
func (c *LiveTallyConsumer) Snapshot(voteID string) (services.Tally, bool) {
	c.mu.RLock()
	tally, ok := c.tallies[voteID]
	c.mu.RUnlock()
	if !ok {
		return services.Tally{}, false
	}
	return tally.Snapshot(), true
}

// Live returns the tally of voteID, seeding it from stored ballots when the
// feed has not delivered anything for it yet.
func (c *LiveTallyConsumer) Live(ctx context.Context, voteID string) (services.Tally, error) {
	tally, _, err := c.tallyFor(ctx, strings.TrimSpace(voteID))
	if err != nil {
		return services.Tally{}, err
	}
	return tally.Snapshot(), nil
}

func (c *LiveTallyConsumer) handleBallotCast(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	var payload struct {
		BallotID        string `json:"ballot_id"`
		VoteID          string `json:"vote_id"`
		OptionID        string `json:"option_id"`
		UnitID          string `json:"unit_id"`
		VoterIdentityID string `json:"voter_identity_id"`
		CastBy          string `json:"cast_by"`
		Weight          string `json:"weight"`
	}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		logger.Error("ballot.cast payload decode failed",
			"event", "voting_rights_ballot_cast_decode_failed",
			"module", "assembly-governance/voting-rights",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	weight, err := decimal.NewFromString(payload.Weight)
	if err != nil {
		return err
	}
	tally, seeded, err := c.tallyFor(ctx, payload.VoteID)
	if err != nil {
		logger.Warn("live tally seed failed",
			"event", "voting_rights_live_tally_seed_failed",
			"module", "assembly-governance/voting-rights",
			"layer", "worker",
			"event_id", event.EventID,
			"vote_id", payload.VoteID,
			"error", err.Error(),
		)
		return err
	}
	if replayed, err := c.reserveEvent(ctx, event); err != nil || replayed {
		return err
	}
	applied := tally.Apply(entities.Ballot{
		BallotID:         payload.BallotID,
		VoteID:           payload.VoteID,
		OptionID:         payload.OptionID,
		UnitID:           payload.UnitID,
		VoterIdentityID:  payload.VoterIdentityID,
		CastByIdentityID: payload.CastBy,
		Weight:           weight,
	})
	logger.Debug("ballot.cast consumed",
		"event", "voting_rights_ballot_cast_consumed",
		"module", "assembly-governance/voting-rights",
		"layer", "worker",
		"event_id", event.EventID,
		"vote_id", payload.VoteID,
		"applied", applied,
		"seeded", seeded,
	)
	return nil
}

func (c *LiveTallyConsumer) handleVoteDeleted(ctx context.Context, event ports.EventEnvelope) error {
	var payload struct {
		VoteID string `json:"vote_id"`
	}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return err
	}
	if replayed, err := c.reserveEvent(ctx, event); err != nil || replayed {
		return err
	}
	c.mu.Lock()
	delete(c.tallies, payload.VoteID)
	c.mu.Unlock()
	return nil
}

// tallyFor returns the tracked tally of voteID, seeding it from the store on
// first use. The seed already contains the triggering ballot, which Apply
// then ignores by id.
func (c *LiveTallyConsumer) tallyFor(ctx context.Context, voteID string) (*services.LiveTally, bool, error) {
	c.mu.RLock()
	tally, ok := c.tallies[voteID]
	c.mu.RUnlock()
	if ok {
		return tally, false, nil
	}

	vote, err := c.Votes.GetVote(ctx, voteID)
	if err != nil {
		return nil, false, err
	}
	ballots, err := c.Votes.ListBallots(ctx, voteID)
	if err != nil {
		return nil, false, err
	}
	seed := services.NewLiveTally(vote)
	for _, ballot := range ballots {
		seed.Apply(ballot)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tallies == nil {
		c.tallies = make(map[string]*services.LiveTally)
	}
	if existing, ok := c.tallies[voteID]; ok {
		return existing, false, nil
	}
	c.tallies[voteID] = seed
	return seed, true, nil
}

func (c *LiveTallyConsumer) reserveEvent(ctx context.Context, event ports.EventEnvelope) (bool, error) {
	if c.Dedup == nil {
		return false, nil
	}
	// Each group keeps its own projection, so reservations are per group.
	key := c.group() + "/" + event.EventID
	alreadyProcessed, err := c.Dedup.ReserveEvent(ctx, key, hashPayload(event.Data), c.now().Add(c.dedupTTL()))
	if err != nil {
		application.ResolveLogger(c.Logger).Error("live tally event dedupe failed",
			"event", "voting_rights_live_tally_dedupe_failed",
			"module", "assembly-governance/voting-rights",
			"layer", "worker",
			"event_id", event.EventID,
			"event_type", event.EventType,
			"error", err.Error(),
		)
		return false, err
	}
	return alreadyProcessed, nil
}

func (c *LiveTallyConsumer) group() string {
	if group := strings.TrimSpace(c.ConsumerGroup); group != "" {
		return group
	}
	return defaultLiveTallyCG
}

func (c *LiveTallyConsumer) now() time.Time {
	if c.Clock != nil {
		return c.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (c *LiveTallyConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return 24 * time.Hour
	}
	return c.DedupTTL
}
