package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "assembly/contexts/assembly-governance/voting-rights/application"
	"assembly/contexts/assembly-governance/voting-rights/domain/entities"
	domainerrors "assembly/contexts/assembly-governance/voting-rights/domain/errors"
	"assembly/contexts/assembly-governance/voting-rights/ports"
	contractsv1 "assembly/contracts/gen/events/v1"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

type CastVoteCommand struct {
	ActorID  string
	VoteID   string
	OptionID string
	// TargetID casts for another identity; empty means the actor votes.
	TargetID string
}

type CastVoteResult struct {
	VoteID      string
	OptionID    string
	TargetID    string
	BallotCount int
	Weight      decimal.Decimal
	Ballots     []entities.Ballot
}

type BallotUseCase struct {
	Repo    ports.Repository
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Metrics ports.Metrics
	Logger  *slog.Logger
}

// CastVote inserts one ballot per unit the target represents at cast time.
// Units that already voted are skipped; when every unit is skipped the
// result is ErrAlreadyVoted.
func (uc BallotUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	ctx, span := startSpan(ctx, "cast_vote",
		attribute.String("vote_id", cmd.VoteID),
	)
	defer span.End()

	logger := application.ResolveLogger(uc.Logger)
	actorID := strings.TrimSpace(cmd.ActorID)
	targetID := strings.TrimSpace(cmd.TargetID)
	if targetID == "" {
		targetID = actorID
	}
	if actorID == "" {
		return CastVoteResult{}, domainerrors.ErrForbidden
	}
	if targetID != actorID {
		if _, err := requireElevated(ctx, uc.Repo, actorID); err != nil {
			return CastVoteResult{}, err
		}
	}

	vote, err := uc.Repo.GetVote(ctx, strings.TrimSpace(cmd.VoteID))
	if err != nil {
		return CastVoteResult{}, err
	}
	if vote.Status != entities.VoteStatusOpen {
		return CastVoteResult{}, domainerrors.ErrVoteNotOpen
	}
	optionID := strings.TrimSpace(cmd.OptionID)
	if !vote.HasOption(optionID) {
		return CastVoteResult{}, domainerrors.ErrOptionNotFound
	}

	result := CastVoteResult{
		VoteID:   vote.VoteID,
		OptionID: optionID,
		TargetID: targetID,
		Weight:   decimal.Zero,
	}
	err = uc.Repo.WithinTx(ctx, func(tx ports.Store) error {
		current, err := tx.LockVote(ctx, vote.VoteID)
		if err != nil {
			return err
		}
		if current.Status != entities.VoteStatusOpen {
			return domainerrors.ErrVoteNotOpen
		}
		if !current.HasOption(optionID) {
			return domainerrors.ErrOptionNotFound
		}
		units, err := tx.ListUnitsByRepresentative(ctx, vote.AssemblyID, targetID)
		if err != nil {
			return err
		}
		if len(units) == 0 {
			return domainerrors.ErrNoVotingRights
		}
		now := uc.now()
		for _, unit := range units {
			ballotID, err := uc.IDGen.NewID(ctx)
			if err != nil {
				return err
			}
			ballot := entities.Ballot{
				BallotID:         ballotID,
				VoteID:           vote.VoteID,
				OptionID:         optionID,
				UnitID:           unit.UnitID,
				VoterIdentityID:  targetID,
				CastByIdentityID: actorID,
				Weight:           unit.Coefficient,
				CreatedAt:        now,
			}
			inserted, err := tx.InsertBallot(ctx, ballot)
			if err != nil {
				return err
			}
			if !inserted {
				continue
			}
			if err := appendEvent(ctx, tx, uc.IDGen, contractsv1.EventBallotCast, "vote_id", vote.VoteID, now, map[string]any{
				"ballot_id":         ballot.BallotID,
				"vote_id":           ballot.VoteID,
				"assembly_id":       vote.AssemblyID,
				"option_id":         ballot.OptionID,
				"unit_id":           ballot.UnitID,
				"voter_identity_id": ballot.VoterIdentityID,
				"cast_by":           ballot.CastByIdentityID,
				"weight":            ballot.Weight.String(),
				"created_at":        now.Format(time.RFC3339Nano),
			}); err != nil {
				return err
			}
			result.Ballots = append(result.Ballots, ballot)
			result.Weight = result.Weight.Add(ballot.Weight)
		}
		if len(result.Ballots) == 0 {
			return domainerrors.ErrAlreadyVoted
		}
		return nil
	})
	if err != nil {
		logger.Warn("ballot cast rejected",
			"event", "voting_rights_ballot_rejected",
			"module", "assembly-governance/voting-rights",
			"layer", "application",
			"vote_id", vote.VoteID,
			"actor_id", actorID,
			"target_id", targetID,
			"error", err.Error(),
		)
		return CastVoteResult{}, err
	}
	result.BallotCount = len(result.Ballots)

	weight, _ := result.Weight.Float64()
	application.ResolveMetrics(uc.Metrics).BallotsCast(vote.AssemblyID, result.BallotCount, weight)
	logger.Info("ballots cast",
		"event", "voting_rights_ballots_cast",
		"module", "assembly-governance/voting-rights",
		"layer", "application",
		"vote_id", vote.VoteID,
		"option_id", optionID,
		"actor_id", actorID,
		"target_id", targetID,
		"ballots", result.BallotCount,
		"weight", result.Weight.String(),
	)
	return result, nil
}

func (uc BallotUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
