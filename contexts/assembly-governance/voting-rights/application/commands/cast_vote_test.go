package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"assembly/contexts/assembly-governance/voting-rights/domain/entities"
	domainerrors "assembly/contexts/assembly-governance/voting-rights/domain/errors"
	"assembly/contexts/assembly-governance/voting-rights/ports"

	"github.com/shopspring/decimal"
)

func TestCastVoteCoversEveryRepresentedUnitOnce(t *testing.T) {
	f := newFixture(t,
		unit("U1", "0.1", "CC-300", representativeID),
		unit("U2", "0.15", "CC-400", representativeID),
		unit("U3", "0.75", "CC-100", principalID),
	)
	ctx := context.Background()
	vote := f.openVote(t)
	cmd := CastVoteCommand{
		ActorID:  representativeID,
		VoteID:   vote.VoteID,
		OptionID: vote.Options[0].OptionID,
	}

	first, err := f.ballots.CastVote(ctx, cmd)
	if err != nil {
		t.Fatalf("cast failed: %v", err)
	}
	if first.BallotCount != 2 {
		t.Fatalf("expected 2 ballots, got %d", first.BallotCount)
	}
	if !first.Weight.Equal(decimal.RequireFromString("0.25")) {
		t.Fatalf("expected weight 0.25, got %s", first.Weight)
	}

	_, err = f.ballots.CastVote(ctx, cmd)
	if !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected already voted on replay, got %v", err)
	}
	ballots, err := f.store.ListBallots(ctx, vote.VoteID)
	if err != nil {
		t.Fatalf("list ballots: %v", err)
	}
	if len(ballots) != 2 {
		t.Fatalf("expected replay to add no ballots, got %d", len(ballots))
	}
}

func TestCastVoteSkipsUnitsAlreadyVotedByPreviousHolder(t *testing.T) {
	f := newFixture(t,
		unit("U1", "0.1", "CC-100", principalID),
		unit("U2", "0.2", "CC-500", representativeID),
	)
	ctx := context.Background()
	vote := f.openVote(t)

	if _, err := f.ballots.CastVote(ctx, CastVoteCommand{
		ActorID:  principalID,
		VoteID:   vote.VoteID,
		OptionID: vote.Options[1].OptionID,
	}); err != nil {
		t.Fatalf("principal cast failed: %v", err)
	}

	// Delegating after voting hands over a unit that already holds a ballot.
	f.approveDigital(t)
	result, err := f.ballots.CastVote(ctx, CastVoteCommand{
		ActorID:  representativeID,
		VoteID:   vote.VoteID,
		OptionID: vote.Options[0].OptionID,
	})
	if err != nil {
		t.Fatalf("representative cast failed: %v", err)
	}
	if result.BallotCount != 1 || result.Ballots[0].UnitID != "U2" {
		t.Fatalf("expected only U2 to be cast, got %+v", result.Ballots)
	}

	ballots, _ := f.store.ListBallots(ctx, vote.VoteID)
	total := decimal.Zero
	for _, ballot := range ballots {
		total = total.Add(ballot.Weight)
	}
	units, _ := f.store.ListUnitsByAssembly(ctx, testAssembly)
	if total.GreaterThan(entities.SumCoefficients(units)) {
		t.Fatalf("ballot weight %s exceeds assembly coefficient total", total)
	}
	if len(ballots) != 2 {
		t.Fatalf("expected one ballot per unit, got %d", len(ballots))
	}
}

func TestCastVoteOnBehalfRequiresOperator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	vote := f.openVote(t)

	_, err := f.ballots.CastVote(ctx, CastVoteCommand{
		ActorID:  representativeID,
		VoteID:   vote.VoteID,
		OptionID: vote.Options[0].OptionID,
		TargetID: principalID,
	})
	if !errors.Is(err, domainerrors.ErrElevatedRequired) {
		t.Fatalf("expected elevated role requirement, got %v", err)
	}

	result, err := f.ballots.CastVote(ctx, CastVoteCommand{
		ActorID:  operatorID,
		VoteID:   vote.VoteID,
		OptionID: vote.Options[0].OptionID,
		TargetID: principalID,
	})
	if err != nil {
		t.Fatalf("operator cast failed: %v", err)
	}
	ballot := result.Ballots[0]
	if ballot.VoterIdentityID != principalID || ballot.CastByIdentityID != operatorID {
		t.Fatalf("expected ballot attributed to principal and cast by operator, got %+v", ballot)
	}
}

func TestCastVoteRejectsClosedVoteAndForeignOption(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	vote := f.openVote(t)

	_, err := f.ballots.CastVote(ctx, CastVoteCommand{
		ActorID:  principalID,
		VoteID:   vote.VoteID,
		OptionID: "not-an-option",
	})
	if !errors.Is(err, domainerrors.ErrOptionNotFound) {
		t.Fatalf("expected option not found, got %v", err)
	}

	if _, err := f.votes.UpdateVoteStatus(ctx, UpdateVoteStatusCommand{
		ActorID: adminID,
		VoteID:  vote.VoteID,
		Status:  entities.VoteStatusPaused,
	}); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	_, err = f.ballots.CastVote(ctx, CastVoteCommand{
		ActorID:  principalID,
		VoteID:   vote.VoteID,
		OptionID: vote.Options[0].OptionID,
	})
	if !errors.Is(err, domainerrors.ErrVoteNotOpen) {
		t.Fatalf("expected vote not open, got %v", err)
	}
}

// closingRepo closes the vote in its own transaction right before the
// caller's transaction starts.
type closingRepo struct {
	ports.Repository
	voteID string
}

func (r closingRepo) WithinTx(ctx context.Context, fn func(tx ports.Store) error) error {
	if err := r.Repository.WithinTx(ctx, func(tx ports.Store) error {
		return tx.TransitionVote(ctx, r.voteID, entities.VoteStatusOpen, entities.VoteStatusClosed, time.Now())
	}); err != nil {
		return err
	}
	return r.Repository.WithinTx(ctx, fn)
}

func TestCastVoteRechecksStatusInsideTransaction(t *testing.T) {
	f := newFixture(t, unit("U1", "0.1", "CC-100", principalID))
	ctx := context.Background()
	vote := f.openVote(t)

	ballots := f.ballots
	ballots.Repo = closingRepo{Repository: f.store, voteID: vote.VoteID}
	_, err := ballots.CastVote(ctx, CastVoteCommand{
		ActorID:  principalID,
		VoteID:   vote.VoteID,
		OptionID: vote.Options[0].OptionID,
	})
	if !errors.Is(err, domainerrors.ErrVoteNotOpen) {
		t.Fatalf("expected vote not open, got %v", err)
	}
	stored, err := f.store.ListBallots(ctx, vote.VoteID)
	if err != nil {
		t.Fatalf("list ballots: %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("expected no ballots on a closed vote, got %d", len(stored))
	}
}
