package queries

import (
	"context"
	"log/slog"
	"strings"

	"assembly/contexts/assembly-governance/voting-rights/domain/entities"
	"assembly/contexts/assembly-governance/voting-rights/domain/services"
	"assembly/contexts/assembly-governance/voting-rights/ports"
)

type VoteTally struct {
	Vote  entities.Vote
	Tally services.Tally
	// Live is set when the tally came from the ballot.cast feed.
	Live bool
}

// LiveTallySource serves the incrementally maintained tally of a vote.
type LiveTallySource interface {
	Live(ctx context.Context, voteID string) (services.Tally, error)
}

type TallyUseCase struct {
	Votes  ports.VoteStore
	Live   LiveTallySource
	Logger *slog.Logger
}

// GetVoteTally recomputes the authoritative result from stored ballots.
func (uc TallyUseCase) GetVoteTally(ctx context.Context, voteID string) (VoteTally, error) {
	vote, err := uc.Votes.GetVote(ctx, strings.TrimSpace(voteID))
	if err != nil {
		return VoteTally{}, err
	}
	ballots, err := uc.Votes.ListBallots(ctx, vote.VoteID)
	if err != nil {
		return VoteTally{}, err
	}
	return VoteTally{Vote: vote, Tally: services.TallyBallots(vote, ballots)}, nil
}

// GetLiveTally serves the feed-maintained tally for realtime display. It
// falls back to the authoritative recount when no live source is wired.
func (uc TallyUseCase) GetLiveTally(ctx context.Context, voteID string) (VoteTally, error) {
	if uc.Live == nil {
		return uc.GetVoteTally(ctx, voteID)
	}
	vote, err := uc.Votes.GetVote(ctx, strings.TrimSpace(voteID))
	if err != nil {
		return VoteTally{}, err
	}
	tally, err := uc.Live.Live(ctx, vote.VoteID)
	if err != nil {
		return VoteTally{}, err
	}
	return VoteTally{Vote: vote, Tally: tally, Live: true}, nil
}
