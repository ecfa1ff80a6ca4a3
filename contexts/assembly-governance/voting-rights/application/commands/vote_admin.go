package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "assembly/contexts/assembly-governance/voting-rights/application"
	"assembly/contexts/assembly-governance/voting-rights/domain/entities"
	domainerrors "assembly/contexts/assembly-governance/voting-rights/domain/errors"
	"assembly/contexts/assembly-governance/voting-rights/domain/services"
	"assembly/contexts/assembly-governance/voting-rights/ports"
	contractsv1 "assembly/contracts/gen/events/v1"
)

type OptionInput struct {
	// OptionID is empty for a new option.
	OptionID string
	Label    string
}

type CreateVoteCommand struct {
	ActorID    string
	AssemblyID string
	Title      string
	Options    []OptionInput
}

type UpdateVoteStatusCommand struct {
	ActorID string
	VoteID  string
	Status  entities.VoteStatus
}

type UpdateVoteDetailsCommand struct {
	ActorID string
	VoteID  string
	// Title is left unchanged when nil.
	Title *string
	// Options replaces the option list when non-nil.
	Options []OptionInput
}

type DeleteVoteCommand struct {
	ActorID string
	VoteID  string
}

type DeleteVoteResult struct {
	VoteID         string
	BallotsDeleted int64
}

// VoteAdminUseCase groups the admin-only vote operations.
type VoteAdminUseCase struct {
	Repo   ports.Repository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (uc VoteAdminUseCase) CreateVote(ctx context.Context, cmd CreateVoteCommand) (entities.Vote, error) {
	logger := application.ResolveLogger(uc.Logger)
	actor, err := requireAdmin(ctx, uc.Repo, cmd.ActorID)
	if err != nil {
		return entities.Vote{}, err
	}
	assemblyID := strings.TrimSpace(cmd.AssemblyID)
	title := strings.TrimSpace(cmd.Title)
	if assemblyID == "" || title == "" || len(cmd.Options) == 0 {
		return entities.Vote{}, domainerrors.ErrInvalidInput
	}
	voteID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Vote{}, err
	}
	options, err := uc.buildOptions(ctx, voteID, nil, cmd.Options)
	if err != nil {
		return entities.Vote{}, err
	}
	now := uc.now()
	vote := entities.Vote{
		VoteID:     voteID,
		AssemblyID: assemblyID,
		Title:      title,
		Status:     entities.VoteStatusDraft,
		Options:    options,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err = uc.Repo.WithinTx(ctx, func(tx ports.Store) error {
		if err := tx.CreateVote(ctx, vote); err != nil {
			return err
		}
		return appendEvent(ctx, tx, uc.IDGen, contractsv1.EventVoteCreated, "vote_id", vote.VoteID, now, map[string]any{
			"vote_id":     vote.VoteID,
			"assembly_id": vote.AssemblyID,
			"title":       vote.Title,
			"options":     len(vote.Options),
			"created_by":  actor.IdentityID,
		})
	})
	if err != nil {
		return entities.Vote{}, err
	}
	logger.Info("vote created",
		"event", "voting_rights_vote_created",
		"module", "assembly-governance/voting-rights",
		"layer", "application",
		"vote_id", vote.VoteID,
		"assembly_id", vote.AssemblyID,
		"actor_id", actor.IdentityID,
	)
	return vote, nil
}

// UpdateVoteStatus applies one lifecycle edge. CLOSED is final.
func (uc VoteAdminUseCase) UpdateVoteStatus(ctx context.Context, cmd UpdateVoteStatusCommand) (entities.Vote, error) {
	logger := application.ResolveLogger(uc.Logger)
	actor, err := requireAdmin(ctx, uc.Repo, cmd.ActorID)
	if err != nil {
		return entities.Vote{}, err
	}
	if !cmd.Status.Valid() {
		return entities.Vote{}, domainerrors.ErrInvalidStatus
	}
	vote, err := uc.Repo.GetVote(ctx, strings.TrimSpace(cmd.VoteID))
	if err != nil {
		return entities.Vote{}, err
	}
	if vote.Status == entities.VoteStatusClosed {
		return entities.Vote{}, domainerrors.ErrVoteClosed
	}
	if !services.CanTransitionVote(vote.Status, cmd.Status) {
		return entities.Vote{}, domainerrors.ErrInvalidTransition
	}
	from := vote.Status
	now := uc.now()
	err = uc.Repo.WithinTx(ctx, func(tx ports.Store) error {
		if err := tx.TransitionVote(ctx, vote.VoteID, from, cmd.Status, now); err != nil {
			return err
		}
		return appendEvent(ctx, tx, uc.IDGen, contractsv1.EventVoteStatusChanged, "vote_id", vote.VoteID, now, map[string]any{
			"vote_id":     vote.VoteID,
			"assembly_id": vote.AssemblyID,
			"from_status": string(from),
			"to_status":   string(cmd.Status),
			"changed_by":  actor.IdentityID,
		})
	})
	if err != nil {
		return entities.Vote{}, err
	}
	vote.Status = cmd.Status
	vote.UpdatedAt = now
	logger.Info("vote status changed",
		"event", "voting_rights_vote_status_changed",
		"module", "assembly-governance/voting-rights",
		"layer", "application",
		"vote_id", vote.VoteID,
		"from_status", string(from),
		"to_status", string(cmd.Status),
		"actor_id", actor.IdentityID,
	)
	return vote, nil
}

// UpdateVoteDetails edits the title while the vote is not CLOSED and the
// options only while it is PAUSED.
func (uc VoteAdminUseCase) UpdateVoteDetails(ctx context.Context, cmd UpdateVoteDetailsCommand) (entities.Vote, error) {
	logger := application.ResolveLogger(uc.Logger)
	actor, err := requireAdmin(ctx, uc.Repo, cmd.ActorID)
	if err != nil {
		return entities.Vote{}, err
	}
	if cmd.Title == nil && cmd.Options == nil {
		return entities.Vote{}, domainerrors.ErrInvalidInput
	}

	var updated entities.Vote
	err = uc.Repo.WithinTx(ctx, func(tx ports.Store) error {
		vote, err := tx.GetVote(ctx, strings.TrimSpace(cmd.VoteID))
		if err != nil {
			return err
		}
		if vote.Status == entities.VoteStatusClosed {
			return domainerrors.ErrVoteClosed
		}
		if cmd.Title != nil {
			title := strings.TrimSpace(*cmd.Title)
			if title == "" {
				return domainerrors.ErrInvalidInput
			}
			vote.Title = title
		}
		if cmd.Options != nil {
			if vote.Status != entities.VoteStatusPaused {
				return domainerrors.ErrOptionsLocked
			}
			if len(cmd.Options) == 0 {
				return domainerrors.ErrInvalidInput
			}
			options, err := uc.buildOptions(ctx, vote.VoteID, vote.Options, cmd.Options)
			if err != nil {
				return err
			}
			if err := ensureRemovedOptionsEmpty(ctx, tx, vote, options); err != nil {
				return err
			}
			vote.Options = options
		}
		vote.UpdatedAt = uc.now()
		if err := tx.UpdateVoteDetails(ctx, vote); err != nil {
			return err
		}
		updated = vote
		return appendEvent(ctx, tx, uc.IDGen, contractsv1.EventVoteUpdated, "vote_id", vote.VoteID, vote.UpdatedAt, map[string]any{
			"vote_id":     vote.VoteID,
			"assembly_id": vote.AssemblyID,
			"title":       vote.Title,
			"options":     len(vote.Options),
			"changed_by":  actor.IdentityID,
		})
	})
	if err != nil {
		return entities.Vote{}, err
	}
	logger.Info("vote details updated",
		"event", "voting_rights_vote_updated",
		"module", "assembly-governance/voting-rights",
		"layer", "application",
		"vote_id", updated.VoteID,
		"actor_id", actor.IdentityID,
	)
	return updated, nil
}

// DeleteVote removes ballots first, then the vote and its options.
func (uc VoteAdminUseCase) DeleteVote(ctx context.Context, cmd DeleteVoteCommand) (DeleteVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	actor, err := requireAdmin(ctx, uc.Repo, cmd.ActorID)
	if err != nil {
		return DeleteVoteResult{}, err
	}
	voteID := strings.TrimSpace(cmd.VoteID)
	var result DeleteVoteResult
	err = uc.Repo.WithinTx(ctx, func(tx ports.Store) error {
		vote, err := tx.GetVote(ctx, voteID)
		if err != nil {
			return err
		}
		deleted, err := tx.DeleteBallotsByVote(ctx, vote.VoteID)
		if err != nil {
			return err
		}
		if err := tx.DeleteVote(ctx, vote.VoteID); err != nil {
			return err
		}
		result = DeleteVoteResult{VoteID: vote.VoteID, BallotsDeleted: deleted}
		return appendEvent(ctx, tx, uc.IDGen, contractsv1.EventVoteDeleted, "vote_id", vote.VoteID, uc.now(), map[string]any{
			"vote_id":         vote.VoteID,
			"assembly_id":     vote.AssemblyID,
			"ballots_deleted": deleted,
			"deleted_by":      actor.IdentityID,
		})
	})
	if err != nil {
		return DeleteVoteResult{}, err
	}
	logger.Info("vote deleted",
		"event", "voting_rights_vote_deleted",
		"module", "assembly-governance/voting-rights",
		"layer", "application",
		"vote_id", result.VoteID,
		"ballots_deleted", result.BallotsDeleted,
		"actor_id", actor.IdentityID,
	)
	return result, nil
}

// buildOptions keeps ids of existing options, assigns ids to new ones and
// renumbers OrderIndex by position.
func (uc VoteAdminUseCase) buildOptions(
	ctx context.Context,
	voteID string,
	existing []entities.VoteOption,
	inputs []OptionInput,
) ([]entities.VoteOption, error) {
	known := make(map[string]bool, len(existing))
	for _, option := range existing {
		known[option.OptionID] = true
	}
	seen := make(map[string]bool, len(inputs))
	options := make([]entities.VoteOption, 0, len(inputs))
	for index, input := range inputs {
		label := strings.TrimSpace(input.Label)
		if label == "" {
			return nil, domainerrors.ErrInvalidInput
		}
		optionID := strings.TrimSpace(input.OptionID)
		if optionID != "" {
			if !known[optionID] {
				return nil, domainerrors.ErrOptionNotFound
			}
			if seen[optionID] {
				return nil, domainerrors.ErrInvalidInput
			}
		} else {
			generated, err := uc.IDGen.NewID(ctx)
			if err != nil {
				return nil, err
			}
			optionID = generated
		}
		seen[optionID] = true
		options = append(options, entities.VoteOption{
			OptionID:   optionID,
			VoteID:     voteID,
			Label:      label,
			OrderIndex: index,
		})
	}
	return options, nil
}

func ensureRemovedOptionsEmpty(ctx context.Context, tx ports.Store, vote entities.Vote, next []entities.VoteOption) error {
	kept := make(map[string]bool, len(next))
	for _, option := range next {
		kept[option.OptionID] = true
	}
	counts, err := tx.CountBallotsByOption(ctx, vote.VoteID)
	if err != nil {
		return err
	}
	for _, option := range vote.Options {
		if !kept[option.OptionID] && counts[option.OptionID] > 0 {
			return domainerrors.ErrOptionHasBallots
		}
	}
	return nil
}

func (uc VoteAdminUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
