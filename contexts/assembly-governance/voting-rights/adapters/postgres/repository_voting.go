package postgresadapter

import (
	"context"
	"errors"
	"strings"
	"time"

	"assembly/contexts/assembly-governance/voting-rights/domain/entities"
	domainerrors "assembly/contexts/assembly-governance/voting-rights/domain/errors"
	"assembly/contexts/assembly-governance/voting-rights/ports"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *Repository) CreateSignature(ctx context.Context, signature entities.DigitalSignature) error {
	row := signatureModelFromEntity(signature)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("voting_rights_repo_create_signature_failed", err, "signature_id", row.SignatureID)
	}
	return nil
}

func (r *Repository) GetSignature(ctx context.Context, signatureID string) (entities.DigitalSignature, error) {
	var row signatureModel
	err := r.db.WithContext(ctx).
		Where("signature_id = ?", strings.TrimSpace(signatureID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.DigitalSignature{}, domainerrors.ErrSignatureNotFound
		}
		return entities.DigitalSignature{}, r.logError("voting_rights_repo_get_signature_failed", err,
			"signature_id", strings.TrimSpace(signatureID),
		)
	}
	return row.toEntity(), nil
}

// MarkSignatureVerified is the PENDING -> VERIFIED compare-and-set that
// makes replayed verifications fail closed.
func (r *Repository) MarkSignatureVerified(ctx context.Context, verification ports.SignatureVerification) error {
	signatureID := strings.TrimSpace(verification.SignatureID)
	result := r.db.WithContext(ctx).
		Model(&signatureModel{}).
		Where("signature_id = ? AND status = ?", signatureID, string(entities.SignatureStatusPending)).
		Updates(map[string]any{
			"status":         string(entities.SignatureStatusVerified),
			"document_hash":  verification.DocumentHash,
			"signed_payload": datatypes.JSON(verification.SignedPayload),
			"ip_address":     strings.TrimSpace(verification.IPAddress),
			"user_agent":     strings.TrimSpace(verification.UserAgent),
			"verified_at":    verification.VerifiedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("voting_rights_repo_mark_signature_verified_failed", result.Error,
			"signature_id", signatureID,
		)
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetSignature(ctx, signatureID); err != nil {
			return err
		}
		return domainerrors.ErrAlreadyProcessed
	}
	return nil
}

func (r *Repository) ExpireSignature(ctx context.Context, signatureID string) (bool, error) {
	signatureID = strings.TrimSpace(signatureID)
	result := r.db.WithContext(ctx).
		Model(&signatureModel{}).
		Where("signature_id = ? AND status = ?", signatureID, string(entities.SignatureStatusPending)).
		Update("status", string(entities.SignatureStatusExpired))
	if result.Error != nil {
		return false, r.logError("voting_rights_repo_expire_signature_failed", result.Error,
			"signature_id", signatureID,
		)
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetSignature(ctx, signatureID); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (r *Repository) RecordFailedAttempt(ctx context.Context, signatureID string) (int, error) {
	signatureID = strings.TrimSpace(signatureID)
	result := r.db.WithContext(ctx).
		Model(&signatureModel{}).
		Where("signature_id = ? AND status = ?", signatureID, string(entities.SignatureStatusPending)).
		UpdateColumn("failed_attempts", gorm.Expr("failed_attempts + 1"))
	if result.Error != nil {
		return 0, r.logError("voting_rights_repo_record_failed_attempt_failed", result.Error,
			"signature_id", signatureID,
		)
	}
	signature, err := r.GetSignature(ctx, signatureID)
	if err != nil {
		return 0, err
	}
	if result.RowsAffected == 0 {
		return signature.FailedAttempts, domainerrors.ErrAlreadyProcessed
	}
	return signature.FailedAttempts, nil
}

func (r *Repository) ListLapsedSignatures(ctx context.Context, now time.Time, limit int) ([]entities.DigitalSignature, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []signatureModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND otp_expires_at < ?", string(entities.SignatureStatusPending), now.UTC()).
		Order("otp_expires_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("voting_rights_repo_list_lapsed_signatures_failed", err, "limit", limit)
	}
	items := make([]entities.DigitalSignature, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) DeletePendingSignature(ctx context.Context, signatureID string) error {
	err := r.db.WithContext(ctx).
		Where("signature_id = ? AND status = ?", strings.TrimSpace(signatureID), string(entities.SignatureStatusPending)).
		Delete(&signatureModel{}).
		Error
	if err != nil {
		return r.logError("voting_rights_repo_delete_pending_signature_failed", err,
			"signature_id", strings.TrimSpace(signatureID),
		)
	}
	return nil
}

func (r *Repository) CreateVote(ctx context.Context, vote entities.Vote) error {
	row := voteModelFromEntity(vote)
	options := voteOptionModelsFromEntity(vote)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrConflict
			}
			return r.logError("voting_rights_repo_create_vote_failed", err, "vote_id", row.VoteID)
		}
		if len(options) == 0 {
			return nil
		}
		if err := tx.Create(&options).Error; err != nil {
			return r.logError("voting_rights_repo_create_vote_options_failed", err, "vote_id", row.VoteID)
		}
		return nil
	})
}

func (r *Repository) GetVote(ctx context.Context, voteID string) (entities.Vote, error) {
	return r.getVote(ctx, voteID, false)
}

// LockVote takes a shared row lock on postgres so a concurrent close waits
// for in-flight casts. SQLite serializes writers on its own.
func (r *Repository) LockVote(ctx context.Context, voteID string) (entities.Vote, error) {
	return r.getVote(ctx, voteID, true)
}

func (r *Repository) getVote(ctx context.Context, voteID string, lock bool) (entities.Vote, error) {
	voteID = strings.TrimSpace(voteID)
	query := r.db.WithContext(ctx)
	if lock && r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "SHARE"})
	}
	var row voteModel
	err := query.
		Where("vote_id = ?", voteID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Vote{}, domainerrors.ErrVoteNotFound
		}
		return entities.Vote{}, r.logError("voting_rights_repo_get_vote_failed", err, "vote_id", voteID)
	}
	var options []voteOptionModel
	if err := r.db.WithContext(ctx).
		Where("vote_id = ?", voteID).
		Order("order_index ASC, option_id ASC").
		Find(&options).Error; err != nil {
		return entities.Vote{}, r.logError("voting_rights_repo_list_vote_options_failed", err, "vote_id", voteID)
	}
	return row.toEntity(options), nil
}

func (r *Repository) TransitionVote(
	ctx context.Context,
	voteID string,
	from entities.VoteStatus,
	to entities.VoteStatus,
	updatedAt time.Time,
) error {
	result := r.db.WithContext(ctx).
		Model(&voteModel{}).
		Where("vote_id = ? AND status = ?", strings.TrimSpace(voteID), string(from)).
		Updates(map[string]any{
			"status":     string(to),
			"updated_at": updatedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("voting_rights_repo_transition_vote_failed", result.Error,
			"vote_id", strings.TrimSpace(voteID),
		)
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetVote(ctx, voteID); err != nil {
			return err
		}
		return domainerrors.ErrConflict
	}
	return nil
}

// UpdateVoteDetails rewrites the title and replaces the option set. Options
// are matched by id so existing ballots keep pointing at the same rows.
func (r *Repository) UpdateVoteDetails(ctx context.Context, vote entities.Vote) error {
	voteID := strings.TrimSpace(vote.VoteID)
	options := voteOptionModelsFromEntity(vote)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&voteModel{}).
			Where("vote_id = ?", voteID).
			Updates(map[string]any{
				"title":      strings.TrimSpace(vote.Title),
				"updated_at": vote.UpdatedAt.UTC(),
			})
		if result.Error != nil {
			return r.logError("voting_rights_repo_update_vote_failed", result.Error, "vote_id", voteID)
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrVoteNotFound
		}

		keep := make([]string, 0, len(options))
		for _, option := range options {
			keep = append(keep, option.OptionID)
		}
		prune := tx.Where("vote_id = ?", voteID)
		if len(keep) > 0 {
			prune = prune.Where("option_id NOT IN ?", keep)
		}
		if err := prune.Delete(&voteOptionModel{}).Error; err != nil {
			return r.logError("voting_rights_repo_prune_vote_options_failed", err, "vote_id", voteID)
		}
		if len(options) == 0 {
			return nil
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "option_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"label", "order_index"}),
		}).Create(&options).Error; err != nil {
			return r.logError("voting_rights_repo_upsert_vote_options_failed", err, "vote_id", voteID)
		}
		return nil
	})
}

// DeleteVote refuses while ballots remain; callers delete ballots first.
func (r *Repository) DeleteVote(ctx context.Context, voteID string) error {
	voteID = strings.TrimSpace(voteID)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var remaining int64
		if err := tx.Model(&ballotModel{}).Where("vote_id = ?", voteID).Count(&remaining).Error; err != nil {
			return r.logError("voting_rights_repo_count_ballots_failed", err, "vote_id", voteID)
		}
		if remaining > 0 {
			return domainerrors.ErrConflict
		}
		if err := tx.Where("vote_id = ?", voteID).Delete(&voteOptionModel{}).Error; err != nil {
			return r.logError("voting_rights_repo_delete_vote_options_failed", err, "vote_id", voteID)
		}
		result := tx.Where("vote_id = ?", voteID).Delete(&voteModel{})
		if result.Error != nil {
			return r.logError("voting_rights_repo_delete_vote_failed", result.Error, "vote_id", voteID)
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrVoteNotFound
		}
		return nil
	})
}

// InsertBallot relies on ux_ballots_vote_unit; the losing insert of a race
// reports false instead of an error.
func (r *Repository) InsertBallot(ctx context.Context, ballot entities.Ballot) (bool, error) {
	row := ballotModelFromEntity(ballot)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "vote_id"}, {Name: "unit_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return false, r.logError("voting_rights_repo_insert_ballot_failed", create.Error,
			"vote_id", row.VoteID,
			"unit_id", row.UnitID,
		)
	}
	return create.RowsAffected > 0, nil
}

func (r *Repository) ListBallots(ctx context.Context, voteID string) ([]entities.Ballot, error) {
	var rows []ballotModel
	if err := r.db.WithContext(ctx).
		Where("vote_id = ?", strings.TrimSpace(voteID)).
		Order("created_at ASC, unit_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("voting_rights_repo_list_ballots_failed", err, "vote_id", strings.TrimSpace(voteID))
	}
	items := make([]entities.Ballot, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CountBallotsByOption(ctx context.Context, voteID string) (map[string]int, error) {
	var rows []struct {
		OptionID string
		Ballots  int
	}
	if err := r.db.WithContext(ctx).
		Model(&ballotModel{}).
		Select("option_id, COUNT(*) AS ballots").
		Where("vote_id = ?", strings.TrimSpace(voteID)).
		Group("option_id").
		Scan(&rows).Error; err != nil {
		return nil, r.logError("voting_rights_repo_count_ballots_by_option_failed", err,
			"vote_id", strings.TrimSpace(voteID),
		)
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.OptionID] = row.Ballots
	}
	return counts, nil
}

func (r *Repository) DeleteBallotsByVote(ctx context.Context, voteID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("vote_id = ?", strings.TrimSpace(voteID)).
		Delete(&ballotModel{})
	if result.Error != nil {
		return 0, r.logError("voting_rights_repo_delete_ballots_failed", result.Error,
			"vote_id", strings.TrimSpace(voteID),
		)
	}
	return result.RowsAffected, nil
}

func (r *Repository) GetAttendance(ctx context.Context, unitID string) (entities.AttendanceLog, bool, error) {
	var row attendanceModel
	err := r.db.WithContext(ctx).
		Where("unit_id = ?", strings.TrimSpace(unitID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.AttendanceLog{}, false, nil
		}
		return entities.AttendanceLog{}, false, r.logError("voting_rights_repo_get_attendance_failed", err,
			"unit_id", strings.TrimSpace(unitID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) CheckIn(ctx context.Context, log entities.AttendanceLog) (bool, error) {
	row := attendanceModel{
		UnitID:      strings.TrimSpace(log.UnitID),
		AssemblyID:  strings.TrimSpace(log.AssemblyID),
		CheckedInAt: log.CheckedInAt.UTC(),
		CheckedInBy: strings.TrimSpace(log.CheckedInBy),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "unit_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return false, r.logError("voting_rights_repo_check_in_failed", create.Error, "unit_id", row.UnitID)
	}
	return create.RowsAffected > 0, nil
}

func (r *Repository) CheckOut(ctx context.Context, unitID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("unit_id = ?", strings.TrimSpace(unitID)).
		Delete(&attendanceModel{})
	if result.Error != nil {
		return false, r.logError("voting_rights_repo_check_out_failed", result.Error,
			"unit_id", strings.TrimSpace(unitID),
		)
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) ListAttendanceByAssembly(ctx context.Context, assemblyID string) ([]entities.AttendanceLog, error) {
	var rows []attendanceModel
	if err := r.db.WithContext(ctx).
		Where("assembly_id = ?", strings.TrimSpace(assemblyID)).
		Order("unit_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("voting_rights_repo_list_attendance_failed", err,
			"assembly_id", strings.TrimSpace(assemblyID),
		)
	}
	items := make([]entities.AttendanceLog, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}
