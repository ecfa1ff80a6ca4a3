package postgresadapter

import (
	"context"
	"errors"
	"strings"

	"assembly/contexts/assembly-governance/voting-rights/domain/entities"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ImportRoll loads the coefficient roll and owner profiles. A unit without a
// representative starts out represented by its owner; existing units keep
// their current representative so a re-import never undoes a proxy.
func (r *Repository) ImportRoll(ctx context.Context, units []entities.Unit, identities []entities.Identity) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owners := make(map[entities.DocumentID]string, len(identities))
		for _, identity := range identities {
			account := accountModel{
				AccountID: strings.TrimSpace(identity.IdentityID),
				Handle:    strings.TrimSpace(identity.IdentityID),
				CreatedAt: identity.CreatedAt.UTC(),
			}
			if account.CreatedAt.IsZero() {
				account.CreatedAt = r.now()
			}
			if identity.Email != "" {
				account.Handle = strings.ToLower(strings.TrimSpace(identity.Email))
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&account).Error; err != nil {
				return r.logError("voting_rights_repo_import_account_failed", err, "identity_id", account.AccountID)
			}
			row := identityModelFromEntity(identity)
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "identity_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"full_name", "email", "phone", "role"}),
			}).Create(&row).Error; err != nil {
				return r.logError("voting_rights_repo_import_identity_failed", err, "identity_id", row.IdentityID)
			}
			if !identity.DocumentID.IsZero() {
				owners[identity.DocumentID] = row.IdentityID
			}
		}
		for _, unit := range units {
			row := unitModelFromEntity(unit)
			if row.CurrentRepresentativeID == "" {
				ownerID, err := r.importOwnerIdentity(tx, unit.OwnerDocumentID, owners)
				if err != nil {
					return err
				}
				row.CurrentRepresentativeID = ownerID
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "unit_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"assembly_id",
					"label",
					"coefficient",
					"owner_document_id",
					"owner_email",
					"owner_phone",
				}),
			}).Create(&row).Error; err != nil {
				return r.logError("voting_rights_repo_import_unit_failed", err, "unit_id", row.UnitID)
			}
			// Rows left unrepresented by an earlier import pick up the default.
			if err := tx.Model(&unitModel{}).
				Where("unit_id = ? AND (current_representative_id = '' OR current_representative_id IS NULL)", row.UnitID).
				Update("current_representative_id", row.CurrentRepresentativeID).Error; err != nil {
				return r.logError("voting_rights_repo_import_unit_default_representative_failed", err, "unit_id", row.UnitID)
			}
		}
		r.logger.Info("voting rights roll imported",
			"event", "voting_rights_roll_imported",
			"module", "assembly-governance/voting-rights",
			"layer", "adapter",
			"units", len(units),
			"identities", len(identities),
		)
		return nil
	})
}

// importOwnerIdentity resolves the identity owning document, creating the
// synthetic owner the delegation flow would derive when none is registered.
func (r *Repository) importOwnerIdentity(
	tx *gorm.DB,
	document entities.DocumentID,
	owners map[entities.DocumentID]string,
) (string, error) {
	if document.IsZero() {
		return "", r.logError("voting_rights_repo_import_unit_missing_owner", errors.New("unit has no owner document"))
	}
	if ownerID, ok := owners[document]; ok {
		return ownerID, nil
	}

	var existing identityModel
	err := tx.Where("document_id = ?", document.String()).First(&existing).Error
	switch {
	case err == nil:
		owners[document] = existing.IdentityID
		return existing.IdentityID, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return "", r.logError("voting_rights_repo_import_owner_lookup_failed", err)
	}

	ownerID := entities.SyntheticIdentityID(document)
	account := accountModel{
		AccountID: ownerID,
		Handle:    entities.SyntheticHandle(document),
		CreatedAt: r.now(),
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&account).Error; err != nil {
		return "", r.logError("voting_rights_repo_import_owner_account_failed", err, "identity_id", ownerID)
	}
	profile := identityModelFromEntity(entities.Identity{
		IdentityID: ownerID,
		DocumentID: document,
		Role:       entities.RoleOwner,
		CreatedAt:  r.now(),
	})
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&profile).Error; err != nil {
		return "", r.logError("voting_rights_repo_import_owner_identity_failed", err, "identity_id", ownerID)
	}
	owners[document] = ownerID
	return ownerID, nil
}
