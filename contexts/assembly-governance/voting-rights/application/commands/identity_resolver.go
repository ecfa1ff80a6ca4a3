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
)

// IdentityResolver maps canonical documents to identities, creating the
// account and profile halves on demand.
type IdentityResolver struct {
	Clock  ports.Clock
	Logger *slog.Logger
}

// OwnerIdentityOf resolves the identity that natively owns units registered
// under document.
func (r IdentityResolver) OwnerIdentityOf(ctx context.Context, tx ports.IdentityStore, document entities.DocumentID) (string, error) {
	identity, err := r.EnsureIdentityForDocument(ctx, tx, document, "")
	if err != nil {
		return "", err
	}
	return identity.IdentityID, nil
}

// EnsureIdentityForDocument is a two-phase, replay-safe creation: the
// account is inserted first, then the profile, each skipped when present.
// Either half missing from an earlier partial run is repaired here.
func (r IdentityResolver) EnsureIdentityForDocument(
	ctx context.Context,
	tx ports.IdentityStore,
	document entities.DocumentID,
	fullName string,
) (entities.Identity, error) {
	logger := application.ResolveLogger(r.Logger)
	if document.IsZero() {
		return entities.Identity{}, domainerrors.ErrInvalidDocumentID
	}

	identity, found, err := tx.FindIdentityByDocument(ctx, document)
	if err != nil {
		return entities.Identity{}, err
	}
	if found {
		repaired, err := r.ensureAccount(ctx, tx, identity.IdentityID, document)
		if err != nil {
			return entities.Identity{}, err
		}
		if repaired {
			logger.Warn("ghost identity repaired with missing account",
				"event", "voting_rights_identity_account_repaired",
				"module", "assembly-governance/voting-rights",
				"layer", "application",
				"identity_id", identity.IdentityID,
			)
		}
		return identity, nil
	}

	identityID := entities.SyntheticIdentityID(document)
	accountCreated, err := r.ensureAccount(ctx, tx, identityID, document)
	if err != nil {
		return entities.Identity{}, err
	}
	created, err := tx.CreateIdentity(ctx, entities.Identity{
		IdentityID: identityID,
		DocumentID: document,
		FullName:   strings.TrimSpace(fullName),
		Role:       entities.RoleOwner,
		CreatedAt:  r.now(),
	})
	if err != nil {
		return entities.Identity{}, err
	}
	if !created {
		// A concurrent creator or a pre-existing profile won; read it back.
		identity, found, err = tx.FindIdentityByDocument(ctx, document)
		if err != nil {
			return entities.Identity{}, err
		}
		if !found {
			identity, err = tx.GetIdentity(ctx, identityID)
			if err != nil {
				return entities.Identity{}, err
			}
		}
		return identity, nil
	}
	if !accountCreated {
		logger.Warn("ghost identity repaired with missing profile",
			"event", "voting_rights_identity_profile_repaired",
			"module", "assembly-governance/voting-rights",
			"layer", "application",
			"identity_id", identityID,
		)
	} else {
		logger.Info("lazy delegate identity created",
			"event", "voting_rights_identity_created",
			"module", "assembly-governance/voting-rights",
			"layer", "application",
			"identity_id", identityID,
		)
	}
	return tx.GetIdentity(ctx, identityID)
}

func (r IdentityResolver) ensureAccount(
	ctx context.Context,
	tx ports.IdentityStore,
	identityID string,
	document entities.DocumentID,
) (bool, error) {
	_, found, err := tx.GetAccount(ctx, identityID)
	if err != nil || found {
		return false, err
	}
	return tx.CreateAccount(ctx, entities.Account{
		AccountID: identityID,
		Handle:    entities.SyntheticHandle(document),
		CreatedAt: r.now(),
	})
}

func (r IdentityResolver) now() time.Time {
	if r.Clock == nil {
		return time.Now().UTC()
	}
	return r.Clock.Now().UTC()
}
