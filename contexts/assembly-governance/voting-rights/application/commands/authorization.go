package commands

import (
	"context"
	"errors"
	"strings"

	"assembly/contexts/assembly-governance/voting-rights/domain/entities"
	domainerrors "assembly/contexts/assembly-governance/voting-rights/domain/errors"
	"assembly/contexts/assembly-governance/voting-rights/ports"
)

// Authorization checks run in the application layer before any ledger or
// proxy mutation; storage credentials never grant extra rights.

func loadActor(ctx context.Context, identities ports.IdentityStore, actorID string) (entities.Identity, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return entities.Identity{}, domainerrors.ErrForbidden
	}
	actor, err := identities.GetIdentity(ctx, actorID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrIdentityNotFound) {
			return entities.Identity{}, domainerrors.ErrForbidden
		}
		return entities.Identity{}, err
	}
	return actor, nil
}

func requireElevated(ctx context.Context, identities ports.IdentityStore, actorID string) (entities.Identity, error) {
	actor, err := loadActor(ctx, identities, actorID)
	if err != nil {
		return entities.Identity{}, err
	}
	if !actor.Role.Elevated() {
		return entities.Identity{}, domainerrors.ErrElevatedRequired
	}
	return actor, nil
}

func requireAdmin(ctx context.Context, identities ports.IdentityStore, actorID string) (entities.Identity, error) {
	actor, err := loadActor(ctx, identities, actorID)
	if err != nil {
		return entities.Identity{}, err
	}
	if actor.Role != entities.RoleAdmin {
		return entities.Identity{}, domainerrors.ErrForbidden
	}
	return actor, nil
}
