package commands

import (
	"context"
	"log/slog"
	"time"

	application "assembly/contexts/assembly-governance/voting-rights/application"
	"assembly/contexts/assembly-governance/voting-rights/domain/entities"
	"assembly/contexts/assembly-governance/voting-rights/ports"
	contractsv1 "assembly/contracts/gen/events/v1"
)

// RepresentationLedger is the only writer of Unit.CurrentRepresentativeID.
// Every method runs against the caller's transaction.
type RepresentationLedger struct {
	Identities IdentityResolver
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

// TransferRights moves every unit registered under owner and currently
// represented by from over to to. Moving zero units is a valid outcome.
func (l RepresentationLedger) TransferRights(
	ctx context.Context,
	tx ports.Store,
	owner entities.DocumentID,
	from string,
	to string,
) (int64, error) {
	logger := application.ResolveLogger(l.Logger)
	if from == to {
		return 0, nil
	}
	moved, err := tx.TransferRepresentation(ctx, owner, from, to)
	if err != nil {
		logger.Error("representation transfer failed",
			"event", "voting_rights_ledger_transfer_failed",
			"module", "assembly-governance/voting-rights",
			"layer", "application",
			"from_identity_id", from,
			"to_identity_id", to,
			"error", err.Error(),
		)
		return 0, err
	}
	if moved == 0 {
		logger.Debug("representation transfer matched no units",
			"event", "voting_rights_ledger_transfer_noop",
			"module", "assembly-governance/voting-rights",
			"layer", "application",
			"from_identity_id", from,
			"to_identity_id", to,
		)
		return 0, nil
	}
	if err := appendEvent(ctx, tx, l.IDGen, contractsv1.EventRepresentationMove, "owner_document_id", owner.String(), l.now(), map[string]any{
		"owner_document_id": owner.String(),
		"from_identity_id":  from,
		"to_identity_id":    to,
		"units_moved":       moved,
	}); err != nil {
		return 0, err
	}
	logger.Info("representation transferred",
		"event", "voting_rights_ledger_transferred",
		"module", "assembly-governance/voting-rights",
		"layer", "application",
		"from_identity_id", from,
		"to_identity_id", to,
		"units_moved", moved,
	)
	return moved, nil
}

// RestoreRights returns owner's units held by representative to the owner.
func (l RepresentationLedger) RestoreRights(
	ctx context.Context,
	tx ports.Store,
	owner entities.DocumentID,
	representative string,
) (int64, error) {
	ownerID, err := l.Identities.OwnerIdentityOf(ctx, tx, owner)
	if err != nil {
		return 0, err
	}
	return l.TransferRights(ctx, tx, owner, representative, ownerID)
}

func (l RepresentationLedger) now() time.Time {
	if l.Clock == nil {
		return time.Now().UTC()
	}
	return l.Clock.Now().UTC()
}
