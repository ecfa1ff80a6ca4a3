package commands

import (
	"context"
	"strings"

	application "assembly/contexts/assembly-governance/voting-rights/application"
	"assembly/contexts/assembly-governance/voting-rights/domain/entities"
	domainerrors "assembly/contexts/assembly-governance/voting-rights/domain/errors"
	"assembly/contexts/assembly-governance/voting-rights/ports"
	contractsv1 "assembly/contracts/gen/events/v1"

	"go.opentelemetry.io/otel/attribute"
)

type RevokeDelegationCommand struct {
	ProxyID     string
	PrincipalID string
}

type RevokeDelegationResult struct {
	Proxy         entities.Proxy
	UnitsRestored int64
	Warnings      []string
}

// RevokeDelegation lets a principal withdraw an APPROVED proxy. Units go back
// to the principal only if the representative still holds them.
func (uc DelegationUseCase) RevokeDelegation(ctx context.Context, cmd RevokeDelegationCommand) (RevokeDelegationResult, error) {
	ctx, span := startSpan(ctx, "revoke_delegation",
		attribute.String("proxy_id", cmd.ProxyID),
	)
	defer span.End()

	logger := application.ResolveLogger(uc.Logger)
	principalID := strings.TrimSpace(cmd.PrincipalID)

	proxy, err := uc.Repo.GetProxy(ctx, strings.TrimSpace(cmd.ProxyID))
	if err != nil {
		return RevokeDelegationResult{}, err
	}
	if principalID == "" || proxy.PrincipalID != principalID {
		return RevokeDelegationResult{}, domainerrors.ErrNotProxyOwner
	}
	if proxy.Status != entities.ProxyStatusApproved {
		return RevokeDelegationResult{}, domainerrors.ErrAlreadyProcessed
	}

	var restored int64
	err = uc.Repo.WithinTx(ctx, func(tx ports.Store) error {
		now := uc.now()
		principal, err := tx.GetIdentity(ctx, proxy.PrincipalID)
		if err != nil {
			return err
		}
		if err := tx.TransitionProxy(ctx, proxy.ProxyID, entities.ProxyStatusApproved, entities.ProxyStatusRevoked, now); err != nil {
			return err
		}
		if proxy.RepresentativeID != "" {
			restored, err = uc.Ledger.RestoreRights(ctx, tx, principal.DocumentID, proxy.RepresentativeID)
			if err != nil {
				return err
			}
		}
		proxy.Status = entities.ProxyStatusRevoked
		proxy.UpdatedAt = now
		return appendEvent(ctx, tx, uc.IDGen, contractsv1.EventProxyRevoked, "principal_id", proxy.PrincipalID, now, map[string]any{
			"proxy_id":          proxy.ProxyID,
			"principal_id":      proxy.PrincipalID,
			"representative_id": proxy.RepresentativeID,
			"reason":            "principal_revoked",
			"units_restored":    restored,
		})
	})
	if err != nil {
		logger.Error("delegation revoke failed",
			"event", "voting_rights_delegation_revoke_failed",
			"module", "assembly-governance/voting-rights",
			"layer", "application",
			"proxy_id", proxy.ProxyID,
			"error", err.Error(),
		)
		return RevokeDelegationResult{}, err
	}

	application.ResolveMetrics(uc.Metrics).DelegationTransitioned(entities.ProxyStatusRevoked)
	warnings := uc.deleteArtifacts(ctx, []entities.Proxy{proxy})
	logger.Info("delegation revoked",
		"event", "voting_rights_delegation_revoked",
		"module", "assembly-governance/voting-rights",
		"layer", "application",
		"proxy_id", proxy.ProxyID,
		"principal_id", proxy.PrincipalID,
		"units_restored", restored,
	)
	return RevokeDelegationResult{Proxy: proxy, UnitsRestored: restored, Warnings: warnings}, nil
}
