package commands

import (
	"context"
	"strings"

	application "assembly/contexts/assembly-governance/voting-rights/application"
	"assembly/contexts/assembly-governance/voting-rights/domain/entities"
	domainerrors "assembly/contexts/assembly-governance/voting-rights/domain/errors"
	"assembly/contexts/assembly-governance/voting-rights/ports"

	"go.opentelemetry.io/otel/attribute"
)

type RegisterManualDelegationCommand struct {
	ActorID                string
	PrincipalID            string
	RepresentativeID       string
	RepresentativeDocument string
	ExternalName           string
	Type                   entities.ProxyType
	DocumentRef            string
}

type RegisterManualDelegationResult struct {
	Proxy            entities.Proxy
	UnitsTransferred int64
	RevokedProxyIDs  []string
	Warnings         []string
}

// RegisterManualDelegation records a paper or operator-entered proxy that is
// approved on creation.
func (uc DelegationUseCase) RegisterManualDelegation(
	ctx context.Context,
	cmd RegisterManualDelegationCommand,
) (RegisterManualDelegationResult, error) {
	ctx, span := startSpan(ctx, "register_manual_delegation",
		attribute.String("principal_id", cmd.PrincipalID),
	)
	defer span.End()

	logger := application.ResolveLogger(uc.Logger)
	switch cmd.Type {
	case entities.ProxyTypePDF:
		if strings.TrimSpace(cmd.DocumentRef) == "" {
			return RegisterManualDelegationResult{}, domainerrors.ErrDocumentRequired
		}
	case entities.ProxyTypeOperator:
	default:
		return RegisterManualDelegationResult{}, domainerrors.ErrInvalidProxyType
	}

	actorID := strings.TrimSpace(cmd.ActorID)
	principalID := strings.TrimSpace(cmd.PrincipalID)
	if actorID != principalID || cmd.Type == entities.ProxyTypeOperator {
		if _, err := requireElevated(ctx, uc.Repo, actorID); err != nil {
			return RegisterManualDelegationResult{}, err
		}
	}

	principal, err := uc.loadPrincipal(ctx, uc.Repo, principalID)
	if err != nil {
		return RegisterManualDelegationResult{}, err
	}
	representative, err := uc.resolveRepresentative(
		ctx,
		uc.Repo,
		principal.identity,
		cmd.RepresentativeID,
		cmd.RepresentativeDocument,
		cmd.ExternalName,
	)
	if err != nil {
		return RegisterManualDelegationResult{}, err
	}
	proxyID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return RegisterManualDelegationResult{}, err
	}

	var (
		result  RegisterManualDelegationResult
		revoked []entities.Proxy
	)
	err = uc.Repo.WithinTx(ctx, func(tx ports.Store) error {
		now := uc.now()
		if representative.identityID == "" {
			identity, err := uc.Identities.EnsureIdentityForDocument(ctx, tx, representative.document, representative.name)
			if err != nil {
				return err
			}
			representative.identityID = identity.IdentityID
		}
		if representative.identityID == principal.identity.IdentityID {
			return domainerrors.ErrSelfDelegation
		}
		revoked, err = uc.supersede(ctx, tx, principal.identity, now)
		if err != nil {
			return err
		}
		proxy := entities.Proxy{
			ProxyID:           proxyID,
			AssemblyID:        principal.assemblyID(),
			PrincipalID:       principal.identity.IdentityID,
			RepresentativeID:  representative.identityID,
			ExternalName:      representative.name,
			ExternalDocNumber: representative.document,
			Type:              cmd.Type,
			Status:            entities.ProxyStatusApproved,
			DocumentURL:       strings.TrimSpace(cmd.DocumentRef),
			RegisteredBy:      actorID,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := tx.CreateProxy(ctx, proxy); err != nil {
			return err
		}
		moved, err := uc.grant(ctx, tx, principal.identity, proxy, now)
		if err != nil {
			return err
		}
		result = RegisterManualDelegationResult{
			Proxy:            proxy,
			UnitsTransferred: moved,
			RevokedProxyIDs:  proxyIDs(revoked),
		}
		return nil
	})
	if err != nil {
		logger.Error("manual delegation failed",
			"event", "voting_rights_manual_delegation_failed",
			"module", "assembly-governance/voting-rights",
			"layer", "application",
			"principal_id", principalID,
			"actor_id", actorID,
			"error", err.Error(),
		)
		return RegisterManualDelegationResult{}, err
	}

	metrics := application.ResolveMetrics(uc.Metrics)
	metrics.DelegationTransitioned(entities.ProxyStatusApproved)
	for range revoked {
		metrics.DelegationTransitioned(entities.ProxyStatusRevoked)
	}
	result.Warnings = uc.deleteArtifacts(ctx, revoked)

	logger.Info("manual delegation registered",
		"event", "voting_rights_manual_delegation_registered",
		"module", "assembly-governance/voting-rights",
		"layer", "application",
		"proxy_id", result.Proxy.ProxyID,
		"principal_id", result.Proxy.PrincipalID,
		"representative_id", result.Proxy.RepresentativeID,
		"type", string(result.Proxy.Type),
		"actor_id", actorID,
		"units_transferred", result.UnitsTransferred,
	)
	return result, nil
}
