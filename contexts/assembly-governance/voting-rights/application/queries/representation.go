package queries

import (
	"context"
	"log/slog"
	"strings"

	"assembly/contexts/assembly-governance/voting-rights/domain/entities"
	domainerrors "assembly/contexts/assembly-governance/voting-rights/domain/errors"
	"assembly/contexts/assembly-governance/voting-rights/ports"

	"github.com/shopspring/decimal"
)

type Representation struct {
	IdentityID    string
	AssemblyID    string
	Units         []entities.Unit
	TotalWeight   decimal.Decimal
	ActiveProxies []entities.Proxy
}

type RepresentationUseCase struct {
	Units   ports.UnitStore
	Proxies ports.ProxyStore
	Logger  *slog.Logger
}

// GetRepresentation lists the units an identity would vote for right now in
// an assembly, plus the identity's own APPROVED proxy when it delegated.
func (uc RepresentationUseCase) GetRepresentation(
	ctx context.Context,
	assemblyID string,
	identityID string,
) (Representation, error) {
	assemblyID = strings.TrimSpace(assemblyID)
	identityID = strings.TrimSpace(identityID)
	if assemblyID == "" || identityID == "" {
		return Representation{}, domainerrors.ErrInvalidInput
	}
	units, err := uc.Units.ListUnitsByRepresentative(ctx, assemblyID, identityID)
	if err != nil {
		return Representation{}, err
	}
	proxies, err := uc.Proxies.ListProxiesByPrincipal(ctx, identityID, entities.ProxyStatusApproved)
	if err != nil {
		return Representation{}, err
	}
	return Representation{
		IdentityID:    identityID,
		AssemblyID:    assemblyID,
		Units:         units,
		TotalWeight:   entities.SumCoefficients(units),
		ActiveProxies: proxies,
	}, nil
}
