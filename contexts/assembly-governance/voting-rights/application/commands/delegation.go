package commands

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "assembly/contexts/assembly-governance/voting-rights/application"
	"assembly/contexts/assembly-governance/voting-rights/domain/entities"
	domainerrors "assembly/contexts/assembly-governance/voting-rights/domain/errors"
	"assembly/contexts/assembly-governance/voting-rights/ports"
	contractsv1 "assembly/contracts/gen/events/v1"

	"golang.org/x/text/unicode/norm"
)

const (
	defaultOTPTTL          = 30 * time.Minute
	defaultMaxOTPAttempts  = 5
	templateDelegationOTP  = "delegation_otp"
	templateDelegationDone = "delegation_confirmed"
)

// DelegationUseCase runs the proxy state machine:
// PENDING -> {APPROVED, EXPIRED}, APPROVED -> REVOKED.
// Every representation change goes through Ledger inside the same
// transaction as the proxy status change that causes it.
type DelegationUseCase struct {
	Repo          ports.Repository
	Ledger        RepresentationLedger
	Identities    IdentityResolver
	Notifications ports.NotificationGateway
	Templates     ports.TemplateRenderer
	Artifacts     ports.ArtifactStorage
	OTP           ports.OTPGenerator
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	Metrics       ports.Metrics
	OTPTTL        time.Duration
	MaxAttempts   int
	Logger        *slog.Logger
}

type principalContext struct {
	identity entities.Identity
	units    []entities.Unit
}

func (p principalContext) assemblyID() string {
	if len(p.units) == 0 {
		return ""
	}
	return p.units[0].AssemblyID
}

type representativeRef struct {
	identityID string
	document   entities.DocumentID
	name       string
}

// loadPrincipal requires native ownership of at least one unit, which keeps
// delegation to a single hop.
func (uc DelegationUseCase) loadPrincipal(ctx context.Context, store ports.Store, principalID string) (principalContext, error) {
	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		return principalContext{}, domainerrors.ErrInvalidInput
	}
	identity, err := store.GetIdentity(ctx, principalID)
	if err != nil {
		return principalContext{}, err
	}
	if identity.DocumentID.IsZero() {
		return principalContext{}, domainerrors.ErrNoOwnedUnits
	}
	units, err := store.ListUnitsByOwner(ctx, identity.DocumentID)
	if err != nil {
		return principalContext{}, err
	}
	if len(units) == 0 {
		return principalContext{}, domainerrors.ErrNoOwnedUnits
	}
	return principalContext{identity: identity, units: units}, nil
}

// resolveRepresentative accepts an identity id or a raw document number.
// A document with no identity yet stays unresolved until approval.
func (uc DelegationUseCase) resolveRepresentative(
	ctx context.Context,
	store ports.Store,
	principal entities.Identity,
	representativeID string,
	representativeDocument string,
	externalName string,
) (representativeRef, error) {
	ref := representativeRef{name: strings.TrimSpace(externalName)}
	switch {
	case strings.TrimSpace(representativeID) != "":
		identity, err := store.GetIdentity(ctx, strings.TrimSpace(representativeID))
		if err != nil {
			return representativeRef{}, err
		}
		ref.identityID = identity.IdentityID
		ref.document = identity.DocumentID
		if ref.name == "" {
			ref.name = identity.FullName
		}
	case strings.TrimSpace(representativeDocument) != "":
		document, err := entities.NewDocumentID(representativeDocument)
		if err != nil {
			return representativeRef{}, err
		}
		ref.document = document
		identity, found, err := store.FindIdentityByDocument(ctx, document)
		if err != nil {
			return representativeRef{}, err
		}
		if found {
			ref.identityID = identity.IdentityID
			if ref.name == "" {
				ref.name = identity.FullName
			}
		}
	default:
		return representativeRef{}, domainerrors.ErrInvalidInput
	}
	if ref.identityID == principal.IdentityID || (!ref.document.IsZero() && ref.document == principal.DocumentID) {
		return representativeRef{}, domainerrors.ErrSelfDelegation
	}
	return ref, nil
}

// supersede revokes every APPROVED proxy of the principal and hands the
// affected units back to the owner before a new grant is applied.
func (uc DelegationUseCase) supersede(
	ctx context.Context,
	tx ports.Store,
	principal entities.Identity,
	now time.Time,
) ([]entities.Proxy, error) {
	approved, err := tx.ListProxiesByPrincipal(ctx, principal.IdentityID, entities.ProxyStatusApproved)
	if err != nil {
		return nil, err
	}
	revoked := make([]entities.Proxy, 0, len(approved))
	for _, previous := range approved {
		if previous.RepresentativeID != "" {
			if _, err := uc.Ledger.RestoreRights(ctx, tx, principal.DocumentID, previous.RepresentativeID); err != nil {
				return nil, err
			}
		}
		if err := tx.TransitionProxy(ctx, previous.ProxyID, entities.ProxyStatusApproved, entities.ProxyStatusRevoked, now); err != nil {
			return nil, err
		}
		if err := appendEvent(ctx, tx, uc.IDGen, contractsv1.EventProxyRevoked, "principal_id", principal.IdentityID, now, map[string]any{
			"proxy_id":          previous.ProxyID,
			"principal_id":      principal.IdentityID,
			"representative_id": previous.RepresentativeID,
			"reason":            "superseded",
		}); err != nil {
			return nil, err
		}
		previous.Status = entities.ProxyStatusRevoked
		revoked = append(revoked, previous)
	}
	return revoked, nil
}

// grant moves the principal's natively held units to the proxy's
// representative. The proxy must already be APPROVED in tx. Nothing moving
// fails the grant so the caller's transaction rolls the approval back.
func (uc DelegationUseCase) grant(
	ctx context.Context,
	tx ports.Store,
	principal entities.Identity,
	proxy entities.Proxy,
	now time.Time,
) (int64, error) {
	moved, err := uc.Ledger.TransferRights(ctx, tx, principal.DocumentID, principal.IdentityID, proxy.RepresentativeID)
	if err != nil {
		return 0, err
	}
	if moved == 0 {
		return 0, domainerrors.ErrNoTransferableUnits
	}
	if err := appendEvent(ctx, tx, uc.IDGen, contractsv1.EventProxyApproved, "principal_id", principal.IdentityID, now, map[string]any{
		"proxy_id":          proxy.ProxyID,
		"assembly_id":       proxy.AssemblyID,
		"principal_id":      principal.IdentityID,
		"representative_id": proxy.RepresentativeID,
		"type":              string(proxy.Type),
		"units_moved":       moved,
	}); err != nil {
		return 0, err
	}
	return moved, nil
}

// ExpireSignature moves a lapsed PENDING signature and its proxy to EXPIRED.
// It reports false when another path already finalized the signature.
func (uc DelegationUseCase) ExpireSignature(ctx context.Context, signature entities.DigitalSignature, reason string) (bool, error) {
	var expired bool
	err := uc.Repo.WithinTx(ctx, func(tx ports.Store) error {
		var err error
		expired, err = uc.expireInTx(ctx, tx, signature, reason)
		return err
	})
	if err != nil {
		return false, err
	}
	if expired {
		application.ResolveMetrics(uc.Metrics).DelegationTransitioned(entities.ProxyStatusExpired)
		application.ResolveLogger(uc.Logger).Info("delegation expired",
			"event", "voting_rights_delegation_expired",
			"module", "assembly-governance/voting-rights",
			"layer", "application",
			"signature_id", signature.SignatureID,
			"proxy_id", signature.ProxyID,
			"reason", reason,
		)
	}
	return expired, nil
}

func (uc DelegationUseCase) expireInTx(ctx context.Context, tx ports.Store, signature entities.DigitalSignature, reason string) (bool, error) {
	changed, err := tx.ExpireSignature(ctx, signature.SignatureID)
	if err != nil || !changed {
		return false, err
	}
	now := uc.now()
	err = tx.TransitionProxy(ctx, signature.ProxyID, entities.ProxyStatusPending, entities.ProxyStatusExpired, now)
	if err != nil && !errors.Is(err, domainerrors.ErrAlreadyProcessed) {
		return false, err
	}
	if err := appendEvent(ctx, tx, uc.IDGen, contractsv1.EventProxyExpired, "principal_id", signature.PrincipalID, now, map[string]any{
		"proxy_id":     signature.ProxyID,
		"signature_id": signature.SignatureID,
		"principal_id": signature.PrincipalID,
		"reason":       reason,
	}); err != nil {
		return false, err
	}
	return true, nil
}

// deleteArtifacts runs after commit. Failures become warnings.
func (uc DelegationUseCase) deleteArtifacts(ctx context.Context, proxies []entities.Proxy) []string {
	if uc.Artifacts == nil {
		return nil
	}
	logger := application.ResolveLogger(uc.Logger)
	var warnings []string
	for _, proxy := range proxies {
		if strings.TrimSpace(proxy.DocumentURL) == "" {
			continue
		}
		if err := uc.Artifacts.Delete(ctx, proxy.DocumentURL); err != nil {
			logger.Warn("delegation artifact delete failed",
				"event", "voting_rights_artifact_delete_failed",
				"module", "assembly-governance/voting-rights",
				"layer", "application",
				"proxy_id", proxy.ProxyID,
				"error", err.Error(),
			)
			warnings = append(warnings, "artifact_delete_failed:"+proxy.ProxyID)
		}
	}
	return warnings
}

func (uc DelegationUseCase) ttl() time.Duration {
	if uc.OTPTTL <= 0 {
		return defaultOTPTTL
	}
	return uc.OTPTTL
}

func (uc DelegationUseCase) maxAttempts() int {
	if uc.MaxAttempts <= 0 {
		return defaultMaxOTPAttempts
	}
	return uc.MaxAttempts
}

func (uc DelegationUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}

func proxyIDs(proxies []entities.Proxy) []string {
	ids := make([]string, 0, len(proxies))
	for _, proxy := range proxies {
		ids = append(ids, proxy.ProxyID)
	}
	return ids
}

// normalizeCode folds compatibility characters and drops whitespace so
// "４８２ ９１３" matches "482913".
func normalizeCode(code string) string {
	folded := norm.NFKC.String(code)
	return strings.ToUpper(strings.Join(strings.Fields(folded), ""))
}

func codesMatch(expected string, provided string) bool {
	a := normalizeCode(expected)
	b := normalizeCode(provided)
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
