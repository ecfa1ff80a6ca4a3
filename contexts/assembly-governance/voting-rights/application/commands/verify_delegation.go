package commands

import (
	"context"
	"errors"
	"strings"

	application "assembly/contexts/assembly-governance/voting-rights/application"
	"assembly/contexts/assembly-governance/voting-rights/domain/entities"
	domainerrors "assembly/contexts/assembly-governance/voting-rights/domain/errors"
	"assembly/contexts/assembly-governance/voting-rights/domain/services"
	"assembly/contexts/assembly-governance/voting-rights/ports"

	"go.opentelemetry.io/otel/attribute"
)

type VerifyDigitalDelegationCommand struct {
	PrincipalID string
	SignatureID string
	Code        string
	IPAddress   string
	UserAgent   string
}

type VerifyDigitalDelegationResult struct {
	Proxy            entities.Proxy
	DocumentHash     string
	UnitsTransferred int64
	RevokedProxyIDs  []string
	Warnings         []string
}

// VerifyDigitalDelegation checks the one-time code and, on success, approves
// the proxy and transfers the principal's units in a single transaction.
func (uc DelegationUseCase) VerifyDigitalDelegation(
	ctx context.Context,
	cmd VerifyDigitalDelegationCommand,
) (VerifyDigitalDelegationResult, error) {
	ctx, span := startSpan(ctx, "verify_digital_delegation",
		attribute.String("signature_id", cmd.SignatureID),
	)
	defer span.End()

	logger := application.ResolveLogger(uc.Logger)
	principalID := strings.TrimSpace(cmd.PrincipalID)

	signature, err := uc.Repo.GetSignature(ctx, strings.TrimSpace(cmd.SignatureID))
	if err != nil {
		return VerifyDigitalDelegationResult{}, err
	}
	// Another principal's signature is reported as missing.
	if principalID == "" || signature.PrincipalID != principalID {
		return VerifyDigitalDelegationResult{}, domainerrors.ErrSignatureNotFound
	}
	if signature.Status != entities.SignatureStatusPending {
		return VerifyDigitalDelegationResult{}, domainerrors.ErrAlreadyProcessed
	}
	if signature.ExpiredAt(uc.now()) {
		if _, err := uc.ExpireSignature(ctx, signature, "otp_window_lapsed"); err != nil {
			return VerifyDigitalDelegationResult{}, err
		}
		return VerifyDigitalDelegationResult{}, domainerrors.ErrOTPExpired
	}
	if !codesMatch(signature.OTPCode, cmd.Code) {
		return VerifyDigitalDelegationResult{}, uc.rejectCode(ctx, signature)
	}

	var (
		result    VerifyDigitalDelegationResult
		principal entities.Identity
		revoked   []entities.Proxy
	)
	err = uc.Repo.WithinTx(ctx, func(tx ports.Store) error {
		now := uc.now()
		proxy, err := tx.GetProxy(ctx, signature.ProxyID)
		if err != nil {
			return err
		}
		if proxy.Status != entities.ProxyStatusPending {
			return domainerrors.ErrAlreadyProcessed
		}
		principal, err = tx.GetIdentity(ctx, signature.PrincipalID)
		if err != nil {
			return err
		}
		if proxy.RepresentativeID == "" {
			representative, err := uc.Identities.EnsureIdentityForDocument(ctx, tx, proxy.ExternalDocNumber, proxy.ExternalName)
			if err != nil {
				return err
			}
			if err := tx.SetProxyRepresentative(ctx, proxy.ProxyID, representative.IdentityID, now); err != nil {
				return err
			}
			proxy.RepresentativeID = representative.IdentityID
		}
		if proxy.RepresentativeID == principal.IdentityID {
			return domainerrors.ErrSelfDelegation
		}

		hash, payload, err := services.DocumentHash(services.SignedPayload{
			ProxyID:          proxy.ProxyID,
			PrincipalID:      principal.IdentityID,
			RepresentativeID: proxy.RepresentativeID,
			ExternalName:     proxy.ExternalName,
			IPAddress:        firstNonEmpty(cmd.IPAddress, signature.IPAddress),
			UserAgent:        firstNonEmpty(cmd.UserAgent, signature.UserAgent),
			SignedAt:         now,
		})
		if err != nil {
			return err
		}
		if err := tx.MarkSignatureVerified(ctx, ports.SignatureVerification{
			SignatureID:   signature.SignatureID,
			DocumentHash:  hash,
			SignedPayload: payload,
			IPAddress:     firstNonEmpty(cmd.IPAddress, signature.IPAddress),
			UserAgent:     firstNonEmpty(cmd.UserAgent, signature.UserAgent),
			VerifiedAt:    now,
		}); err != nil {
			return err
		}

		revoked, err = uc.supersede(ctx, tx, principal, now)
		if err != nil {
			return err
		}
		if err := tx.TransitionProxy(ctx, proxy.ProxyID, entities.ProxyStatusPending, entities.ProxyStatusApproved, now); err != nil {
			return err
		}
		proxy.Status = entities.ProxyStatusApproved
		proxy.UpdatedAt = now
		moved, err := uc.grant(ctx, tx, principal, proxy, now)
		if err != nil {
			return err
		}
		result = VerifyDigitalDelegationResult{
			Proxy:            proxy,
			DocumentHash:     hash,
			UnitsTransferred: moved,
			RevokedProxyIDs:  proxyIDs(revoked),
		}
		return nil
	})
	if err != nil {
		logger.Error("delegation verification failed",
			"event", "voting_rights_delegation_verify_failed",
			"module", "assembly-governance/voting-rights",
			"layer", "application",
			"signature_id", signature.SignatureID,
			"proxy_id", signature.ProxyID,
			"error", err.Error(),
		)
		return VerifyDigitalDelegationResult{}, err
	}

	metrics := application.ResolveMetrics(uc.Metrics)
	metrics.DelegationTransitioned(entities.ProxyStatusApproved)
	for range revoked {
		metrics.DelegationTransitioned(entities.ProxyStatusRevoked)
	}
	result.Warnings = append(result.Warnings, uc.deleteArtifacts(ctx, revoked)...)
	result.Warnings = append(result.Warnings, uc.confirm(ctx, principal, result.Proxy, result.DocumentHash)...)

	logger.Info("delegation approved",
		"event", "voting_rights_delegation_approved",
		"module", "assembly-governance/voting-rights",
		"layer", "application",
		"proxy_id", result.Proxy.ProxyID,
		"principal_id", result.Proxy.PrincipalID,
		"representative_id", result.Proxy.RepresentativeID,
		"units_transferred", result.UnitsTransferred,
		"superseded", len(revoked),
	)
	return result, nil
}

// rejectCode counts a wrong code. The attempt is committed even though the
// caller gets an error, and the cap expires the delegation.
func (uc DelegationUseCase) rejectCode(ctx context.Context, signature entities.DigitalSignature) error {
	var (
		attempts  int
		exhausted bool
	)
	err := uc.Repo.WithinTx(ctx, func(tx ports.Store) error {
		var err error
		attempts, err = tx.RecordFailedAttempt(ctx, signature.SignatureID)
		if err != nil {
			return err
		}
		if attempts < uc.maxAttempts() {
			return nil
		}
		exhausted, err = uc.expireInTx(ctx, tx, signature, "otp_attempts_exhausted")
		return err
	})
	if err != nil {
		return err
	}
	application.ResolveLogger(uc.Logger).Warn("delegation code rejected",
		"event", "voting_rights_otp_rejected",
		"module", "assembly-governance/voting-rights",
		"layer", "application",
		"signature_id", signature.SignatureID,
		"attempts", attempts,
		"exhausted", exhausted,
	)
	if exhausted {
		application.ResolveMetrics(uc.Metrics).DelegationTransitioned(entities.ProxyStatusExpired)
		return domainerrors.ErrOTPAttemptsExhausted
	}
	return domainerrors.ErrInvalidCode
}

// confirm notifies the principal after commit. Failures are returned as
// warnings only.
func (uc DelegationUseCase) confirm(
	ctx context.Context,
	principal entities.Identity,
	proxy entities.Proxy,
	documentHash string,
) []string {
	if uc.Templates == nil {
		return nil
	}
	units, err := uc.Repo.ListUnitsByOwner(ctx, principal.DocumentID)
	if err != nil {
		return []string{"confirmation_skipped: " + err.Error()}
	}
	contact := resolveContact(principal, units)
	if contact.empty() {
		return nil
	}
	representativeName := proxy.ExternalName
	if representative, err := uc.Repo.GetIdentity(ctx, proxy.RepresentativeID); err == nil && representative.FullName != "" {
		representativeName = representative.FullName
	} else if err != nil && !errors.Is(err, domainerrors.ErrIdentityNotFound) {
		return []string{"confirmation_skipped: " + err.Error()}
	}
	message, err := uc.Templates.Render(ctx, templateDelegationDone, map[string]string{
		"principal_name":      principal.FullName,
		"representative_name": representativeName,
		"proxy_id":            proxy.ProxyID,
		"document_hash":       documentHash,
	})
	if err != nil {
		return []string{"confirmation_skipped: " + err.Error()}
	}
	outcome := dispatch(ctx, uc.Notifications, nil, contact, message)
	warnings := make([]string, 0, len(outcome.warnings))
	for _, warning := range outcome.warnings {
		warnings = append(warnings, "confirmation_"+warning.Channel+"_failed: "+warning.Error)
	}
	return warnings
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
