package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	application "assembly/contexts/assembly-governance/voting-rights/application"
	"assembly/contexts/assembly-governance/voting-rights/domain/entities"
	domainerrors "assembly/contexts/assembly-governance/voting-rights/domain/errors"
	"assembly/contexts/assembly-governance/voting-rights/ports"

	"go.opentelemetry.io/otel/attribute"
)

type RequestDigitalDelegationCommand struct {
	PrincipalID            string
	RepresentativeID       string
	RepresentativeDocument string
	ExternalName           string
	IPAddress              string
	UserAgent              string
}

type RequestDigitalDelegationResult struct {
	Proxy             entities.Proxy
	SignatureID       string
	ExpiresAt         time.Time
	DeliveredChannels []string
	Warnings          []ChannelWarning
}

// RequestDigitalDelegation creates a PENDING proxy and signature and sends
// the one-time code. When no channel accepts the code both rows are removed.
func (uc DelegationUseCase) RequestDigitalDelegation(
	ctx context.Context,
	cmd RequestDigitalDelegationCommand,
) (RequestDigitalDelegationResult, error) {
	ctx, span := startSpan(ctx, "request_digital_delegation",
		attribute.String("principal_id", cmd.PrincipalID),
	)
	defer span.End()

	logger := application.ResolveLogger(uc.Logger)

	principal, err := uc.loadPrincipal(ctx, uc.Repo, cmd.PrincipalID)
	if err != nil {
		return RequestDigitalDelegationResult{}, err
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
		return RequestDigitalDelegationResult{}, err
	}
	contact := resolveContact(principal.identity, principal.units)
	if contact.empty() {
		return RequestDigitalDelegationResult{}, domainerrors.ErrNoContactChannel
	}
	if uc.OTP == nil {
		return RequestDigitalDelegationResult{}, fmt.Errorf("%w: otp generator not configured", domainerrors.ErrExternalDependency)
	}
	code, err := uc.OTP.NewCode(ctx)
	if err != nil {
		return RequestDigitalDelegationResult{}, fmt.Errorf("%w: %v", domainerrors.ErrExternalDependency, err)
	}

	proxyID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return RequestDigitalDelegationResult{}, err
	}
	signatureID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return RequestDigitalDelegationResult{}, err
	}
	now := uc.now()
	proxy := entities.Proxy{
		ProxyID:           proxyID,
		AssemblyID:        principal.assemblyID(),
		PrincipalID:       principal.identity.IdentityID,
		RepresentativeID:  representative.identityID,
		ExternalName:      representative.name,
		ExternalDocNumber: representative.document,
		Type:              entities.ProxyTypeDigital,
		Status:            entities.ProxyStatusPending,
		RegisteredBy:      principal.identity.IdentityID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	signature := entities.DigitalSignature{
		SignatureID:  signatureID,
		ProxyID:      proxyID,
		PrincipalID:  principal.identity.IdentityID,
		OTPCode:      code,
		OTPExpiresAt: now.Add(uc.ttl()),
		Status:       entities.SignatureStatusPending,
		IPAddress:    strings.TrimSpace(cmd.IPAddress),
		UserAgent:    strings.TrimSpace(cmd.UserAgent),
		CreatedAt:    now,
	}
	if err := uc.Repo.WithinTx(ctx, func(tx ports.Store) error {
		if err := tx.CreateProxy(ctx, proxy); err != nil {
			return err
		}
		return tx.CreateSignature(ctx, signature)
	}); err != nil {
		logger.Error("delegation request persist failed",
			"event", "voting_rights_delegation_request_failed",
			"module", "assembly-governance/voting-rights",
			"layer", "application",
			"principal_id", proxy.PrincipalID,
			"error", err.Error(),
		)
		return RequestDigitalDelegationResult{}, err
	}

	message, err := uc.renderOTP(ctx, principal.identity, representative, code, signature.OTPExpiresAt)
	if err != nil {
		uc.discardPending(ctx, proxy, signature)
		return RequestDigitalDelegationResult{}, fmt.Errorf("%w: %v", domainerrors.ErrExternalDependency, err)
	}
	outcome := dispatch(ctx, uc.Notifications, uc.Metrics, contact, message)
	if len(outcome.delivered) == 0 {
		uc.discardPending(ctx, proxy, signature)
		logger.Warn("delegation code could not be delivered",
			"event", "voting_rights_otp_dispatch_failed",
			"module", "assembly-governance/voting-rights",
			"layer", "application",
			"principal_id", proxy.PrincipalID,
			"proxy_id", proxy.ProxyID,
			"failures", joinWarnings(outcome.warnings),
		)
		return RequestDigitalDelegationResult{}, fmt.Errorf("%w: %s", domainerrors.ErrOTPDispatchFailed, joinWarnings(outcome.warnings))
	}

	logger.Info("delegation requested",
		"event", "voting_rights_delegation_requested",
		"module", "assembly-governance/voting-rights",
		"layer", "application",
		"principal_id", proxy.PrincipalID,
		"proxy_id", proxy.ProxyID,
		"signature_id", signature.SignatureID,
		"channels", strings.Join(outcome.delivered, ","),
	)
	return RequestDigitalDelegationResult{
		Proxy:             proxy,
		SignatureID:       signature.SignatureID,
		ExpiresAt:         signature.OTPExpiresAt,
		DeliveredChannels: outcome.delivered,
		Warnings:          outcome.warnings,
	}, nil
}

func (uc DelegationUseCase) renderOTP(
	ctx context.Context,
	principal entities.Identity,
	representative representativeRef,
	code string,
	expiresAt time.Time,
) (ports.RenderedMessage, error) {
	if uc.Templates == nil {
		return ports.RenderedMessage{}, errors.New("template renderer not configured")
	}
	return uc.Templates.Render(ctx, templateDelegationOTP, map[string]string{
		"principal_name":      principal.FullName,
		"representative_name": representative.name,
		"representative_doc":  representative.document.String(),
		"code":                code,
		"expires_at":          expiresAt.UTC().Format(time.RFC3339),
		"ttl_minutes":         fmt.Sprintf("%d", int(uc.ttl().Minutes())),
	})
}

// discardPending is the compensation for a request whose code never left.
func (uc DelegationUseCase) discardPending(ctx context.Context, proxy entities.Proxy, signature entities.DigitalSignature) {
	err := uc.Repo.WithinTx(ctx, func(tx ports.Store) error {
		if err := tx.DeletePendingSignature(ctx, signature.SignatureID); err != nil {
			return err
		}
		return tx.DeletePendingProxy(ctx, proxy.ProxyID)
	})
	if err != nil {
		application.ResolveLogger(uc.Logger).Error("pending delegation cleanup failed",
			"event", "voting_rights_delegation_cleanup_failed",
			"module", "assembly-governance/voting-rights",
			"layer", "application",
			"proxy_id", proxy.ProxyID,
			"signature_id", signature.SignatureID,
			"error", err.Error(),
		)
	}
}
