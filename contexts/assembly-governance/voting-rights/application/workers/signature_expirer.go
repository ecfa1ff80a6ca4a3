package workers

import (
	"context"
	"log/slog"
	"time"

	application "assembly/contexts/assembly-governance/voting-rights/application"
	"assembly/contexts/assembly-governance/voting-rights/domain/entities"
	"assembly/contexts/assembly-governance/voting-rights/ports"
)

// SignatureFinalizer is satisfied by commands.DelegationUseCase.
type SignatureFinalizer interface {
	ExpireSignature(ctx context.Context, signature entities.DigitalSignature, reason string) (bool, error)
}

// SignatureExpirer sweeps PENDING signatures whose code window lapsed and
// expires them together with their proxies.
type SignatureExpirer struct {
	Signatures ports.SignatureStore
	Delegation SignatureFinalizer
	Clock      ports.Clock
	BatchSize  int
	Logger     *slog.Logger
}

func (e SignatureExpirer) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(e.Logger)
	now := time.Now().UTC()
	if e.Clock != nil {
		now = e.Clock.Now().UTC()
	}

	lapsed, err := e.Signatures.ListLapsedSignatures(ctx, now, e.BatchSize)
	if err != nil {
		logger.Error("signature expiry sweep failed",
			"event", "voting_rights_signature_expiry_failed",
			"module", "assembly-governance/voting-rights",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	expired := 0
	for _, signature := range lapsed {
		changed, err := e.Delegation.ExpireSignature(ctx, signature, "otp_window_lapsed")
		if err != nil {
			logger.Error("signature expiry failed",
				"event", "voting_rights_signature_expire_failed",
				"module", "assembly-governance/voting-rights",
				"layer", "worker",
				"signature_id", signature.SignatureID,
				"error", err.Error(),
			)
			return err
		}
		if changed {
			expired++
		}
	}
	if expired > 0 {
		logger.Info("signature expiry sweep completed",
			"event", "voting_rights_signature_expiry_completed",
			"module", "assembly-governance/voting-rights",
			"layer", "worker",
			"expired_count", expired,
		)
	}
	return nil
}
