package errors

import "errors"

// Kind is the coarse failure taxonomy surfaced to callers next to the
// machine-readable code of each sentinel.
type Kind string

const (
	KindValidation               Kind = "validation"
	KindForbidden                Kind = "forbidden"
	KindNotFound                 Kind = "not_found"
	KindConflict                 Kind = "conflict"
	KindExpired                  Kind = "expired"
	KindExternalDependencyFailed Kind = "external_dependency_failed"
	KindInternal                 Kind = "internal"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidDocumentID = errors.New("document id is empty after normalization")
	ErrSelfDelegation    = errors.New("principal cannot delegate to themselves")
	ErrNoContactChannel  = errors.New("principal has no phone or email on record")
	ErrInvalidCode       = errors.New("verification code does not match")
	ErrDocumentRequired  = errors.New("pdf delegation requires a document reference")
	ErrInvalidProxyType  = errors.New("unsupported proxy type")
	ErrInvalidStatus     = errors.New("unsupported vote status")

	ErrForbidden        = errors.New("actor is not allowed to perform this operation")
	ErrNoOwnedUnits     = errors.New("principal does not own any unit")
	ErrNoVotingRights   = errors.New("identity does not represent any unit in this assembly")
	ErrNotProxyOwner    = errors.New("caller is not the principal of this proxy")
	ErrElevatedRequired = errors.New("operation requires an operator or admin role")

	ErrUnitNotFound      = errors.New("unit not found")
	ErrIdentityNotFound  = errors.New("identity not found")
	ErrProxyNotFound     = errors.New("proxy not found")
	ErrSignatureNotFound = errors.New("signature not found")
	ErrVoteNotFound      = errors.New("vote not found")
	ErrOptionNotFound    = errors.New("option does not belong to this vote")

	ErrAlreadyProcessed    = errors.New("delegation was already processed")
	ErrAlreadyVoted        = errors.New("every represented unit already voted")
	ErrVoteNotOpen         = errors.New("vote is not open")
	ErrVoteClosed          = errors.New("vote is closed")
	ErrInvalidTransition   = errors.New("vote status transition is not allowed")
	ErrOptionsLocked       = errors.New("options can only be edited while the vote is paused")
	ErrOptionHasBallots    = errors.New("option already holds ballots")
	ErrDuplicateApproval   = errors.New("principal already has an approved proxy")
	ErrNoTransferableUnits = errors.New("principal's units are held by another representative")
	ErrConflict            = errors.New("state conflict")

	ErrOTPExpired           = errors.New("verification code expired")
	ErrOTPAttemptsExhausted = errors.New("too many invalid verification attempts")

	ErrOTPDispatchFailed  = errors.New("verification code could not be delivered on any channel")
	ErrExternalDependency = errors.New("external collaborator failed")
)

type descriptor struct {
	err  error
	code string
	kind Kind
}

// ordered so that more specific sentinels win when an error wraps several.
var descriptors = []descriptor{
	{ErrInvalidDocumentID, "invalid_document_id", KindValidation},
	{ErrSelfDelegation, "self_delegation", KindValidation},
	{ErrNoContactChannel, "no_contact_channel", KindValidation},
	{ErrInvalidCode, "invalid_code", KindValidation},
	{ErrDocumentRequired, "document_required", KindValidation},
	{ErrInvalidProxyType, "invalid_proxy_type", KindValidation},
	{ErrInvalidStatus, "invalid_status", KindValidation},
	{ErrInvalidInput, "invalid_input", KindValidation},

	{ErrNoOwnedUnits, "no_owned_units", KindForbidden},
	{ErrNoVotingRights, "no_voting_rights", KindForbidden},
	{ErrNotProxyOwner, "not_proxy_owner", KindForbidden},
	{ErrElevatedRequired, "elevated_role_required", KindForbidden},
	{ErrForbidden, "forbidden", KindForbidden},

	{ErrUnitNotFound, "unit_not_found", KindNotFound},
	{ErrIdentityNotFound, "identity_not_found", KindNotFound},
	{ErrProxyNotFound, "proxy_not_found", KindNotFound},
	{ErrSignatureNotFound, "signature_not_found", KindNotFound},
	{ErrVoteNotFound, "vote_not_found", KindNotFound},
	{ErrOptionNotFound, "option_not_found", KindNotFound},

	{ErrAlreadyProcessed, "already_processed", KindConflict},
	{ErrAlreadyVoted, "already_voted", KindConflict},
	{ErrVoteNotOpen, "vote_not_open", KindConflict},
	{ErrVoteClosed, "vote_closed", KindConflict},
	{ErrInvalidTransition, "invalid_transition", KindConflict},
	{ErrOptionsLocked, "options_locked", KindConflict},
	{ErrOptionHasBallots, "option_has_ballots", KindConflict},
	{ErrDuplicateApproval, "duplicate_approved_proxy", KindConflict},
	{ErrNoTransferableUnits, "no_transferable_units", KindConflict},
	{ErrConflict, "conflict", KindConflict},

	{ErrOTPAttemptsExhausted, "otp_attempts_exhausted", KindExpired},
	{ErrOTPExpired, "otp_expired", KindExpired},

	{ErrOTPDispatchFailed, "otp_dispatch_failed", KindExternalDependencyFailed},
	{ErrExternalDependency, "external_dependency_failed", KindExternalDependencyFailed},
}

// Describe returns the stable code and kind for err. Unknown errors map to
// internal_error so callers never leak infrastructure messages.
func Describe(err error) (string, Kind) {
	if err == nil {
		return "", ""
	}
	for _, d := range descriptors {
		if errors.Is(err, d.err) {
			return d.code, d.kind
		}
	}
	return "internal_error", KindInternal
}

// KindOf is a shorthand for the kind half of Describe.
func KindOf(err error) Kind {
	_, kind := Describe(err)
	return kind
}
