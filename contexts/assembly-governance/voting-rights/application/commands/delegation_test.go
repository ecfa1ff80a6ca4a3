package commands

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"assembly/contexts/assembly-governance/voting-rights/domain/entities"
	domainerrors "assembly/contexts/assembly-governance/voting-rights/domain/errors"
	contractsv1 "assembly/contracts/gen/events/v1"
)

func TestDigitalDelegationTransfersUnitAndAllowsCast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	requested, err := f.delegations.RequestDigitalDelegation(ctx, RequestDigitalDelegationCommand{
		PrincipalID:      principalID,
		RepresentativeID: representativeID,
		IPAddress:        "203.0.113.7",
		UserAgent:        "test-agent",
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if requested.Proxy.Status != entities.ProxyStatusPending {
		t.Fatalf("expected pending proxy, got %s", requested.Proxy.Status)
	}
	if got := strings.Join(requested.DeliveredChannels, ","); got != "email,sms" {
		t.Fatalf("expected delivery on email and sms, got %q", got)
	}
	if !requested.ExpiresAt.Equal(f.now.Add(30 * time.Minute)) {
		t.Fatalf("unexpected expiry %s", requested.ExpiresAt)
	}
	var smsBody string
	for _, sent := range f.gateway.Sent() {
		if sent.Channel == ChannelSMS {
			smsBody = sent.Body
		}
	}
	if !strings.Contains(smsBody, testCode) {
		t.Fatalf("expected sms to carry the code, got %q", smsBody)
	}
	if f.representativeOf(t, "U1") != principalID {
		t.Fatalf("pending delegation must not move representation")
	}

	verified, err := f.delegations.VerifyDigitalDelegation(ctx, VerifyDigitalDelegationCommand{
		PrincipalID: principalID,
		SignatureID: requested.SignatureID,
		Code:        testCode,
	})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if verified.Proxy.Status != entities.ProxyStatusApproved {
		t.Fatalf("expected approved proxy, got %s", verified.Proxy.Status)
	}
	if verified.UnitsTransferred != 1 {
		t.Fatalf("expected 1 unit transferred, got %d", verified.UnitsTransferred)
	}
	if len(verified.DocumentHash) != 64 {
		t.Fatalf("expected sha-256 hex document hash, got %q", verified.DocumentHash)
	}
	if f.representativeOf(t, "U1") != representativeID {
		t.Fatalf("expected U1 represented by representative")
	}

	signature, err := f.store.GetSignature(ctx, requested.SignatureID)
	if err != nil {
		t.Fatalf("get signature: %v", err)
	}
	if signature.Status != entities.SignatureStatusVerified || signature.VerifiedAt == nil {
		t.Fatalf("expected verified signature, got %+v", signature)
	}
	if signature.IPAddress != "203.0.113.7" {
		t.Fatalf("expected request ip kept as audit trail, got %q", signature.IPAddress)
	}

	vote := f.openVote(t)
	cast, err := f.ballots.CastVote(ctx, CastVoteCommand{
		ActorID:  representativeID,
		VoteID:   vote.VoteID,
		OptionID: vote.Options[0].OptionID,
	})
	if err != nil {
		t.Fatalf("cast failed: %v", err)
	}
	if cast.BallotCount != 1 || cast.Weight.String() != "0.1" {
		t.Fatalf("expected 1 ballot weighing 0.1, got %d / %s", cast.BallotCount, cast.Weight)
	}
	if countEvents(f, contractsv1.EventProxyApproved) != 1 {
		t.Fatalf("expected one proxy.approved event")
	}
}

func TestRevokeRestoresRepresentationToPrincipal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	verified := f.approveDigital(t)

	revoked, err := f.delegations.RevokeDelegation(ctx, RevokeDelegationCommand{
		ProxyID:     verified.Proxy.ProxyID,
		PrincipalID: principalID,
	})
	if err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if revoked.Proxy.Status != entities.ProxyStatusRevoked || revoked.UnitsRestored != 1 {
		t.Fatalf("unexpected revoke result %+v", revoked)
	}
	if f.representativeOf(t, "U1") != principalID {
		t.Fatalf("expected U1 back with principal")
	}

	vote := f.openVote(t)
	_, err = f.ballots.CastVote(ctx, CastVoteCommand{
		ActorID:  representativeID,
		VoteID:   vote.VoteID,
		OptionID: vote.Options[0].OptionID,
	})
	if !errors.Is(err, domainerrors.ErrNoVotingRights) {
		t.Fatalf("expected representative to lose voting rights, got %v", err)
	}

	_, err = f.delegations.RevokeDelegation(ctx, RevokeDelegationCommand{
		ProxyID:     verified.Proxy.ProxyID,
		PrincipalID: principalID,
	})
	if !errors.Is(err, domainerrors.ErrAlreadyProcessed) {
		t.Fatalf("expected second revoke to be already processed, got %v", err)
	}
}

func TestRevokeRejectsOtherPrincipal(t *testing.T) {
	f := newFixture(t)
	verified := f.approveDigital(t)

	_, err := f.delegations.RevokeDelegation(context.Background(), RevokeDelegationCommand{
		ProxyID:     verified.Proxy.ProxyID,
		PrincipalID: representativeID,
	})
	if !errors.Is(err, domainerrors.ErrNotProxyOwner) {
		t.Fatalf("expected not proxy owner, got %v", err)
	}
	if domainerrors.KindOf(err) != domainerrors.KindForbidden {
		t.Fatalf("expected forbidden kind, got %s", domainerrors.KindOf(err))
	}
}

func TestVerifyAfterExpiryExpiresDelegation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	requested, err := f.delegations.RequestDigitalDelegation(ctx, RequestDigitalDelegationCommand{
		PrincipalID:      principalID,
		RepresentativeID: representativeID,
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	f.now = f.now.Add(31 * time.Minute)
	_, err = f.delegations.VerifyDigitalDelegation(ctx, VerifyDigitalDelegationCommand{
		PrincipalID: principalID,
		SignatureID: requested.SignatureID,
		Code:        testCode,
	})
	if !errors.Is(err, domainerrors.ErrOTPExpired) {
		t.Fatalf("expected expired code, got %v", err)
	}
	if domainerrors.KindOf(err) != domainerrors.KindExpired {
		t.Fatalf("expected expired kind, got %s", domainerrors.KindOf(err))
	}

	signature, _ := f.store.GetSignature(ctx, requested.SignatureID)
	if signature.Status != entities.SignatureStatusExpired {
		t.Fatalf("expected expired signature, got %s", signature.Status)
	}
	proxy, _ := f.store.GetProxy(ctx, requested.Proxy.ProxyID)
	if proxy.Status != entities.ProxyStatusExpired {
		t.Fatalf("expected expired proxy, got %s", proxy.Status)
	}
	if f.representativeOf(t, "U1") != principalID {
		t.Fatalf("expiry must not move representation")
	}
}

func TestVerifyIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	requested, err := f.delegations.RequestDigitalDelegation(ctx, RequestDigitalDelegationCommand{
		PrincipalID:      principalID,
		RepresentativeID: representativeID,
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	cmd := VerifyDigitalDelegationCommand{
		PrincipalID: principalID,
		SignatureID: requested.SignatureID,
		Code:        testCode,
	}
	if _, err := f.delegations.VerifyDigitalDelegation(ctx, cmd); err != nil {
		t.Fatalf("first verify failed: %v", err)
	}
	_, err = f.delegations.VerifyDigitalDelegation(ctx, cmd)
	if !errors.Is(err, domainerrors.ErrAlreadyProcessed) {
		t.Fatalf("expected already processed on replay, got %v", err)
	}

	if got := countApproved(t, f, principalID); got != 1 {
		t.Fatalf("expected exactly one approved proxy, got %d", got)
	}
	if got := countEvents(f, contractsv1.EventRepresentationMove); got != 1 {
		t.Fatalf("expected one rights transfer, got %d", got)
	}
}

func TestVerifyNormalizesCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	requested, err := f.delegations.RequestDigitalDelegation(ctx, RequestDigitalDelegationCommand{
		PrincipalID:      principalID,
		RepresentativeID: representativeID,
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if _, err := f.delegations.VerifyDigitalDelegation(ctx, VerifyDigitalDelegationCommand{
		PrincipalID: principalID,
		SignatureID: requested.SignatureID,
		Code:        " ４８２ ９１３ ",
	}); err != nil {
		t.Fatalf("expected full-width code with spaces to match, got %v", err)
	}
}

func TestVerifyRejectsForeignPrincipal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	requested, err := f.delegations.RequestDigitalDelegation(ctx, RequestDigitalDelegationCommand{
		PrincipalID:      principalID,
		RepresentativeID: representativeID,
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	_, err = f.delegations.VerifyDigitalDelegation(ctx, VerifyDigitalDelegationCommand{
		PrincipalID: representativeID,
		SignatureID: requested.SignatureID,
		Code:        testCode,
	})
	if !errors.Is(err, domainerrors.ErrSignatureNotFound) {
		t.Fatalf("expected signature not found for another principal, got %v", err)
	}
}

func TestWrongCodesExhaustAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	requested, err := f.delegations.RequestDigitalDelegation(ctx, RequestDigitalDelegationCommand{
		PrincipalID:      principalID,
		RepresentativeID: representativeID,
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	wrong := VerifyDigitalDelegationCommand{
		PrincipalID: principalID,
		SignatureID: requested.SignatureID,
		Code:        "000000",
	}

	for attempt := 1; attempt < 3; attempt++ {
		_, err := f.delegations.VerifyDigitalDelegation(ctx, wrong)
		if !errors.Is(err, domainerrors.ErrInvalidCode) {
			t.Fatalf("attempt %d: expected invalid code, got %v", attempt, err)
		}
	}
	_, err = f.delegations.VerifyDigitalDelegation(ctx, wrong)
	if !errors.Is(err, domainerrors.ErrOTPAttemptsExhausted) {
		t.Fatalf("expected attempts exhausted on third failure, got %v", err)
	}

	signature, _ := f.store.GetSignature(ctx, requested.SignatureID)
	if signature.Status != entities.SignatureStatusExpired || signature.FailedAttempts != 3 {
		t.Fatalf("expected expired signature with 3 attempts, got %s / %d", signature.Status, signature.FailedAttempts)
	}

	_, err = f.delegations.VerifyDigitalDelegation(ctx, VerifyDigitalDelegationCommand{
		PrincipalID: principalID,
		SignatureID: requested.SignatureID,
		Code:        testCode,
	})
	if !errors.Is(err, domainerrors.ErrAlreadyProcessed) {
		t.Fatalf("expected correct code after exhaustion to be rejected, got %v", err)
	}
}

func TestRequestFailsWhenNoChannelDelivers(t *testing.T) {
	f := newFixture(t)
	f.gateway.FailChannels = map[string]string{
		ChannelSMS:   "carrier down",
		ChannelEmail: "mailbox full",
	}

	_, err := f.delegations.RequestDigitalDelegation(context.Background(), RequestDigitalDelegationCommand{
		PrincipalID:      principalID,
		RepresentativeID: representativeID,
	})
	if !errors.Is(err, domainerrors.ErrOTPDispatchFailed) {
		t.Fatalf("expected dispatch failure, got %v", err)
	}
	proxies, err := f.store.ListProxiesByPrincipal(context.Background(), principalID, "")
	if err != nil {
		t.Fatalf("list proxies: %v", err)
	}
	if len(proxies) != 0 {
		t.Fatalf("expected pending proxy to be discarded, got %d", len(proxies))
	}
}

func TestRequestSucceedsWithPartialDelivery(t *testing.T) {
	f := newFixture(t)
	f.gateway.FailChannels = map[string]string{ChannelEmail: "mailbox full"}

	requested, err := f.delegations.RequestDigitalDelegation(context.Background(), RequestDigitalDelegationCommand{
		PrincipalID:      principalID,
		RepresentativeID: representativeID,
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if len(requested.DeliveredChannels) != 1 || requested.DeliveredChannels[0] != ChannelSMS {
		t.Fatalf("expected sms delivery only, got %v", requested.DeliveredChannels)
	}
	if len(requested.Warnings) != 1 || requested.Warnings[0].Channel != ChannelEmail {
		t.Fatalf("expected email warning, got %+v", requested.Warnings)
	}
}

func TestRequestValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.delegations.RequestDigitalDelegation(ctx, RequestDigitalDelegationCommand{
		PrincipalID:            principalID,
		RepresentativeDocument: "cc 100",
	})
	if !errors.Is(err, domainerrors.ErrSelfDelegation) {
		t.Fatalf("expected self delegation by document, got %v", err)
	}

	_, err = f.delegations.RequestDigitalDelegation(ctx, RequestDigitalDelegationCommand{
		PrincipalID:      representativeID,
		RepresentativeID: principalID,
	})
	if !errors.Is(err, domainerrors.ErrNoOwnedUnits) {
		t.Fatalf("expected principal without units to be rejected, got %v", err)
	}

	_, err = f.delegations.RequestDigitalDelegation(ctx, RequestDigitalDelegationCommand{
		PrincipalID:            principalID,
		RepresentativeDocument: " - ",
	})
	if !errors.Is(err, domainerrors.ErrInvalidDocumentID) {
		t.Fatalf("expected invalid document, got %v", err)
	}
}

func TestDelegationToUnknownDocumentCreatesIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	requested, err := f.delegations.RequestDigitalDelegation(ctx, RequestDigitalDelegationCommand{
		PrincipalID:            principalID,
		RepresentativeDocument: "cc-900.1",
		ExternalName:           "Nora Neighbor",
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if requested.Proxy.RepresentativeID != "" {
		t.Fatalf("expected unresolved representative before approval")
	}

	verified, err := f.delegations.VerifyDigitalDelegation(ctx, VerifyDigitalDelegationCommand{
		PrincipalID: principalID,
		SignatureID: requested.SignatureID,
		Code:        testCode,
	})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	document := entities.MustDocumentID("CC9001")
	wantID := entities.SyntheticIdentityID(document)
	if verified.Proxy.RepresentativeID != wantID {
		t.Fatalf("expected synthetic identity %s, got %s", wantID, verified.Proxy.RepresentativeID)
	}
	identity, err := f.store.GetIdentity(ctx, wantID)
	if err != nil {
		t.Fatalf("expected lazily created identity: %v", err)
	}
	if identity.FullName != "Nora Neighbor" || identity.Role != entities.RoleOwner {
		t.Fatalf("unexpected identity %+v", identity)
	}
	account, found, _ := f.store.GetAccount(ctx, wantID)
	if !found || account.Handle != "cc9001@delegates.invalid" {
		t.Fatalf("expected synthetic account, got %+v found=%v", account, found)
	}
	if f.representativeOf(t, "U1") != wantID {
		t.Fatalf("expected U1 represented by lazily created identity")
	}
}

func TestManualDelegationSupersedesApprovedProxy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.approveDigital(t)

	result, err := f.delegations.RegisterManualDelegation(ctx, RegisterManualDelegationCommand{
		ActorID:                operatorID,
		PrincipalID:            principalID,
		RepresentativeDocument: "CC-777",
		ExternalName:           "Walter Walk-in",
		Type:                   entities.ProxyTypePDF,
		DocumentRef:            "proxies/asm-1/paper-1.pdf",
	})
	if err != nil {
		t.Fatalf("manual delegation failed: %v", err)
	}
	if len(result.RevokedProxyIDs) != 1 || result.RevokedProxyIDs[0] != first.Proxy.ProxyID {
		t.Fatalf("expected digital proxy superseded, got %v", result.RevokedProxyIDs)
	}
	if got := countApproved(t, f, principalID); got != 1 {
		t.Fatalf("expected one approved proxy after supersede, got %d", got)
	}
	if f.representativeOf(t, "U1") != result.Proxy.RepresentativeID {
		t.Fatalf("expected U1 with the new representative")
	}
	previous, _ := f.store.GetProxy(ctx, first.Proxy.ProxyID)
	if previous.Status != entities.ProxyStatusRevoked {
		t.Fatalf("expected previous proxy revoked, got %s", previous.Status)
	}
}

func TestRevokeDeletesStoredArtifact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.artifacts.Put("proxies/asm-1/paper-2.pdf", []byte("%PDF"))

	result, err := f.delegations.RegisterManualDelegation(ctx, RegisterManualDelegationCommand{
		ActorID:          principalID,
		PrincipalID:      principalID,
		RepresentativeID: representativeID,
		Type:             entities.ProxyTypePDF,
		DocumentRef:      "proxies/asm-1/paper-2.pdf",
	})
	if err != nil {
		t.Fatalf("self-service pdf delegation failed: %v", err)
	}

	if _, err := f.delegations.RevokeDelegation(ctx, RevokeDelegationCommand{
		ProxyID:     result.Proxy.ProxyID,
		PrincipalID: principalID,
	}); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if f.artifacts.Exists("proxies/asm-1/paper-2.pdf") {
		t.Fatalf("expected artifact deleted after revoke")
	}
}

func TestManualDelegationAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.delegations.RegisterManualDelegation(ctx, RegisterManualDelegationCommand{
		ActorID:          representativeID,
		PrincipalID:      principalID,
		RepresentativeID: representativeID,
		Type:             entities.ProxyTypeOperator,
	})
	if !errors.Is(err, domainerrors.ErrElevatedRequired) {
		t.Fatalf("expected elevated role requirement, got %v", err)
	}

	_, err = f.delegations.RegisterManualDelegation(ctx, RegisterManualDelegationCommand{
		ActorID:          operatorID,
		PrincipalID:      principalID,
		RepresentativeID: representativeID,
		Type:             entities.ProxyTypePDF,
	})
	if !errors.Is(err, domainerrors.ErrDocumentRequired) {
		t.Fatalf("expected document requirement for pdf proxies, got %v", err)
	}

	_, err = f.delegations.RegisterManualDelegation(ctx, RegisterManualDelegationCommand{
		ActorID:          operatorID,
		PrincipalID:      principalID,
		RepresentativeID: representativeID,
		Type:             entities.ProxyTypeDigital,
	})
	if !errors.Is(err, domainerrors.ErrInvalidProxyType) {
		t.Fatalf("expected digital type to be rejected, got %v", err)
	}
}

func TestExpireSignatureIsSingleShot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	requested, err := f.delegations.RequestDigitalDelegation(ctx, RequestDigitalDelegationCommand{
		PrincipalID:      principalID,
		RepresentativeID: representativeID,
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	signature, _ := f.store.GetSignature(ctx, requested.SignatureID)

	expired, err := f.delegations.ExpireSignature(ctx, signature, "test")
	if err != nil || !expired {
		t.Fatalf("expected first expiry to apply, got %v / %v", expired, err)
	}
	expired, err = f.delegations.ExpireSignature(ctx, signature, "test")
	if err != nil || expired {
		t.Fatalf("expected second expiry to be a no-op, got %v / %v", expired, err)
	}
	if got := countEvents(f, contractsv1.EventProxyExpired); got != 1 {
		t.Fatalf("expected one proxy.expired event, got %d", got)
	}
}

func TestUnitWithoutRepresentativeIsDelegable(t *testing.T) {
	f := newFixture(t, unit("U1", "0.1", "CC-100", ""))
	ctx := context.Background()
	if f.representativeOf(t, "U1") != principalID {
		t.Fatalf("expected unit to start represented by its owner")
	}

	verified := f.approveDigital(t)
	if verified.UnitsTransferred != 1 {
		t.Fatalf("expected 1 unit transferred, got %d", verified.UnitsTransferred)
	}
	vote := f.openVote(t)
	if _, err := f.ballots.CastVote(ctx, CastVoteCommand{
		ActorID:  representativeID,
		VoteID:   vote.VoteID,
		OptionID: vote.Options[0].OptionID,
	}); err != nil {
		t.Fatalf("representative cast failed: %v", err)
	}
}

func TestVerifyFailsWhenNoUnitMoves(t *testing.T) {
	f := newFixture(t, unit("U1", "0.1", "CC-100", "id-elsewhere"))
	ctx := context.Background()

	requested, err := f.delegations.RequestDigitalDelegation(ctx, RequestDigitalDelegationCommand{
		PrincipalID:      principalID,
		RepresentativeID: representativeID,
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_, err = f.delegations.VerifyDigitalDelegation(ctx, VerifyDigitalDelegationCommand{
		PrincipalID: principalID,
		SignatureID: requested.SignatureID,
		Code:        testCode,
	})
	if !errors.Is(err, domainerrors.ErrNoTransferableUnits) {
		t.Fatalf("expected no transferable units, got %v", err)
	}
	if got := countApproved(t, f, principalID); got != 0 {
		t.Fatalf("expected approval rolled back, got %d approved", got)
	}
	if got := countEvents(f, contractsv1.EventProxyApproved); got != 0 {
		t.Fatalf("expected no proxy.approved event, got %d", got)
	}
	proxy, err := f.store.GetProxy(ctx, requested.Proxy.ProxyID)
	if err != nil {
		t.Fatalf("get proxy: %v", err)
	}
	if proxy.Status != entities.ProxyStatusPending {
		t.Fatalf("expected proxy to stay pending, got %s", proxy.Status)
	}
	if f.representativeOf(t, "U1") != "id-elsewhere" {
		t.Fatalf("unit must keep its representative")
	}
}
