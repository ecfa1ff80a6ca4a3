package commands

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"assembly/contexts/assembly-governance/voting-rights/adapters/memory"
	"assembly/contexts/assembly-governance/voting-rights/adapters/notifications"
	"assembly/contexts/assembly-governance/voting-rights/adapters/otp"
	"assembly/contexts/assembly-governance/voting-rights/adapters/storage"
	"assembly/contexts/assembly-governance/voting-rights/adapters/templates"
	"assembly/contexts/assembly-governance/voting-rights/domain/entities"

	"github.com/shopspring/decimal"
)

const (
	testAssembly = "asm-1"
	testCode     = "482913"

	principalID      = "id-principal"
	representativeID = "id-representative"
	adminID          = "id-admin"
	operatorID       = "id-operator"
)

type fixture struct {
	store       *memory.Store
	gateway     *notifications.Log
	artifacts   *storage.Memory
	now         time.Time
	delegations DelegationUseCase
	ballots     BallotUseCase
	votes       VoteAdminUseCase
	attendance  AttendanceUseCase
}

func newFixture(t *testing.T, units ...entities.Unit) *fixture {
	t.Helper()
	identities := []entities.Identity{
		{IdentityID: principalID, DocumentID: entities.MustDocumentID("CC-100"), FullName: "Paula Principal", Email: "paula@example.com", Phone: "+570000001", Role: entities.RoleOwner},
		{IdentityID: representativeID, DocumentID: entities.MustDocumentID("CC-200"), FullName: "Rafael Representative", Email: "rafael@example.com", Role: entities.RoleOwner},
		{IdentityID: adminID, DocumentID: entities.MustDocumentID("ADM-1"), FullName: "Ada Admin", Role: entities.RoleAdmin},
		{IdentityID: operatorID, DocumentID: entities.MustDocumentID("OPS-1"), FullName: "Oscar Operator", Role: entities.RoleOperator},
	}
	if len(units) == 0 {
		units = []entities.Unit{unit("U1", "0.1", "CC-100", principalID)}
	}

	store := memory.NewStore(units, identities)
	f := &fixture{
		store:     store,
		gateway:   notifications.NewLog(slog.Default()),
		artifacts: storage.NewMemory(),
		now:       time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC),
	}
	store.SetNow(func() time.Time { return f.now })

	resolver := IdentityResolver{Clock: store}
	f.delegations = DelegationUseCase{
		Repo:          store,
		Ledger:        RepresentationLedger{Identities: resolver, Clock: store, IDGen: store},
		Identities:    resolver,
		Notifications: f.gateway,
		Templates:     templates.MustRenderer(),
		Artifacts:     f.artifacts,
		OTP:           otp.Static{Code: testCode},
		Clock:         store,
		IDGen:         store,
		OTPTTL:        30 * time.Minute,
		MaxAttempts:   3,
	}
	f.ballots = BallotUseCase{Repo: store, Clock: store, IDGen: store}
	f.votes = VoteAdminUseCase{Repo: store, Clock: store, IDGen: store}
	f.attendance = AttendanceUseCase{Repo: store, Clock: store, IDGen: store}
	return f
}

func unit(id string, coefficient string, ownerDoc string, representative string) entities.Unit {
	return entities.Unit{
		UnitID:                  id,
		AssemblyID:              testAssembly,
		Label:                   "Apt " + id,
		Coefficient:             decimal.RequireFromString(coefficient),
		OwnerDocumentID:         entities.MustDocumentID(ownerDoc),
		CurrentRepresentativeID: representative,
	}
}

// openVote creates a vote through the admin use case and opens it.
func (f *fixture) openVote(t *testing.T, labels ...string) entities.Vote {
	t.Helper()
	if len(labels) == 0 {
		labels = []string{"Approve", "Reject"}
	}
	inputs := make([]OptionInput, 0, len(labels))
	for _, label := range labels {
		inputs = append(inputs, OptionInput{Label: label})
	}
	vote, err := f.votes.CreateVote(context.Background(), CreateVoteCommand{
		ActorID:    adminID,
		AssemblyID: testAssembly,
		Title:      "Budget 2026",
		Options:    inputs,
	})
	if err != nil {
		t.Fatalf("create vote failed: %v", err)
	}
	opened, err := f.votes.UpdateVoteStatus(context.Background(), UpdateVoteStatusCommand{
		ActorID: adminID,
		VoteID:  vote.VoteID,
		Status:  entities.VoteStatusOpen,
	})
	if err != nil {
		t.Fatalf("open vote failed: %v", err)
	}
	return opened
}

func (f *fixture) representativeOf(t *testing.T, unitID string) string {
	t.Helper()
	u, err := f.store.GetUnit(context.Background(), unitID)
	if err != nil {
		t.Fatalf("get unit %s: %v", unitID, err)
	}
	return u.CurrentRepresentativeID
}

// approveDigital runs request + verify for principal -> representative.
func (f *fixture) approveDigital(t *testing.T) VerifyDigitalDelegationResult {
	t.Helper()
	requested, err := f.delegations.RequestDigitalDelegation(context.Background(), RequestDigitalDelegationCommand{
		PrincipalID:      principalID,
		RepresentativeID: representativeID,
	})
	if err != nil {
		t.Fatalf("request delegation failed: %v", err)
	}
	verified, err := f.delegations.VerifyDigitalDelegation(context.Background(), VerifyDigitalDelegationCommand{
		PrincipalID: principalID,
		SignatureID: requested.SignatureID,
		Code:        testCode,
	})
	if err != nil {
		t.Fatalf("verify delegation failed: %v", err)
	}
	return verified
}

func countApproved(t *testing.T, f *fixture, principal string) int {
	t.Helper()
	approved, err := f.store.ListProxiesByPrincipal(context.Background(), principal, entities.ProxyStatusApproved)
	if err != nil {
		t.Fatalf("list proxies: %v", err)
	}
	return len(approved)
}

func countEvents(f *fixture, eventType string) int {
	count := 0
	for _, item := range f.store.OutboxEventTypes() {
		if item == eventType {
			count++
		}
	}
	return count
}
