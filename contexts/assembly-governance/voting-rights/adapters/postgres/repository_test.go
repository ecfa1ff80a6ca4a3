package postgresadapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"assembly/contexts/assembly-governance/voting-rights/adapters/notifications"
	"assembly/contexts/assembly-governance/voting-rights/adapters/otp"
	"assembly/contexts/assembly-governance/voting-rights/adapters/storage"
	"assembly/contexts/assembly-governance/voting-rights/adapters/templates"
	"assembly/contexts/assembly-governance/voting-rights/application/commands"
	"assembly/contexts/assembly-governance/voting-rights/domain/entities"
	domainerrors "assembly/contexts/assembly-governance/voting-rights/domain/errors"
	"assembly/contexts/assembly-governance/voting-rights/ports"
	contractsv1 "assembly/contracts/gen/events/v1"
	"assembly/internal/platform/db"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type pinnedClock struct{ at time.Time }

func (c *pinnedClock) Now() time.Time { return c.at }

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	return newTestRepositoryAt(t, SystemClock{})
}

func newTestRepositoryAt(t *testing.T, clock ports.Clock) *Repository {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	database, err := db.Connect(context.Background(), db.DriverSQLite, dsn, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, Migrate(context.Background(), database.DB))
	return NewRepository(database.DB, clock, logger)
}

func rollUnit(id string, coefficient string, owner string) entities.Unit {
	return entities.Unit{
		UnitID:          id,
		AssemblyID:      "asm-1",
		Label:           "Apt " + id,
		Coefficient:     decimal.RequireFromString(coefficient),
		OwnerDocumentID: entities.MustDocumentID(owner),
		OwnerEmail:      strings.ToLower(owner) + "@example.com",
	}
}

func rollIdentity(id string, document string, role entities.Role) entities.Identity {
	return entities.Identity{
		IdentityID: id,
		DocumentID: entities.MustDocumentID(document),
		FullName:   "Person " + id,
		Email:      id + "@example.com",
		Role:       role,
	}
}

func seedRoll(t *testing.T, repo *Repository) {
	t.Helper()
	units := []entities.Unit{
		rollUnit("U1", "0.1", "CC-100"),
		rollUnit("U2", "0.15", "CC-100"),
		rollUnit("U3", "0.75", "CC-200"),
	}
	units[0].CurrentRepresentativeID = "id-p"
	units[1].CurrentRepresentativeID = "id-p"
	units[2].CurrentRepresentativeID = "id-r"
	identities := []entities.Identity{
		rollIdentity("id-p", "CC-100", entities.RoleOwner),
		rollIdentity("id-r", "CC-200", entities.RoleOwner),
		rollIdentity("id-admin", "ADM-1", entities.RoleAdmin),
	}
	require.NoError(t, repo.ImportRoll(context.Background(), units, identities))
}

func TestImportRollKeepsRepresentativeOnReimport(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	seedRoll(t, repo)

	moved, err := repo.TransferRepresentation(ctx, entities.MustDocumentID("CC-100"), "id-p", "id-r")
	require.NoError(t, err)
	require.EqualValues(t, 2, moved)

	updated := rollUnit("U1", "0.1", "CC-100")
	updated.Label = "Apt 101"
	require.NoError(t, repo.ImportRoll(ctx, []entities.Unit{updated}, nil))

	unit, err := repo.GetUnit(ctx, "U1")
	require.NoError(t, err)
	require.Equal(t, "Apt 101", unit.Label)
	require.Equal(t, "id-r", unit.CurrentRepresentativeID)
	require.True(t, unit.Coefficient.Equal(decimal.RequireFromString("0.1")))

	represented, err := repo.ListUnitsByRepresentative(ctx, "asm-1", "id-r")
	require.NoError(t, err)
	require.Len(t, represented, 3)
	require.True(t, entities.SumCoefficients(represented).Equal(decimal.NewFromInt(1)))

	_, err = repo.GetUnit(ctx, "missing")
	require.ErrorIs(t, err, domainerrors.ErrUnitNotFound)
}

func TestApprovedProxyIsUniquePerPrincipal(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)

	proxy := func(id string, status entities.ProxyStatus) entities.Proxy {
		return entities.Proxy{
			ProxyID:          id,
			AssemblyID:       "asm-1",
			PrincipalID:      "id-p",
			RepresentativeID: "id-r",
			Type:             entities.ProxyTypeDigital,
			Status:           status,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
	}
	require.NoError(t, repo.CreateProxy(ctx, proxy("p1", entities.ProxyStatusApproved)))
	require.NoError(t, repo.CreateProxy(ctx, proxy("p2", entities.ProxyStatusPending)))

	err := repo.CreateProxy(ctx, proxy("p3", entities.ProxyStatusApproved))
	require.ErrorIs(t, err, domainerrors.ErrDuplicateApproval)

	err = repo.TransitionProxy(ctx, "p2", entities.ProxyStatusPending, entities.ProxyStatusApproved, now)
	require.ErrorIs(t, err, domainerrors.ErrDuplicateApproval)

	require.NoError(t, repo.TransitionProxy(ctx, "p1", entities.ProxyStatusApproved, entities.ProxyStatusRevoked, now))
	require.NoError(t, repo.TransitionProxy(ctx, "p2", entities.ProxyStatusPending, entities.ProxyStatusApproved, now))

	err = repo.TransitionProxy(ctx, "p1", entities.ProxyStatusApproved, entities.ProxyStatusRevoked, now)
	require.ErrorIs(t, err, domainerrors.ErrAlreadyProcessed)
	err = repo.TransitionProxy(ctx, "nope", entities.ProxyStatusApproved, entities.ProxyStatusRevoked, now)
	require.ErrorIs(t, err, domainerrors.ErrProxyNotFound)

	approved, err := repo.ListProxiesByPrincipal(ctx, "id-p", entities.ProxyStatusApproved)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	require.Equal(t, "p2", approved[0].ProxyID)
}

func TestInsertBallotIsUniquePerVoteAndUnit(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)
	vote := entities.Vote{
		VoteID:     "v1",
		AssemblyID: "asm-1",
		Title:      "Budget",
		Status:     entities.VoteStatusOpen,
		Options: []entities.VoteOption{
			{OptionID: "o1", VoteID: "v1", Label: "Yes", OrderIndex: 0},
			{OptionID: "o2", VoteID: "v1", Label: "No", OrderIndex: 1},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.CreateVote(ctx, vote))

	ballot := entities.Ballot{
		BallotID:         "b1",
		VoteID:           "v1",
		OptionID:         "o1",
		UnitID:           "U1",
		VoterIdentityID:  "id-p",
		CastByIdentityID: "id-p",
		Weight:           decimal.RequireFromString("0.1"),
		CreatedAt:        now,
	}
	inserted, err := repo.InsertBallot(ctx, ballot)
	require.NoError(t, err)
	require.True(t, inserted)

	ballot.BallotID = "b2"
	ballot.OptionID = "o2"
	inserted, err = repo.InsertBallot(ctx, ballot)
	require.NoError(t, err)
	require.False(t, inserted)

	counts, err := repo.CountBallotsByOption(ctx, "v1")
	require.NoError(t, err)
	require.Equal(t, map[string]int{"o1": 1}, counts)

	require.ErrorIs(t, repo.DeleteVote(ctx, "v1"), domainerrors.ErrConflict)
	deleted, err := repo.DeleteBallotsByVote(ctx, "v1")
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)
	require.NoError(t, repo.DeleteVote(ctx, "v1"))
	_, err = repo.GetVote(ctx, "v1")
	require.ErrorIs(t, err, domainerrors.ErrVoteNotFound)
}

func TestOutboxAndEventDedup(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	envelope := ports.EventEnvelope{
		EventID:       "evt-1",
		EventType:     contractsv1.EventBallotCast,
		OccurredAt:    time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC),
		SourceService: "voting-rights",
		SchemaVersion: 1,
		PartitionKey:  "v1",
		Data:          []byte(`{"vote_id":"v1"}`),
	}
	require.NoError(t, repo.AppendOutbox(ctx, envelope))
	require.NoError(t, repo.AppendOutbox(ctx, envelope))

	changed := envelope
	changed.Data = []byte(`{"vote_id":"v2"}`)
	require.ErrorIs(t, repo.AppendOutbox(ctx, changed), domainerrors.ErrConflict)

	pending, err := repo.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, contractsv1.EventBallotCast, pending[0].EventType)

	require.NoError(t, repo.MarkOutboxPublished(ctx, "evt-1", time.Now()))
	pending, err = repo.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, pending)

	expires := time.Now().Add(time.Hour)
	replayed, err := repo.ReserveEvent(ctx, "evt-1", "hash-a", expires)
	require.NoError(t, err)
	require.False(t, replayed)
	replayed, err = repo.ReserveEvent(ctx, "evt-1", "hash-a", expires)
	require.NoError(t, err)
	require.True(t, replayed)
	_, err = repo.ReserveEvent(ctx, "evt-1", "hash-b", expires)
	require.ErrorIs(t, err, domainerrors.ErrConflict)
}

func TestReserveEventUsesRepositoryClock(t *testing.T) {
	clock := &pinnedClock{at: time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)}
	repo := newTestRepositoryAt(t, clock)
	ctx := context.Background()

	expires := clock.at.Add(time.Hour)
	replayed, err := repo.ReserveEvent(ctx, "evt-9", "hash-a", expires)
	require.NoError(t, err)
	require.False(t, replayed)

	// Still inside the window on the repository clock, even though the wall
	// clock is far past it.
	clock.at = clock.at.Add(30 * time.Minute)
	replayed, err = repo.ReserveEvent(ctx, "evt-9", "hash-a", expires)
	require.NoError(t, err)
	require.True(t, replayed)

	// Once the repository clock passes the expiry the reservation is replaced,
	// even with a different payload.
	clock.at = clock.at.Add(time.Hour)
	replayed, err = repo.ReserveEvent(ctx, "evt-9", "hash-b", clock.at.Add(time.Hour))
	require.NoError(t, err)
	require.False(t, replayed)
}

func TestImportRollDefaultsRepresentativeToOwner(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	units := []entities.Unit{
		rollUnit("U1", "0.4", "CC-100"),
		rollUnit("U2", "0.6", "CC-300"),
	}
	identities := []entities.Identity{rollIdentity("id-p", "CC-100", entities.RoleOwner)}
	require.NoError(t, repo.ImportRoll(ctx, units, identities))

	owned, err := repo.GetUnit(ctx, "U1")
	require.NoError(t, err)
	require.Equal(t, "id-p", owned.CurrentRepresentativeID)

	unregistered, err := repo.GetUnit(ctx, "U2")
	require.NoError(t, err)
	synthetic := entities.SyntheticIdentityID(entities.MustDocumentID("CC-300"))
	require.Equal(t, synthetic, unregistered.CurrentRepresentativeID)

	owner, err := repo.GetIdentity(ctx, synthetic)
	require.NoError(t, err)
	require.Equal(t, entities.RoleOwner, owner.Role)
	require.Equal(t, entities.MustDocumentID("CC-300"), owner.DocumentID)

	// Importing the same roll again reuses the synthetic owner.
	require.NoError(t, repo.ImportRoll(ctx, units, nil))
	unregistered, err = repo.GetUnit(ctx, "U2")
	require.NoError(t, err)
	require.Equal(t, synthetic, unregistered.CurrentRepresentativeID)
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	seedRoll(t, repo)

	boom := errors.New("boom")
	err := repo.WithinTx(ctx, func(tx ports.Store) error {
		if _, err := tx.TransferRepresentation(ctx, entities.MustDocumentID("CC-100"), "id-p", "id-r"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	unit, err := repo.GetUnit(ctx, "U1")
	require.NoError(t, err)
	require.Equal(t, "id-p", unit.CurrentRepresentativeID)
}

func TestDelegationFlowOnSQL(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	seedRoll(t, repo)

	resolver := commands.IdentityResolver{Clock: SystemClock{}}
	delegations := commands.DelegationUseCase{
		Repo:          repo,
		Ledger:        commands.RepresentationLedger{Identities: resolver, Clock: SystemClock{}, IDGen: UUIDGenerator{}},
		Identities:    resolver,
		Notifications: notifications.NewLog(slog.New(slog.NewTextHandler(io.Discard, nil))),
		Templates:     templates.MustRenderer(),
		Artifacts:     storage.NewMemory(),
		OTP:           otp.Static{Code: "111222"},
		Clock:         SystemClock{},
		IDGen:         UUIDGenerator{},
	}
	requested, err := delegations.RequestDigitalDelegation(ctx, commands.RequestDigitalDelegationCommand{
		PrincipalID:            "id-p",
		RepresentativeDocument: "CC 777",
		ExternalName:           "Ximena External",
	})
	require.NoError(t, err)

	verified, err := delegations.VerifyDigitalDelegation(ctx, commands.VerifyDigitalDelegationCommand{
		PrincipalID: "id-p",
		SignatureID: requested.SignatureID,
		Code:        "111222",
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, verified.UnitsTransferred)
	require.Len(t, verified.DocumentHash, 64)

	synthetic := entities.SyntheticIdentityID(entities.MustDocumentID("CC777"))
	represented, err := repo.ListUnitsByRepresentative(ctx, "asm-1", synthetic)
	require.NoError(t, err)
	require.Len(t, represented, 2)

	identity, err := repo.GetIdentity(ctx, synthetic)
	require.NoError(t, err)
	require.Equal(t, "Ximena External", identity.FullName)
	account, found, err := repo.GetAccount(ctx, synthetic)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, entities.SyntheticHandle(entities.MustDocumentID("CC777")), account.Handle)

	revoked, err := delegations.RevokeDelegation(ctx, commands.RevokeDelegationCommand{
		PrincipalID: "id-p",
		ProxyID:     verified.Proxy.ProxyID,
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, revoked.UnitsRestored)

	back, err := repo.ListUnitsByRepresentative(ctx, "asm-1", "id-p")
	require.NoError(t, err)
	require.Len(t, back, 2)
}
