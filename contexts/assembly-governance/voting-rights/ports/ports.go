package ports

import (
	"context"
	"time"

	"assembly/contexts/assembly-governance/voting-rights/domain/entities"
	contractsv1 "assembly/contracts/gen/events/v1"
)

// UnitStore reads the coefficient roll. TransferRepresentation is the only
// write and is reserved for the representation ledger.
type UnitStore interface {
	GetUnit(ctx context.Context, unitID string) (entities.Unit, error)
	ListUnitsByAssembly(ctx context.Context, assemblyID string) ([]entities.Unit, error)
	ListUnitsByOwner(ctx context.Context, owner entities.DocumentID) ([]entities.Unit, error)
	ListUnitsByRepresentative(ctx context.Context, assemblyID string, identityID string) ([]entities.Unit, error)
	TransferRepresentation(ctx context.Context, owner entities.DocumentID, fromIdentityID string, toIdentityID string) (int64, error)
}

// IdentityStore creates accounts and profiles with insert-if-absent semantics
// so lazy creation and ghost repair can be replayed safely.
type IdentityStore interface {
	GetIdentity(ctx context.Context, identityID string) (entities.Identity, error)
	FindIdentityByDocument(ctx context.Context, document entities.DocumentID) (entities.Identity, bool, error)
	GetAccount(ctx context.Context, accountID string) (entities.Account, bool, error)
	CreateAccount(ctx context.Context, account entities.Account) (bool, error)
	CreateIdentity(ctx context.Context, identity entities.Identity) (bool, error)
}

type ProxyStore interface {
	CreateProxy(ctx context.Context, proxy entities.Proxy) error
	GetProxy(ctx context.Context, proxyID string) (entities.Proxy, error)
	ListProxiesByPrincipal(ctx context.Context, principalID string, status entities.ProxyStatus) ([]entities.Proxy, error)
	// TransitionProxy is a compare-and-set on status. A lost race returns
	// domainerrors.ErrAlreadyProcessed.
	TransitionProxy(ctx context.Context, proxyID string, from entities.ProxyStatus, to entities.ProxyStatus, updatedAt time.Time) error
	SetProxyRepresentative(ctx context.Context, proxyID string, representativeID string, updatedAt time.Time) error
	DeletePendingProxy(ctx context.Context, proxyID string) error
}

// SignatureVerification carries the audit fields written by the
// PENDING -> VERIFIED compare-and-set.
type SignatureVerification struct {
	SignatureID   string
	DocumentHash  string
	SignedPayload []byte
	IPAddress     string
	UserAgent     string
	VerifiedAt    time.Time
}

type SignatureStore interface {
	CreateSignature(ctx context.Context, signature entities.DigitalSignature) error
	GetSignature(ctx context.Context, signatureID string) (entities.DigitalSignature, error)
	MarkSignatureVerified(ctx context.Context, verification SignatureVerification) error
	ExpireSignature(ctx context.Context, signatureID string) (bool, error)
	RecordFailedAttempt(ctx context.Context, signatureID string) (int, error)
	ListLapsedSignatures(ctx context.Context, now time.Time, limit int) ([]entities.DigitalSignature, error)
	DeletePendingSignature(ctx context.Context, signatureID string) error
}

type VoteStore interface {
	CreateVote(ctx context.Context, vote entities.Vote) error
	GetVote(ctx context.Context, voteID string) (entities.Vote, error)
	// LockVote reads the vote inside a transaction and holds off status
	// transitions until that transaction ends.
	LockVote(ctx context.Context, voteID string) (entities.Vote, error)
	TransitionVote(ctx context.Context, voteID string, from entities.VoteStatus, to entities.VoteStatus, updatedAt time.Time) error
	UpdateVoteDetails(ctx context.Context, vote entities.Vote) error
	DeleteVote(ctx context.Context, voteID string) error
	// InsertBallot reports false when (vote, unit) already holds a ballot.
	InsertBallot(ctx context.Context, ballot entities.Ballot) (bool, error)
	ListBallots(ctx context.Context, voteID string) ([]entities.Ballot, error)
	CountBallotsByOption(ctx context.Context, voteID string) (map[string]int, error)
	DeleteBallotsByVote(ctx context.Context, voteID string) (int64, error)
}

type AttendanceStore interface {
	GetAttendance(ctx context.Context, unitID string) (entities.AttendanceLog, bool, error)
	CheckIn(ctx context.Context, log entities.AttendanceLog) (bool, error)
	CheckOut(ctx context.Context, unitID string) (bool, error)
	ListAttendanceByAssembly(ctx context.Context, assemblyID string) ([]entities.AttendanceLog, error)
}

// Store is every persistence capability reachable inside one transaction.
type Store interface {
	UnitStore
	IdentityStore
	ProxyStore
	SignatureStore
	VoteStore
	AttendanceStore
	OutboxWriter
}

// Repository runs fn against a transactional view of the store. fn must
// only use the Store it receives.
type Repository interface {
	Store
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

// DispatchResult is the outcome of one notification channel.
type DispatchResult struct {
	Success bool
	Error   string
}

type NotificationGateway interface {
	SendEmail(ctx context.Context, to string, subject string, htmlBody string) DispatchResult
	SendSMS(ctx context.Context, to string, body string) DispatchResult
}

type RenderedMessage struct {
	Subject  string
	HTMLBody string
	Text     string
}

type TemplateRenderer interface {
	Render(ctx context.Context, templateKey string, vars map[string]string) (RenderedMessage, error)
}

type ArtifactStorage interface {
	Delete(ctx context.Context, path string) error
}

type OTPGenerator interface {
	NewCode(ctx context.Context) (string, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// Metrics receives domain counters. Implementations must be safe for
// concurrent use.
type Metrics interface {
	BallotsCast(assemblyID string, ballots int, weight float64)
	OTPDispatched(channel string, success bool)
	DelegationTransitioned(status entities.ProxyStatus)
	QuorumObserved(assemblyID string, percentage float64)
}
