package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"assembly/contexts/assembly-governance/voting-rights/domain/entities"
	domainerrors "assembly/contexts/assembly-governance/voting-rights/domain/errors"
	"assembly/contexts/assembly-governance/voting-rights/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type dedupRecord struct {
	payloadHash string
	expiresAt   time.Time
}

// Store is the in-process adapter used by tests and single-node dev mode.
// WithinTx serializes transactions and restores a snapshot on failure.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	now func() time.Time

	units      map[string]entities.Unit
	accounts   map[string]entities.Account
	identities map[string]entities.Identity
	proxies    map[string]entities.Proxy
	signatures map[string]entities.DigitalSignature
	votes      map[string]entities.Vote
	ballots    map[string]map[string]entities.Ballot
	attendance map[string]entities.AttendanceLog
	outbox     map[string]outboxRecord
	outboxSeq  []string
	eventDedup map[string]dedupRecord
}

type snapshot struct {
	units      map[string]entities.Unit
	accounts   map[string]entities.Account
	identities map[string]entities.Identity
	proxies    map[string]entities.Proxy
	signatures map[string]entities.DigitalSignature
	votes      map[string]entities.Vote
	ballots    map[string]map[string]entities.Ballot
	attendance map[string]entities.AttendanceLog
	outbox     map[string]outboxRecord
	outboxSeq  []string
}

func NewStore(units []entities.Unit, identities []entities.Identity) *Store {
	s := &Store{
		units:      make(map[string]entities.Unit, len(units)),
		accounts:   make(map[string]entities.Account, len(identities)),
		identities: make(map[string]entities.Identity, len(identities)),
		proxies:    make(map[string]entities.Proxy),
		signatures: make(map[string]entities.DigitalSignature),
		votes:      make(map[string]entities.Vote),
		ballots:    make(map[string]map[string]entities.Ballot),
		attendance: make(map[string]entities.AttendanceLog),
		outbox:     make(map[string]outboxRecord),
		eventDedup: make(map[string]dedupRecord),
	}
	for _, identity := range identities {
		s.identities[identity.IdentityID] = identity
		s.accounts[identity.IdentityID] = entities.Account{
			AccountID: identity.IdentityID,
			Handle:    identity.Email,
			CreatedAt: identity.CreatedAt,
		}
	}
	for _, unit := range units {
		s.putUnitLocked(unit)
	}
	return s
}

// putUnitLocked stores unit, defaulting an empty representative to the
// owner's identity.
func (s *Store) putUnitLocked(unit entities.Unit) {
	if strings.TrimSpace(unit.CurrentRepresentativeID) == "" && !unit.OwnerDocumentID.IsZero() {
		unit.CurrentRepresentativeID = s.ownerIdentityLocked(unit.OwnerDocumentID)
	}
	s.units[unit.UnitID] = unit
}

// ownerIdentityLocked returns the identity holding document, registering the
// synthetic owner when none exists.
func (s *Store) ownerIdentityLocked(document entities.DocumentID) string {
	for id, identity := range s.identities {
		if identity.DocumentID == document {
			return id
		}
	}
	now := time.Now().UTC()
	if s.now != nil {
		now = s.now().UTC()
	}
	id := entities.SyntheticIdentityID(document)
	s.identities[id] = entities.Identity{
		IdentityID: id,
		DocumentID: document,
		Role:       entities.RoleOwner,
		CreatedAt:  now,
	}
	s.accounts[id] = entities.Account{
		AccountID: id,
		Handle:    entities.SyntheticHandle(document),
		CreatedAt: now,
	}
	return id
}

// SetNow pins the store clock. Passing nil restores wall-clock time.
func (s *Store) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) SetUnit(unit entities.Unit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putUnitLocked(unit)
}

func (s *Store) SetIdentity(identity entities.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[identity.IdentityID] = identity
}

func (s *Store) SetAccount(account entities.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.AccountID] = account
}

func (s *Store) SetVote(vote entities.Vote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.votes[vote.VoteID] = cloneVote(vote)
}

func (s *Store) SetSignature(signature entities.DigitalSignature) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signatures[signature.SignatureID] = signature
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	now := s.now
	s.mu.RUnlock()
	if now != nil {
		return now().UTC()
	}
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx ports.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	saved := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(saved)
		return err
	}
	return nil
}

func (s *Store) GetUnit(_ context.Context, unitID string) (entities.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	unit, ok := s.units[strings.TrimSpace(unitID)]
	if !ok {
		return entities.Unit{}, domainerrors.ErrUnitNotFound
	}
	return unit, nil
}

func (s *Store) ListUnitsByAssembly(_ context.Context, assemblyID string) ([]entities.Unit, error) {
	return s.filterUnits(func(unit entities.Unit) bool {
		return unit.AssemblyID == strings.TrimSpace(assemblyID)
	}), nil
}

func (s *Store) ListUnitsByOwner(_ context.Context, owner entities.DocumentID) ([]entities.Unit, error) {
	return s.filterUnits(func(unit entities.Unit) bool {
		return unit.OwnedBy(owner)
	}), nil
}

func (s *Store) ListUnitsByRepresentative(_ context.Context, assemblyID string, identityID string) ([]entities.Unit, error) {
	assemblyID = strings.TrimSpace(assemblyID)
	return s.filterUnits(func(unit entities.Unit) bool {
		if assemblyID != "" && unit.AssemblyID != assemblyID {
			return false
		}
		return unit.RepresentedBy(strings.TrimSpace(identityID))
	}), nil
}

func (s *Store) TransferRepresentation(
	_ context.Context,
	owner entities.DocumentID,
	fromIdentityID string,
	toIdentityID string,
) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var moved int64
	for id, unit := range s.units {
		if !unit.OwnedBy(owner) || unit.CurrentRepresentativeID != fromIdentityID {
			continue
		}
		unit.CurrentRepresentativeID = toIdentityID
		s.units[id] = unit
		moved++
	}
	return moved, nil
}

func (s *Store) GetIdentity(_ context.Context, identityID string) (entities.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.identities[strings.TrimSpace(identityID)]
	if !ok {
		return entities.Identity{}, domainerrors.ErrIdentityNotFound
	}
	return identity, nil
}

func (s *Store) FindIdentityByDocument(_ context.Context, document entities.DocumentID) (entities.Identity, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, identity := range s.identities {
		if !document.IsZero() && identity.DocumentID == document {
			return identity, true, nil
		}
	}
	return entities.Identity{}, false, nil
}

func (s *Store) GetAccount(_ context.Context, accountID string) (entities.Account, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[strings.TrimSpace(accountID)]
	return account, ok, nil
}

func (s *Store) CreateAccount(_ context.Context, account entities.Account) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.AccountID]; ok {
		return false, nil
	}
	for _, existing := range s.accounts {
		if existing.Handle != "" && existing.Handle == account.Handle {
			return false, nil
		}
	}
	s.accounts[account.AccountID] = account
	return true, nil
}

func (s *Store) CreateIdentity(_ context.Context, identity entities.Identity) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[identity.IdentityID]; ok {
		return false, nil
	}
	for _, existing := range s.identities {
		if !identity.DocumentID.IsZero() && existing.DocumentID == identity.DocumentID {
			return false, nil
		}
	}
	s.identities[identity.IdentityID] = identity
	return true, nil
}

func (s *Store) CreateProxy(_ context.Context, proxy entities.Proxy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.proxies[proxy.ProxyID]; ok {
		return domainerrors.ErrConflict
	}
	if proxy.Status == entities.ProxyStatusApproved && s.hasApprovedLocked(proxy.PrincipalID, proxy.ProxyID) {
		return domainerrors.ErrDuplicateApproval
	}
	s.proxies[proxy.ProxyID] = proxy
	return nil
}

func (s *Store) GetProxy(_ context.Context, proxyID string) (entities.Proxy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	proxy, ok := s.proxies[strings.TrimSpace(proxyID)]
	if !ok {
		return entities.Proxy{}, domainerrors.ErrProxyNotFound
	}
	return proxy, nil
}

func (s *Store) ListProxiesByPrincipal(_ context.Context, principalID string, status entities.ProxyStatus) ([]entities.Proxy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Proxy, 0)
	for _, proxy := range s.proxies {
		if proxy.PrincipalID != strings.TrimSpace(principalID) {
			continue
		}
		if status != "" && proxy.Status != status {
			continue
		}
		items = append(items, proxy)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) TransitionProxy(
	_ context.Context,
	proxyID string,
	from entities.ProxyStatus,
	to entities.ProxyStatus,
	updatedAt time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	proxy, ok := s.proxies[proxyID]
	if !ok {
		return domainerrors.ErrProxyNotFound
	}
	if proxy.Status != from {
		return domainerrors.ErrAlreadyProcessed
	}
	if to == entities.ProxyStatusApproved && s.hasApprovedLocked(proxy.PrincipalID, proxyID) {
		return domainerrors.ErrDuplicateApproval
	}
	proxy.Status = to
	proxy.UpdatedAt = updatedAt.UTC()
	s.proxies[proxyID] = proxy
	return nil
}

func (s *Store) SetProxyRepresentative(_ context.Context, proxyID string, representativeID string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	proxy, ok := s.proxies[proxyID]
	if !ok {
		return domainerrors.ErrProxyNotFound
	}
	proxy.RepresentativeID = representativeID
	proxy.UpdatedAt = updatedAt.UTC()
	s.proxies[proxyID] = proxy
	return nil
}

func (s *Store) DeletePendingProxy(_ context.Context, proxyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	proxy, ok := s.proxies[proxyID]
	if !ok || proxy.Status != entities.ProxyStatusPending {
		return nil
	}
	delete(s.proxies, proxyID)
	return nil
}

func (s *Store) CreateSignature(_ context.Context, signature entities.DigitalSignature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.signatures[signature.SignatureID]; ok {
		return domainerrors.ErrConflict
	}
	s.signatures[signature.SignatureID] = signature
	return nil
}

func (s *Store) GetSignature(_ context.Context, signatureID string) (entities.DigitalSignature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	signature, ok := s.signatures[strings.TrimSpace(signatureID)]
	if !ok {
		return entities.DigitalSignature{}, domainerrors.ErrSignatureNotFound
	}
	return signature, nil
}

func (s *Store) MarkSignatureVerified(_ context.Context, verification ports.SignatureVerification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	signature, ok := s.signatures[verification.SignatureID]
	if !ok {
		return domainerrors.ErrSignatureNotFound
	}
	if signature.Status != entities.SignatureStatusPending {
		return domainerrors.ErrAlreadyProcessed
	}
	verifiedAt := verification.VerifiedAt.UTC()
	signature.Status = entities.SignatureStatusVerified
	signature.DocumentHash = verification.DocumentHash
	signature.SignedPayload = append(json.RawMessage(nil), verification.SignedPayload...)
	signature.IPAddress = verification.IPAddress
	signature.UserAgent = verification.UserAgent
	signature.VerifiedAt = &verifiedAt
	s.signatures[signature.SignatureID] = signature
	return nil
}

func (s *Store) ExpireSignature(_ context.Context, signatureID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	signature, ok := s.signatures[signatureID]
	if !ok {
		return false, domainerrors.ErrSignatureNotFound
	}
	if signature.Status != entities.SignatureStatusPending {
		return false, nil
	}
	signature.Status = entities.SignatureStatusExpired
	s.signatures[signatureID] = signature
	return true, nil
}

func (s *Store) RecordFailedAttempt(_ context.Context, signatureID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	signature, ok := s.signatures[signatureID]
	if !ok {
		return 0, domainerrors.ErrSignatureNotFound
	}
	if signature.Status != entities.SignatureStatusPending {
		return signature.FailedAttempts, domainerrors.ErrAlreadyProcessed
	}
	signature.FailedAttempts++
	s.signatures[signatureID] = signature
	return signature.FailedAttempts, nil
}

func (s *Store) ListLapsedSignatures(_ context.Context, now time.Time, limit int) ([]entities.DigitalSignature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	items := make([]entities.DigitalSignature, 0)
	for _, signature := range s.signatures {
		if signature.Status == entities.SignatureStatusPending && signature.ExpiredAt(now) {
			items = append(items, signature)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].OTPExpiresAt.Before(items[j].OTPExpiresAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) DeletePendingSignature(_ context.Context, signatureID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	signature, ok := s.signatures[signatureID]
	if !ok || signature.Status != entities.SignatureStatusPending {
		return nil
	}
	delete(s.signatures, signatureID)
	return nil
}

func (s *Store) CreateVote(_ context.Context, vote entities.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.votes[vote.VoteID]; ok {
		return domainerrors.ErrConflict
	}
	s.votes[vote.VoteID] = cloneVote(vote)
	return nil
}

func (s *Store) GetVote(_ context.Context, voteID string) (entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vote, ok := s.votes[strings.TrimSpace(voteID)]
	if !ok {
		return entities.Vote{}, domainerrors.ErrVoteNotFound
	}
	return cloneVote(vote), nil
}

// LockVote is GetVote; WithinTx already serializes transitions.
func (s *Store) LockVote(ctx context.Context, voteID string) (entities.Vote, error) {
	return s.GetVote(ctx, voteID)
}

func (s *Store) TransitionVote(
	_ context.Context,
	voteID string,
	from entities.VoteStatus,
	to entities.VoteStatus,
	updatedAt time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	vote, ok := s.votes[voteID]
	if !ok {
		return domainerrors.ErrVoteNotFound
	}
	if vote.Status != from {
		return domainerrors.ErrConflict
	}
	vote.Status = to
	vote.UpdatedAt = updatedAt.UTC()
	s.votes[voteID] = vote
	return nil
}

func (s *Store) UpdateVoteDetails(_ context.Context, vote entities.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.votes[vote.VoteID]
	if !ok {
		return domainerrors.ErrVoteNotFound
	}
	existing.Title = vote.Title
	existing.Options = append([]entities.VoteOption(nil), vote.Options...)
	existing.UpdatedAt = vote.UpdatedAt.UTC()
	s.votes[vote.VoteID] = existing
	return nil
}

func (s *Store) DeleteVote(_ context.Context, voteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.votes[voteID]; !ok {
		return domainerrors.ErrVoteNotFound
	}
	if len(s.ballots[voteID]) > 0 {
		return domainerrors.ErrConflict
	}
	delete(s.votes, voteID)
	delete(s.ballots, voteID)
	return nil
}

func (s *Store) InsertBallot(_ context.Context, ballot entities.Ballot) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUnit, ok := s.ballots[ballot.VoteID]
	if !ok {
		byUnit = make(map[string]entities.Ballot)
		s.ballots[ballot.VoteID] = byUnit
	}
	if _, exists := byUnit[ballot.UnitID]; exists {
		return false, nil
	}
	byUnit[ballot.UnitID] = ballot
	return true, nil
}

func (s *Store) ListBallots(_ context.Context, voteID string) ([]entities.Ballot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Ballot, 0, len(s.ballots[voteID]))
	for _, ballot := range s.ballots[strings.TrimSpace(voteID)] {
		items = append(items, ballot)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].UnitID < items[j].UnitID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) CountBallotsByOption(_ context.Context, voteID string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	for _, ballot := range s.ballots[strings.TrimSpace(voteID)] {
		counts[ballot.OptionID]++
	}
	return counts, nil
}

func (s *Store) DeleteBallotsByVote(_ context.Context, voteID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := int64(len(s.ballots[voteID]))
	delete(s.ballots, voteID)
	return deleted, nil
}

func (s *Store) GetAttendance(_ context.Context, unitID string) (entities.AttendanceLog, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log, ok := s.attendance[strings.TrimSpace(unitID)]
	return log, ok, nil
}

func (s *Store) CheckIn(_ context.Context, log entities.AttendanceLog) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attendance[log.UnitID]; ok {
		return false, nil
	}
	s.attendance[log.UnitID] = log
	return true, nil
}

func (s *Store) CheckOut(_ context.Context, unitID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attendance[unitID]; !ok {
		return false, nil
	}
	delete(s.attendance, unitID)
	return true, nil
}

func (s *Store) ListAttendanceByAssembly(_ context.Context, assemblyID string) ([]entities.AttendanceLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.AttendanceLog, 0)
	for _, log := range s.attendance {
		if log.AssemblyID == strings.TrimSpace(assemblyID) {
			items = append(items, log)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].UnitID < items[j].UnitID
	})
	return items, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.outbox[envelope.EventID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrConflict
		}
		return nil
	}
	s.outbox[envelope.EventID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     envelope.EventID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt.UTC(),
		},
	}
	s.outboxSeq = append(s.outboxSeq, envelope.EventID)
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, limit)
	for _, id := range s.outboxSeq {
		record := s.outbox[id]
		if record.published {
			continue
		}
		items = append(items, record.message)
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.outbox[outboxID]
	if !ok {
		return domainerrors.ErrConflict
	}
	record.published = true
	s.outbox[outboxID] = record
	return nil
}

// OutboxEventTypes lists appended event types in write order.
func (s *Store) OutboxEventTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]string, 0, len(s.outboxSeq))
	for _, id := range s.outboxSeq {
		items = append(items, s.outbox[id].message.EventType)
	}
	return items
}

func (s *Store) ReserveEvent(_ context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	now := s.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, record := range s.eventDedup {
		if !now.Before(record.expiresAt) {
			delete(s.eventDedup, id)
		}
	}
	if existing, ok := s.eventDedup[eventID]; ok {
		if existing.payloadHash != payloadHash {
			return false, domainerrors.ErrConflict
		}
		return true, nil
	}
	s.eventDedup[eventID] = dedupRecord{payloadHash: payloadHash, expiresAt: expiresAt.UTC()}
	return false, nil
}

func (s *Store) filterUnits(match func(entities.Unit) bool) []entities.Unit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Unit, 0)
	for _, unit := range s.units {
		if match(unit) {
			items = append(items, unit)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].UnitID < items[j].UnitID
	})
	return items
}

func (s *Store) hasApprovedLocked(principalID string, exceptProxyID string) bool {
	for id, proxy := range s.proxies {
		if id != exceptProxyID && proxy.PrincipalID == principalID && proxy.Status == entities.ProxyStatusApproved {
			return true
		}
	}
	return false
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	saved := snapshot{
		units:      copyMap(s.units),
		accounts:   copyMap(s.accounts),
		identities: copyMap(s.identities),
		proxies:    copyMap(s.proxies),
		signatures: copyMap(s.signatures),
		votes:      make(map[string]entities.Vote, len(s.votes)),
		ballots:    make(map[string]map[string]entities.Ballot, len(s.ballots)),
		attendance: copyMap(s.attendance),
		outbox:     copyMap(s.outbox),
		outboxSeq:  append([]string(nil), s.outboxSeq...),
	}
	for id, vote := range s.votes {
		saved.votes[id] = cloneVote(vote)
	}
	for voteID, byUnit := range s.ballots {
		saved.ballots[voteID] = copyMap(byUnit)
	}
	return saved
}

func (s *Store) restore(saved snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units = saved.units
	s.accounts = saved.accounts
	s.identities = saved.identities
	s.proxies = saved.proxies
	s.signatures = saved.signatures
	s.votes = saved.votes
	s.ballots = saved.ballots
	s.attendance = saved.attendance
	s.outbox = saved.outbox
	s.outboxSeq = saved.outboxSeq
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneVote(vote entities.Vote) entities.Vote {
	vote.Options = append([]entities.VoteOption(nil), vote.Options...)
	return vote
}

var _ ports.Repository = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.EventDedupStore = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
