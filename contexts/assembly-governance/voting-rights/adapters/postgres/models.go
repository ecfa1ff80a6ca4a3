package postgresadapter

import (
	"encoding/json"
	"strings"
	"time"

	"assembly/contexts/assembly-governance/voting-rights/domain/entities"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type unitModel struct {
	UnitID                  string          `gorm:"column:unit_id;primaryKey"`
	AssemblyID              string          `gorm:"column:assembly_id;index;not null"`
	Label                   string          `gorm:"column:label"`
	Coefficient             decimal.Decimal `gorm:"column:coefficient;type:decimal(20,10);not null"`
	OwnerDocumentID         string          `gorm:"column:owner_document_id;index;not null"`
	CurrentRepresentativeID string          `gorm:"column:current_representative_id;index"`
	OwnerEmail              string          `gorm:"column:owner_email"`
	OwnerPhone              string          `gorm:"column:owner_phone"`
}

func (unitModel) TableName() string {
	return "units"
}

func unitModelFromEntity(unit entities.Unit) unitModel {
	return unitModel{
		UnitID:                  strings.TrimSpace(unit.UnitID),
		AssemblyID:              strings.TrimSpace(unit.AssemblyID),
		Label:                   strings.TrimSpace(unit.Label),
		Coefficient:             unit.Coefficient,
		OwnerDocumentID:         unit.OwnerDocumentID.String(),
		CurrentRepresentativeID: strings.TrimSpace(unit.CurrentRepresentativeID),
		OwnerEmail:              strings.TrimSpace(unit.OwnerEmail),
		OwnerPhone:              strings.TrimSpace(unit.OwnerPhone),
	}
}

func (m unitModel) toEntity() entities.Unit {
	return entities.Unit{
		UnitID:                  m.UnitID,
		AssemblyID:              m.AssemblyID,
		Label:                   m.Label,
		Coefficient:             m.Coefficient,
		OwnerDocumentID:         entities.DocumentID(m.OwnerDocumentID),
		CurrentRepresentativeID: m.CurrentRepresentativeID,
		OwnerEmail:              m.OwnerEmail,
		OwnerPhone:              m.OwnerPhone,
	}
}

type accountModel struct {
	AccountID string    `gorm:"column:account_id;primaryKey"`
	Handle    string    `gorm:"column:handle;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (accountModel) TableName() string {
	return "accounts"
}

type identityModel struct {
	IdentityID string    `gorm:"column:identity_id;primaryKey"`
	DocumentID *string   `gorm:"column:document_id;uniqueIndex"`
	FullName   string    `gorm:"column:full_name"`
	Email      string    `gorm:"column:email"`
	Phone      string    `gorm:"column:phone"`
	Role       string    `gorm:"column:role;not null"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (identityModel) TableName() string {
	return "identities"
}

func identityModelFromEntity(identity entities.Identity) identityModel {
	row := identityModel{
		IdentityID: strings.TrimSpace(identity.IdentityID),
		FullName:   strings.TrimSpace(identity.FullName),
		Email:      strings.TrimSpace(identity.Email),
		Phone:      strings.TrimSpace(identity.Phone),
		Role:       string(identity.Role),
		CreatedAt:  identity.CreatedAt.UTC(),
	}
	if !identity.DocumentID.IsZero() {
		document := identity.DocumentID.String()
		row.DocumentID = &document
	}
	if row.Role == "" {
		row.Role = string(entities.RoleOwner)
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return row
}

func (m identityModel) toEntity() entities.Identity {
	var document entities.DocumentID
	if m.DocumentID != nil {
		document = entities.DocumentID(*m.DocumentID)
	}
	return entities.Identity{
		IdentityID: m.IdentityID,
		DocumentID: document,
		FullName:   m.FullName,
		Email:      m.Email,
		Phone:      m.Phone,
		Role:       entities.Role(m.Role),
		CreatedAt:  m.CreatedAt.UTC(),
	}
}

type proxyModel struct {
	ProxyID           string    `gorm:"column:proxy_id;primaryKey"`
	AssemblyID        string    `gorm:"column:assembly_id;index"`
	PrincipalID       string    `gorm:"column:principal_id;index;not null"`
	RepresentativeID  string    `gorm:"column:representative_id"`
	ExternalName      string    `gorm:"column:external_name"`
	ExternalDocNumber string    `gorm:"column:external_doc_number"`
	Type              string    `gorm:"column:type;not null"`
	Status            string    `gorm:"column:status;not null"`
	DocumentURL       string    `gorm:"column:document_url"`
	RegisteredBy      string    `gorm:"column:registered_by"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (proxyModel) TableName() string {
	return "proxies"
}

func proxyModelFromEntity(proxy entities.Proxy) proxyModel {
	row := proxyModel{
		ProxyID:           strings.TrimSpace(proxy.ProxyID),
		AssemblyID:        strings.TrimSpace(proxy.AssemblyID),
		PrincipalID:       strings.TrimSpace(proxy.PrincipalID),
		RepresentativeID:  strings.TrimSpace(proxy.RepresentativeID),
		ExternalName:      strings.TrimSpace(proxy.ExternalName),
		ExternalDocNumber: proxy.ExternalDocNumber.String(),
		Type:              string(proxy.Type),
		Status:            string(proxy.Status),
		DocumentURL:       strings.TrimSpace(proxy.DocumentURL),
		RegisteredBy:      strings.TrimSpace(proxy.RegisteredBy),
		CreatedAt:         proxy.CreatedAt.UTC(),
		UpdatedAt:         proxy.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m proxyModel) toEntity() entities.Proxy {
	return entities.Proxy{
		ProxyID:           m.ProxyID,
		AssemblyID:        m.AssemblyID,
		PrincipalID:       m.PrincipalID,
		RepresentativeID:  m.RepresentativeID,
		ExternalName:      m.ExternalName,
		ExternalDocNumber: entities.DocumentID(m.ExternalDocNumber),
		Type:              entities.ProxyType(m.Type),
		Status:            entities.ProxyStatus(m.Status),
		DocumentURL:       m.DocumentURL,
		RegisteredBy:      m.RegisteredBy,
		CreatedAt:         m.CreatedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
}

type signatureModel struct {
	SignatureID    string         `gorm:"column:signature_id;primaryKey"`
	ProxyID        string         `gorm:"column:proxy_id;uniqueIndex;not null"`
	PrincipalID    string         `gorm:"column:principal_id;index;not null"`
	OTPCode        string         `gorm:"column:otp_code;not null"`
	OTPExpiresAt   time.Time      `gorm:"column:otp_expires_at;index"`
	Status         string         `gorm:"column:status;not null"`
	FailedAttempts int            `gorm:"column:failed_attempts;not null;default:0"`
	DocumentHash   string         `gorm:"column:document_hash"`
	SignedPayload  datatypes.JSON `gorm:"column:signed_payload"`
	IPAddress      string         `gorm:"column:ip_address"`
	UserAgent      string         `gorm:"column:user_agent"`
	VerifiedAt     *time.Time     `gorm:"column:verified_at"`
	CreatedAt      time.Time      `gorm:"column:created_at"`
}

func (signatureModel) TableName() string {
	return "digital_signatures"
}

func signatureModelFromEntity(signature entities.DigitalSignature) signatureModel {
	row := signatureModel{
		SignatureID:    strings.TrimSpace(signature.SignatureID),
		ProxyID:        strings.TrimSpace(signature.ProxyID),
		PrincipalID:    strings.TrimSpace(signature.PrincipalID),
		OTPCode:        signature.OTPCode,
		OTPExpiresAt:   signature.OTPExpiresAt.UTC(),
		Status:         string(signature.Status),
		FailedAttempts: signature.FailedAttempts,
		DocumentHash:   signature.DocumentHash,
		IPAddress:      strings.TrimSpace(signature.IPAddress),
		UserAgent:      strings.TrimSpace(signature.UserAgent),
		VerifiedAt:     normalizeOptionalTime(signature.VerifiedAt),
		CreatedAt:      signature.CreatedAt.UTC(),
	}
	if len(signature.SignedPayload) > 0 {
		row.SignedPayload = datatypes.JSON(signature.SignedPayload)
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return row
}

func (m signatureModel) toEntity() entities.DigitalSignature {
	var payload json.RawMessage
	if len(m.SignedPayload) > 0 {
		payload = append(json.RawMessage(nil), m.SignedPayload...)
	}
	return entities.DigitalSignature{
		SignatureID:    m.SignatureID,
		ProxyID:        m.ProxyID,
		PrincipalID:    m.PrincipalID,
		OTPCode:        m.OTPCode,
		OTPExpiresAt:   m.OTPExpiresAt.UTC(),
		Status:         entities.SignatureStatus(m.Status),
		FailedAttempts: m.FailedAttempts,
		DocumentHash:   m.DocumentHash,
		SignedPayload:  payload,
		IPAddress:      m.IPAddress,
		UserAgent:      m.UserAgent,
		VerifiedAt:     normalizeOptionalTime(m.VerifiedAt),
		CreatedAt:      m.CreatedAt.UTC(),
	}
}

// voteModel declares its children only so AutoMigrate emits the foreign
// keys: options cascade with the vote, ballots must be deleted first.
type voteModel struct {
	VoteID     string            `gorm:"column:vote_id;primaryKey"`
	AssemblyID string            `gorm:"column:assembly_id;index;not null"`
	Title      string            `gorm:"column:title;not null"`
	Status     string            `gorm:"column:status;not null"`
	CreatedAt  time.Time         `gorm:"column:created_at"`
	UpdatedAt  time.Time         `gorm:"column:updated_at"`
	Options    []voteOptionModel `gorm:"foreignKey:VoteID;references:VoteID;constraint:OnDelete:CASCADE"`
	Ballots    []ballotModel     `gorm:"foreignKey:VoteID;references:VoteID;constraint:OnDelete:RESTRICT"`
}

func (voteModel) TableName() string {
	return "votes"
}

func voteModelFromEntity(vote entities.Vote) voteModel {
	row := voteModel{
		VoteID:     strings.TrimSpace(vote.VoteID),
		AssemblyID: strings.TrimSpace(vote.AssemblyID),
		Title:      strings.TrimSpace(vote.Title),
		Status:     string(vote.Status),
		CreatedAt:  vote.CreatedAt.UTC(),
		UpdatedAt:  vote.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m voteModel) toEntity(options []voteOptionModel) entities.Vote {
	vote := entities.Vote{
		VoteID:     m.VoteID,
		AssemblyID: m.AssemblyID,
		Title:      m.Title,
		Status:     entities.VoteStatus(m.Status),
		Options:    make([]entities.VoteOption, 0, len(options)),
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
	for _, option := range options {
		vote.Options = append(vote.Options, option.toEntity())
	}
	return vote
}

type voteOptionModel struct {
	OptionID   string `gorm:"column:option_id;primaryKey"`
	VoteID     string `gorm:"column:vote_id;index;not null"`
	Label      string `gorm:"column:label;not null"`
	OrderIndex int    `gorm:"column:order_index"`
}

func (voteOptionModel) TableName() string {
	return "vote_options"
}

func voteOptionModelsFromEntity(vote entities.Vote) []voteOptionModel {
	rows := make([]voteOptionModel, 0, len(vote.Options))
	for _, option := range vote.Options {
		rows = append(rows, voteOptionModel{
			OptionID:   strings.TrimSpace(option.OptionID),
			VoteID:     strings.TrimSpace(vote.VoteID),
			Label:      strings.TrimSpace(option.Label),
			OrderIndex: option.OrderIndex,
		})
	}
	return rows
}

func (m voteOptionModel) toEntity() entities.VoteOption {
	return entities.VoteOption{
		OptionID:   m.OptionID,
		VoteID:     m.VoteID,
		Label:      m.Label,
		OrderIndex: m.OrderIndex,
	}
}

type ballotModel struct {
	BallotID         string          `gorm:"column:ballot_id;primaryKey"`
	VoteID           string          `gorm:"column:vote_id;not null;uniqueIndex:ux_ballots_vote_unit,priority:1"`
	UnitID           string          `gorm:"column:unit_id;not null;uniqueIndex:ux_ballots_vote_unit,priority:2"`
	OptionID         string          `gorm:"column:option_id;index;not null"`
	VoterIdentityID  string          `gorm:"column:voter_identity_id;not null"`
	CastByIdentityID string          `gorm:"column:cast_by_identity_id"`
	Weight           decimal.Decimal `gorm:"column:weight;type:decimal(20,10);not null"`
	CreatedAt        time.Time       `gorm:"column:created_at"`
}

func (ballotModel) TableName() string {
	return "ballots"
}

func ballotModelFromEntity(ballot entities.Ballot) ballotModel {
	row := ballotModel{
		BallotID:         strings.TrimSpace(ballot.BallotID),
		VoteID:           strings.TrimSpace(ballot.VoteID),
		UnitID:           strings.TrimSpace(ballot.UnitID),
		OptionID:         strings.TrimSpace(ballot.OptionID),
		VoterIdentityID:  strings.TrimSpace(ballot.VoterIdentityID),
		CastByIdentityID: strings.TrimSpace(ballot.CastByIdentityID),
		Weight:           ballot.Weight,
		CreatedAt:        ballot.CreatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return row
}

func (m ballotModel) toEntity() entities.Ballot {
	return entities.Ballot{
		BallotID:         m.BallotID,
		VoteID:           m.VoteID,
		OptionID:         m.OptionID,
		UnitID:           m.UnitID,
		VoterIdentityID:  m.VoterIdentityID,
		CastByIdentityID: m.CastByIdentityID,
		Weight:           m.Weight,
		CreatedAt:        m.CreatedAt.UTC(),
	}
}

type attendanceModel struct {
	UnitID      string    `gorm:"column:unit_id;primaryKey"`
	AssemblyID  string    `gorm:"column:assembly_id;index;not null"`
	CheckedInAt time.Time `gorm:"column:checked_in_at"`
	CheckedInBy string    `gorm:"column:checked_in_by"`
}

func (attendanceModel) TableName() string {
	return "attendance_logs"
}

func (m attendanceModel) toEntity() entities.AttendanceLog {
	return entities.AttendanceLog{
		UnitID:      m.UnitID,
		AssemblyID:  m.AssemblyID,
		CheckedInAt: m.CheckedInAt.UTC(),
		CheckedInBy: m.CheckedInBy,
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "voting_rights_outbox"
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at;index"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventDedupModel) TableName() string {
	return "voting_rights_event_dedup"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}
