package http

import "time"

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type RequestDelegationRequest struct {
	RepresentativeID       string `json:"representative_id,omitempty"`
	RepresentativeDocument string `json:"representative_document,omitempty"`
	ExternalName           string `json:"external_name,omitempty"`
}

type VerifyDelegationRequest struct {
	SignatureID string `json:"signature_id"`
	Code        string `json:"code"`
}

type ManualDelegationRequest struct {
	PrincipalID            string `json:"principal_id"`
	RepresentativeID       string `json:"representative_id,omitempty"`
	RepresentativeDocument string `json:"representative_document,omitempty"`
	ExternalName           string `json:"external_name,omitempty"`
	Type                   string `json:"type"`
	DocumentRef            string `json:"document_ref,omitempty"`
}

type ProxyResponse struct {
	ProxyID           string    `json:"proxy_id"`
	AssemblyID        string    `json:"assembly_id"`
	PrincipalID       string    `json:"principal_id"`
	RepresentativeID  string    `json:"representative_id,omitempty"`
	ExternalName      string    `json:"external_name,omitempty"`
	ExternalDocNumber string    `json:"external_doc_number,omitempty"`
	Type              string    `json:"type"`
	Status            string    `json:"status"`
	DocumentURL       string    `json:"document_url,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type ChannelWarning struct {
	Channel string `json:"channel"`
	Error   string `json:"error"`
}

type RequestDelegationResponse struct {
	Success           bool             `json:"success"`
	Proxy             ProxyResponse    `json:"proxy"`
	SignatureID       string           `json:"signature_id"`
	ExpiresAt         time.Time        `json:"expires_at"`
	DeliveredChannels []string         `json:"delivered_channels"`
	Warnings          []ChannelWarning `json:"warnings,omitempty"`
}

type DelegationResponse struct {
	Success          bool          `json:"success"`
	Proxy            ProxyResponse `json:"proxy"`
	DocumentHash     string        `json:"document_hash,omitempty"`
	UnitsTransferred int64         `json:"units_transferred"`
	RevokedProxyIDs  []string      `json:"revoked_proxy_ids,omitempty"`
	Warnings         []string      `json:"warnings,omitempty"`
}

type RevokeDelegationResponse struct {
	Success       bool          `json:"success"`
	Proxy         ProxyResponse `json:"proxy"`
	UnitsRestored int64         `json:"units_restored"`
	Warnings      []string      `json:"warnings,omitempty"`
}

type CastVoteRequest struct {
	OptionID string `json:"option_id"`
	TargetID string `json:"target_id,omitempty"`
}

// Decimal quantities are serialized as strings to keep them exact.
type CastVoteResponse struct {
	Success     bool     `json:"success"`
	VoteID      string   `json:"vote_id"`
	OptionID    string   `json:"option_id"`
	TargetID    string   `json:"target_id"`
	BallotCount int      `json:"ballot_count"`
	Weight      string   `json:"weight"`
	UnitIDs     []string `json:"unit_ids"`
}

type VoteOptionInput struct {
	OptionID string `json:"option_id,omitempty"`
	Label    string `json:"label"`
}

type CreateVoteRequest struct {
	AssemblyID string            `json:"assembly_id"`
	Title      string            `json:"title"`
	Options    []VoteOptionInput `json:"options"`
}

type UpdateVoteStatusRequest struct {
	Status string `json:"status"`
}

// UpdateVoteDetailsRequest leaves absent fields unchanged.
type UpdateVoteDetailsRequest struct {
	Title   *string           `json:"title,omitempty"`
	Options []VoteOptionInput `json:"options,omitempty"`
}

type VoteOptionResponse struct {
	OptionID   string `json:"option_id"`
	Label      string `json:"label"`
	OrderIndex int    `json:"order_index"`
}

type VoteResponse struct {
	Success    bool                 `json:"success"`
	VoteID     string               `json:"vote_id"`
	AssemblyID string               `json:"assembly_id"`
	Title      string               `json:"title"`
	Status     string               `json:"status"`
	Options    []VoteOptionResponse `json:"options"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

type DeleteVoteResponse struct {
	Success        bool   `json:"success"`
	VoteID         string `json:"vote_id"`
	BallotsDeleted int64  `json:"ballots_deleted"`
}

type OptionTallyResponse struct {
	OptionID   string `json:"option_id"`
	Label      string `json:"label"`
	Weight     string `json:"weight"`
	Ballots    int    `json:"ballots"`
	Percentage string `json:"percentage"`
}

type TallyResponse struct {
	Success      bool                  `json:"success"`
	VoteID       string                `json:"vote_id"`
	Title        string                `json:"title"`
	Status       string                `json:"status"`
	TotalWeight  string                `json:"total_weight"`
	TotalBallots int                   `json:"total_ballots"`
	Options      []OptionTallyResponse `json:"options"`
	Live         bool                  `json:"live"`
}

type AttendanceResponse struct {
	Success    bool      `json:"success"`
	UnitID     string    `json:"unit_id"`
	AssemblyID string    `json:"assembly_id"`
	Present    bool      `json:"present"`
	ToggledAt  time.Time `json:"toggled_at"`
}

type QuorumResponse struct {
	Success            bool   `json:"success"`
	AssemblyID         string `json:"assembly_id"`
	TotalCoefficient   string `json:"total_coefficient"`
	PresentCoefficient string `json:"present_coefficient"`
	Ratio              string `json:"ratio"`
	Percentage         string `json:"percentage"`
	TotalUnits         int    `json:"total_units"`
	PresentUnits       int    `json:"present_units"`
}

type UnitResponse struct {
	UnitID      string `json:"unit_id"`
	Label       string `json:"label"`
	Coefficient string `json:"coefficient"`
	OwnerDoc    string `json:"owner_document_id"`
}

type RepresentationResponse struct {
	Success       bool            `json:"success"`
	IdentityID    string          `json:"identity_id"`
	AssemblyID    string          `json:"assembly_id"`
	TotalWeight   string          `json:"total_weight"`
	Units         []UnitResponse  `json:"units"`
	ActiveProxies []ProxyResponse `json:"active_proxies"`
}
