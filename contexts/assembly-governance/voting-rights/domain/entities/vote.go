package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type VoteStatus string

const (
	VoteStatusDraft  VoteStatus = "DRAFT"
	VoteStatusOpen   VoteStatus = "OPEN"
	VoteStatusPaused VoteStatus = "PAUSED"
	VoteStatusClosed VoteStatus = "CLOSED"
)

func (s VoteStatus) Valid() bool {
	switch s {
	case VoteStatusDraft, VoteStatusOpen, VoteStatusPaused, VoteStatusClosed:
		return true
	default:
		return false
	}
}

type Vote struct {
	VoteID     string
	AssemblyID string
	Title      string
	Status     VoteStatus
	Options    []VoteOption
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (v Vote) HasOption(optionID string) bool {
	for _, option := range v.Options {
		if option.OptionID == optionID {
			return true
		}
	}
	return false
}

type VoteOption struct {
	OptionID   string
	VoteID     string
	Label      string
	OrderIndex int
}

// Ballot is keyed by (VoteID, UnitID): the unit votes, not the identity.
type Ballot struct {
	BallotID         string
	VoteID           string
	OptionID         string
	UnitID           string
	VoterIdentityID  string
	CastByIdentityID string
	Weight           decimal.Decimal
	CreatedAt        time.Time
}
