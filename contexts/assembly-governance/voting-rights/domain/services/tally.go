package services

import (
	"sort"
	"sync"

	"assembly/contexts/assembly-governance/voting-rights/domain/entities"

	"github.com/shopspring/decimal"
)

type OptionTally struct {
	OptionID   string
	Label      string
	OrderIndex int
	Weight     decimal.Decimal
	Ballots    int
	Percentage decimal.Decimal
}

type Tally struct {
	VoteID       string
	TotalWeight  decimal.Decimal
	TotalBallots int
	Options      []OptionTally
}

// TallyBallots recomputes a vote's result from scratch. Options with no
// ballots are still listed with zero weight.
func TallyBallots(vote entities.Vote, ballots []entities.Ballot) Tally {
	live := NewLiveTally(vote)
	for _, ballot := range ballots {
		live.Apply(ballot)
	}
	return live.Snapshot()
}

// LiveTally aggregates ballots incrementally for realtime display. Replayed
// ballot ids are ignored so at-least-once feeds stay exact.
type LiveTally struct {
	mu      sync.Mutex
	voteID  string
	labels  map[string]entities.VoteOption
	weights map[string]decimal.Decimal
	counts  map[string]int
	seen    map[string]struct{}
	total   decimal.Decimal
	ballots int
}

func NewLiveTally(vote entities.Vote) *LiveTally {
	t := &LiveTally{
		voteID:  vote.VoteID,
		labels:  make(map[string]entities.VoteOption, len(vote.Options)),
		weights: make(map[string]decimal.Decimal, len(vote.Options)),
		counts:  make(map[string]int, len(vote.Options)),
		seen:    make(map[string]struct{}),
		total:   decimal.Zero,
	}
	for _, option := range vote.Options {
		t.labels[option.OptionID] = option
		t.weights[option.OptionID] = decimal.Zero
	}
	return t
}

// Apply adds one ballot. It returns false when the ballot belongs to another
// vote or was already counted.
func (t *LiveTally) Apply(ballot entities.Ballot) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ballot.VoteID != t.voteID {
		return false
	}
	if ballot.BallotID != "" {
		if _, ok := t.seen[ballot.BallotID]; ok {
			return false
		}
		t.seen[ballot.BallotID] = struct{}{}
	}
	current, ok := t.weights[ballot.OptionID]
	if !ok {
		current = decimal.Zero
	}
	t.weights[ballot.OptionID] = current.Add(ballot.Weight)
	t.counts[ballot.OptionID]++
	t.total = t.total.Add(ballot.Weight)
	t.ballots++
	return true
}

func (t *LiveTally) Snapshot() Tally {
	t.mu.Lock()
	defer t.mu.Unlock()
	result := Tally{
		VoteID:       t.voteID,
		TotalWeight:  t.total,
		TotalBallots: t.ballots,
		Options:      make([]OptionTally, 0, len(t.weights)),
	}
	for optionID, weight := range t.weights {
		option := t.labels[optionID]
		percentage := decimal.Zero
		if t.total.IsPositive() {
			percentage = weight.Div(t.total).Mul(hundred).Round(4)
		}
		result.Options = append(result.Options, OptionTally{
			OptionID:   optionID,
			Label:      option.Label,
			OrderIndex: option.OrderIndex,
			Weight:     weight,
			Ballots:    t.counts[optionID],
			Percentage: percentage,
		})
	}
	sort.Slice(result.Options, func(i, j int) bool {
		if result.Options[i].OrderIndex == result.Options[j].OrderIndex {
			return result.Options[i].OptionID < result.Options[j].OptionID
		}
		return result.Options[i].OrderIndex < result.Options[j].OrderIndex
	})
	return result
}
