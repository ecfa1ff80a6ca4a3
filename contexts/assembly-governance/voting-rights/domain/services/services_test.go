package services

import (
	"strings"
	"testing"
	"time"

	"assembly/contexts/assembly-governance/voting-rights/domain/entities"

	"github.com/shopspring/decimal"
)

func units(coefficients ...string) []entities.Unit {
	items := make([]entities.Unit, 0, len(coefficients))
	for i, coefficient := range coefficients {
		items = append(items, entities.Unit{
			UnitID:      string(rune('A' + i)),
			Coefficient: decimal.RequireFromString(coefficient),
		})
	}
	return items
}

func TestComputeQuorum(t *testing.T) {
	cases := []struct {
		name       string
		units      []entities.Unit
		present    map[string]bool
		percentage string
		balanced   bool
	}{
		{name: "weighted attendance", units: units("0.1", "0.2", "0.3", "0.4"), present: map[string]bool{"B": true, "D": true}, percentage: "60", balanced: true},
		{name: "nobody present", units: units("0.5", "0.5"), present: nil, percentage: "0", balanced: true},
		{name: "empty roll", units: nil, present: nil, percentage: "0", balanced: false},
		{name: "roll not summing to one", units: units("0.2", "0.2", "0.2"), present: map[string]bool{"A": true}, percentage: "33.3333", balanced: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			quorum := ComputeQuorum("asm", tc.units, tc.present)
			if !quorum.Percentage.Equal(decimal.RequireFromString(tc.percentage)) {
				t.Fatalf("expected %s, got %s", tc.percentage, quorum.Percentage)
			}
			if quorum.BalancedTotal() != tc.balanced {
				t.Fatalf("expected balanced=%v for total %s", tc.balanced, quorum.TotalCoefficient)
			}
		})
	}
}

func TestVoteTransitions(t *testing.T) {
	allowed := [][2]entities.VoteStatus{
		{entities.VoteStatusDraft, entities.VoteStatusOpen},
		{entities.VoteStatusOpen, entities.VoteStatusPaused},
		{entities.VoteStatusOpen, entities.VoteStatusClosed},
		{entities.VoteStatusPaused, entities.VoteStatusOpen},
	}
	for _, edge := range allowed {
		if !CanTransitionVote(edge[0], edge[1]) {
			t.Fatalf("expected %s -> %s allowed", edge[0], edge[1])
		}
	}
	for _, to := range []entities.VoteStatus{entities.VoteStatusDraft, entities.VoteStatusOpen, entities.VoteStatusPaused} {
		if CanTransitionVote(entities.VoteStatusClosed, to) {
			t.Fatalf("closed vote must not move to %s", to)
		}
	}
	if CanTransitionVote(entities.VoteStatusPaused, entities.VoteStatusClosed) {
		t.Fatalf("paused vote must reopen before closing")
	}
}

func TestProxyTransitions(t *testing.T) {
	if !CanTransitionProxy(entities.ProxyStatusPending, entities.ProxyStatusApproved) {
		t.Fatalf("pending proxy must be approvable")
	}
	if CanTransitionProxy(entities.ProxyStatusRevoked, entities.ProxyStatusApproved) {
		t.Fatalf("revoked proxy is terminal")
	}
	if CanTransitionProxy(entities.ProxyStatusExpired, entities.ProxyStatusPending) {
		t.Fatalf("expired proxy is terminal")
	}
}

func TestLiveTallyIgnoresReplaysAndForeignVotes(t *testing.T) {
	vote := entities.Vote{
		VoteID: "v1",
		Options: []entities.VoteOption{
			{OptionID: "no", Label: "No", OrderIndex: 1},
			{OptionID: "yes", Label: "Yes", OrderIndex: 0},
		},
	}
	live := NewLiveTally(vote)
	ballot := entities.Ballot{BallotID: "b1", VoteID: "v1", OptionID: "yes", Weight: decimal.RequireFromString("0.3")}
	if !live.Apply(ballot) {
		t.Fatalf("expected first apply to count")
	}
	if live.Apply(ballot) {
		t.Fatalf("expected replay to be ignored")
	}
	if live.Apply(entities.Ballot{BallotID: "b2", VoteID: "v2", OptionID: "yes", Weight: decimal.NewFromInt(1)}) {
		t.Fatalf("expected foreign vote to be ignored")
	}
	live.Apply(entities.Ballot{BallotID: "b3", VoteID: "v1", OptionID: "no", Weight: decimal.RequireFromString("0.1")})

	snapshot := live.Snapshot()
	if snapshot.TotalBallots != 2 || !snapshot.TotalWeight.Equal(decimal.RequireFromString("0.4")) {
		t.Fatalf("unexpected totals %+v", snapshot)
	}
	if snapshot.Options[0].OptionID != "yes" {
		t.Fatalf("expected options ordered by index, got %+v", snapshot.Options)
	}
	if !snapshot.Options[0].Percentage.Equal(decimal.NewFromInt(75)) {
		t.Fatalf("expected yes at 75%%, got %s", snapshot.Options[0].Percentage)
	}
}

func TestDocumentHashIsStable(t *testing.T) {
	payload := SignedPayload{
		ProxyID:          "p1",
		PrincipalID:      "id-principal",
		RepresentativeID: "id-representative",
		IPAddress:        "10.0.0.1",
		UserAgent:        "curl/8 <test>",
		SignedAt:         time.Date(2026, time.March, 14, 4, 0, 0, 0, time.FixedZone("COT", -5*3600)),
	}
	first, canonical, err := DocumentHash(payload)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	payload.SignedAt = payload.SignedAt.UTC()
	second, _, _ := DocumentHash(payload)
	if first != second {
		t.Fatalf("expected hash independent of time zone")
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(first))
	}
	if !strings.Contains(string(canonical), "curl/8 <test>") {
		t.Fatalf("expected unescaped user agent in %s", canonical)
	}
	if !strings.HasPrefix(string(canonical), `{"proxy_id":"p1"`) {
		t.Fatalf("unexpected field order %s", canonical)
	}
}
