package commands

import (
	"context"
	"errors"
	"sync"
	"testing"

	domainerrors "assembly/contexts/assembly-governance/voting-rights/domain/errors"
	contractsv1 "assembly/contracts/gen/events/v1"
)

const parallelCallers = 16

func TestParallelVerifyApprovesOnce(t *testing.T) {
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

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failures  []error
	)
	for i := 0; i < parallelCallers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.delegations.VerifyDigitalDelegation(ctx, cmd)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domainerrors.ErrAlreadyProcessed):
			default:
				failures = append(failures, err)
			}
		}()
	}
	wg.Wait()

	if len(failures) > 0 {
		t.Fatalf("unexpected verify errors: %v", failures)
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one successful verify, got %d", succeeded)
	}
	if got := countApproved(t, f, principalID); got != 1 {
		t.Fatalf("expected one approved proxy, got %d", got)
	}
	if got := countEvents(f, contractsv1.EventProxyApproved); got != 1 {
		t.Fatalf("expected one proxy.approved event, got %d", got)
	}
}

func TestParallelCastWritesOneBallotPerUnit(t *testing.T) {
	f := newFixture(t,
		unit("U1", "0.1", "CC-300", representativeID),
		unit("U2", "0.15", "CC-400", representativeID),
		unit("U3", "0.25", "CC-500", representativeID),
	)
	ctx := context.Background()
	vote := f.openVote(t)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failures  []error
	)
	for i := 0; i < parallelCallers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.ballots.CastVote(ctx, CastVoteCommand{
				ActorID:  representativeID,
				VoteID:   vote.VoteID,
				OptionID: vote.Options[i%len(vote.Options)].OptionID,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domainerrors.ErrAlreadyVoted):
			default:
				failures = append(failures, err)
			}
		}(i)
	}
	wg.Wait()

	if len(failures) > 0 {
		t.Fatalf("unexpected cast errors: %v", failures)
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one successful cast, got %d", succeeded)
	}
	ballots, err := f.store.ListBallots(ctx, vote.VoteID)
	if err != nil {
		t.Fatalf("list ballots: %v", err)
	}
	seen := make(map[string]bool, len(ballots))
	for _, ballot := range ballots {
		if seen[ballot.UnitID] {
			t.Fatalf("unit %s voted twice", ballot.UnitID)
		}
		seen[ballot.UnitID] = true
	}
	if len(seen) != 3 {
		t.Fatalf("expected three ballots, got %d", len(ballots))
	}
	if got := countEvents(f, contractsv1.EventBallotCast); got != 3 {
		t.Fatalf("expected three ballot.cast events, got %d", got)
	}
}
