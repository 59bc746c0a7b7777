package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dkeye/livepoll/internal/core"
	"github.com/dkeye/livepoll/internal/core/coretest"
	"github.com/dkeye/livepoll/internal/domain"
)

func newVoteFixture(t *testing.T) (*VoteService, *Registry, *memLedger) {
	t.Helper()
	r := NewRegistry()
	l := newMemLedger()
	return NewVoteService(l, l, NewDispatcher(r, SimplePolicy{})), r, l
}

func TestVoteServiceRepliesThenBroadcasts(t *testing.T) {
	svc, r, _ := newVoteFixture(t)
	voter, recVoter := coretest.NewMember("voter")
	peer, recPeer := coretest.NewMember("peer")
	r.Bind(voter)
	r.Bind(peer)
	_, _, _ = r.Join("voter", "p1")
	_, _, _ = r.Join("peer", "p1")

	got, err := svc.Cast(context.Background(), voter.User.UserID, "p1", "o2", voter)
	if err != nil {
		t.Fatalf("cast: %v", err)
	}
	if got.CallerOptionID != "o2" || got.TotalVotes != 1 {
		t.Fatalf("unexpected tally %+v", got)
	}

	types := recVoter.Types()
	if len(types) != 2 || types[0] != core.EventVoteCast || types[1] != core.EventTally {
		t.Fatalf("expected vote_cast then tally, got %v", types)
	}
	if recPeer.Count(core.EventTally) != 1 || recPeer.Count(core.EventVoteCast) != 0 {
		t.Fatalf("expected peer to get only the tally, got %v", recPeer.Types())
	}
}

func TestVoteServiceFailureBroadcastsNothing(t *testing.T) {
	svc, r, l := newVoteFixture(t)
	m, rec := coretest.NewMember("m")
	r.Bind(m)
	_, _, _ = r.Join("m", "p1")

	if _, err := svc.Cast(context.Background(), "u", "p1", "nope", m); !errors.Is(err, domain.ErrOptionNotFound) {
		t.Fatalf("expected option_not_found, got %v", err)
	}
	l.fail = errors.New("db down")
	if _, err := svc.Cast(context.Background(), "u", "p1", "o1", m); err == nil {
		t.Fatal("expected ledger failure")
	}
	if n := len(rec.Types()); n != 0 {
		t.Fatalf("expected no events after failed casts, got %v", rec.Types())
	}
}

func TestVoteServiceRejectsIncompleteRequests(t *testing.T) {
	svc, _, l := newVoteFixture(t)
	if _, err := svc.Cast(context.Background(), "", "p1", "o1", nil); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if _, err := svc.Cast(context.Background(), "u", "p1", "", nil); !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("expected bad_payload, got %v", err)
	}
	if l.calls != 0 {
		t.Fatalf("expected ledger untouched, got %d calls", l.calls)
	}
}

func TestVoteServiceBroadcastsInCommitOrder(t *testing.T) {
	svc, r, _ := newVoteFixture(t)
	watcher, rec := coretest.NewMember("watcher")
	r.Bind(watcher)
	_, _, _ = r.Join("watcher", "p1")

	const voters = 30
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			voter := domain.UserID(fmt.Sprintf("v%d", i))
			if _, err := svc.Cast(context.Background(), voter, "p1", "o1", nil); err != nil {
				t.Errorf("cast %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	events := rec.Events()
	if len(events) != voters {
		t.Fatalf("expected %d tallies, got %d", voters, len(events))
	}
	for i, ev := range events {
		if got := int(ev["totalVotes"].(float64)); got != i+1 {
			t.Fatalf("tally %d out of order: total %d", i, got)
		}
	}
}

func TestPollLocksReleaseEntries(t *testing.T) {
	locks := newPollLocks()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("p1")
			counter++
			unlock()
		}()
	}
	wg.Wait()
	if counter != 100 {
		t.Fatalf("expected 100 increments, got %d", counter)
	}
	if n := locks.size(); n != 0 {
		t.Fatalf("expected lock table to drain, got %d", n)
	}
}
