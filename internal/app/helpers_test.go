package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/dkeye/livepoll/internal/core"
	"github.com/dkeye/livepoll/internal/domain"
)

func domainSID(i int) core.SessionID { return core.SessionID(fmt.Sprintf("s%d", i)) }

// memLedger is a map-backed VoteLedger and TallyReader for a single poll.
type memLedger struct {
	mu    sync.Mutex
	poll  *domain.Poll
	votes map[domain.UserID]domain.OptionID
	fail  error
	calls int
}

func newMemLedger() *memLedger {
	return &memLedger{
		poll: &domain.Poll{
			ID:        "p1",
			Published: true,
			Options: []domain.Option{
				{ID: "o1", PollID: "p1", Text: "one", Order: 0},
				{ID: "o2", PollID: "p1", Text: "two", Order: 1},
			},
		},
		votes: make(map[domain.UserID]domain.OptionID),
	}
}

func (l *memLedger) CastVote(_ context.Context, voter domain.UserID, poll domain.PollID, option domain.OptionID) (domain.Tally, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.fail != nil {
		return domain.Tally{}, l.fail
	}
	if poll != l.poll.ID {
		return domain.Tally{}, domain.ErrPollNotFound
	}
	if _, ok := l.poll.Option(option); !ok {
		return domain.Tally{}, domain.ErrOptionNotFound
	}
	l.votes[voter] = option
	return l.tallyLocked(voter), nil
}

func (l *memLedger) ComputeTally(_ context.Context, poll domain.PollID, caller domain.UserID) (domain.Tally, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if poll != l.poll.ID {
		return domain.Tally{}, domain.ErrPollNotFound
	}
	return l.tallyLocked(caller), nil
}

func (l *memLedger) GetPoll(_ context.Context, id domain.PollID) (*domain.Poll, error) {
	if id != l.poll.ID {
		return nil, domain.ErrPollNotFound
	}
	return l.poll, nil
}

func (l *memLedger) tallyLocked(caller domain.UserID) domain.Tally {
	counts := make(map[domain.OptionID]int)
	for _, o := range l.votes {
		counts[o]++
	}
	return core.BuildTally(l.poll, counts, l.votes[caller])
}
