package app

import (
	"context"

	"github.com/dkeye/livepoll/internal/core"
	"github.com/dkeye/livepoll/internal/domain"
	"github.com/rs/zerolog/log"
)

// VoteService is the single vote path shared by the REST endpoint and the
// live connection. Per poll, ledger commits and the broadcasts they trigger
// happen under one lock, so members see tallies in commit order.
type VoteService struct {
	ledger     core.VoteLedger
	tallies    core.TallyReader
	dispatcher *Dispatcher
	locks      *pollLocks
}

func NewVoteService(ledger core.VoteLedger, tallies core.TallyReader, dispatcher *Dispatcher) *VoteService {
	return &VoteService{
		ledger:     ledger,
		tallies:    tallies,
		dispatcher: dispatcher,
		locks:      newPollLocks(),
	}
}

// Cast records voter's choice and broadcasts the new tally to the poll's
// room. When reply is set it also gets a vote_cast event carrying the
// caller's own choice, queued before any later broadcast.
//
// A commit is never undone by ctx being cancelled afterwards; the broadcast
// still goes out.
func (s *VoteService) Cast(ctx context.Context, voter domain.UserID, poll domain.PollID, option domain.OptionID, reply core.MemberSession) (domain.Tally, error) {
	if voter == "" {
		return domain.Tally{}, domain.ErrUnauthenticated
	}
	if poll == "" || option == "" {
		return domain.Tally{}, domain.Invalid("pollId and optionId are required")
	}

	unlock := s.locks.Lock(poll)
	defer unlock()

	t, err := s.ledger.CastVote(ctx, voter, poll, option)
	if err != nil {
		return domain.Tally{}, err
	}
	log.Info().Str("module", "app.votes").Str("poll", string(poll)).Str("voter", string(voter)).Str("option", string(option)).Int("total", t.TotalVotes).Msg("vote committed")

	if reply != nil {
		_ = s.dispatcher.Send(reply, core.VoteCastEvent{Type: core.EventVoteCast, Tally: t})
	}
	s.dispatcher.BroadcastTally(t)
	return t, nil
}

// Tally reads the current snapshot of poll as seen by caller.
func (s *VoteService) Tally(ctx context.Context, poll domain.PollID, caller domain.UserID) (domain.Tally, error) {
	return s.tallies.ComputeTally(ctx, poll, caller)
}

// Locked runs fn while holding poll's lock. Anything fn sends is ordered
// with respect to the tally broadcasts of that poll.
func (s *VoteService) Locked(poll domain.PollID, fn func() error) error {
	unlock := s.locks.Lock(poll)
	defer unlock()
	return fn()
}
