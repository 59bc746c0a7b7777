package app

import (
	"context"
	"strings"

	"github.com/dkeye/livepoll/internal/core"
	"github.com/dkeye/livepoll/internal/domain"
	"github.com/rs/zerolog/log"
)

// Polls is the authoring side: create, read, list and owner-only updates.
type Polls struct {
	store core.PollStore
	votes *VoteService
}

func NewPolls(store core.PollStore, votes *VoteService) *Polls {
	return &Polls{store: store, votes: votes}
}

func (p *Polls) Create(ctx context.Context, creator domain.UserID, question string, drafts []domain.OptionDraft, published bool) (*domain.Poll, error) {
	poll, err := domain.NewPoll(creator, question, drafts, published)
	if err != nil {
		return nil, err
	}
	if err := p.store.CreatePoll(ctx, poll); err != nil {
		return nil, err
	}
	log.Info().Str("module", "app.polls").Str("poll", string(poll.ID)).Str("creator", string(creator)).Bool("published", published).Msg("poll created")
	return poll, nil
}

// Get returns the poll with its tally. Unpublished polls are only visible to
// their creator.
func (p *Polls) Get(ctx context.Context, id domain.PollID, caller domain.UserID) (*domain.Poll, domain.Tally, error) {
	poll, err := p.store.GetPoll(ctx, id)
	if err != nil {
		return nil, domain.Tally{}, err
	}
	if !poll.Published && poll.CreatorID != caller {
		return nil, domain.Tally{}, domain.ErrPollNotFound
	}
	t, err := p.votes.Tally(ctx, id, caller)
	if err != nil {
		return nil, domain.Tally{}, err
	}
	return poll, t, nil
}

func (p *Polls) List(ctx context.Context, limit, offset int) ([]*domain.Poll, error) {
	return p.store.ListPolls(ctx, core.ListFilter{PublishedOnly: true, Limit: limit, Offset: offset})
}

func (p *Polls) ListMine(ctx context.Context, creator domain.UserID, limit, offset int) ([]*domain.Poll, error) {
	return p.store.ListPolls(ctx, core.ListFilter{CreatorID: creator, Limit: limit, Offset: offset})
}

// Update changes question text and/or the published flag; owner only.
func (p *Polls) Update(ctx context.Context, id domain.PollID, caller domain.UserID, u domain.PollUpdate) (*domain.Poll, error) {
	poll, err := p.store.GetPoll(ctx, id)
	if err != nil {
		return nil, err
	}
	if poll.CreatorID != caller {
		if !poll.Published {
			return nil, domain.ErrPollNotFound
		}
		return nil, domain.ErrNotOwner
	}
	if u.Question != nil {
		q := strings.TrimSpace(*u.Question)
		if err := domain.ValidateQuestion(q); err != nil {
			return nil, err
		}
		u.Question = &q
	}
	updated, err := p.store.UpdatePoll(ctx, id, u)
	if err != nil {
		return nil, err
	}
	log.Info().Str("module", "app.polls").Str("poll", string(id)).Bool("published", updated.Published).Msg("poll updated")
	return updated, nil
}
