package orch

import (
	"context"

	"github.com/dkeye/livepoll/internal/core"
	"github.com/dkeye/livepoll/internal/domain"
	"github.com/rs/zerolog/log"
)

// JoinPoll subscribes an authenticated session to a published poll, leaving
// its previous room. The joiner gets poll_joined with the current tally,
// the rest of the room gets member_joined. Joining the current room again
// only refreshes the joiner's snapshot.
func (o *Orchestrator) JoinPoll(ctx context.Context, sess *core.Session, pollID domain.PollID) error {
	if err := checkOpen(ctx, sess); err != nil {
		return err
	}
	id, err := sess.RequireAuth()
	if err != nil {
		return err
	}
	if pollID == "" {
		return domain.Invalid("pollId is required")
	}
	poll, err := o.Polls.GetPoll(ctx, pollID)
	if err != nil {
		return err
	}
	if !poll.Published {
		return domain.ErrPollUnpublished
	}

	return o.Votes.Locked(pollID, func() error {
		t, err := o.Votes.Tally(ctx, pollID, id.UserID)
		if err != nil {
			return err
		}
		prev, joined, err := o.Registry.Join(sess.ID(), pollID)
		if err != nil {
			return err
		}
		if _, err := sess.Subscribe(pollID); err != nil {
			o.Registry.LeaveAll(sess.ID())
			return err
		}
		if prev != "" {
			o.Dispatcher.Presence(core.EventMemberLeft, prev, sess.ID(), id)
		}
		log.Info().Str("module", "orch").Str("sid", string(sess.ID())).Str("poll", string(pollID)).Str("user", string(id.UserID)).Msg("joined poll")

		o.reply(sess, core.PollJoinedEvent{
			Type:    core.EventPollJoined,
			PollID:  pollID,
			Tally:   t,
			Members: o.Registry.MemberCount(pollID),
		})
		if joined {
			o.Dispatcher.Presence(core.EventMemberJoined, pollID, sess.ID(), id)
		}
		return nil
	})
}

// LeavePoll unsubscribes the session from its room, if any. The connection
// stays open.
func (o *Orchestrator) LeavePoll(ctx context.Context, sess *core.Session) error {
	if err := checkOpen(ctx, sess); err != nil {
		return err
	}
	id, _ := sess.Identity()
	sess.Unsubscribe()
	poll, ok := o.Registry.LeaveAll(sess.ID())
	o.reply(sess, core.PollLeftEvent{Type: core.EventPollLeft, PollID: poll})
	if ok {
		o.Dispatcher.Presence(core.EventMemberLeft, poll, sess.ID(), id)
	}
	return nil
}
