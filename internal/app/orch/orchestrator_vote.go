package orch

import (
	"context"

	"github.com/dkeye/livepoll/internal/core"
	"github.com/dkeye/livepoll/internal/domain"
)

// CastVote runs one vote attempt: authentication, the session's rate
// window, then the shared vote path. A rejected attempt never reaches the
// ledger.
func (o *Orchestrator) CastVote(ctx context.Context, sess *core.Session, poll domain.PollID, option domain.OptionID) error {
	if err := checkOpen(ctx, sess); err != nil {
		return err
	}
	id, err := sess.AllowVote()
	if err != nil {
		return err
	}
	_, err = o.Votes.Cast(ctx, id.UserID, poll, option, sess)
	return err
}

// Ping answers a keepalive request.
func (o *Orchestrator) Ping(sess *core.Session) {
	o.reply(sess, core.PongEvent{Type: core.EventPong})
}
