package orch

import (
	"context"
	"time"

	"github.com/dkeye/livepoll/internal/app"
	"github.com/dkeye/livepoll/internal/core"
	"github.com/dkeye/livepoll/internal/domain"
)

// Orchestrator drives one connection's requests through the core. Every
// request yields its reply on the requesting session and, where the request
// changes shared state, events for the rest of the room.
type Orchestrator struct {
	Registry   *app.Registry
	Dispatcher *app.Dispatcher
	Votes      *app.VoteService
	Polls      core.PollReader
	Auth       core.CredentialVerifier

	VoteLimit  int
	VoteWindow time.Duration
}

// Connect creates the session for a freshly upgraded transport and binds it.
func (o *Orchestrator) Connect(sid core.SessionID, signal core.SignalConnection) *core.Session {
	sess := core.NewSession(sid, signal, core.NewRateWindow(o.VoteLimit, o.VoteWindow))
	_ = sess.Open()
	o.Registry.Bind(sess)
	return sess
}

// Disconnect tears the session down once; later calls are no-ops.
func (o *Orchestrator) Disconnect(sess *core.Session) {
	id, _ := sess.Identity()
	if !sess.Close() {
		return
	}
	if poll, ok := o.Registry.Unbind(sess.ID()); ok {
		o.Dispatcher.Presence(core.EventMemberLeft, poll, sess.ID(), id)
	}
	sess.Signal().Close()
}

// Shutdown disconnects every bound session.
func (o *Orchestrator) Shutdown() {
	for _, ms := range o.Registry.Sessions() {
		if sess, ok := ms.(*core.Session); ok {
			o.Disconnect(sess)
			continue
		}
		ms.Signal().Close()
	}
}

func (o *Orchestrator) Stats() app.Stats {
	return o.Registry.Stats()
}

func (o *Orchestrator) reply(sess *core.Session, v any) {
	_ = o.Dispatcher.Send(sess, v)
}

// ReplyError sends the error event for err to sess.
func (o *Orchestrator) ReplyError(sess *core.Session, err error) {
	o.reply(sess, core.NewErrorEvent(err))
}

// checkOpen rejects requests on a session that reached Terminal.
func checkOpen(ctx context.Context, sess *core.Session) error {
	if sess.State() == core.StateTerminal {
		return domain.ErrSessionClosed
	}
	return ctx.Err()
}
