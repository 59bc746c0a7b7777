package orch

import (
	"context"

	"github.com/dkeye/livepoll/internal/core"
	"github.com/dkeye/livepoll/internal/domain"
	"github.com/rs/zerolog/log"
)

// Authenticate verifies token and binds the session to its identity. A bad
// credential leaves the session unauthenticated and open; the outcome is
// always reported with an auth_result event.
func (o *Orchestrator) Authenticate(ctx context.Context, sess *core.Session, token string) error {
	if err := checkOpen(ctx, sess); err != nil {
		return err
	}
	id, err := o.Auth.VerifyCredential(token)
	if err == nil {
		err = sess.Authenticate(id)
	}
	if err != nil {
		log.Info().Str("module", "orch").Str("sid", string(sess.ID())).Str("reason", domain.CodeOf(err)).Msg("authentication failed")
		o.reply(sess, core.AuthResultEvent{
			Type:        core.EventAuthResult,
			Success:     false,
			ErrorReason: domain.CodeOf(err),
		})
		return nil
	}
	log.Info().Str("module", "orch").Str("sid", string(sess.ID())).Str("user", string(id.UserID)).Msg("authenticated")
	o.reply(sess, core.AuthResultEvent{
		Type:     core.EventAuthResult,
		Success:  true,
		UserID:   id.UserID,
		Username: id.Username,
	})
	return nil
}
