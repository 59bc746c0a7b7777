package signal

import (
	"context"

	"github.com/dkeye/livepoll/internal/core"
	"github.com/dkeye/livepoll/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleJoin(ctx context.Context, sess *core.Session, data []byte) error {
	var p core.JoinPollRequest
	if err := decode(data, &p); err != nil {
		log.Debug().Err(err).Str("module", "signal").Msg("bad join payload")
		return err
	}
	log.Info().Str("module", "signal").Str("sid", string(sess.ID())).Str("poll", p.PollID).Msg("join")
	return ctl.Orch.JoinPoll(ctx, sess, domain.PollID(p.PollID))
}
