package signal

import (
	"context"

	"github.com/dkeye/livepoll/internal/core"
	"github.com/dkeye/livepoll/internal/domain"
)

func (ctl *SignalWSController) handleCastVote(ctx context.Context, sess *core.Session, data []byte) error {
	var p core.CastVoteRequest
	if err := decode(data, &p); err != nil {
		return err
	}
	return ctl.Orch.CastVote(ctx, sess, domain.PollID(p.PollID), domain.OptionID(p.OptionID))
}
