package signal

import (
	"context"

	"github.com/dkeye/livepoll/internal/core"
)

func (ctl *SignalWSController) handleAuthenticate(ctx context.Context, sess *core.Session, data []byte) error {
	var p core.AuthenticateRequest
	if err := decode(data, &p); err != nil {
		return err
	}
	return ctl.Orch.Authenticate(ctx, sess, p.Token)
}
