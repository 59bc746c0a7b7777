package signal

import "github.com/dkeye/livepoll/internal/core"

func (ctl *SignalWSController) handlePing(sess *core.Session) {
	ctl.Orch.Ping(sess)
}
