package app

import (
	"errors"

	"github.com/dkeye/livepoll/internal/core"
	"github.com/dkeye/livepoll/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
)

// Policy decides what happens to a member a broadcast could not reach.
type Policy interface {
	OnBackPressure(poll domain.PollID, member core.MemberSession, err error) BackpressureAction
}

// SimplePolicy kicks members whose send buffer is full: they missed a tally,
// and reconnecting gets them a fresh snapshot. Closed connections are left
// to their own teardown.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(_ domain.PollID, _ core.MemberSession, err error) BackpressureAction {
	if errors.Is(err, domain.ErrBackpressure) {
		return KickMember
	}
	return NoAction
}
