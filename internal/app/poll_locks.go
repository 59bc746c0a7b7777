package app

import (
	"sync"

	"github.com/dkeye/livepoll/internal/domain"
)

type pollLock struct {
	mu   sync.Mutex
	refs int
}

// pollLocks hands out one mutex per poll and forgets it when nobody holds or
// waits for it. guard only protects the table; it is never held while a poll
// lock is held.
type pollLocks struct {
	guard sync.Mutex
	locks map[domain.PollID]*pollLock
}

func newPollLocks() *pollLocks {
	return &pollLocks{locks: make(map[domain.PollID]*pollLock)}
}

// Lock blocks until the caller owns poll; the returned func releases it.
func (p *pollLocks) Lock(poll domain.PollID) func() {
	p.guard.Lock()
	l, ok := p.locks[poll]
	if !ok {
		l = &pollLock{}
		p.locks[poll] = l
	}
	l.refs++
	p.guard.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		p.guard.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, poll)
		}
		p.guard.Unlock()
	}
}

func (p *pollLocks) size() int {
	p.guard.Lock()
	defer p.guard.Unlock()
	return len(p.locks)
}
