package core

import (
	"sync"
	"time"

	"github.com/dkeye/livepoll/internal/domain"
)

type SessionState int

const (
	StateConnecting SessionState = iota
	StateUnauthenticated
	StateAuthenticated
	StateTerminal
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "terminal"
	}
}

// Session is the per-connection state: authentication, the poll it is
// subscribed to and the vote rate window. It implements MemberSession.
//
// Authentication is monotonic and Terminal is absorbing; every transition
// out of Terminal fails with domain.ErrSessionClosed.
type Session struct {
	id     SessionID
	signal SignalConnection
	now    func() time.Time

	mu           sync.Mutex
	state        SessionState
	identity     domain.Identity
	poll         domain.PollID
	lastActivity time.Time
	rate         RateWindow
}

type SessionOption func(*Session)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

func NewSession(id SessionID, signal SignalConnection, rate RateWindow, opts ...SessionOption) *Session {
	s := &Session{
		id:     id,
		signal: signal,
		now:    time.Now,
		state:  StateConnecting,
		rate:   rate,
	}
	for _, o := range opts {
		o(s)
	}
	s.lastActivity = s.now()
	return s
}

func (s *Session) ID() SessionID            { return s.id }
func (s *Session) Signal() SignalConnection { return s.signal }

func (s *Session) Identity() (domain.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, s.state == StateAuthenticated
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Open marks the transport handshake as complete.
func (s *Session) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateTerminal:
		return domain.ErrSessionClosed
	case StateConnecting:
		s.state = StateUnauthenticated
	}
	s.touch()
	return nil
}

// Authenticate binds the session to id. Binding again to the same user is a
// no-op; binding to another user is rejected.
func (s *Session) Authenticate(id domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	switch s.state {
	case StateTerminal:
		return domain.ErrSessionClosed
	case StateConnecting:
		return domain.ErrUnauthenticated
	case StateAuthenticated:
		if s.identity.UserID != id.UserID {
			return domain.ErrAlreadyAuthed
		}
		return nil
	}
	s.identity = id
	s.state = StateAuthenticated
	return nil
}

// RequireAuth returns the identity or the reason the session cannot act.
func (s *Session) RequireAuth() (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.requireAuthLocked()
}

func (s *Session) requireAuthLocked() (domain.Identity, error) {
	switch s.state {
	case StateTerminal:
		return domain.Identity{}, domain.ErrSessionClosed
	case StateAuthenticated:
		return s.identity, nil
	default:
		return domain.Identity{}, domain.ErrUnauthenticated
	}
}

// AllowVote checks authentication, then consumes one slot of the rate window.
func (s *Session) AllowVote() (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.lastActivity = now
	id, err := s.requireAuthLocked()
	if err != nil {
		return id, err
	}
	if !s.rate.Allow(now) {
		return id, domain.ErrRateLimited
	}
	return id, nil
}

// Subscribe records the poll the session is subscribed to and returns the
// previous one.
func (s *Session) Subscribe(poll domain.PollID) (domain.PollID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if _, err := s.requireAuthLocked(); err != nil {
		return "", err
	}
	prev := s.poll
	s.poll = poll
	return prev, nil
}

// Unsubscribe clears the subscription and returns what it was.
func (s *Session) Unsubscribe() domain.PollID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	prev := s.poll
	s.poll = ""
	return prev
}

func (s *Session) Subscription() (domain.PollID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.poll, s.poll != ""
}

// Close moves the session to Terminal. It reports false when the session was
// already closed, so teardown runs once.
func (s *Session) Close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateTerminal {
		return false
	}
	s.state = StateTerminal
	s.poll = ""
	return true
}

func (s *Session) touch() {
	s.lastActivity = s.now()
}
