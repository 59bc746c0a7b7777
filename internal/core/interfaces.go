package core

import (
	"context"

	"github.com/dkeye/livepoll/internal/domain"
)

type SessionID string

// MemberSession is what a room stores and fans out to.
type MemberSession interface {
	ID() SessionID
	Identity() (domain.Identity, bool)
	Signal() SignalConnection
}

// CredentialVerifier resolves a bearer credential to a user identity.
// It fails with domain.ErrInvalidCredential on bad or expired tokens.
type CredentialVerifier interface {
	VerifyCredential(token string) (domain.Identity, error)
}

// PollReader is the durable poll read path.
type PollReader interface {
	GetPoll(ctx context.Context, id domain.PollID) (*domain.Poll, error)
}

// PollStore persists poll and option definitions.
type PollStore interface {
	PollReader
	CreatePoll(ctx context.Context, p *domain.Poll) error
	ListPolls(ctx context.Context, f ListFilter) ([]*domain.Poll, error)
	UpdatePoll(ctx context.Context, id domain.PollID, u domain.PollUpdate) (*domain.Poll, error)
}

type ListFilter struct {
	PublishedOnly bool
	CreatorID     domain.UserID
	Limit         int
	Offset        int
}

// VoteLedger is the authoritative record of one vote per voter per poll.
//
// CastVote checks, in order: poll exists, poll is published, option exists
// and belongs to the poll. It then atomically replaces the voter's vote in
// that poll and returns the tally as of the commit, with CallerOptionID set.
type VoteLedger interface {
	CastVote(ctx context.Context, voter domain.UserID, poll domain.PollID, option domain.OptionID) (domain.Tally, error)
}

// TallyReader computes vote counts. caller may be empty.
type TallyReader interface {
	ComputeTally(ctx context.Context, poll domain.PollID, caller domain.UserID) (domain.Tally, error)
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUserByName(ctx context.Context, username string) (*domain.User, error)
}

// Store is everything a storage adapter provides.
type Store interface {
	PollStore
	VoteLedger
	TallyReader
	UserStore
	Close() error
}
