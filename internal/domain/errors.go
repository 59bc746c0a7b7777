package domain

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindAuth
	KindNotFound
	KindPolicy
	KindConflict
	KindTransport
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindPolicy:
		return "policy"
	case KindConflict:
		return "conflict"
	case KindTransport:
		return "transport"
	default:
		return "internal"
	}
}

// Error is the error type surfaced to callers. Code is stable and goes on
// the wire, Message is for humans.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

// Is matches on Code so that Invalid(...) values compare equal to ErrInvalid.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

var (
	ErrInvalid           = &Error{Kind: KindValidation, Code: "bad_payload", Message: "malformed request"}
	ErrOptionNotInPoll   = &Error{Kind: KindValidation, Code: "option_not_in_poll", Message: "option does not belong to this poll"}
	ErrUsernameTaken     = &Error{Kind: KindValidation, Code: "username_taken", Message: "username already taken"}
	ErrUnauthenticated   = &Error{Kind: KindAuth, Code: "unauthenticated", Message: "authentication required"}
	ErrInvalidCredential = &Error{Kind: KindAuth, Code: "invalid_credential", Message: "invalid or expired credential"}
	ErrAlreadyAuthed     = &Error{Kind: KindAuth, Code: "already_authenticated", Message: "session is bound to another user"}
	ErrBadLogin          = &Error{Kind: KindAuth, Code: "bad_login", Message: "wrong username or password"}
	ErrUserNotFound      = &Error{Kind: KindNotFound, Code: "user_not_found", Message: "user not found"}
	ErrPollNotFound      = &Error{Kind: KindNotFound, Code: "poll_not_found", Message: "poll not found"}
	ErrOptionNotFound    = &Error{Kind: KindNotFound, Code: "option_not_found", Message: "option not found"}
	ErrPollUnpublished   = &Error{Kind: KindPolicy, Code: "poll_unpublished", Message: "poll is not published"}
	ErrRateLimited       = &Error{Kind: KindPolicy, Code: "rate_limited", Message: "too many vote attempts, try later"}
	ErrNotOwner          = &Error{Kind: KindPolicy, Code: "not_owner", Message: "only the poll owner may do this"}
	ErrVoteConflict      = &Error{Kind: KindConflict, Code: "vote_conflict", Message: "concurrent vote, please retry"}
	ErrSessionClosed     = &Error{Kind: KindTransport, Code: "session_closed", Message: "session is closed"}
	ErrBackpressure      = &Error{Kind: KindTransport, Code: "backpressure", Message: "send buffer full"}
	ErrConnClosed        = &Error{Kind: KindTransport, Code: "send_failed", Message: "connection closed"}
)

// Invalid returns a validation error with a specific message.
func Invalid(format string, args ...any) error {
	return &Error{Kind: KindValidation, Code: ErrInvalid.Code, Message: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind of err, KindInternal when err is not a *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf reports the wire code of err, "internal" when err is not a *Error.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "internal"
}

// MessageOf never leaks internal error text.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
