package core

import (
	json "github.com/goccy/go-json"

	"github.com/dkeye/livepoll/internal/domain"
)

// Outbound event types. These names are part of the wire contract.
const (
	EventTally        = "tally"
	EventMemberJoined = "member_joined"
	EventMemberLeft   = "member_left"
	EventAuthResult   = "auth_result"
	EventPollJoined   = "poll_joined"
	EventPollLeft     = "poll_left"
	EventVoteCast     = "vote_cast"
	EventError        = "error"
	EventPong         = "pong"
)

// TallyEvent is the authoritative broadcast payload.
type TallyEvent struct {
	Type       string               `json:"type"`
	PollID     domain.PollID        `json:"pollId"`
	Options    []domain.OptionCount `json:"options"`
	TotalVotes int                  `json:"totalVotes"`
}

func NewTallyEvent(t domain.Tally) TallyEvent {
	return TallyEvent{
		Type:       EventTally,
		PollID:     t.PollID,
		Options:    t.Options,
		TotalVotes: t.TotalVotes,
	}
}

// PresenceEvent is a best-effort hint that a peer joined or left a room.
type PresenceEvent struct {
	Type     string        `json:"type"`
	PollID   domain.PollID `json:"pollId"`
	UserID   domain.UserID `json:"userId"`
	Username string        `json:"username"`
}

func NewPresenceEvent(typ string, poll domain.PollID, id domain.Identity) PresenceEvent {
	return PresenceEvent{Type: typ, PollID: poll, UserID: id.UserID, Username: id.Username}
}

type AuthResultEvent struct {
	Type        string        `json:"type"`
	Success     bool          `json:"success"`
	UserID      domain.UserID `json:"userId,omitempty"`
	Username    string        `json:"username,omitempty"`
	ErrorReason string        `json:"errorReason,omitempty"`
}

type PollJoinedEvent struct {
	Type    string        `json:"type"`
	PollID  domain.PollID `json:"pollId"`
	Tally   domain.Tally  `json:"tally"`
	Members int           `json:"members"`
}

type PollLeftEvent struct {
	Type   string        `json:"type"`
	PollID domain.PollID `json:"pollId"`
}

type VoteCastEvent struct {
	Type  string       `json:"type"`
	Tally domain.Tally `json:"tally"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func NewErrorEvent(err error) ErrorEvent {
	return ErrorEvent{Type: EventError, Error: domain.CodeOf(err), Message: domain.MessageOf(err)}
}

type PongEvent struct {
	Type string `json:"type"`
}

// Encode serialises an outbound event into a frame.
func Encode(v any) (Frame, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Frame(b), nil
}
