package core

// Inbound request types. Each message is a JSON object with a "type" field.
const (
	RequestAuthenticate = "authenticate"
	RequestJoinPoll     = "join_poll"
	RequestLeavePoll    = "leave_poll"
	RequestCastVote     = "cast_vote"
	RequestPing         = "ping"
)

type Envelope struct {
	Type string `json:"type" validate:"required"`
}

type AuthenticateRequest struct {
	Token string `json:"token" validate:"required,max=4096"`
}

type JoinPollRequest struct {
	PollID string `json:"pollId" validate:"required,max=64"`
}

type CastVoteRequest struct {
	PollID   string `json:"pollId" validate:"required,max=64"`
	OptionID string `json:"optionId" validate:"required,max=64"`
}
