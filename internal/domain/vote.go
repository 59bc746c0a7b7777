package domain

import "time"

type VoteID string

// Vote is a voter's current choice within a poll.
// At most one exists per (VoterID, PollID).
type Vote struct {
	ID        VoteID    `json:"id"`
	VoterID   UserID    `json:"voterId"`
	OptionID  OptionID  `json:"optionId"`
	PollID    PollID    `json:"pollId"`
	CreatedAt time.Time `json:"createdAt"`
}

// OptionCount is one row of a tally.
type OptionCount struct {
	ID    OptionID `json:"id"`
	Text  string   `json:"text"`
	Order int      `json:"order"`
	Count int      `json:"count"`
}

// Tally is a point-in-time read of the vote counts of a poll.
// Options are always sorted by Order, TotalVotes is the sum of Count.
type Tally struct {
	PollID         PollID        `json:"pollId"`
	Options        []OptionCount `json:"options"`
	TotalVotes     int           `json:"totalVotes"`
	CallerOptionID OptionID      `json:"callerVoteOptionId,omitempty"`
}

// Public strips the caller-specific part so the snapshot can be shared.
func (t Tally) Public() Tally {
	t.CallerOptionID = ""
	return t
}
