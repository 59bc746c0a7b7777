package domain

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MaxQuestionLen   = 500
	MaxOptionTextLen = 200
	MinPollOptions   = 2
	MaxPollOptions   = 20
)

type (
	PollID   string
	OptionID string
)

type Poll struct {
	ID        PollID    `json:"id"`
	Question  string    `json:"question"`
	Published bool      `json:"published"`
	CreatorID UserID    `json:"creatorId"`
	Options   []Option  `json:"options"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Option struct {
	ID        OptionID  `json:"id"`
	PollID    PollID    `json:"pollId"`
	Text      string    `json:"text"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OptionDraft is an option as submitted by the poll author.
// A nil Order means "use the position in the list".
type OptionDraft struct {
	Text  string
	Order *int
}

// PollUpdate carries the only fields that may change after creation.
type PollUpdate struct {
	Question  *string
	Published *bool
}

// NewPoll validates the author's input and assigns identifiers and orders.
// Options come back sorted by Order.
func NewPoll(creator UserID, question string, drafts []OptionDraft, published bool) (*Poll, error) {
	question = strings.TrimSpace(question)
	if err := ValidateQuestion(question); err != nil {
		return nil, err
	}
	if len(drafts) < MinPollOptions {
		return nil, Invalid("a poll needs at least 2 options")
	}
	if len(drafts) > MaxPollOptions {
		return nil, Invalid("a poll may have at most 20 options")
	}

	now := time.Now().UTC()
	p := &Poll{
		ID:        PollID(uuid.NewString()),
		Question:  question,
		Published: published,
		CreatorID: creator,
		CreatedAt: now,
		UpdatedAt: now,
	}
	seen := make(map[int]struct{}, len(drafts))
	for i, d := range drafts {
		text := strings.TrimSpace(d.Text)
		if text == "" {
			return nil, Invalid("option text is required")
		}
		if utf8.RuneCountInString(text) > MaxOptionTextLen {
			return nil, Invalid("option text too long")
		}
		order := i
		if d.Order != nil {
			order = *d.Order
		}
		if _, dup := seen[order]; dup {
			return nil, Invalid("option order must be unique within a poll")
		}
		seen[order] = struct{}{}
		p.Options = append(p.Options, Option{
			ID:        OptionID(uuid.NewString()),
			PollID:    p.ID,
			Text:      text,
			Order:     order,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	SortOptions(p.Options)
	return p, nil
}

func ValidateQuestion(q string) error {
	if strings.TrimSpace(q) == "" {
		return Invalid("question is required")
	}
	if utf8.RuneCountInString(q) > MaxQuestionLen {
		return Invalid("question too long")
	}
	return nil
}

// Option returns the poll's option with the given id.
func (p *Poll) Option(id OptionID) (Option, bool) {
	for _, o := range p.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

func SortOptions(opts []Option) {
	sort.SliceStable(opts, func(i, j int) bool { return opts[i].Order < opts[j].Order })
}
