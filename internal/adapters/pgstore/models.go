package pgstore

import (
	"time"

	"github.com/dkeye/livepoll/internal/domain"
)

type userModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Username     string    `gorm:"column:username;not null;uniqueIndex"`
	PasswordHash []byte    `gorm:"column:password_hash;not null"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (userModel) TableName() string { return "users" }

type pollModel struct {
	ID        string        `gorm:"column:id;primaryKey"`
	Question  string        `gorm:"column:question;not null"`
	Published bool          `gorm:"column:published;not null;default:false;index:idx_poll_published,priority:1"`
	CreatorID string        `gorm:"column:creator_id;not null;index"`
	Options   []optionModel `gorm:"foreignKey:PollID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time     `gorm:"column:created_at;index:idx_poll_published,priority:2"`
	UpdatedAt time.Time     `gorm:"column:updated_at"`
}

func (pollModel) TableName() string { return "poll" }

type optionModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	PollID    string    `gorm:"column:poll_id;not null;uniqueIndex:idx_option_poll_order,priority:1"`
	Text      string    `gorm:"column:text;not null"`
	SortOrder int       `gorm:"column:sort_order;not null;uniqueIndex:idx_option_poll_order,priority:2"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (optionModel) TableName() string { return "poll_option" }

// voteModel carries poll_id so (voter_id, poll_id) can be a unique index.
type voteModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	VoterID   string    `gorm:"column:voter_id;not null;uniqueIndex:idx_vote_voter_poll,priority:1"`
	OptionID  string    `gorm:"column:option_id;not null;index"`
	PollID    string    `gorm:"column:poll_id;not null;uniqueIndex:idx_vote_voter_poll,priority:2;index"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (voteModel) TableName() string { return "vote" }

func pollModelFromEntity(p *domain.Poll) pollModel {
	row := pollModel{
		ID:        string(p.ID),
		Question:  p.Question,
		Published: p.Published,
		CreatorID: string(p.CreatorID),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	for _, o := range p.Options {
		row.Options = append(row.Options, optionModel{
			ID:        string(o.ID),
			PollID:    string(p.ID),
			Text:      o.Text,
			SortOrder: o.Order,
			CreatedAt: o.CreatedAt,
			UpdatedAt: o.UpdatedAt,
		})
	}
	return row
}

func (m pollModel) toEntity() *domain.Poll {
	p := &domain.Poll{
		ID:        domain.PollID(m.ID),
		Question:  m.Question,
		Published: m.Published,
		CreatorID: domain.UserID(m.CreatorID),
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
	for _, o := range m.Options {
		p.Options = append(p.Options, domain.Option{
			ID:        domain.OptionID(o.ID),
			PollID:    domain.PollID(o.PollID),
			Text:      o.Text,
			Order:     o.SortOrder,
			CreatedAt: o.CreatedAt.UTC(),
			UpdatedAt: o.UpdatedAt.UTC(),
		})
	}
	domain.SortOptions(p.Options)
	return p
}

func (m userModel) toEntity() *domain.User {
	return &domain.User{
		ID:           domain.UserID(m.ID),
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}
