package pgstore

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/livepoll/internal/core"
	"github.com/dkeye/livepoll/internal/domain"
	"gorm.io/gorm"
)

func (s *Store) CreatePoll(ctx context.Context, p *domain.Poll) error {
	row := pollModelFromEntity(p)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&row).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Invalid("option order must be unique within a poll")
		}
		return logError("create_poll", err, "poll", string(p.ID))
	}
	return nil
}

func (s *Store) GetPoll(ctx context.Context, id domain.PollID) (*domain.Poll, error) {
	return getPoll(s.db.WithContext(ctx), id)
}

func (s *Store) ListPolls(ctx context.Context, f core.ListFilter) ([]*domain.Poll, error) {
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	tx := s.db.WithContext(ctx).Model(&pollModel{})
	if f.PublishedOnly {
		tx = tx.Where("published = ?", true)
	}
	if f.CreatorID != "" {
		tx = tx.Where("creator_id = ?", string(f.CreatorID))
	}
	var rows []pollModel
	err := tx.Preload("Options", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Order("created_at DESC").Order("id").
		Limit(limit).Offset(max(f.Offset, 0)).
		Find(&rows).Error
	if err != nil {
		return nil, logError("list_polls", err)
	}
	out := make([]*domain.Poll, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toEntity())
	}
	return out, nil
}

func (s *Store) UpdatePoll(ctx context.Context, id domain.PollID, u domain.PollUpdate) (*domain.Poll, error) {
	var out *domain.Poll
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := getPoll(tx, id)
		if err != nil {
			return err
		}
		if u.Question != nil {
			p.Question = *u.Question
		}
		if u.Published != nil {
			p.Published = *u.Published
		}
		p.UpdatedAt = time.Now().UTC()
		if err := tx.Model(&pollModel{}).Where("id = ?", string(id)).Updates(map[string]any{
			"question":   p.Question,
			"published":  p.Published,
			"updated_at": p.UpdatedAt,
		}).Error; err != nil {
			return logError("update_poll", err, "poll", string(id))
		}
		out = p
		return nil
	})
	return out, err
}

func getPoll(tx *gorm.DB, id domain.PollID) (*domain.Poll, error) {
	var row pollModel
	err := tx.Preload("Options", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Where("id = ?", string(id)).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPollNotFound
	}
	if err != nil {
		return nil, logError("get_poll", err, "poll", string(id))
	}
	return row.toEntity(), nil
}
