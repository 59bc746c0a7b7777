package pgstore

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/livepoll/internal/core"
	"github.com/dkeye/livepoll/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CastVote replaces voter's vote in poll with option inside one read
// committed transaction. A lost race on the (voter_id, poll_id) index is
// retried once before surfacing domain.ErrVoteConflict.
func (s *Store) CastVote(ctx context.Context, voter domain.UserID, poll domain.PollID, option domain.OptionID) (domain.Tally, error) {
	t, err := s.castVote(ctx, voter, poll, option)
	if err != nil && isUniqueViolation(err) {
		log.Warn().Str("module", "storage.postgres").Str("poll", string(poll)).Str("voter", string(voter)).Msg("vote race lost, retrying")
		t, err = s.castVote(ctx, voter, poll, option)
		if err != nil && isUniqueViolation(err) {
			return domain.Tally{}, domain.ErrVoteConflict
		}
	}
	return t, err
}

func (s *Store) castVote(ctx context.Context, voter domain.UserID, pollID domain.PollID, optionID domain.OptionID) (domain.Tally, error) {
	var t domain.Tally
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := getPoll(tx, pollID)
		if err != nil {
			return err
		}
		if !p.Published {
			return domain.ErrPollUnpublished
		}
		var opt optionModel
		err = tx.Select("id", "poll_id").Where("id = ?", string(optionID)).First(&opt).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrOptionNotFound
		}
		if err != nil {
			return logError("get_option", err, "option", string(optionID))
		}
		if domain.PollID(opt.PollID) != pollID {
			return domain.ErrOptionNotInPoll
		}

		if err := tx.Where("voter_id = ? AND poll_id = ?", string(voter), string(pollID)).
			Delete(&voteModel{}).Error; err != nil {
			return logError("delete_vote", err, "poll", string(pollID))
		}
		if s.beforeVoteInsert != nil {
			if err := s.beforeVoteInsert(tx, voter, pollID); err != nil {
				return err
			}
		}
		row := voteModel{
			ID:        uuid.NewString(),
			VoterID:   string(voter),
			OptionID:  string(optionID),
			PollID:    string(pollID),
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return err
			}
			return logError("insert_vote", err, "poll", string(pollID))
		}
		t, err = tally(tx, p, voter)
		return err
	}, readCommitted)
	if err != nil {
		return domain.Tally{}, err
	}
	return t, nil
}

func (s *Store) ComputeTally(ctx context.Context, pollID domain.PollID, caller domain.UserID) (domain.Tally, error) {
	tx := s.db.WithContext(ctx)
	p, err := getPoll(tx, pollID)
	if err != nil {
		return domain.Tally{}, err
	}
	return tally(tx, p, caller)
}

type optionCountRow struct {
	OptionID string
	N        int
}

func tally(tx *gorm.DB, p *domain.Poll, caller domain.UserID) (domain.Tally, error) {
	var rows []optionCountRow
	if err := tx.Model(&voteModel{}).
		Select("option_id, COUNT(*) AS n").
		Where("poll_id = ?", string(p.ID)).
		Group("option_id").
		Scan(&rows).Error; err != nil {
		return domain.Tally{}, logError("tally", err, "poll", string(p.ID))
	}
	counts := make(map[domain.OptionID]int, len(rows))
	for _, r := range rows {
		counts[domain.OptionID(r.OptionID)] = r.N
	}

	var mine domain.OptionID
	if caller != "" {
		var v voteModel
		err := tx.Select("option_id").
			Where("poll_id = ? AND voter_id = ?", string(p.ID), string(caller)).
			Take(&v).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
		case err != nil:
			return domain.Tally{}, logError("caller_vote", err, "poll", string(p.ID))
		default:
			mine = domain.OptionID(v.OptionID)
		}
	}
	return core.BuildTally(p, counts, mine), nil
}
