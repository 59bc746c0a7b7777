package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/livepoll/internal/core"
	"github.com/dkeye/livepoll/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CastVote replaces voter's vote in poll with option and returns the tally
// as of the commit. A lost race on the (voter_id, poll_id) index is retried
// once before surfacing domain.ErrVoteConflict.
func (s *Store) CastVote(ctx context.Context, voter domain.UserID, poll domain.PollID, option domain.OptionID) (domain.Tally, error) {
	t, err := s.castVote(ctx, voter, poll, option)
	if err != nil && isUniqueViolation(err) {
		log.Warn().Str("module", "storage.sqlite").Str("poll", string(poll)).Str("voter", string(voter)).Msg("vote race lost, retrying")
		t, err = s.castVote(ctx, voter, poll, option)
		if err != nil && isUniqueViolation(err) {
			return domain.Tally{}, domain.ErrVoteConflict
		}
	}
	return t, err
}

func (s *Store) castVote(ctx context.Context, voter domain.UserID, pollID domain.PollID, optionID domain.OptionID) (domain.Tally, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Tally{}, fmt.Errorf("begin vote: %w", err)
	}
	defer tx.Rollback()

	p, err := getPoll(ctx, tx, pollID)
	if err != nil {
		return domain.Tally{}, err
	}
	if !p.Published {
		return domain.Tally{}, domain.ErrPollUnpublished
	}
	var optionPoll string
	err = tx.QueryRowContext(ctx, `SELECT poll_id FROM poll_option WHERE id = ?`, string(optionID)).Scan(&optionPoll)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Tally{}, domain.ErrOptionNotFound
	}
	if err != nil {
		return domain.Tally{}, logError("get_option", err, map[string]string{"option": string(optionID)})
	}
	if domain.PollID(optionPoll) != pollID {
		return domain.Tally{}, domain.ErrOptionNotInPoll
	}

	if _, err = tx.ExecContext(ctx, `
		DELETE FROM vote WHERE voter_id = ? AND poll_id = ?
	`, string(voter), string(pollID)); err != nil {
		return domain.Tally{}, logError("delete_vote", err, map[string]string{"poll": string(pollID)})
	}
	if s.beforeVoteInsert != nil {
		if err := s.beforeVoteInsert(ctx, tx, voter, pollID); err != nil {
			return domain.Tally{}, err
		}
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO vote (id, voter_id, option_id, poll_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.NewString(), string(voter), string(optionID), string(pollID), toMillis(time.Now())); err != nil {
		if isUniqueViolation(err) {
			return domain.Tally{}, err
		}
		return domain.Tally{}, logError("insert_vote", err, map[string]string{"poll": string(pollID)})
	}

	t, err := tally(ctx, tx, p, voter)
	if err != nil {
		return domain.Tally{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Tally{}, fmt.Errorf("commit vote: %w", err)
	}
	return t, nil
}

// ComputeTally reads the current counts of poll. caller may be empty.
func (s *Store) ComputeTally(ctx context.Context, pollID domain.PollID, caller domain.UserID) (domain.Tally, error) {
	p, err := getPoll(ctx, s.db, pollID)
	if err != nil {
		return domain.Tally{}, err
	}
	return tally(ctx, s.db, p, caller)
}

// VoteOf returns voter's current vote in poll.
func (s *Store) VoteOf(ctx context.Context, voter domain.UserID, pollID domain.PollID) (domain.Vote, bool, error) {
	var (
		v                        domain.Vote
		id, voterID, opt, pollOf string
		created                  int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, voter_id, option_id, poll_id, created_at
		FROM vote WHERE voter_id = ? AND poll_id = ?
	`, string(voter), string(pollID)).Scan(&id, &voterID, &opt, &pollOf, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Vote{}, false, nil
	}
	if err != nil {
		return domain.Vote{}, false, logError("get_vote", err, map[string]string{"poll": string(pollID)})
	}
	v.ID = domain.VoteID(id)
	v.VoterID = domain.UserID(voterID)
	v.OptionID = domain.OptionID(opt)
	v.PollID = domain.PollID(pollOf)
	v.CreatedAt = fromMillis(created)
	return v, true, nil
}

func tally(ctx context.Context, q querier, p *domain.Poll, caller domain.UserID) (domain.Tally, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT option_id, COUNT(*) FROM vote WHERE poll_id = ? GROUP BY option_id
	`, string(p.ID))
	if err != nil {
		return domain.Tally{}, logError("tally", err, map[string]string{"poll": string(p.ID)})
	}
	counts := make(map[domain.OptionID]int, len(p.Options))
	for rows.Next() {
		var (
			opt string
			n   int
		)
		if err := rows.Scan(&opt, &n); err != nil {
			rows.Close()
			return domain.Tally{}, fmt.Errorf("scan tally: %w", err)
		}
		counts[domain.OptionID(opt)] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return domain.Tally{}, err
	}

	var mine domain.OptionID
	if caller != "" {
		var opt string
		err := q.QueryRowContext(ctx, `
			SELECT option_id FROM vote WHERE poll_id = ? AND voter_id = ?
		`, string(p.ID), string(caller)).Scan(&opt)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return domain.Tally{}, logError("caller_vote", err, map[string]string{"poll": string(p.ID)})
		default:
			mine = domain.OptionID(opt)
		}
	}
	return core.BuildTally(p, counts, mine), nil
}
