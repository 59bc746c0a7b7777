package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/livepoll/internal/core"
	"github.com/dkeye/livepoll/internal/domain"
)

// CreatePoll inserts the poll and its options in one transaction.
func (s *Store) CreatePoll(ctx context.Context, p *domain.Poll) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create poll: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO poll (id, question, published, creator_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, string(p.ID), p.Question, p.Published, string(p.CreatorID), toMillis(p.CreatedAt), toMillis(p.UpdatedAt))
	if err != nil {
		return logError("create_poll", err, map[string]string{"poll": string(p.ID)})
	}
	for _, o := range p.Options {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO poll_option (id, poll_id, text, sort_order, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, string(o.ID), string(p.ID), o.Text, o.Order, toMillis(o.CreatedAt), toMillis(o.UpdatedAt))
		if err != nil {
			if isUniqueViolation(err) {
				return domain.Invalid("option order must be unique within a poll")
			}
			return logError("create_option", err, map[string]string{"poll": string(p.ID)})
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create poll: %w", err)
	}
	return nil
}

func (s *Store) GetPoll(ctx context.Context, id domain.PollID) (*domain.Poll, error) {
	return getPoll(ctx, s.db, id)
}

func (s *Store) ListPolls(ctx context.Context, f core.ListFilter) ([]*domain.Poll, error) {
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := `SELECT id, question, published, creator_id, created_at, updated_at FROM poll WHERE 1 = 1`
	var args []any
	if f.PublishedOnly {
		query += ` AND published = 1`
	}
	if f.CreatorID != "" {
		query += ` AND creator_id = ?`
		args = append(args, string(f.CreatorID))
	}
	query += ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, limit, max(f.Offset, 0))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, logError("list_polls", err, nil)
	}
	var polls []*domain.Poll
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		polls = append(polls, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, p := range polls {
		if p.Options, err = listOptions(ctx, s.db, p.ID); err != nil {
			return nil, err
		}
	}
	return polls, nil
}

// UpdatePoll changes the question and/or published flag.
func (s *Store) UpdatePoll(ctx context.Context, id domain.PollID, u domain.PollUpdate) (*domain.Poll, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update poll: %w", err)
	}
	defer tx.Rollback()

	p, err := getPoll(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if u.Question != nil {
		p.Question = *u.Question
	}
	if u.Published != nil {
		p.Published = *u.Published
	}
	p.UpdatedAt = time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		UPDATE poll SET question = ?, published = ?, updated_at = ? WHERE id = ?
	`, p.Question, p.Published, toMillis(p.UpdatedAt), string(id))
	if err != nil {
		return nil, logError("update_poll", err, map[string]string{"poll": string(id)})
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update poll: %w", err)
	}
	return p, nil
}

func getPoll(ctx context.Context, q querier, id domain.PollID) (*domain.Poll, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, question, published, creator_id, created_at, updated_at
		FROM poll WHERE id = ?
	`, string(id))
	p, err := scanPoll(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPollNotFound
	}
	if err != nil {
		return nil, logError("get_poll", err, map[string]string{"poll": string(id)})
	}
	if p.Options, err = listOptions(ctx, q, id); err != nil {
		return nil, err
	}
	return p, nil
}

func listOptions(ctx context.Context, q querier, poll domain.PollID) ([]domain.Option, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, poll_id, text, sort_order, created_at, updated_at
		FROM poll_option WHERE poll_id = ? ORDER BY sort_order
	`, string(poll))
	if err != nil {
		return nil, logError("list_options", err, map[string]string{"poll": string(poll)})
	}
	defer rows.Close()

	var opts []domain.Option
	for rows.Next() {
		var (
			o                domain.Option
			id, pollID       string
			created, updated int64
		)
		if err := rows.Scan(&id, &pollID, &o.Text, &o.Order, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		o.ID = domain.OptionID(id)
		o.PollID = domain.PollID(pollID)
		o.CreatedAt = fromMillis(created)
		o.UpdatedAt = fromMillis(updated)
		opts = append(opts, o)
	}
	return opts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPoll(sc scanner) (*domain.Poll, error) {
	var (
		p                domain.Poll
		id, creator      string
		created, updated int64
	)
	if err := sc.Scan(&id, &p.Question, &p.Published, &creator, &created, &updated); err != nil {
		return nil, err
	}
	p.ID = domain.PollID(id)
	p.CreatorID = domain.UserID(creator)
	p.CreatedAt = fromMillis(created)
	p.UpdatedAt = fromMillis(updated)
	return &p, nil
}
