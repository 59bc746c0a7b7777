package sqlitestore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dkeye/livepoll/internal/domain"
)

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`, string(u.ID), u.Username, u.PasswordHash, toMillis(u.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUsernameTaken
		}
		return logError("create_user", err, map[string]string{"username": u.Username})
	}
	return nil
}

func (s *Store) GetUserByName(ctx context.Context, username string) (*domain.User, error) {
	var (
		u       domain.User
		id      string
		created int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at FROM users WHERE username = ?
	`, username).Scan(&id, &u.Username, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, logError("get_user", err, map[string]string{"username": username})
	}
	u.ID = domain.UserID(id)
	u.CreatedAt = fromMillis(created)
	return &u, nil
}
