// Package pgstore is the Postgres storage adapter, built on gorm with the
// pgx driver. It is meant for deployments; tests run on sqlitestore.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/livepoll/internal/core"
	"github.com/dkeye/livepoll/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ core.Store = (*Store)(nil)

type Store struct {
	db *gorm.DB

	// beforeVoteInsert, when set, runs inside the vote transaction between
	// removing the voter's old row and inserting the new one.
	beforeVoteInsert func(tx *gorm.DB, voter domain.UserID, poll domain.PollID) error
}

// Open connects to dsn, verifies the connection and migrates the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("resolve postgres sql db handle: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&userModel{}, &pollModel{}, &optionModel{}, &voteModel{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	log.Info().Str("module", "storage.postgres").Msg("database ready")
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// readCommitted is the isolation the vote transaction needs: the unique
// index on (voter_id, poll_id) makes the loser of a race fail, not duplicate.
var readCommitted = &sql.TxOptions{Isolation: sql.LevelReadCommitted}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func logError(op string, err error, kv ...string) error {
	ev := log.Error().Err(err).Str("module", "storage.postgres").Str("op", op)
	for i := 0; i+1 < len(kv); i += 2 {
		ev = ev.Str(kv[i], kv[i+1])
	}
	ev.Msg("storage error")
	return err
}
