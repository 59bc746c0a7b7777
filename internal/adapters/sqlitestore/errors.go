package sqlitestore

import (
	"errors"

	"github.com/rs/zerolog/log"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

func logError(op string, err error, fields map[string]string) error {
	ev := log.Error().Err(err).Str("module", "storage.sqlite").Str("op", op)
	for k, v := range fields {
		ev = ev.Str(k, v)
	}
	ev.Msg("storage error")
	return err
}
