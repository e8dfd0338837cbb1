package sqlite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/mindchart/internal/services/timeline/storage"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

func sqliteCode(err error) (int, bool) {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return 0, false
	}
	return sqliteErr.Code(), true
}

func isUniqueError(err error) bool {
	code, ok := sqliteCode(err)
	if !ok {
		return false
	}
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(err.Error(), "UNIQUE constraint failed")
	default:
		return false
	}
}

func isTriggerError(err error) bool {
	code, ok := sqliteCode(err)
	if !ok {
		return false
	}
	return code == sqlite3.SQLITE_CONSTRAINT_TRIGGER || (code == sqlite3.SQLITE_CONSTRAINT && !isUniqueError(err))
}

// mapWriteError translates constraint failures into storage sentinels.
func mapWriteError(op string, err error, duplicate error) error {
	switch {
	case err == nil:
		return nil
	case isUniqueError(err) && duplicate != nil:
		return fmt.Errorf("%s: %w", op, duplicate)
	case isTriggerError(err):
		return fmt.Errorf("%s: %w: %v", op, storage.ErrImmutable, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
