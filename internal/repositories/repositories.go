package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/ytsync/internal/shared"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// notFound maps sql.ErrNoRows to a wrapped sentinel and leaves other errors alone.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, shared.ErrCacheMiss)
	}
	return err
}
