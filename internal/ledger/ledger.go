// Package ledger records song/artist pairs that have been confirmed unsupported and are waiting on a stripper.
//
// Each entry is one "{song} by {artist}" line. The ledger does not enforce uniqueness: callers check
// [Ledger.Contains] before [Ledger.Append], and [Ledger.Remove] deletes every copy of a line so that duplicates
// written by racing requests are cleaned up together.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/desertthunder/strippers/internal/models"
	"github.com/desertthunder/strippers/internal/shared"
)

// Ledger is the durable, ordered store of unsupported pairs.
type Ledger interface {
	// Contains reports whether an entry equal to key exists.
	Contains(ctx context.Context, key models.SongKey) (bool, error)
	// Append adds one entry for key.
	Append(ctx context.Context, key models.SongKey) error
	// Remove deletes every entry equal to key and returns how many were removed.
	Remove(ctx context.Context, key models.SongKey) (int, error)
	// Dump returns the full ledger, one line per entry.
	Dump(ctx context.Context) (string, error)
	// Entries returns the parsed entries in insertion order.
	Entries(ctx context.Context) ([]models.SongKey, error)
}

// Open builds the backend selected by cfg. db is only used by the sqlite backend.
func Open(cfg shared.LedgerConfig, db *sql.DB) (Ledger, error) {
	switch cfg.Backend {
	case "", "file":
		if cfg.Path == "" {
			return nil, fmt.Errorf("%w: ledger path is empty", shared.ErrInvalidConfig)
		}
		return NewFileLedger(cfg.Path), nil
	case "sqlite":
		if db == nil {
			return nil, fmt.Errorf("%w: sqlite ledger needs a database", shared.ErrInvalidConfig)
		}
		return NewSQLLedger(db), nil
	default:
		return nil, fmt.Errorf("%w: unknown ledger backend %q", shared.ErrInvalidConfig, cfg.Backend)
	}
}

// Line renders key as a ledger line, without the trailing newline.
func Line(key models.SongKey) string {
	return key.String()
}

// ParseLine splits a ledger line on its last " by ".
func ParseLine(line string) (models.SongKey, bool) {
	line = strings.TrimRight(line, "\r\n")
	idx := strings.LastIndex(line, " by ")
	if idx <= 0 || idx+len(" by ") >= len(line) {
		return models.SongKey{}, false
	}
	return models.NewSongKey(line[:idx], line[idx+len(" by "):]), true
}

// IssueTitle is the title of the tracking issue filed for key.
func IssueTitle(key models.SongKey) string {
	return key.String() + " unsupported."
}

func ioError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", shared.ErrLedgerIO, op, err)
}
