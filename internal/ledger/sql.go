package ledger

import (
	"context"
	"database/sql"
	"strings"

	"github.com/desertthunder/strippers/internal/models"
)

// SQLLedger keeps the ledger in the unsupported table. Row ids give insertion order.
type SQLLedger struct {
	db *sql.DB
}

// NewSQLLedger wraps a migrated database.
func NewSQLLedger(db *sql.DB) *SQLLedger {
	return &SQLLedger{db: db}
}

func (l *SQLLedger) Contains(ctx context.Context, key models.SongKey) (bool, error) {
	var exists bool
	err := l.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM unsupported WHERE song = ? AND artist = ?)",
		key.Song, key.Artist,
	).Scan(&exists)
	if err != nil {
		return false, ioError("contains", err)
	}
	return exists, nil
}

func (l *SQLLedger) Append(ctx context.Context, key models.SongKey) error {
	if _, err := l.db.ExecContext(ctx,
		"INSERT INTO unsupported (song, artist) VALUES (?, ?)",
		key.Song, key.Artist,
	); err != nil {
		return ioError("append", err)
	}
	return nil
}

func (l *SQLLedger) Remove(ctx context.Context, key models.SongKey) (int, error) {
	result, err := l.db.ExecContext(ctx,
		"DELETE FROM unsupported WHERE song = ? AND artist = ?",
		key.Song, key.Artist,
	)
	if err != nil {
		return 0, ioError("remove", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, ioError("rows affected", err)
	}
	return int(n), nil
}

func (l *SQLLedger) Dump(ctx context.Context) (string, error) {
	keys, err := l.Entries(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, key := range keys {
		b.WriteString(Line(key))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func (l *SQLLedger) Entries(ctx context.Context) ([]models.SongKey, error) {
	rows, err := l.db.QueryContext(ctx, "SELECT song, artist FROM unsupported ORDER BY id")
	if err != nil {
		return nil, ioError("query", err)
	}
	defer rows.Close()

	var keys []models.SongKey
	for rows.Next() {
		var key models.SongKey
		if err := rows.Scan(&key.Song, &key.Artist); err != nil {
			return nil, ioError("scan", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, ioError("rows", err)
	}
	return keys, nil
}
