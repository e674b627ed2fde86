package repositories

import (
	"database/sql"
	"fmt"
)

// sequenced lists the tables that own a "{table}_sequence" counter.
var sequenced = map[string]bool{
	"strippers": true,
}

// NextSequence atomically increments and returns the next sequence number for the given table.
func NextSequence(db *sql.DB, table string) (int, error) {
	if !sequenced[table] {
		return 0, fmt.Errorf("no sequence table for %q", table)
	}

	var sequence int
	query := fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)
	if err := db.QueryRow(query).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	return sequence, nil
}
