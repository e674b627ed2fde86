package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/strippers/internal/models"
	"github.com/desertthunder/strippers/internal/shared"
)

const stripperColumns = "id, sequence, song, artist, stripper, created_at"

// StripperRepository stores confirmed song/artist -> stripper mappings.
//
// Several records may exist for the same pair; lookups return the one with the highest sequence so a maintainer can
// correct a stripper by submitting it again.
type StripperRepository struct {
	db *sql.DB
}

// NewStripperRepository creates a new StripperRepository with the given database connection
func NewStripperRepository(db *sql.DB) *StripperRepository {
	return &StripperRepository{db: db}
}

// Create inserts s with a generated ID and sequence
func (r *StripperRepository) Create(s *models.Stripper) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	sequence, err := NextSequence(r.db, "strippers")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	s.ID = shared.GenerateID()
	s.Sequence = sequence

	_, err = r.db.Exec(
		"INSERT INTO strippers ("+stripperColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		s.ID, s.Sequence, s.Song, s.Artist, s.Stripper, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert stripper: %w", err)
	}

	return nil
}

// Get retrieves a record by ID
func (r *StripperRepository) Get(id string) (*models.Stripper, error) {
	row := r.db.QueryRow("SELECT "+stripperColumns+" FROM strippers WHERE id = ?", id)
	return scanStripper(row)
}

// GetBySongArtist returns the newest record for the exact song/artist pair.
//
// Returns [shared.ErrStripperNotFound] when no record exists.
func (r *StripperRepository) GetBySongArtist(song, artist string) (*models.Stripper, error) {
	row := r.db.QueryRow(
		"SELECT "+stripperColumns+" FROM strippers WHERE song = ? AND artist = ? ORDER BY sequence DESC LIMIT 1",
		song, artist,
	)
	return scanStripper(row)
}

// Delete removes a record by ID
func (r *StripperRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM strippers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete stripper: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrStripperNotFound, id)
	}

	return nil
}

// List retrieves records matching criteria in sequence order.
//
// Supported criteria: "artist" and "song" (exact match).
func (r *StripperRepository) List(criteria map[string]any) ([]*models.Stripper, error) {
	query := "SELECT " + stripperColumns + " FROM strippers WHERE 1 = 1"
	args := []any{}

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND artist = ?"
		args = append(args, artist)
	}

	if song, ok := criteria["song"].(string); ok && song != "" {
		query += " AND song = ?"
		args = append(args, song)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query strippers: %w", err)
	}
	defer rows.Close()

	var records []*models.Stripper
	for rows.Next() {
		s, err := scanStripper(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// Count returns the number of stored records
func (r *StripperRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM strippers").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count strippers: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStripper(row scanner) (*models.Stripper, error) {
	var s models.Stripper
	err := row.Scan(&s.ID, &s.Sequence, &s.Song, &s.Artist, &s.Stripper, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrStripperNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan stripper: %w", err)
	}
	return &s, nil
}
