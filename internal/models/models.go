// package models defines the data model for the stripper backend
package models

import (
	"fmt"
	"strings"
	"time"
)

// SongKey identifies a song by its exact title and primary artist.
type SongKey struct {
	Song   string
	Artist string
}

// NewSongKey builds a key from raw form input.
func NewSongKey(song, artist string) SongKey {
	return SongKey{Song: song, Artist: artist}
}

// String renders the key as "{song} by {artist}", the form used in ledger lines and issue titles.
func (k SongKey) String() string {
	return fmt.Sprintf("%s by %s", k.Song, k.Artist)
}

// Valid reports whether both halves are present and neither spans a line break.
func (k SongKey) Valid() bool {
	if k.Song == "" || k.Artist == "" {
		return false
	}
	return !strings.ContainsAny(k.Song, "\r\n") && !strings.ContainsAny(k.Artist, "\r\n")
}

// Track represents a catalog track found by a track provider.
type Track struct {
	ID     string
	Title  string
	Artist string // primary artist
	Album  string
	URI    string
}

// SearchHit represents one lyrics search result.
type SearchHit struct {
	FullTitle string
	Path      string
	URL       string
}

// Stripper is a persisted SongKey -> stripper mapping.
type Stripper struct {
	ID        string
	Sequence  int
	Song      string
	Artist    string
	Stripper  string
	CreatedAt time.Time
}

// NewStripper creates an unsaved record for key.
func NewStripper(key SongKey, stripper string) *Stripper {
	return &Stripper{
		Song:      key.Song,
		Artist:    key.Artist,
		Stripper:  stripper,
		CreatedAt: time.Now().UTC(),
	}
}

// Key returns the record's SongKey.
func (s *Stripper) Key() SongKey {
	return SongKey{Song: s.Song, Artist: s.Artist}
}

// Validate checks the record before it is written.
func (s *Stripper) Validate() error {
	if !s.Key().Valid() {
		return fmt.Errorf("song and artist are required")
	}
	if strings.TrimSpace(s.Stripper) == "" {
		return fmt.Errorf("stripper is required")
	}
	return nil
}

// Issue is the result of creating a tracking issue.
type Issue struct {
	Number     int
	StatusCode int
	HTMLURL    string
}

// Created reports whether the provider answered with 201 Created.
func (i *Issue) Created() bool {
	return i != nil && i.StatusCode == 201
}

// Commit is the head commit of a push event, used for deploy announcements.
type Commit struct {
	ID             string
	Message        string
	URL            string
	Timestamp      string
	AuthorName     string
	AuthorUsername string
}

// Headline returns the first line of the commit message.
func (c Commit) Headline() string {
	headline, _, _ := strings.Cut(c.Message, "\n")
	return headline
}
