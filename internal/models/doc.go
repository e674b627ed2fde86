// Package models defines the domain values shared by the stripper backend.
//
// Lookup values:
//   - [SongKey] : a (song, artist) pair, compared exactly for ledger membership
//   - [Track] : a catalog track returned by the legitimacy check
//   - [SearchHit] : a lyrics search result with its display title and page path
//
// Persisted and external records:
//   - [Stripper] : a confirmed SongKey -> stripper mapping
//   - [Issue] : the outcome of filing a tracking issue
package models
