// Package repositories implements SQLite persistence for confirmed strippers.
//
// Records carry a UUID id and a sequence number. Sequence numbers come from a per-table counter in a dedicated
// "{table}_sequence" table, so "the newest submission" is well defined even when created_at collides.
//
// Key Implementations:
//   - [StripperRepository] : song/artist -> stripper mappings submitted by maintainers
//   - [NextSequence] : atomic per-table sequence counter
//
// The unsupported ledger has its own sqlite backend in the ledger package.
package repositories
