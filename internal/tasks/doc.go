// Package tasks runs long-running maintenance operations over the unsupported ledger.
//
// # Sweep
//
// [Sweeper.Run] re-resolves every distinct ledger entry and removes the ones that now have a stripper:
//
//  1. Loads the ledger entries and collapses duplicates
//  2. Resolves each pair on a bounded worker pool, paced by a shared rate limiter
//  3. Removes resolved pairs from the ledger unless the run is a dry run
//
// Entries that still do not resolve are left in place. A failure on one entry never stops the others.
//
// # Progress Reporting
//
// Progress is sent on an optional [ProgressUpdate] channel. Sends use select with default, so a slow or absent reader
// never blocks the workers.
package tasks
