// Package history keeps a SQLite ledger of feed submissions and library
// placements.
//
// The ledger is informational: it backs the `mover history` command and is
// never consulted for dedup decisions, which belong to the seen-link snapshot.
package history
