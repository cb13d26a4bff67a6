// Package database keeps the history of sign runs in SQLite.
//
// The HistoryDB stores:
//   - runs: one row per run with its counts and message
//   - outcomes: one row per forum of a run, with the raw response
//
// The driver is modernc.org/sqlite, which needs no cgo. Accounts are stored
// as a digest of the username so the file can be shared without exposing
// the account name.
package database
