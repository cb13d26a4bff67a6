// Package model defines the data structures shared by the signer, the
// report writers and the history database.
//
// This package contains the following main types:
//   - Status: The classification of a single check-in response
//   - Outcome: The immutable record of one forum's check-in
//   - Report: The aggregate result of a run, persisted as sign_results.json
//   - Summary: The condensed counts persisted as summary.json
//
// Remote responses are kept as opaque map[string]any documents. Only the
// numeric "no" field and the "error_msg"/"error" message fields are read.
package model
