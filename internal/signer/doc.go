// Package signer runs a check-in pass over every followed forum.
//
// A Signer drives a Service (normally *tieba.Client) through the fixed
// sequence login, enumerate, then one TBS and Sign exchange per forum, and
// folds the results into a model.Report. Forums are signed one at a time
// with a pause after each successful exchange; the pause is a Delayer so
// tests can run without sleeping.
//
// Failures never abort the pass. A failed forum becomes a failed Outcome
// and the loop continues with the next forum. Only a failed login or an
// empty forum list end the run early, and both produce a report with
// Success=false instead of an error.
package signer
