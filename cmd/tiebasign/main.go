// Package main provides the entry point for the tiebasign CLI.
//
// tiebasign logs in to a Baidu account, finds every followed Tieba forum
// and performs the daily check-in on each of them. Results are written as
// JSON reports and, optionally, as a markdown step summary, a Prometheus
// textfile, a history database entry and an e-mail.
//
// Usage:
//
//	TIEBA_USERNAME=... TIEBA_PASSWORD=... tiebasign sign
//	tiebasign history
//
// See --help for all available options.
package main

// main is the entry point for tiebasign.
func main() {
	Execute()
}
