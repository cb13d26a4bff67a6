// Package log provides an slog handler that keeps account credentials and
// Baidu session values out of log output.
//
// The SecureHandler redacts:
//   - attributes whose key names a secret (password, cookie, bduss, tbs, ...)
//   - values that look like session blobs, bearer tokens or hex tokens
//   - name=value pairs such as "password=..." embedded in messages, string
//     values and errors
//
// Even in verbose mode nothing is written in clear, so logs from scheduled
// runs (for example a CI job) can be shared.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, log.Options{Verbose: true})
//	slog.SetDefault(logger)
//
//	logger.Debug("login form submitted", "username", user) // username=***REDACTED***
package log
