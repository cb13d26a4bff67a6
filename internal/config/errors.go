package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrMissingCredentials is returned when TIEBA_USERNAME or
	// TIEBA_PASSWORD is not set.
	ErrMissingCredentials = errors.New("missing credentials: set " + EnvUsername + " and " + EnvPassword)

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidDelay is returned when a delay is negative or MinDelay
	// exceeds a non-zero MaxDelay.
	ErrInvalidDelay = errors.New("invalid delay: need 0 <= min-delay <= max-delay, or max-delay 0 to disable")

	// ErrInvalidMaxForumPages is returned when MaxForumPages is below one.
	ErrInvalidMaxForumPages = errors.New("invalid max forum pages: must be at least 1")

	// ErrMissingOutputFile is returned when DetailFile or SummaryFile is empty.
	ErrMissingOutputFile = errors.New("detail and summary file names must not be empty")

	// ErrInvalidProxy is returned when Proxy is not an http, https or
	// socks5 URL.
	ErrInvalidProxy = errors.New("invalid proxy: expected http://, https:// or socks5:// URL")

	// ErrInvalidEndpoint is returned when an endpoint is missing or not a URL.
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrInvalidNotify is returned when the notification settings are malformed.
	ErrInvalidNotify = errors.New("invalid notification settings")
)
