package model

import "log/slog"

// Credentials is the account name and password used to log in.
// They are read from the environment and used once per run.
type Credentials struct {
	Username string
	Password string
}

// Complete reports whether both values are set.
func (c Credentials) Complete() bool {
	return c.Username != "" && c.Password != ""
}

// LogValue implements slog.LogValuer so credentials never reach a log
// handler in clear, whatever handler is installed.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("username_set", c.Username != ""),
		slog.Bool("password_set", c.Password != ""),
	)
}

// String hides both values from fmt verbs.
func (c Credentials) String() string {
	return "Credentials{***}"
}

// GoString hides both values from %#v.
func (c Credentials) GoString() string {
	return c.String()
}
