package tieba

import (
	"fmt"
	"log/slog"
	"strings"
)

// restyLogger forwards resty's printf-style messages to slog.
type restyLogger struct {
	l *slog.Logger
}

func newRestyLogger(l *slog.Logger) *restyLogger {
	return &restyLogger{l: l.With("component", "resty")}
}

func (r *restyLogger) Errorf(format string, v ...any) {
	r.l.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (r *restyLogger) Warnf(format string, v ...any) {
	r.l.Warn(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (r *restyLogger) Debugf(format string, v ...any) {
	r.l.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
