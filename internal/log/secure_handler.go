package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// MaskValue replaces sensitive attribute values.
const MaskValue = "***REDACTED***"

// sensitiveKeys are attribute keys whose values are never written.
var sensitiveKeys = map[string]bool{
	// HTTP
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"cookies":             true,
	"set-cookie":          true,

	// Account
	"username": true,
	"user":     true,
	"password": true,
	"passwd":   true,

	// Baidu session cookies and form tokens
	"bduss":   true,
	"stoken":  true,
	"ptoken":  true,
	"baiduid": true,
	"tbs":     true,
	"token":   true,

	// Notification
	"smtp_password": true,
}

// sensitiveKeywords mark a key as sensitive when they appear anywhere in it.
var sensitiveKeywords = []string{
	"password", "passwd", "secret", "token", "bduss", "stoken", "credential",
}

// sensitivePatterns match whole values that look like secrets.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
	// BDUSS and similar session blobs are long url-safe strings.
	regexp.MustCompile(`^[A-Za-z0-9~_\-]{64,}$`),
	// tbs and login tokens are 26-32 hex digits.
	regexp.MustCompile(`^[0-9a-f]{26,32}$`),
}

// inlineSecret matches name=value pairs inside a longer string, such as a
// form body or a Cookie header that ended up in an error message.
var inlineSecret = regexp.MustCompile(`(?i)\b(password|bduss|stoken|ptoken|tbs|token)=([^&;\s"]+)`)

// SecureHandler is an slog.Handler that redacts credentials and session
// values before handing records to the wrapped handler.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler wraps handler. A nil handler wraps slog.Default().Handler().
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled reports whether the wrapped handler handles level.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle redacts the record and forwards it.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, redactInline(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.sanitize(a))
		return true
	})
	return h.handler.Handle(ctx, out)
}

// WithAttrs returns a handler whose preset attributes are already redacted.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = h.sanitize(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(clean)}
}

// WithGroup returns a handler that nests attributes under name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

func (h *SecureHandler) sanitize(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		clean := make([]slog.Attr, len(group))
		for i, ga := range group {
			clean[i] = h.sanitize(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(clean...)}
	}

	if IsSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	a.Value = a.Value.Resolve()
	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if isSensitiveValue(s) {
			return slog.String(a.Key, MaskValue)
		}
		return slog.String(a.Key, redactInline(s))
	case slog.KindAny:
		// errors frequently carry the URL or body of a failed request
		if err, ok := a.Value.Any().(error); ok && err != nil {
			return slog.String(a.Key, redactInline(err.Error()))
		}
	}
	return a
}

// IsSensitiveKey reports whether values logged under key are redacted.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	if sensitiveKeys[k] {
		return true
	}
	for _, kw := range sensitiveKeywords {
		if strings.Contains(k, kw) {
			return true
		}
	}
	return false
}

func isSensitiveValue(v string) bool {
	for _, p := range sensitivePatterns {
		if p.MatchString(v) {
			return true
		}
	}
	return false
}

func redactInline(s string) string {
	if !strings.Contains(s, "=") {
		return s
	}
	return inlineSecret.ReplaceAllString(s, "${1}="+MaskValue)
}

// Options configures NewLogger.
type Options struct {
	// Verbose selects slog.LevelDebug. Otherwise only warnings and errors
	// are written.
	Verbose bool

	// JSON selects the JSON handler instead of the text handler.
	JSON bool
}

// NewLogger returns a redacting logger writing to w.
func NewLogger(w io.Writer, opts Options) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	ho := &slog.HandlerOptions{Level: level}

	var inner slog.Handler
	if opts.JSON {
		inner = slog.NewJSONHandler(w, ho)
	} else {
		inner = slog.NewTextHandler(w, ho)
	}
	return slog.New(NewSecureHandler(inner))
}

// NewSecureLogger is NewLogger with the text handler.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return NewLogger(w, Options{Verbose: verbose})
}
