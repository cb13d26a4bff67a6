package model

import "time"

// Messages set on reports that end before any check-in.
const (
	MessageLoginFailed    = "login failed"
	MessageNoForums       = "no followed forums found"
	MessageRunInterrupted = "run interrupted"
)

// Report is the aggregate result of one run.
// It is serialized as the detailed report (sign_results.json).
type Report struct {
	// Success is false when the run ended before any check-in, i.e. login
	// failed or no forums were found.
	Success bool `json:"success"`

	// Message explains an early end or an interruption.
	Message string `json:"message,omitempty"`

	Total         int `json:"total"`
	Signed        int `json:"signed"`
	AlreadySigned int `json:"already_signed"`
	Failed        int `json:"failed"`

	// Details holds one entry per forum in enumeration order.
	Details []Outcome `json:"details"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewReport creates a successful, empty report for a run over total forums.
func NewReport(total int) *Report {
	return &Report{
		Success: true,
		Total:   total,
		Details: make([]Outcome, 0, total),
	}
}

// NewFailedReport creates a report for a run that ended before any
// check-in. All counters are zero.
func NewFailedReport(message string) *Report {
	return &Report{
		Success: false,
		Message: message,
		Details: []Outcome{},
	}
}

// Add appends an outcome and increments exactly one counter.
func (r *Report) Add(o Outcome) {
	r.Details = append(r.Details, o)
	switch o.Status {
	case StatusSigned:
		r.Signed++
	case StatusAlreadySigned:
		r.AlreadySigned++
	default:
		r.Failed++
	}
}

// Processed returns the number of forums that have an outcome.
// It is lower than Total only for interrupted runs.
func (r *Report) Processed() int {
	return r.Signed + r.AlreadySigned + r.Failed
}

// HasFailures reports whether the run failed or any forum failed.
func (r *Report) HasFailures() bool {
	return !r.Success || r.Failed > 0
}

// Duration returns the wall-clock duration of the run.
func (r *Report) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary condenses the report into the counts and a timestamp.
func (r *Report) Summary(now time.Time) Summary {
	return Summary{
		Success:       r.Success,
		Total:         r.Total,
		Signed:        r.Signed,
		AlreadySigned: r.AlreadySigned,
		Failed:        r.Failed,
		Timestamp:     float64(now.UnixNano()) / float64(time.Second),
	}
}

// Summary is the condensed result persisted as summary.json.
type Summary struct {
	Success       bool `json:"success"`
	Total         int  `json:"total"`
	Signed        int  `json:"signed"`
	AlreadySigned int  `json:"already_signed"`
	Failed        int  `json:"failed"`

	// Timestamp is the Unix time in seconds, with fractional part.
	Timestamp float64 `json:"timestamp"`
}

// Time converts Timestamp back to a time.Time.
func (s Summary) Time() time.Time {
	sec := int64(s.Timestamp)
	nsec := int64((s.Timestamp - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec)
}
