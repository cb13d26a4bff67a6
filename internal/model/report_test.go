package model

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// TestNewOutcome tests outcome construction and labels.
func TestNewOutcome(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		response     map[string]any
		expectStatus Status
		expectLabel  string
		expectCode   int
		expectLocal  bool
	}{
		{
			name:         "signed",
			response:     map[string]any{"no": float64(0)},
			expectStatus: StatusSigned,
			expectLabel:  "signed",
			expectCode:   0,
		},
		{
			name:         "already signed",
			response:     map[string]any{"no": float64(1101), "error": "already signed"},
			expectStatus: StatusAlreadySigned,
			expectLabel:  "already signed",
			expectCode:   1101,
		},
		{
			name:         "remote failure with message",
			response:     map[string]any{"no": float64(500), "error_msg": "forum closed"},
			expectStatus: StatusFailed,
			expectLabel:  "failed: forum closed",
			expectCode:   500,
		},
		{
			name:         "remote failure without message",
			response:     map[string]any{"no": float64(500)},
			expectStatus: StatusFailed,
			expectLabel:  "failed: unknown error",
			expectCode:   500,
		},
		{
			name:         "missing code",
			response:     map[string]any{},
			expectStatus: StatusFailed,
			expectLabel:  "failed: unknown error",
			expectCode:   -1,
		},
		{
			name:         "local failure",
			response:     FailureResponse(errors.New("connection refused")),
			expectStatus: StatusFailed,
			expectLabel:  "failed: connection refused",
			expectCode:   CodeLocalFailure,
			expectLocal:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			o := NewOutcome("forum", tc.response)
			if o.Forum != "forum" {
				t.Errorf("expected forum %q, got %q", "forum", o.Forum)
			}
			if o.Status != tc.expectStatus {
				t.Errorf("expected status %v, got %v", tc.expectStatus, o.Status)
			}
			if o.Label != tc.expectLabel {
				t.Errorf("expected label %q, got %q", tc.expectLabel, o.Label)
			}
			if o.Code != tc.expectCode {
				t.Errorf("expected code %d, got %d", tc.expectCode, o.Code)
			}
			if o.IsLocalFailure() != tc.expectLocal {
				t.Errorf("expected IsLocalFailure %v", tc.expectLocal)
			}
		})
	}

	t.Run("nil response becomes empty document", func(t *testing.T) {
		t.Parallel()
		o := NewOutcome("x", nil)
		if o.Response == nil {
			t.Error("expected non-nil response")
		}
	})
}

// TestFailureResponse tests the synthetic failure document.
func TestFailureResponse(t *testing.T) {
	t.Parallel()

	got := FailureResponse(errors.New("boom"))
	want := map[string]any{"error": "no", "no": 999, "error_msg": "boom"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FailureResponse mismatch (-want +got):\n%s", diff)
	}

	if msg := FailureResponse(nil)["error_msg"]; msg != "unknown error" {
		t.Errorf("expected unknown error for nil, got %v", msg)
	}
}

// TestReportAdd tests that each outcome increments exactly one counter.
func TestReportAdd(t *testing.T) {
	t.Parallel()

	r := NewReport(3)
	r.Add(NewOutcome("A", map[string]any{"no": float64(0)}))
	r.Add(NewOutcome("B", map[string]any{"no": float64(1101)}))
	r.Add(NewOutcome("C", map[string]any{"no": float64(500)}))

	if !r.Success {
		t.Error("expected success")
	}
	if r.Total != 3 || r.Signed != 1 || r.AlreadySigned != 1 || r.Failed != 1 {
		t.Errorf("unexpected counts: %+v", r)
	}
	if r.Processed() != r.Total {
		t.Errorf("expected processed %d, got %d", r.Total, r.Processed())
	}
	if !r.HasFailures() {
		t.Error("expected HasFailures with one failed forum")
	}

	var names []string
	for _, d := range r.Details {
		names = append(names, d.Forum)
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, names); diff != "" {
		t.Errorf("detail order mismatch (-want +got):\n%s", diff)
	}
}

// TestNewFailedReport tests early-failure reports.
func TestNewFailedReport(t *testing.T) {
	t.Parallel()

	r := NewFailedReport(MessageLoginFailed)
	if r.Success {
		t.Error("expected failure")
	}
	if r.Total != 0 || r.Signed != 0 || r.AlreadySigned != 0 || r.Failed != 0 {
		t.Errorf("expected zero counts, got %+v", r)
	}
	if r.Message != MessageLoginFailed {
		t.Errorf("expected message %q, got %q", MessageLoginFailed, r.Message)
	}
	if !r.HasFailures() {
		t.Error("expected HasFailures for failed run")
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"details":[]`) {
		t.Errorf("expected empty details array, got %s", data)
	}
}

// TestReportJSONFields tests the field names of the detailed report.
func TestReportJSONFields(t *testing.T) {
	t.Parallel()

	r := NewReport(1)
	r.Add(NewOutcome("贴吧", map[string]any{"no": float64(1101)}))

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	for _, key := range []string{
		`"success":true`, `"total":1`, `"already_signed":1`,
		`"bar_name":"贴吧"`, `"status":"already signed"`, `"outcome":"already_signed"`, `"result":{`,
	} {
		if !strings.Contains(string(data), key) {
			t.Errorf("expected %s in %s", key, data)
		}
	}

	var back Report
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Details[0].Status != StatusAlreadySigned {
		t.Errorf("expected already_signed after round trip, got %v", back.Details[0].Status)
	}
}

// TestReportSummary tests summary condensation.
func TestReportSummary(t *testing.T) {
	t.Parallel()

	r := NewReport(2)
	r.Add(NewOutcome("A", map[string]any{"no": float64(0)}))
	r.Add(NewOutcome("B", map[string]any{"no": float64(0)}))

	now := time.Unix(1700000000, 500_000_000)
	s := r.Summary(now)

	if s.Total != 2 || s.Signed != 2 || s.AlreadySigned != 0 || s.Failed != 0 {
		t.Errorf("unexpected summary: %+v", s)
	}
	if math.Abs(s.Timestamp-1700000000.5) > 1e-3 {
		t.Errorf("expected timestamp 1700000000.5, got %f", s.Timestamp)
	}
	if d := s.Time().Sub(now); d > time.Millisecond || d < -time.Millisecond {
		t.Errorf("expected Time() close to %v, got %v", now, s.Time())
	}
}

// TestReportDuration tests Duration.
func TestReportDuration(t *testing.T) {
	t.Parallel()

	r := NewReport(0)
	if r.Duration() != 0 {
		t.Errorf("expected zero duration without timestamps, got %v", r.Duration())
	}
	r.StartedAt = time.Unix(100, 0)
	r.FinishedAt = time.Unix(103, 0)
	if r.Duration() != 3*time.Second {
		t.Errorf("expected 3s, got %v", r.Duration())
	}
}
