package model

import (
	"encoding/json"
	"testing"
)

// TestStatusString tests the String method of Status.
func TestStatusString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		status   Status
		expected string
	}{
		{StatusSigned, "signed"},
		{StatusAlreadySigned, "already_signed"},
		{StatusFailed, "failed"},
		{Status(42), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()
			if tc.status.String() != tc.expected {
				t.Errorf("got %q, expected %q", tc.status.String(), tc.expected)
			}
		})
	}
}

// TestStatusText tests that Status round-trips through its text form.
func TestStatusText(t *testing.T) {
	t.Parallel()

	for _, s := range []Status{StatusSigned, StatusAlreadySigned, StatusFailed} {
		text, err := s.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v) error: %v", s, err)
		}
		var got Status
		if err := got.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q) error: %v", text, err)
		}
		if got != s {
			t.Errorf("expected %v, got %v", s, got)
		}
	}

	var s Status
	if err := s.UnmarshalText([]byte("bogus")); err == nil {
		t.Error("expected error for unknown status text")
	}
}

// TestStatusFromCode tests the code to bucket mapping.
func TestStatusFromCode(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		code     int
		expected Status
	}{
		{"zero is signed", 0, StatusSigned},
		{"1101 is already signed", 1101, StatusAlreadySigned},
		{"local failure", CodeLocalFailure, StatusFailed},
		{"remote rejection", 340006, StatusFailed},
		{"500", 500, StatusFailed},
		{"negative", -1, StatusFailed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := StatusFromCode(tc.code); got != tc.expected {
				t.Errorf("StatusFromCode(%d) = %v, expected %v", tc.code, got, tc.expected)
			}
		})
	}
}

// TestClassify tests classification of decoded responses.
func TestClassify(t *testing.T) {
	t.Parallel()

	decode := func(t *testing.T, s string) map[string]any {
		t.Helper()
		var m map[string]any
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			t.Fatalf("failed to decode %s: %v", s, err)
		}
		return m
	}

	testCases := []struct {
		name     string
		body     string
		expected Status
	}{
		{"signed", `{"no":0,"error":"","data":{"uinfo":{"user_sign_rank":12}}}`, StatusSigned},
		{"already signed", `{"no":1101,"error":"already"}`, StatusAlreadySigned},
		{"rejected", `{"no":1102,"error":"too fast"}`, StatusFailed},
		{"string code", `{"no":"1101"}`, StatusAlreadySigned},
		{"missing code", `{"error":"strange"}`, StatusFailed},
		{"null code", `{"no":null}`, StatusFailed},
		{"fractional code", `{"no":0.5}`, StatusFailed},
		{"non numeric string", `{"no":"zero"}`, StatusFailed},
		{"empty document", `{}`, StatusFailed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(decode(t, tc.body)); got != tc.expected {
				t.Errorf("Classify(%s) = %v, expected %v", tc.body, got, tc.expected)
			}
		})
	}

	t.Run("nil response", func(t *testing.T) {
		t.Parallel()
		if got := Classify(nil); got != StatusFailed {
			t.Errorf("expected failed, got %v", got)
		}
	})

	t.Run("json.Number code", func(t *testing.T) {
		t.Parallel()
		if got := Classify(map[string]any{"no": json.Number("0")}); got != StatusSigned {
			t.Errorf("expected signed, got %v", got)
		}
	})
}

// TestResponseMessage tests message extraction.
func TestResponseMessage(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		response map[string]any
		expected string
	}{
		{"error_msg preferred", map[string]any{"error_msg": "a", "error": "b"}, "a"},
		{"falls back to error", map[string]any{"error": "b"}, "b"},
		{"empty error_msg falls back", map[string]any{"error_msg": "", "error": "b"}, "b"},
		{"none", map[string]any{"no": 0}, ""},
		{"non string ignored", map[string]any{"error": 3}, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ResponseMessage(tc.response); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}
