package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Response codes returned in the "no" field of a check-in response.
const (
	// CodeSigned means the forum was signed by this request.
	CodeSigned = 0

	// CodeAlreadySigned means the account had already signed the forum today.
	CodeAlreadySigned = 1101

	// CodeLocalFailure is the code of the synthetic response built when the
	// exchange itself failed (network error, undecodable body, missing tbs).
	CodeLocalFailure = 999
)

// Status is the classification of a check-in response.
type Status int

const (
	// StatusFailed covers every code other than 0 and 1101, an absent code,
	// and local failures.
	StatusFailed Status = iota

	// StatusSigned indicates a fresh check-in.
	StatusSigned

	// StatusAlreadySigned indicates the forum had been signed earlier today.
	StatusAlreadySigned
)

// String returns the machine-readable name of the status.
func (s Status) String() string {
	switch s {
	case StatusSigned:
		return "signed"
	case StatusAlreadySigned:
		return "already_signed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "signed":
		*s = StatusSigned
	case "already_signed":
		*s = StatusAlreadySigned
	case "failed":
		*s = StatusFailed
	default:
		return fmt.Errorf("unknown status %q", string(text))
	}
	return nil
}

// StatusFromCode maps a response code onto a Status.
// 0 is signed, 1101 is already signed, and everything else is failed.
func StatusFromCode(code int) Status {
	switch code {
	case CodeSigned:
		return StatusSigned
	case CodeAlreadySigned:
		return StatusAlreadySigned
	default:
		return StatusFailed
	}
}

// Classify returns the Status of a decoded check-in response.
// A response without a readable "no" field is failed.
func Classify(response map[string]any) Status {
	code, ok := ResponseCode(response)
	if !ok {
		return StatusFailed
	}
	return StatusFromCode(code)
}

// ResponseCode extracts the "no" field of a response.
// The service sends a JSON number; numeric strings are accepted as well.
func ResponseCode(response map[string]any) (int, bool) {
	raw, ok := response["no"]
	if !ok || raw == nil {
		return 0, false
	}

	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// ResponseMessage returns the human-readable error message of a response,
// preferring "error_msg" over "error". It returns an empty string when the
// response carries neither.
func ResponseMessage(response map[string]any) string {
	for _, key := range []string{"error_msg", "error"} {
		if s, ok := response[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
