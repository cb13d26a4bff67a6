package model

// Labels written to the "status" field of a detail entry.
const (
	LabelSigned        = "signed"
	LabelAlreadySigned = "already signed"
	labelFailedPrefix  = "failed: "
	unknownError       = "unknown error"
)

// Outcome records the check-in of a single forum.
// It is created once per forum by NewOutcome and not modified afterwards.
type Outcome struct {
	// Forum is the forum name as it was enumerated.
	Forum string `json:"bar_name"`

	// Label is the human-readable status, e.g. "already signed" or
	// "failed: <message>".
	Label string `json:"status"`

	// Status is the classified bucket.
	Status Status `json:"outcome"`

	// Code is the "no" field of the response, or -1 when it was absent.
	Code int `json:"code"`

	// Response is the decoded response document, kept opaque.
	Response map[string]any `json:"result"`
}

// NewOutcome classifies a response and builds the Outcome for a forum.
func NewOutcome(forum string, response map[string]any) Outcome {
	if response == nil {
		response = map[string]any{}
	}

	code, ok := ResponseCode(response)
	if !ok {
		code = -1
	}
	status := Classify(response)

	return Outcome{
		Forum:    forum,
		Label:    statusLabel(status, response),
		Status:   status,
		Code:     code,
		Response: response,
	}
}

// FailureResponse builds the synthetic response used when the exchange with
// the service could not be completed.
func FailureResponse(err error) map[string]any {
	msg := unknownError
	if err != nil {
		msg = err.Error()
	}
	return map[string]any{
		"error":     "no",
		"no":        CodeLocalFailure,
		"error_msg": msg,
	}
}

// IsLocalFailure reports whether the outcome was built from FailureResponse.
func (o Outcome) IsLocalFailure() bool {
	return o.Status == StatusFailed && o.Code == CodeLocalFailure
}

func statusLabel(status Status, response map[string]any) string {
	switch status {
	case StatusSigned:
		return LabelSigned
	case StatusAlreadySigned:
		return LabelAlreadySigned
	default:
		msg := ResponseMessage(response)
		if msg == "" {
			msg = unknownError
		}
		return labelFailedPrefix + msg
	}
}
