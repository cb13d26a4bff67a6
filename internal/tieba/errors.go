package tieba

import (
	"errors"
	"fmt"
)

// Errors returned by Client operations. They are wrapped with the name of
// the exchange that failed, so use errors.Is.
var (
	// ErrEmptyCredentials is returned by Login when a credential is empty.
	ErrEmptyCredentials = errors.New("username and password are required")

	// ErrMissingLoginToken is returned when the login token response has
	// no data.token value.
	ErrMissingLoginToken = errors.New("login token not found in response")

	// ErrLoginRejected is wrapped by *LoginError.
	ErrLoginRejected = errors.New("login rejected")

	// ErrMissingTBS is returned when the tbs response has no token.
	ErrMissingTBS = errors.New("tbs not found in response")

	// ErrNotLoggedIn is returned when the tbs response reports that the
	// session is not authenticated.
	ErrNotLoggedIn = errors.New("session is not logged in")

	// ErrUnexpectedResponse is returned when a JSON body cannot be decoded.
	ErrUnexpectedResponse = errors.New("unexpected response")

	// ErrHTTPStatus is returned for responses with a 4xx or 5xx status.
	ErrHTTPStatus = errors.New("unexpected HTTP status")
)

// LoginError reports the err_no returned by the passport service.
type LoginError struct {
	// Code is the err_no value, or -1 when the response carried none.
	Code int
}

// Error implements error.
func (e *LoginError) Error() string {
	if e.Code < 0 {
		return "login rejected: no err_no in response"
	}
	return fmt.Sprintf("login rejected: err_no=%d", e.Code)
}

// Unwrap returns ErrLoginRejected.
func (e *LoginError) Unwrap() error {
	return ErrLoginRejected
}
