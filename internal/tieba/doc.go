// Package tieba is the HTTP client for the Baidu passport and Tieba forum
// services.
//
// A Client holds one cookie session and exposes the four exchanges a sign
// run needs:
//   - Login: login page, login token, login form
//   - FollowedForums: the paginated "my liked forums" list
//   - TBS: the anti-forgery token
//   - Sign: one forum check-in
//
// Every operation returns an error instead of a placeholder value; the
// caller decides how a failure is recorded. Responses are read as opaque
// JSON documents.
//
// Endpoints are configurable so tests can run the client against an
// httptest server.
package tieba
