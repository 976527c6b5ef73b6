// Package library is the HTTP client for the course library backend.
//
// # Authorization
//
// Every protected call goes through Client.Request. It reads the token from
// the session store and sends it as a Bearer header. A missing token fails
// fast with a SessionExpired error and no network traffic. A 401 response
// clears the session before SessionExpired is returned, so every subscriber
// of the session store sees the logout.
//
// Login, Register and Ping are public and never touch the session.
//
// # Errors
//
// Failures are always *APIError with one of three kinds:
//
//   - KindNetwork: no response arrived (refused, DNS, cancelled context)
//   - KindServer: non-2xx other than 401, or a body that did not decode
//   - KindSessionExpired: no token, or the backend answered 401
//
// Match them with errors.Is against ErrNetwork, ErrServer and
// ErrSessionExpired, or read the kind with KindOf. Server errors carry the
// backend's "message" field when it sent one and "request failed" otherwise.
//
// The client never retries.
//
// # Tracing
//
// Each request carries a fresh X-Request-ID and is logged at debug level
// with its status and elapsed time.
package library
