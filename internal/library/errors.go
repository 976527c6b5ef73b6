package library

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed call.
type ErrorKind int

const (
	KindNetwork ErrorKind = iota + 1
	KindServer
	KindSessionExpired
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "NetworkError"
	case KindServer:
		return "ServerError"
	case KindSessionExpired:
		return "SessionExpired"
	default:
		return "Unknown"
	}
}

const (
	sessionExpiredMessage  = "Session expired, please log in again."
	requestFailedMessage   = "request failed"
	invalidResponseMessage = "invalid response"
)

// APIError is the normalized failure of every backend call.
type APIError struct {
	Kind    ErrorKind
	Message string
	Status  int   // HTTP status, zero when no response arrived
	Err     error // underlying transport or decode error
}

// Sentinels for errors.Is; they match any APIError of the same kind.
var (
	ErrNetwork        = &APIError{Kind: KindNetwork}
	ErrServer         = &APIError{Kind: KindServer}
	ErrSessionExpired = &APIError{Kind: KindSessionExpired}
)

func (e *APIError) Error() string {
	switch e.Kind {
	case KindNetwork:
		if e.Err != nil {
			return fmt.Sprintf("network error: %v", e.Err)
		}
		return "network error"
	case KindSessionExpired:
		return sessionExpiredMessage
	default:
		if e.Message == "" {
			return requestFailedMessage
		}
		return e.Message
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is matches sentinels by kind.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Status == 0 && t.Err == nil
}

// KindOf returns the kind of err, or zero when err is not an APIError.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

func networkError(err error) *APIError {
	return &APIError{Kind: KindNetwork, Err: err}
}

func serverError(status int, message string) *APIError {
	if message == "" {
		message = requestFailedMessage
	}
	return &APIError{Kind: KindServer, Status: status, Message: message}
}

func sessionExpired(status int) *APIError {
	return &APIError{Kind: KindSessionExpired, Status: status, Message: sessionExpiredMessage}
}
