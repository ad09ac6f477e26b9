package client

import (
	"errors"
	"fmt"
)

// Kind identifies which stage of an operation failed.
// Every kind is fatal to the current check or read.
type Kind string

const (
	// KindConfigInvalid is a missing or malformed configuration value.
	// It is raised before any network call.
	KindConfigInvalid Kind = "config_invalid"

	// KindTransportFailure is a network-level failure: DNS, connection
	// reset, timeout, cancelled context.
	KindTransportFailure Kind = "transport_failure"

	// KindQueryRejected is a server response that is not a success
	// envelope, including non-2xx HTTP statuses.
	KindQueryRejected Kind = "query_rejected"

	// KindMalformedResponse is a success envelope missing an expected field
	// or carrying a field of the wrong type.
	KindMalformedResponse Kind = "malformed_response"

	// KindPaginationLimitExceeded is raised when the cursor chain is longer
	// than the configured page cap.
	KindPaginationLimitExceeded Kind = "pagination_limit_exceeded"
)

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrConfigInvalid           = errors.New("config invalid")
	ErrTransportFailure        = errors.New("transport failure")
	ErrQueryRejected           = errors.New("query rejected")
	ErrMalformedResponse       = errors.New("malformed response")
	ErrPaginationLimitExceeded = errors.New("pagination limit exceeded")
)

var sentinels = map[Kind]error{
	KindConfigInvalid:           ErrConfigInvalid,
	KindTransportFailure:        ErrTransportFailure,
	KindQueryRejected:           ErrQueryRejected,
	KindMalformedResponse:       ErrMalformedResponse,
	KindPaginationLimitExceeded: ErrPaginationLimitExceeded,
}

// Error is the error type returned by every package of the connector.
// Message must never contain the account passcode.
type Error struct {
	Kind       Kind
	ErrorClass ErrorClass
	StatusCode int
	Message    string
	// Body is the raw response body of a non-2xx response, kept so the
	// caller can look for a CleverTap failure envelope.
	Body []byte
	Err  error
}

// NewError creates an error of the given kind.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf creates an error of the given kind with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind around err.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	prefix := "clevertap " + string(e.Kind)
	switch {
	case e.StatusCode > 0:
		prefix = fmt.Sprintf("%s (%s, status %d)", prefix, e.ErrorClass, e.StatusCode)
	case e.ErrorClass != "":
		prefix = fmt.Sprintf("%s (%s)", prefix, e.ErrorClass)
	}

	msg := prefix
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's Kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// KindOf returns the Kind of the first *Error in err's chain,
// or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
