package client

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name: "http error",
			err: &Error{
				Kind:       KindQueryRejected,
				ErrorClass: ErrorClassClient,
				StatusCode: 400,
				Message:    "invalid event",
			},
			expected: "clevertap query_rejected (client, status 400): invalid event",
		},
		{
			name: "network error with wrapped error",
			err: &Error{
				Kind:       KindTransportFailure,
				ErrorClass: ErrorClassNetwork,
				Message:    "GET https://api.clevertap.com/1/profiles.json",
				Err:        errors.New("connection refused"),
			},
			expected: "clevertap transport_failure (network): GET https://api.clevertap.com/1/profiles.json: connection refused",
		},
		{
			name:     "kind only",
			err:      NewError(KindPaginationLimitExceeded, "more than 3 pages"),
			expected: "clevertap pagination_limit_exceeded: more than 3 pages",
		},
		{
			name:     "formatted",
			err:      Errorf(KindMalformedResponse, "field %q has type %s", "records", "string"),
			expected: `clevertap malformed_response: field "records" has type string`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.err.Error()
			if result != tt.expected {
				t.Errorf("Error() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	tests := []struct {
		kind     Kind
		sentinel error
	}{
		{KindConfigInvalid, ErrConfigInvalid},
		{KindTransportFailure, ErrTransportFailure},
		{KindQueryRejected, ErrQueryRejected},
		{KindMalformedResponse, ErrMalformedResponse},
		{KindPaginationLimitExceeded, ErrPaginationLimitExceeded},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := fmt.Errorf("read profiles: %w", NewError(tt.kind, "boom"))
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.sentinel)
			}
			for _, other := range sentinels {
				if other != tt.sentinel && errors.Is(err, other) {
					t.Errorf("errors.Is(%v, %v) = true, want false", err, other)
				}
			}
			if KindOf(err) != tt.kind {
				t.Errorf("KindOf() = %q, want %q", KindOf(err), tt.kind)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	wrappedErr := errors.New("wrapped error")
	err := Wrap(wrappedErr, KindTransportFailure, "GET")

	if err.Unwrap() != wrappedErr {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), wrappedErr)
	}
	if !errors.Is(err, wrappedErr) {
		t.Error("errors.Is should work with wrapped error")
	}
}

func TestKindOf_PlainError(t *testing.T) {
	if k := KindOf(errors.New("plain")); k != "" {
		t.Errorf("KindOf(plain) = %q, want empty", k)
	}
	if k := KindOf(nil); k != "" {
		t.Errorf("KindOf(nil) = %q, want empty", k)
	}
}
