package adapter

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies adapter failures.
type Kind int

const (
	// KindValidation is a missing or invalid action or parameter.
	KindValidation Kind = iota + 1
	// KindConfiguration is a missing credential or identifier.
	KindConfiguration
	// KindUpstream is a non-success status from the external service.
	KindUpstream
	// KindUnexpected is any other failure (transport, malformed payload).
	KindUnexpected
)

// String returns the metrics/log label for the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindConfiguration:
		return "configuration_error"
	case KindUpstream:
		return "upstream_error"
	case KindUnexpected:
		return "unexpected_error"
	default:
		return "unknown"
	}
}

// Error is returned by Adapter.Do. Message is safe to show to callers;
// Err carries the underlying cause for logs only.
type Error struct {
	Kind           Kind
	Message        string
	UpstreamStatus int
	Err            error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind onto the status returned to callers.
// Configuration problems are indistinguishable from an unavailable service,
// so they share the upstream status.
func (e *Error) HTTPStatus() int {
	if e.Kind == KindValidation {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// ErrNoRows is returned by extractors that expect at least one row.
var ErrNoRows = errors.New("no rows in upstream result")

// errInvalidAction is the shared rejection for unknown or missing actions.
func errInvalidAction() *Error {
	return &Error{Kind: KindValidation, Message: "Invalid or missing action"}
}

func errMissingParam(name string) *Error {
	return &Error{Kind: KindValidation, Message: "Missing " + name}
}

func errInvalidParam(name string) *Error {
	return &Error{Kind: KindValidation, Message: "Invalid " + name}
}

func errNotConfigured(service string, missing string) *Error {
	return &Error{
		Kind:    KindConfiguration,
		Message: service + " API not configured",
		Err:     fmt.Errorf("missing %s", missing),
	}
}

func errUpstream(service string, status int, cause error) *Error {
	return &Error{
		Kind:           KindUpstream,
		Message:        fmt.Sprintf("%s API error: %d", service, status),
		UpstreamStatus: status,
		Err:            cause,
	}
}

func errUnexpected(service string, cause error) *Error {
	return &Error{
		Kind:    KindUnexpected,
		Message: "Unexpected error fetching " + service + " data",
		Err:     cause,
	}
}

// AsError converts any error into an *Error, treating unknown errors as unexpected.
func AsError(service string, err error) *Error {
	var adapterErr *Error
	if errors.As(err, &adapterErr) {
		return adapterErr
	}
	return errUnexpected(service, err)
}
