// Package apperr defines the typed errors the HTTP layer knows how to
// map to status codes. Handlers classify facade errors into these; the
// response writer reads the Kind.
package apperr

import "net/http"

// Kind buckets an error by how the API should answer it.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNotFound covers missing or soft-deleted resources.
	KindNotFound
	// KindValidation covers input the request should not have sent.
	KindValidation
	// KindConflict covers collisions with current state, such as a
	// duplicate contact or a lost concurrent update.
	KindConflict
	// KindInternal covers defects and infrastructure failures.
	KindInternal
	// KindUnprocessable covers well-formed requests the entity's current
	// state refuses, such as a skipped stage or an unmet transfer gate.
	KindUnprocessable
	// KindTooManyRequests covers quota and transition-rate ceilings.
	KindTooManyRequests
)

// Error pairs a Kind with a caller-facing message and optional details.
type Error struct {
	Kind    Kind
	Message string
	Details interface{}
}

func (e *Error) Error() string {
	return e.Message
}

// HTTPStatus maps the Kind to a response status.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindInternal:
		return http.StatusInternalServerError
	case KindUnprocessable:
		return http.StatusUnprocessableEntity
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadRequest
	}
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WithDetails attaches a structured payload that is echoed to the caller
// alongside the message.
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

func Conflict(message string) *Error {
	return New(KindConflict, message)
}

func Internal(message string) *Error {
	return New(KindInternal, message)
}

func Unprocessable(message string) *Error {
	return New(KindUnprocessable, message)
}

func TooManyRequests(message string) *Error {
	return New(KindTooManyRequests, message)
}
