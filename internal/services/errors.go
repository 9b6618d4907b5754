package services

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a kit operation failure.
type Kind int

const (
	KindIOFailure Kind = iota
	KindUnauthorized
	KindInvalidInput
	KindNotFound
	KindCorruptArchive
	KindNoValidTemplates
	KindHostRejected
)

var (
	ErrUnauthorized     = errors.New("kits: unauthorized")
	ErrInvalidInput     = errors.New("kits: invalid input")
	ErrNotFound         = errors.New("kits: not found")
	ErrCorruptArchive   = errors.New("kits: corrupt archive")
	ErrNoValidTemplates = errors.New("kits: no valid templates")
	ErrIOFailure        = errors.New("kits: I/O failure")
	ErrHostRejected     = errors.New("kits: rejected by content store")
)

var kindSentinels = map[Kind]error{
	KindUnauthorized:     ErrUnauthorized,
	KindInvalidInput:     ErrInvalidInput,
	KindNotFound:         ErrNotFound,
	KindCorruptArchive:   ErrCorruptArchive,
	KindNoValidTemplates: ErrNoValidTemplates,
	KindIOFailure:        ErrIOFailure,
	KindHostRejected:     ErrHostRejected,
}

// String returns the stable code sent to clients.
func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindCorruptArchive:
		return "corrupt_archive"
	case KindNoValidTemplates:
		return "no_valid_templates"
	case KindHostRejected:
		return "host_rejected"
	default:
		return "io_failure"
	}
}

// HTTPStatus maps a kind to the response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthorized:
		return http.StatusForbidden
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindCorruptArchive, KindNoValidTemplates:
		return http.StatusUnprocessableEntity
	case KindHostRejected:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a kind, a message safe to show an admin, and the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind, so errors.Is(err, ErrNotFound) works.
func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err. Unclassified errors are IOFailure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for kind, sentinel := range kindSentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindIOFailure
}

// MessageOf returns the client-facing message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	switch KindOf(err) {
	case KindUnauthorized:
		return "Insufficient permissions."
	case KindNotFound:
		return "File not found."
	case KindInvalidInput:
		return "Invalid parameters."
	default:
		return "An unexpected error occurred."
	}
}

// Unauthorized builds the error returned when a caller fails the admin check.
func Unauthorized(err error) error {
	return newError(KindUnauthorized, "Insufficient permissions.", err)
}

// InvalidInput builds a validation error with a client-facing message.
func InvalidInput(message string) error {
	return newError(KindInvalidInput, message, nil)
}

// NewError builds an error of the given kind with a client-facing message.
func NewError(kind Kind, message string, err error) error {
	return newError(kind, message, err)
}
