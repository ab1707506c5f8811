// Package domainerrors provides coded errors shared by the client pipeline and
// the backend. The message is what a user sees; the code is what callers branch on.
package domainerrors

import (
	"errors"
	"net/http"
	"strings"
)

// Code classifies a failure independently of its message.
type Code string

const (
	// Client pipeline taxonomy.
	CodeUnauthenticated   Code = "unauthenticated"
	CodeCredentialMint    Code = "credential_mint_failure"
	CodeAPIFailure        Code = "api_failure"
	CodeNetwork           Code = "network_failure"
	CodeAdmissionRejected Code = "admission_rejected"

	// Backend taxonomy.
	CodeUnauthorized     Code = "unauthorized"
	CodeBadRequest       Code = "bad_request"
	CodeNotFound         Code = "not_found"
	CodeMethodNotAllowed Code = "method_not_allowed"
	CodeInternal         Code = "internal_error"
	CodeUnavailable      Code = "unavailable"
)

// EnvelopeCode renders the code the way the backend puts it in error_code.
func (c Code) EnvelopeCode() string {
	return strings.ToUpper(string(c))
}

// Error is a coded error. Error() returns Message, or the wrapped error's text
// when Message is empty.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// New creates a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same code and message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Message == e.Message
}

// HasCode reports whether any error in err's chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// CodeOf returns the outermost code in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the status the backend responds with.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeUnauthorized, CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case CodeAdmissionRejected:
		return http.StatusForbidden
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
