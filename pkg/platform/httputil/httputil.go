// Package httputil writes response envelopes.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "gatehouse/pkg/domain-errors"
	"gatehouse/pkg/envelope"
	"gatehouse/pkg/requestcontext"
)

// WriteJSON encodes v with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// WriteSuccess writes a success envelope. A nil data omits the data field.
func WriteSuccess(w http.ResponseWriter, r *http.Request, status int, data any, message string) {
	env, err := envelope.Success(data, message, requestcontext.Now(r.Context()))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response data",
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
		)
		WriteError(w, r, http.StatusInternalServerError, msgInternal, dErrors.CodeInternal.EnvelopeCode())
		return
	}
	WriteJSON(w, status, env)
}

// WriteError writes a failure envelope. An empty errorCode omits error_code.
func WriteError(w http.ResponseWriter, r *http.Request, status int, message, errorCode string) {
	WriteJSON(w, status, envelope.Failure(message, errorCode, requestcontext.Now(r.Context())))
}

const (
	msgInternal         = "Internal server error"
	msgBadRequest       = "Bad request"
	msgNotFound         = "Endpoint not found"
	msgMethodNotAllowed = "Method not allowed"
)

// WriteDomainError maps a coded error onto a failure envelope. Internal errors
// never leak their message.
func WriteDomainError(w http.ResponseWriter, r *http.Request, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)

	message := err.Error()
	switch code {
	case dErrors.CodeInternal:
		slog.ErrorContext(r.Context(), "internal error",
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
		)
		message = msgInternal
	case dErrors.CodeBadRequest:
		if message == "" {
			message = msgBadRequest
		}
	}
	WriteError(w, r, status, message, code.EnvelopeCode())
}

// NotFound writes the 404 envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusNotFound, msgNotFound, dErrors.CodeNotFound.EnvelopeCode())
}

// MethodNotAllowed writes the 405 envelope.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusMethodNotAllowed, msgMethodNotAllowed, dErrors.CodeMethodNotAllowed.EnvelopeCode())
}

// BadRequest writes the generic 400 envelope.
func BadRequest(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusBadRequest, msgBadRequest, dErrors.CodeBadRequest.EnvelopeCode())
}

// InternalError writes the generic 500 envelope.
func InternalError(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusInternalServerError, msgInternal, dErrors.CodeInternal.EnvelopeCode())
}
