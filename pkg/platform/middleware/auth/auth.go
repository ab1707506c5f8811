package auth

//go:generate mockgen -source=auth.go -destination=mocks/mocks.go -package=mocks TokenVerifier

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"gatehouse/pkg/platform/httputil"
	"gatehouse/pkg/requestcontext"
)

// Identity is the verified caller as handlers see it.
type Identity struct {
	UID           string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
	AuthTime      int64
	Firebase      map[string]any
}

// TokenVerifier checks a raw bearer token.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, raw string) (*Identity, error)
}

// FailureRecorder counts rejected requests by reason.
type FailureRecorder interface {
	IncrementAuthFailure(reason string)
}

// Failure reasons reported to the FailureRecorder.
const (
	ReasonMissingHeader   = "missing_header"
	ReasonMalformedHeader = "malformed_header"
	ReasonInvalidToken    = "invalid_token"
)

const (
	msgNoHeader      = "No authorization header provided"
	msgInvalidFormat = "Invalid authorization header format"
	msgInvalidToken  = "Invalid token: "

	bearerPrefix = "Bearer "
)

type contextKeyIdentity struct{}

// GetIdentity retrieves the verified caller from the context.
func GetIdentity(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(contextKeyIdentity{}).(*Identity)
	return id, ok && id != nil
}

// WithIdentity stores the verified caller and its subject in the context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	ctx = context.WithValue(ctx, contextKeyIdentity{}, id)
	return requestcontext.WithUserID(ctx, id.UID)
}

// RequireAuth rejects requests without a valid "Bearer <token>" header.
// Rejections are 401 envelopes without an error code. recorder may be nil.
func RequireAuth(verifier TokenVerifier, recorder FailureRecorder, logger *slog.Logger) func(http.Handler) http.Handler {
	reject := func(w http.ResponseWriter, r *http.Request, reason, message string, err error) {
		ctx := r.Context()
		logger.WarnContext(ctx, "unauthorized access",
			"reason", reason,
			"error", err,
			"path", r.URL.Path,
			"request_id", requestcontext.RequestID(ctx),
		)
		if recorder != nil {
			recorder.IncrementAuthFailure(reason)
		}
		httputil.WriteError(w, r, http.StatusUnauthorized, message, "")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				reject(w, r, ReasonMissingHeader, msgNoHeader, nil)
				return
			}
			token, ok := strings.CutPrefix(header, bearerPrefix)
			token = strings.TrimSpace(token)
			if !ok || token == "" {
				reject(w, r, ReasonMalformedHeader, msgInvalidFormat, nil)
				return
			}

			id, err := verifier.VerifyToken(r.Context(), token)
			if err != nil {
				reject(w, r, ReasonInvalidToken, msgInvalidToken+err.Error(), err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
