package auth_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"gatehouse/pkg/platform/middleware/auth"
	"gatehouse/pkg/platform/middleware/auth/mocks"
	"gatehouse/pkg/requestcontext"
)

type failureCounter map[string]int

func (f failureCounter) IncrementAuthFailure(reason string) { f[reason]++ }

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestRequireAuth_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		reason  string
		message string
	}{
		{"missing header", "", auth.ReasonMissingHeader, "No authorization header provided"},
		{"no bearer prefix", "raw-token", auth.ReasonMalformedHeader, "Invalid authorization header format"},
		{"lowercase scheme", "bearer tok", auth.ReasonMalformedHeader, "Invalid authorization header format"},
		{"empty token", "Bearer   ", auth.ReasonMalformedHeader, "Invalid authorization header format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			verifier := mocks.NewMockTokenVerifier(ctrl)
			counter := failureCounter{}
			called := false
			h := auth.RequireAuth(verifier, counter, newLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				called = true
			}))

			r := httptest.NewRequest(http.MethodGet, "/auth/hello", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			var body map[string]any
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["message"])
			assert.NotContains(t, body, "error_code")
			assert.Equal(t, 1, counter[tt.reason])
		})
	}
}

func TestRequireAuth_VerifierError(t *testing.T) {
	ctrl := gomock.NewController(t)
	verifier := mocks.NewMockTokenVerifier(ctrl)
	verifier.EXPECT().VerifyToken(gomock.Any(), "bad").Return(nil, errors.New("token has expired"))
	counter := failureCounter{}

	h := auth.RequireAuth(verifier, counter, newLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))
	r := httptest.NewRequest(http.MethodGet, "/user/profile", nil)
	r.Header.Set("Authorization", "Bearer bad")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "Invalid token: token has expired", body["message"])
	assert.Equal(t, 1, counter[auth.ReasonInvalidToken])
}

func TestRequireAuth_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	verifier := mocks.NewMockTokenVerifier(ctrl)
	want := &auth.Identity{UID: "uid-1", Email: "a@b.c"}
	verifier.EXPECT().VerifyToken(gomock.Any(), "good").Return(want, nil)

	var got *auth.Identity
	var userID string
	h := auth.RequireAuth(verifier, nil, newLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.GetIdentity(r.Context())
		userID = requestcontext.UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	r := httptest.NewRequest(http.MethodGet, "/auth/hello", nil)
	r.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Same(t, want, got)
	assert.Equal(t, "uid-1", userID)
}

func TestGetIdentity_Absent(t *testing.T) {
	_, ok := auth.GetIdentity(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
