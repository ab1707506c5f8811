package httptransport

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatehouse/internal/admission"
	"gatehouse/internal/idtoken"
	"gatehouse/pkg/models"
	"gatehouse/pkg/testutil"
)

func TestRouterWiring(t *testing.T) {
	testutil.Given(t, "a router verifying HS256 tokens in bypass mode", func(t *testing.T) {
		tokens := idtoken.NewHMACService("wiring-key", "gatehouse", "gatehouse")
		router := NewRouter(Deps{
			Verifier:  idtoken.NewMiddlewareAdapter(tokens),
			Admission: admission.NewVerifier(""),
			Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		})

		testutil.When(t, "calling GET /auth/hello with a signed token", func(t *testing.T) {
			raw, err := tokens.Issue("u-1", idtoken.Claims{Email: "one@example.com", Name: "One"}, time.Minute)
			require.NoError(t, err)
			req := testutil.NewRequest(t, http.MethodGet, "/auth/hello")
			req.Header.Set("Authorization", "Bearer "+raw)

			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "the caller is greeted by name", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				hello := testutil.UnmarshalData[models.Hello](t, rr)
				assert.Equal(t, models.HelloUser{UID: "u-1", Email: "one@example.com", Name: "One"}, hello.User)
			})
		})

		testutil.When(t, "calling GET /auth/hello with a token signed by another key", func(t *testing.T) {
			other := idtoken.NewHMACService("other-key", "gatehouse", "gatehouse")
			raw, err := other.Issue("u-1", idtoken.Claims{}, time.Minute)
			require.NoError(t, err)
			req := testutil.NewRequest(t, http.MethodGet, "/auth/hello")
			req.Header.Set("Authorization", "Bearer "+raw)

			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "it is rejected as an invalid token", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusUnauthorized)
				assert.Equal(t, "Invalid token: invalid token", testutil.UnmarshalEnvelope(t, rr).Message)
			})
		})

		testutil.When(t, "verifying a bot-defense token", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, admission.VerifyPath, admission.VerifyRequest{Token: "t"})

			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "bypass mode admits it with a full score", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				assert.Equal(t, admission.VerifyResult{Success: true, Score: 1}, *testutil.UnmarshalData[admission.VerifyResult](t, rr))
			})
		})

		testutil.When(t, "calling DELETE /health", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete, "/health"))

			testutil.Then(t, "it is a method-not-allowed envelope", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
			})
		})
	})
}

func TestHandleProtected_DirectIdentity(t *testing.T) {
	h := NewHandler("", "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	req := testutil.WithIdentity(testutil.NewRequestWithBody(t, http.MethodPost, "/auth/protected", "null"), "u-9", "nine@example.com")

	rr := testutil.DoRequest(http.HandlerFunc(h.HandleProtected), req)

	testutil.AssertStatusOK(t, rr)
	got := testutil.UnmarshalData[models.Protected](t, rr)
	assert.Equal(t, map[string]any{}, got.ReceivedData)
	assert.Equal(t, "nine@example.com", got.AuthenticatedUser)
}
