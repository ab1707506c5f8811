package httptransport

import (
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"gatehouse/internal/admission"
)

func TestRecaptchaVerify(t *testing.T) {
	tests := []struct {
		name     string
		decision admission.Decision
		want     admission.VerifyResult
	}{
		{
			name:     "admitted",
			decision: admission.Decision{Outcome: admission.Admitted, Score: 0.9},
			want:     admission.VerifyResult{Success: true, Score: 0.9},
		},
		{
			name:     "score too low",
			decision: admission.Decision{Outcome: admission.Rejected, Score: 0.1, Reason: "reCAPTCHA score too low"},
			want:     admission.VerifyResult{Success: false, Score: 0.1, Error: "reCAPTCHA score too low"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestRouter(t)
			tr.checker.EXPECT().Verify(gomock.Any(), "action-token").Return(tt.decision)

			rr, env := tr.do(t, http.MethodPost, admission.VerifyPath, "", `{"token":"action-token"}`)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tt.want, decodeData[admission.VerifyResult](t, env))
			assert.Equal(t, 1.0, testutil.ToFloat64(tr.metrics.AdmissionDecisions.WithLabelValues(string(tt.decision.Outcome))))
		})
	}

	t.Run("missing token - 400", func(t *testing.T) {
		tr := newTestRouter(t)

		rr, env := tr.do(t, http.MethodPost, admission.VerifyPath, "", `{"token":"  "}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "token is required", env.Message)
		assert.Equal(t, "BAD_REQUEST", env.ErrorCode)
	})

	t.Run("garbled body - 400", func(t *testing.T) {
		tr := newTestRouter(t)

		rr, env := tr.do(t, http.MethodPost, admission.VerifyPath, "", `[`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Bad request", env.Message)
	})
}
