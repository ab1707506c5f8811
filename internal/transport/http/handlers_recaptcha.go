package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"gatehouse/internal/admission"
	dErrors "gatehouse/pkg/domain-errors"
	"gatehouse/pkg/platform/httputil"
	"gatehouse/pkg/requestcontext"
)

// RecaptchaHandler verifies bot-defense action tokens for clients that
// cannot hold the shared secret.
type RecaptchaHandler struct {
	checker  admission.Checker
	recorder admission.Recorder
	logger   *slog.Logger
}

// NewRecaptchaHandler builds the handler. recorder may be nil.
func NewRecaptchaHandler(checker admission.Checker, recorder admission.Recorder, logger *slog.Logger) *RecaptchaHandler {
	return &RecaptchaHandler{checker: checker, recorder: recorder, logger: logger}
}

func (h *RecaptchaHandler) Register(r chi.Router) {
	r.Post(admission.VerifyPath, h.HandleVerify)
}

// HandleVerify handles POST /recaptcha/verify. A rejection is still a 200;
// the verdict travels in the body.
func (h *RecaptchaHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req admission.VerifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		httputil.BadRequest(w, r)
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		httputil.WriteDomainError(w, r, dErrors.New(dErrors.CodeBadRequest, "token is required"))
		return
	}

	d := h.checker.Verify(ctx, req.Token)
	if h.recorder != nil {
		h.recorder.IncrementAdmissionDecision(string(d.Outcome))
	}
	h.logger.InfoContext(ctx, "recaptcha token verified",
		"outcome", d.Outcome,
		"score", d.Score,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteSuccess(w, r, http.StatusOK, d.ToResult(), "reCAPTCHA verification completed")
}
