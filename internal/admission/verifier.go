package admission

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultVerifyURL is Google's siteverify endpoint.
const DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// siteverifyResponse is the verification service's answer.
type siteverifyResponse struct {
	Success     bool     `json:"success"`
	Score       float64  `json:"score"`
	Action      string   `json:"action"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
}

// Verifier is the verification half of the gate. It holds the shared secret
// and must only run server-side.
type Verifier struct {
	secret     string
	verifyURL  string
	httpClient *http.Client
	logger     *slog.Logger
}

type VerifierOption func(*Verifier)

// WithVerifyURL overrides the siteverify endpoint. An empty u keeps
// DefaultVerifyURL.
func WithVerifyURL(u string) VerifierOption {
	return func(v *Verifier) {
		if u != "" {
			v.verifyURL = u
		}
	}
}

func WithVerifierHTTPClient(hc *http.Client) VerifierOption {
	return func(v *Verifier) {
		v.httpClient = hc
	}
}

func WithVerifierLogger(logger *slog.Logger) VerifierOption {
	return func(v *Verifier) {
		v.logger = logger
	}
}

// NewVerifier builds a verifier. An empty secret selects bypass mode, which
// admits every token with score 1.0.
func NewVerifier(secret string, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		secret:     secret,
		verifyURL:  DefaultVerifyURL,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Bypass reports whether no secret is configured.
func (v *Verifier) Bypass() bool {
	return v.secret == ""
}

// Verify trades a token for a decision. It never returns an error: an
// unreachable or garbled service is a rejection with score 0.
func (v *Verifier) Verify(ctx context.Context, token string) Decision {
	if v.Bypass() {
		return Decision{Outcome: Admitted, Score: 1.0}
	}

	resp, err := v.post(ctx, token)
	if err != nil {
		v.logger.ErrorContext(ctx, "reCAPTCHA verification error", "error", err)
		return Decision{Outcome: Rejected, Score: 0, Reason: msgServiceUnavailable}
	}

	if !resp.Success {
		reason := msgUnknownError
		if len(resp.ErrorCodes) > 0 {
			reason = strings.Join(resp.ErrorCodes, ", ")
		}
		return Decision{Outcome: Rejected, Score: 0, Reason: msgVerifyFailedPrefix + reason}
	}

	return Score(resp.Score)
}

// Score applies Threshold to a reported score.
func Score(score float64) Decision {
	if score >= Threshold {
		return Decision{Outcome: Admitted, Score: score}
	}
	return Decision{Outcome: Rejected, Score: score, Reason: msgScoreTooLow}
}

func (v *Verifier) post(ctx context.Context, token string) (*siteverifyResponse, error) {
	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build siteverify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call siteverify: %w", err)
	}
	defer httpResp.Body.Close()

	var out siteverifyResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode siteverify response: %w", err)
	}
	return &out, nil
}
