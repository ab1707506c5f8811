package admission

import (
	"context"
	"log/slog"

	"gatehouse/internal/apiclient"
)

//go:generate mockgen -source=gate.go -destination=mocks/mocks.go -package=mocks Checker

// Checker turns an action token into a decision.
type Checker interface {
	Verify(ctx context.Context, token string) Decision
}

// Recorder counts decisions by outcome.
type Recorder interface {
	IncrementAdmissionDecision(outcome string)
}

// Gate composes the client half and a Checker into one admission check.
type Gate struct {
	client   *Client
	checker  Checker
	recorder Recorder
	logger   *slog.Logger
}

type GateOption func(*Gate)

func WithRecorder(r Recorder) GateOption {
	return func(g *Gate) {
		g.recorder = r
	}
}

func WithGateLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) {
		g.logger = logger
	}
}

func NewGate(client *Client, checker Checker, opts ...GateOption) *Gate {
	g := &Gate{client: client, checker: checker, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Status is the user-visible protection status line.
func (g *Gate) Status() string {
	return g.client.Status()
}

// Check runs one admission attempt for action. A missing token is a skip, not
// a failure. A rejection returns the decision together with a *RejectedError.
func (g *Gate) Check(ctx context.Context, action string) (Decision, error) {
	trace := []State{StateNotRequested, StateTokenRequested}

	token, ok := g.client.RequestToken(ctx, action)
	if !ok {
		d := Decision{Outcome: Skipped, Trace: append(trace, StateTokenUnavailable, StateSkipped)}
		g.record(ctx, action, d)
		return d, nil
	}
	trace = append(trace, StateTokenObtained)

	d := g.checker.Verify(ctx, token)
	if d.Outcome == Rejected {
		d.Trace = append(trace, StateRejected)
		g.record(ctx, action, d)
		return d, &RejectedError{Score: d.Score, Reason: d.Reason}
	}
	d.Outcome = Admitted
	d.Trace = append(trace, StateAdmitted)
	g.record(ctx, action, d)
	return d, nil
}

func (g *Gate) record(ctx context.Context, action string, d Decision) {
	if g.recorder != nil {
		g.recorder.IncrementAdmissionDecision(string(d.Outcome))
	}
	if d.Outcome == Skipped {
		g.logger.InfoContext(ctx, "admission check skipped", "action", action)
		return
	}
	g.logger.InfoContext(ctx, "admission decision",
		"action", action,
		"outcome", d.Outcome,
		"score", d.Score,
	)
}

// VerifyPath is the backend route that verifies action tokens.
const VerifyPath = "/recaptcha/verify"

// VerifyRequest is the body posted to VerifyPath.
type VerifyRequest struct {
	Token string `json:"token"`
}

// VerifyResult is the data returned by VerifyPath.
type VerifyResult struct {
	Success bool    `json:"success"`
	Score   float64 `json:"score"`
	Error   string  `json:"error,omitempty"`
}

// ToResult renders a decision in the shape VerifyPath returns.
func (d Decision) ToResult() VerifyResult {
	return VerifyResult{Success: d.Outcome != Rejected, Score: d.Score, Error: d.Reason}
}

// RemoteChecker verifies tokens through the backend so the shared secret never
// leaves the server.
type RemoteChecker struct {
	api    *apiclient.Client
	logger *slog.Logger
}

// NewRemoteChecker wraps a public (credential-less) API client.
func NewRemoteChecker(api *apiclient.Client, logger *slog.Logger) *RemoteChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteChecker{api: api, logger: logger}
}

func (r *RemoteChecker) Verify(ctx context.Context, token string) Decision {
	res, err := apiclient.Post[VerifyResult](ctx, r.api, VerifyPath, VerifyRequest{Token: token})
	if err != nil {
		r.logger.WarnContext(ctx, "remote reCAPTCHA verification failed", "error", err)
		return Decision{Outcome: Rejected, Score: 0, Reason: msgServiceUnavailable}
	}
	if res.Success {
		return Decision{Outcome: Admitted, Score: res.Score}
	}
	reason := res.Error
	if reason == "" {
		reason = msgUnknownError
	}
	return Decision{Outcome: Rejected, Score: res.Score, Reason: reason}
}
