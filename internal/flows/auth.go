// Package flows sequences the user-facing operations over the pipeline:
// registration, sign-in, sign-out, password reset and the dashboard calls.
//
// Flows add no logic of their own beyond ordering and the profile retry. The
// first failing step's message is returned verbatim.
package flows

import (
	"context"
	"log/slog"

	"gatehouse/internal/admission"
	"gatehouse/internal/session"
)

//go:generate mockgen -source=auth.go -destination=mocks/mocks.go -package=mocks Identity,AdmissionGate

// ActionRegister is the admission action label for sign-up.
const ActionRegister = "register"

// Identity is the identity provider as the flows use it.
type Identity interface {
	SignIn(ctx context.Context, email, password string) (*session.Session, error)
	SignUp(ctx context.Context, email, password string) (*session.Session, error)
	UpdateProfile(ctx context.Context, displayName, photoURL string) (*session.Session, error)
	SignOut(ctx context.Context) error
	SendPasswordReset(ctx context.Context, email string) error
}

// AdmissionGate checks a sensitive action against the bot-defense score.
type AdmissionGate interface {
	Check(ctx context.Context, action string) (admission.Decision, error)
	Status() string
}

// RegisterInput is what the sign-up form collects.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

// RegisterResult reports the created session and how admission went.
type RegisterResult struct {
	Session   *session.Session
	Admission admission.Decision
	// ProfileErr is set when the account exists but the display name could
	// not be applied.
	ProfileErr error
}

// Auth runs the account flows.
type Auth struct {
	identity  Identity
	admission AdmissionGate
	logger    *slog.Logger
}

type AuthOption func(*Auth)

func WithAuthLogger(logger *slog.Logger) AuthOption {
	return func(a *Auth) {
		a.logger = logger
	}
}

func NewAuth(identity Identity, gate AdmissionGate, opts ...AuthOption) *Auth {
	a := &Auth{identity: identity, admission: gate, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AdmissionStatus is the neutral protection line shown beside the sign-up form.
func (a *Auth) AdmissionStatus() string {
	return a.admission.Status()
}

// Register runs admission, creates the account and then applies the display
// name. A failed display-name update does not fail the registration.
func (a *Auth) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	decision, err := a.admission.Check(ctx, ActionRegister)
	if err != nil {
		a.logger.WarnContext(ctx, "registration rejected by admission check",
			"score", decision.Score,
			"error", err,
		)
		return RegisterResult{Admission: decision}, err
	}

	s, err := a.identity.SignUp(ctx, in.Email, in.Password)
	if err != nil {
		return RegisterResult{Admission: decision}, err
	}
	result := RegisterResult{Session: s, Admission: decision}

	if in.DisplayName == "" {
		return result, nil
	}
	updated, err := a.identity.UpdateProfile(ctx, in.DisplayName, "")
	if err != nil {
		a.logger.WarnContext(ctx, "display name not applied after sign-up",
			"uid", s.UID,
			"error", err,
		)
		result.ProfileErr = err
		return result, nil
	}
	result.Session = updated
	return result, nil
}

func (a *Auth) Login(ctx context.Context, email, password string) (*session.Session, error) {
	return a.identity.SignIn(ctx, email, password)
}

func (a *Auth) Logout(ctx context.Context) error {
	return a.identity.SignOut(ctx)
}

func (a *Auth) ResetPassword(ctx context.Context, email string) error {
	return a.identity.SendPasswordReset(ctx, email)
}
