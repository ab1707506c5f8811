// Package credential mints bearer credentials for the active session.
//
// Every mint asks the identity provider for a force-refreshed token. Nothing
// here remembers a previous token: a stale credential can carry outdated
// verification flags or claims, which is a correctness bug rather than a
// performance one.
package credential

import (
	"context"
	"errors"
	"log/slog"

	"gatehouse/internal/session"
	dErrors "gatehouse/pkg/domain-errors"
)

//go:generate mockgen -source=provider.go -destination=mocks/mocks.go -package=mocks Minter,Readiness

// Bearer is a short-lived provider-signed token bound to one session.
type Bearer string

// Minter is the identity provider's token operation.
type Minter interface {
	IDToken(ctx context.Context, s *session.Session, forceRefresh bool) (string, error)
}

// Readiness waits for the provider's session bootstrap.
type Readiness interface {
	AwaitReady(ctx context.Context) error
}

// Sessions exposes the current session.
type Sessions interface {
	CurrentSession() *session.Session
}

const (
	msgUnauthenticated = "User not authenticated"
	msgMintFailed      = "Failed to get authentication token"
)

// Mint waits for readiness, then force-refreshes a token for the current
// session. It fails with CodeUnauthenticated when no session is present after
// the wait and with CodeCredentialMint when the provider refuses.
func Mint(ctx context.Context, ready Readiness, sessions Sessions, minter Minter) (Bearer, error) {
	if err := ready.AwaitReady(ctx); err != nil {
		return "", err
	}

	current := sessions.CurrentSession()
	if current == nil {
		return "", dErrors.New(dErrors.CodeUnauthenticated, msgUnauthenticated)
	}

	token, err := minter.IDToken(ctx, current, true)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeCredentialMint, msgMintFailed)
	}
	return Bearer(token), nil
}

// Provider binds Mint to its collaborators.
type Provider struct {
	ready    Readiness
	sessions Sessions
	minter   Minter
	logger   *slog.Logger
}

type Option func(*Provider)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

func NewProvider(ready Readiness, sessions Sessions, minter Minter, opts ...Option) *Provider {
	p := &Provider{
		ready:    ready,
		sessions: sessions,
		minter:   minter,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Mint returns a freshly minted bearer credential.
func (p *Provider) Mint(ctx context.Context) (Bearer, error) {
	token, err := Mint(ctx, p.ready, p.sessions, p.minter)
	if err != nil && dErrors.HasCode(err, dErrors.CodeCredentialMint) {
		p.logger.ErrorContext(ctx, "failed to mint credential", "error", errors.Unwrap(err))
	}
	return token, err
}

// AuthorizationHeader returns the value of the Authorization header.
func (p *Provider) AuthorizationHeader(ctx context.Context) (string, error) {
	token, err := p.Mint(ctx)
	if err != nil {
		return "", err
	}
	return "Bearer " + string(token), nil
}
