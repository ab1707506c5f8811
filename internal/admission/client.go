package admission

import (
	"context"
	"fmt"
	"log/slog"

	"gatehouse/pkg/platform/sentinel"
)

var errNoStaticToken = fmt.Errorf("no static action token: %w", sentinel.ErrUnavailable)

// TokenSource executes the scoring collaborator for an action label.
type TokenSource interface {
	Execute(ctx context.Context, action string) (string, error)
}

// StaticTokenSource returns a token supplied out of band, for example a
// token pasted from a browser run of the collaborator.
type StaticTokenSource string

func (s StaticTokenSource) Execute(context.Context, string) (string, error) {
	if s == "" {
		return "", errNoStaticToken
	}
	return string(s), nil
}

const (
	StatusProtected   = "Protected by reCAPTCHA"
	StatusUnavailable = "reCAPTCHA unavailable - continuing without bot protection"
)

// Client is the client half of the gate.
type Client struct {
	source TokenSource
	logger *slog.Logger
}

type ClientOption func(*Client)

func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient builds the client half. A nil source means the collaborator is
// unavailable and every request yields no token.
func NewClient(source TokenSource, opts ...ClientOption) *Client {
	c := &Client{source: source, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Available reports whether a scoring collaborator is wired.
func (c *Client) Available() bool {
	if c == nil || c.source == nil {
		return false
	}
	if s, ok := c.source.(StaticTokenSource); ok && s == "" {
		return false
	}
	return true
}

// Status is the user-visible protection status line.
func (c *Client) Status() string {
	if c.Available() {
		return StatusProtected
	}
	return StatusUnavailable
}

// RequestToken asks the collaborator for a one-time token. It never fails:
// an unavailable or failing collaborator yields ok == false.
func (c *Client) RequestToken(ctx context.Context, action string) (string, bool) {
	if !c.Available() {
		return "", false
	}
	token, err := c.source.Execute(ctx, action)
	if err != nil {
		c.logger.WarnContext(ctx, "reCAPTCHA execution failed",
			"action", action,
			"error", err,
		)
		return "", false
	}
	if token == "" {
		return "", false
	}
	return token, true
}
