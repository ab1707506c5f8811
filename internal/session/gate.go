package session

import (
	"context"
	"log/slog"
	"time"
)

// DefaultReadyTimeout bounds how long AwaitReady waits for a session.
const DefaultReadyTimeout = 10 * time.Second

// Gate blocks callers until a session is observable or the timeout passes.
type Gate struct {
	source  Source
	timeout time.Duration
	logger  *slog.Logger
}

type GateOption func(*Gate)

func WithTimeout(d time.Duration) GateOption {
	return func(g *Gate) {
		g.timeout = d
	}
}

func WithLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) {
		g.logger = logger
	}
}

func NewGate(source Source, opts ...GateOption) *Gate {
	g := &Gate{
		source:  source,
		timeout: DefaultReadyTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AwaitReady returns nil once a session is present or once the timeout
// elapses without one; "no session" is left for the caller to judge. It
// returns ctx.Err() if ctx ends first. The listener it registers is released
// exactly once on every path.
func (g *Gate) AwaitReady(ctx context.Context) error {
	if g.source.CurrentSession() != nil {
		return nil
	}

	ready := make(chan struct{}, 1)
	unsubscribe := g.source.Subscribe(func(s *Session) {
		if s == nil {
			return
		}
		select {
		case ready <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	if g.source.CurrentSession() != nil {
		return nil
	}

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case <-ready:
		return nil
	case <-timer.C:
		g.logger.DebugContext(ctx, "no session before ready timeout", "timeout", g.timeout)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
