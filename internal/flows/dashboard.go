package flows

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"gatehouse/internal/apiclient"
	"gatehouse/pkg/models"
)

// DefaultRetryDelay is the pause before the single profile retry.
const DefaultRetryDelay = time.Second

const retryMarker = "authorization"

// Dashboard issues the authenticated backend calls.
type Dashboard struct {
	api        *apiclient.Client
	retryDelay time.Duration
	logger     *slog.Logger
}

type DashboardOption func(*Dashboard)

func WithRetryDelay(d time.Duration) DashboardOption {
	return func(db *Dashboard) {
		db.retryDelay = d
	}
}

func WithDashboardLogger(logger *slog.Logger) DashboardOption {
	return func(db *Dashboard) {
		db.logger = logger
	}
}

func NewDashboard(api *apiclient.Client, opts ...DashboardOption) *Dashboard {
	db := &Dashboard{api: api, retryDelay: DefaultRetryDelay, logger: slog.Default()}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Hello calls GET /auth/hello.
func (db *Dashboard) Hello(ctx context.Context) (models.Hello, error) {
	return apiclient.Get[models.Hello](ctx, db.api, "/auth/hello")
}

// Protected posts payload to POST /auth/protected.
func (db *Dashboard) Protected(ctx context.Context, payload map[string]any) (models.Protected, error) {
	return apiclient.Post[models.Protected](ctx, db.api, "/auth/protected", payload)
}

// Profile calls GET /user/profile. A failure whose message mentions
// authorization is retried once after the retry delay; the second outcome is
// final.
func (db *Dashboard) Profile(ctx context.Context) (models.Profile, error) {
	profile, err := db.fetchProfile(ctx)
	if err == nil || !strings.Contains(err.Error(), retryMarker) {
		return profile, err
	}

	db.logger.InfoContext(ctx, "retrying profile fetch", "error", err, "delay", db.retryDelay)
	timer := time.NewTimer(db.retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return models.Profile{}, err
	case <-timer.C:
	}
	return db.fetchProfile(ctx)
}

func (db *Dashboard) fetchProfile(ctx context.Context) (models.Profile, error) {
	return apiclient.Get[models.Profile](ctx, db.api, "/user/profile")
}
