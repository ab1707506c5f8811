// Package cli is the gatehouse command line: a headless client that signs
// in with the identity provider and drives the authenticated backend calls.
package cli

import (
	"log/slog"
	"net/http"

	"gatehouse/internal/admission"
	"gatehouse/internal/apiclient"
	"gatehouse/internal/credential"
	"gatehouse/internal/flows"
	"gatehouse/internal/identity"
	"gatehouse/internal/platform/config"
	"gatehouse/internal/session"
)

// App is the wired client pipeline for one process.
type App struct {
	Identity  *identity.Firebase
	Tracker   *session.Tracker
	Auth      *flows.Auth
	Dashboard *flows.Dashboard
	logger    *slog.Logger
}

type appOptions struct {
	httpClient *http.Client
	tokens     admission.TokenSource
	dashboard  []flows.DashboardOption
}

// AppOption customizes NewApp.
type AppOption func(*appOptions)

// WithAppHTTPClient routes every outbound call through hc.
func WithAppHTTPClient(hc *http.Client) AppOption {
	return func(o *appOptions) {
		o.httpClient = hc
	}
}

// WithTokenSource replaces the static bot-defense token from config.
func WithTokenSource(src admission.TokenSource) AppOption {
	return func(o *appOptions) {
		o.tokens = src
	}
}

// WithDashboardOptions forwards options to the dashboard flow.
func WithDashboardOptions(opts ...flows.DashboardOption) AppOption {
	return func(o *appOptions) {
		o.dashboard = append(o.dashboard, opts...)
	}
}

// NewApp wires provider, tracker, readiness gate, token provider, API
// clients and flows. The provider bootstrap completes before it returns.
func NewApp(cfg config.Client, logger *slog.Logger, opts ...AppOption) *App {
	o := &appOptions{tokens: admission.StaticTokenSource(cfg.RecaptchaToken)}
	for _, opt := range opts {
		opt(o)
	}

	idOpts := []identity.Option{identity.WithLogger(logger)}
	if cfg.ToolkitURL != "" {
		idOpts = append(idOpts, identity.WithToolkitURL(cfg.ToolkitURL))
	}
	if cfg.SecureTokenURL != "" {
		idOpts = append(idOpts, identity.WithSecureTokenURL(cfg.SecureTokenURL))
	}
	apiOpts := []apiclient.Option{apiclient.WithLogger(logger)}
	if o.httpClient != nil {
		idOpts = append(idOpts, identity.WithHTTPClient(o.httpClient))
		apiOpts = append(apiOpts, apiclient.WithHTTPClient(o.httpClient))
	}

	provider := identity.NewFirebase(cfg.FirebaseAPIKey, idOpts...)
	tracker := session.NewTracker(provider)
	provider.Init()

	ready := session.NewGate(tracker, session.WithTimeout(cfg.AuthReadyTimeout), session.WithLogger(logger))
	creds := credential.NewProvider(ready, tracker, provider, credential.WithLogger(logger))

	authed := apiclient.New(cfg.APIURL, append(apiOpts, apiclient.WithCredentials(creds))...)
	public := apiclient.New(cfg.APIURL, apiOpts...)

	gate := admission.NewGate(
		admission.NewClient(o.tokens, admission.WithClientLogger(logger)),
		admission.NewRemoteChecker(public, logger),
		admission.WithGateLogger(logger),
	)

	return &App{
		Identity:  provider,
		Tracker:   tracker,
		Auth:      flows.NewAuth(provider, gate, flows.WithAuthLogger(logger)),
		Dashboard: flows.NewDashboard(authed, append([]flows.DashboardOption{flows.WithDashboardLogger(logger)}, o.dashboard...)...),
		logger:    logger,
	}
}

// Close releases the tracker subscription.
func (a *App) Close() {
	a.Tracker.Close()
}
