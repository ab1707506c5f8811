// Package identity adapts the Firebase Authentication REST surface to the
// session model used by the client pipeline.
//
// The adapter owns the provider-side state (ID and refresh tokens) and
// publishes every session change on a session.Hub. Callers observe sessions
// through CurrentSession and Subscribe; they never see tokens except through
// IDToken.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"gatehouse/internal/session"
	"gatehouse/pkg/platform/sentinel"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

const (
	DefaultToolkitURL     = "https://identitytoolkit.googleapis.com/v1"
	DefaultSecureTokenURL = "https://securetoken.googleapis.com/v1/token"
)

var tracer = otel.Tracer("gatehouse/internal/identity")

// Firebase is the identity provider adapter.
type Firebase struct {
	apiKey         string
	toolkitURL     string
	secureTokenURL string
	httpClient     *http.Client
	logger         *slog.Logger
	hub            *session.Hub

	mu           sync.Mutex
	idToken      string
	refreshToken string
	current      *session.Session
}

type Option func(*Firebase)

func WithToolkitURL(u string) Option {
	return func(f *Firebase) {
		f.toolkitURL = strings.TrimRight(u, "/")
	}
}

func WithSecureTokenURL(u string) Option {
	return func(f *Firebase) {
		f.secureTokenURL = u
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(f *Firebase) {
		f.httpClient = hc
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(f *Firebase) {
		f.logger = logger
	}
}

func NewFirebase(apiKey string, opts ...Option) *Firebase {
	f := &Firebase{
		apiKey:         apiKey,
		toolkitURL:     DefaultToolkitURL,
		secureTokenURL: DefaultSecureTokenURL,
		httpClient:     &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.hub = session.NewHub(f.logger)
	return f
}

// Init completes the provider bootstrap. Nothing is restored from disk, so
// the initial state is always "no session".
func (f *Firebase) Init() {
	f.hub.Publish(nil)
}

func (f *Firebase) CurrentSession() *session.Session {
	return f.hub.CurrentSession()
}

func (f *Firebase) Subscribe(fn session.Listener) session.Unsubscribe {
	return f.hub.Subscribe(fn)
}

// authResponse is shared by signInWithPassword and signUp.
type authResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

type accountInfo struct {
	LocalID       string `json:"localId"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
	DisplayName   string `json:"displayName"`
	PhotoURL      string `json:"photoUrl"`
}

func (a accountInfo) session() *session.Session {
	return &session.Session{
		UID:           a.LocalID,
		Email:         a.Email,
		EmailVerified: a.EmailVerified,
		DisplayName:   a.DisplayName,
		PhotoURL:      a.PhotoURL,
	}
}

// SignIn signs in with email and password and publishes the new session.
func (f *Firebase) SignIn(ctx context.Context, email, password string) (*session.Session, error) {
	ctx, span := tracer.Start(ctx, "identity.SignIn")
	defer span.End()

	var resp authResponse
	err := f.call(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp, "Failed to sign in")
	if err != nil {
		return nil, traceError(span, err)
	}

	info, err := f.lookup(ctx, resp.IDToken)
	if err != nil {
		return nil, traceError(span, err)
	}
	s := info.session()
	f.establish(resp.IDToken, resp.RefreshToken, s)
	span.SetAttributes(attribute.String("identity.uid", s.UID))
	f.logger.InfoContext(ctx, "signed in", "uid", s.UID)
	return s, nil
}

// SignUp creates an account and signs it in.
func (f *Firebase) SignUp(ctx context.Context, email, password string) (*session.Session, error) {
	ctx, span := tracer.Start(ctx, "identity.SignUp")
	defer span.End()

	var resp authResponse
	err := f.call(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp, "Failed to register")
	if err != nil {
		return nil, traceError(span, err)
	}

	// The account exists even when the lookup fails.
	info, err := f.lookup(ctx, resp.IDToken)
	if err != nil {
		f.logger.WarnContext(ctx, "account lookup after sign-up failed", "uid", resp.LocalID, "error", err)
		info = accountInfo{LocalID: resp.LocalID, Email: resp.Email, DisplayName: resp.DisplayName}
	}
	s := info.session()
	f.establish(resp.IDToken, resp.RefreshToken, s)
	span.SetAttributes(attribute.String("identity.uid", s.UID))
	f.logger.InfoContext(ctx, "account created", "uid", s.UID)
	return s, nil
}

// UpdateProfile sets the display name and photo of the signed-in user and
// republishes the session.
func (f *Firebase) UpdateProfile(ctx context.Context, displayName, photoURL string) (*session.Session, error) {
	ctx, span := tracer.Start(ctx, "identity.UpdateProfile")
	defer span.End()

	f.mu.Lock()
	idToken := f.idToken
	f.mu.Unlock()
	if idToken == "" {
		return nil, traceError(span, ErrNoSession)
	}

	body := map[string]any{"idToken": idToken, "returnSecureToken": false}
	if displayName != "" {
		body["displayName"] = displayName
	}
	if photoURL != "" {
		body["photoUrl"] = photoURL
	}

	var info accountInfo
	if err := f.call(ctx, "accounts:update", body, &info, "Failed to update profile"); err != nil {
		return nil, traceError(span, err)
	}

	f.mu.Lock()
	if f.current == nil || f.idToken != idToken {
		f.mu.Unlock()
		return nil, traceError(span, fmt.Errorf("session changed during profile update: %w", sentinel.ErrInvalidState))
	}
	updated := *f.current
	updated.DisplayName = info.DisplayName
	updated.PhotoURL = info.PhotoURL
	f.current = &updated
	f.mu.Unlock()

	f.hub.Publish(&updated)
	return &updated, nil
}

// SignOut drops the provider tokens and publishes "no session".
func (f *Firebase) SignOut(ctx context.Context) error {
	f.mu.Lock()
	f.idToken, f.refreshToken, f.current = "", "", nil
	f.mu.Unlock()
	f.hub.Publish(nil)
	f.logger.InfoContext(ctx, "signed out")
	return nil
}

// SendPasswordReset asks the provider to email a reset link.
func (f *Firebase) SendPasswordReset(ctx context.Context, email string) error {
	ctx, span := tracer.Start(ctx, "identity.SendPasswordReset")
	defer span.End()

	err := f.call(ctx, "accounts:sendOobCode", map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}, nil, "Failed to send reset email")
	return traceError(span, err)
}

// IDToken returns an ID token for s. With forceRefresh the refresh token is
// exchanged at the secure token endpoint and the result replaces the stored
// tokens.
func (f *Firebase) IDToken(ctx context.Context, s *session.Session, forceRefresh bool) (string, error) {
	ctx, span := tracer.Start(ctx, "identity.IDToken", trace.WithAttributes(attribute.Bool("identity.force_refresh", forceRefresh)))
	defer span.End()

	f.mu.Lock()
	current, idToken, refreshToken := f.current, f.idToken, f.refreshToken
	f.mu.Unlock()

	if current == nil || refreshToken == "" {
		return "", traceError(span, ErrNoSession)
	}
	if s != nil && s.UID != current.UID {
		return "", traceError(span, fmt.Errorf("token requested for a different user: %w", sentinel.ErrInvalidState))
	}
	if !forceRefresh && idToken != "" {
		return idToken, nil
	}

	fresh, rotated, err := f.refresh(ctx, refreshToken)
	if err != nil {
		return "", traceError(span, err)
	}

	f.mu.Lock()
	if f.refreshToken == refreshToken {
		f.idToken = fresh
		if rotated != "" {
			f.refreshToken = rotated
		}
	}
	f.mu.Unlock()
	return fresh, nil
}

func (f *Firebase) refresh(ctx context.Context, refreshToken string) (idToken, rotated string, err error) {
	cfg := oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  f.secureTokenURL + "?key=" + url.QueryEscape(f.apiKey),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)

	tok, err := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return "", "", parseProviderError(re.Body, "Failed to refresh token", err)
		}
		return "", "", fmt.Errorf("refresh id token: %w", err)
	}

	id, _ := tok.Extra("id_token").(string)
	if id == "" {
		return "", "", fmt.Errorf("secure token response without id_token: %w", sentinel.ErrUnavailable)
	}
	return id, tok.RefreshToken, nil
}

func (f *Firebase) lookup(ctx context.Context, idToken string) (accountInfo, error) {
	var resp struct {
		Users []accountInfo `json:"users"`
	}
	if err := f.call(ctx, "accounts:lookup", map[string]any{"idToken": idToken}, &resp, "Failed to sign in"); err != nil {
		return accountInfo{}, err
	}
	if len(resp.Users) == 0 {
		return accountInfo{}, &ProviderError{Code: "USER_NOT_FOUND", Message: friendlyMessages["USER_NOT_FOUND"]}
	}
	return resp.Users[0], nil
}

func (f *Firebase) establish(idToken, refreshToken string, s *session.Session) {
	f.mu.Lock()
	f.idToken, f.refreshToken, f.current = idToken, refreshToken, s
	f.mu.Unlock()
	f.hub.Publish(s)
}

// call posts body to an Identity Toolkit method and decodes the reply into out.
func (f *Firebase) call(ctx context.Context, method string, body any, out any, fallback string) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", method, err)
	}

	endpoint := fmt.Sprintf("%s/%s?key=%s", f.toolkitURL, method, url.QueryEscape(f.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return &ProviderError{Message: fallback, Underlying: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ProviderError{Message: fallback, Underlying: err}
	}
	if resp.StatusCode != http.StatusOK {
		f.logger.WarnContext(ctx, "identity provider rejected request",
			"method", method,
			"status", resp.StatusCode,
		)
		return parseProviderError(raw, fallback, fmt.Errorf("%s returned status %d", method, resp.StatusCode))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ProviderError{Message: fallback, Underlying: fmt.Errorf("decode %s response: %w", method, err)}
	}
	return nil
}

func traceError(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
