package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatehouse/internal/admission"
	"gatehouse/internal/flows"
	"gatehouse/internal/idtoken"
	"gatehouse/internal/platform/config"
	"gatehouse/internal/session"
	httptransport "gatehouse/internal/transport/http"
)

type account struct {
	uid, email, password, name string
}

// stack runs a fake identity provider, a fake siteverify, and the real
// backend router verifying HS256 tokens the fake provider mints.
type stack struct {
	t      *testing.T
	tokens *idtoken.HMACService

	mu       sync.Mutex
	accounts map[string]*account
	signUps  int
	score    float64

	idp *httptest.Server
	api *httptest.Server
}

func newStack(t *testing.T) *stack {
	t.Helper()
	t.Setenv("RECAPTCHA_TOKEN", "")
	t.Setenv(envPassword, "")

	s := &stack{
		t:      t,
		tokens: idtoken.NewHMACService("test-key", "gatehouse", "gatehouse"),
		accounts: map[string]*account{
			"u-alice": {uid: "u-alice", email: "alice@example.com", password: "pw", name: "Alice"},
		},
		score: 0.9,
	}
	s.idp = httptest.NewServer(http.HandlerFunc(s.serveIdentity))
	t.Cleanup(s.idp.Close)

	siteverify := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		score := s.score
		s.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "score": score})
	}))
	t.Cleanup(siteverify.Close)

	s.api = httptest.NewServer(httptransport.NewRouter(httptransport.Deps{
		Verifier:  idtoken.NewMiddlewareAdapter(s.tokens),
		Admission: admission.NewVerifier("secret", admission.WithVerifyURL(siteverify.URL)),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}))
	t.Cleanup(s.api.Close)
	return s
}

func (s *stack) setScore(score float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.score = score
}

func (s *stack) signUpCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signUps
}

func (s *stack) displayName(uid string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a := s.accounts[uid]; a != nil {
		return a.name
	}
	return ""
}

func (s *stack) run(args ...string) (string, error) {
	cmd := NewRootCommand(WithDashboardOptions(flows.WithRetryDelay(time.Millisecond)))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{
		"--api-url", s.api.URL,
		"--toolkit-url", s.idp.URL,
		"--secure-token-url", s.idp.URL + "/token",
		"--api-key", "web-key",
		"--ready-timeout", "100ms",
		"--log-level", "error",
	}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeProviderError(w http.ResponseWriter, code string) {
	w.WriteHeader(http.StatusBadRequest)
	_, _ = io.WriteString(w, `{"error":{"code":400,"message":"`+code+`"}}`)
}

func (s *stack) serveIdentity(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.URL.Path == "/token" {
		_ = r.ParseForm()
		acct := s.accounts[strings.TrimPrefix(r.PostForm.Get("refresh_token"), "rt-")]
		if acct == nil {
			writeProviderError(w, "INVALID_REFRESH_TOKEN")
			return
		}
		tok, err := s.tokens.Issue(acct.uid, idtoken.Claims{Email: acct.email, Name: acct.name}, time.Minute)
		assert.NoError(s.t, err)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  tok,
			"id_token":      tok,
			"refresh_token": "rt-" + acct.uid,
			"token_type":    "Bearer",
			"expires_in":    "3600",
		})
		return
	}

	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	str := func(k string) string { v, _ := body[k].(string); return v }

	switch strings.TrimPrefix(r.URL.Path, "/") {
	case "accounts:signInWithPassword":
		for _, a := range s.accounts {
			if a.email == str("email") && a.password == str("password") {
				_ = json.NewEncoder(w).Encode(map[string]any{"localId": a.uid, "email": a.email, "idToken": "idt-" + a.uid, "refreshToken": "rt-" + a.uid})
				return
			}
		}
		writeProviderError(w, "INVALID_LOGIN_CREDENTIALS")
	case "accounts:signUp":
		s.signUps++
		a := &account{uid: "u-new", email: str("email"), password: str("password")}
		s.accounts[a.uid] = a
		_ = json.NewEncoder(w).Encode(map[string]any{"localId": a.uid, "email": a.email, "idToken": "idt-" + a.uid, "refreshToken": "rt-" + a.uid})
	case "accounts:lookup":
		a := s.accounts[strings.TrimPrefix(str("idToken"), "idt-")]
		if a == nil {
			writeProviderError(w, "INVALID_ID_TOKEN")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"users": []map[string]any{{"localId": a.uid, "email": a.email, "displayName": a.name}}})
	case "accounts:update":
		a := s.accounts[strings.TrimPrefix(str("idToken"), "idt-")]
		if a == nil {
			writeProviderError(w, "INVALID_ID_TOKEN")
			return
		}
		a.name = str("displayName")
		_ = json.NewEncoder(w).Encode(map[string]any{"localId": a.uid, "email": a.email, "displayName": a.name})
	case "accounts:sendOobCode":
		_ = json.NewEncoder(w).Encode(map[string]any{"email": str("email")})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestDashboardCommand(t *testing.T) {
	s := newStack(t)

	out, err := s.run("dashboard", "--email", "alice@example.com", "--password", "pw", "--payload", `{"k":"v"}`)
	require.NoError(t, err)

	var view DashboardView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "Alice", view.Hello.User.Name)
	assert.Equal(t, "u-alice", view.Profile.UID)
	assert.Equal(t, "alice@example.com", view.Protected.AuthenticatedUser)
	assert.Equal(t, map[string]any{"k": "v"}, view.Protected.ReceivedData)
}

func TestDashboardCommand_RejectsNonObjectPayload(t *testing.T) {
	s := newStack(t)

	for _, payload := range []string{"null", "[1,2]", `"text"`, "{"} {
		t.Run(payload, func(t *testing.T) {
			_, err := s.run("dashboard", "--email", "alice@example.com", "--password", "pw", "--payload", payload)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "--payload must be a JSON object")
		})
	}
}

func TestProfileCommand_PasswordFromEnv(t *testing.T) {
	s := newStack(t)
	t.Setenv(envPassword, "pw")

	out, err := s.run("profile", "--email", "alice@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, `"email": "alice@example.com"`)
}

func TestLoginCommand(t *testing.T) {
	s := newStack(t)

	t.Run("valid credentials", func(t *testing.T) {
		out, err := s.run("login", "--email", "alice@example.com", "--password", "pw")
		require.NoError(t, err)
		assert.Contains(t, out, "u-alice")
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := s.run("login", "--email", "alice@example.com", "--password", "nope")
		require.Error(t, err)
		assert.Equal(t, "Invalid email or password.", err.Error())
	})

	t.Run("no password", func(t *testing.T) {
		_, err := s.run("login", "--email", "alice@example.com")
		require.Error(t, err)
		assert.Contains(t, err.Error(), envPassword)
	})
}

func TestRegisterCommand(t *testing.T) {
	t.Run("admitted with display name", func(t *testing.T) {
		s := newStack(t)

		out, err := s.run("register", "--recaptcha-token", "action-token", "--email", "bob@example.com", "--password", "secret1", "--name", "Bob")
		require.NoError(t, err)
		assert.Contains(t, out, "Protected by reCAPTCHA")
		assert.Contains(t, out, "Account created for bob@example.com")
		assert.Equal(t, "Bob", s.displayName("u-new"))
	})

	t.Run("score too low stops before sign-up", func(t *testing.T) {
		s := newStack(t)
		s.setScore(0.1)

		_, err := s.run("register", "--recaptcha-token", "action-token", "--email", "bot@example.com", "--password", "secret1")
		require.Error(t, err)
		assert.Equal(t, "reCAPTCHA score too low", err.Error())
		assert.Zero(t, s.signUpCount())
	})

	t.Run("no token skips the check", func(t *testing.T) {
		s := newStack(t)
		s.setScore(0.1)

		out, err := s.run("register", "--email", "carol@example.com", "--password", "secret1")
		require.NoError(t, err)
		assert.Contains(t, out, "reCAPTCHA unavailable - continuing without bot protection")
		assert.Equal(t, 1, s.signUpCount())
	})
}

// A backend call issued before sign-in waits for the session and goes out
// with that session's credential.
func TestNewApp_CallBeforeSignInWaitsForSession(t *testing.T) {
	s := newStack(t)
	cfg := config.Client{
		APIURL:           s.api.URL,
		FirebaseAPIKey:   "web-key",
		ToolkitURL:       s.idp.URL,
		SecureTokenURL:   s.idp.URL + "/token",
		AuthReadyTimeout: 2 * time.Second,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	for i := 0; i < 10; i++ {
		app := NewApp(cfg, logger)
		slow := app.Identity.Subscribe(func(*session.Session) { time.Sleep(200 * time.Microsecond) })

		type result struct {
			name string
			err  error
		}
		done := make(chan result, 1)
		go func() {
			hello, err := app.Dashboard.Hello(context.Background())
			done <- result{hello.User.Name, err}
		}()
		time.Sleep(time.Millisecond)

		_, err := app.Auth.Login(context.Background(), "alice@example.com", "pw")
		require.NoError(t, err)

		r := <-done
		require.NoError(t, r.err, "iteration %d", i)
		assert.Equal(t, "Alice", r.name)

		require.NoError(t, app.Auth.Logout(context.Background()))
		slow()
		app.Close()
	}
}

func TestResetPasswordCommand(t *testing.T) {
	s := newStack(t)

	out, err := s.run("reset-password", "--email", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Password reset email sent to alice@example.com\n", out)
}

func TestCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range NewRootCommand().Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"register", "login", "reset-password", "dashboard", "profile"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}
