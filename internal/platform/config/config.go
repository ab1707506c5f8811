package config

import (
	"os"
	"strings"
	"time"
)

const (
	DefaultAddr             = ":5000"
	DefaultAPIURL           = "http://localhost:5000"
	DefaultAuthReadyTimeout = 10 * time.Second
	DefaultTokenIssuer      = "gatehouse"
	DefaultTokenAudience    = "gatehouse"

	devSigningKey = "dev-secret-key-change-in-production"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string
	CORSOrigins []string
	LogLevel    string
	LogFormat   string

	// FirebaseProjectID selects Firebase ID token verification. When empty
	// the server verifies HS256 tokens signed with JWTSigningKey.
	FirebaseProjectID string
	JWTSigningKey     string
	TokenIssuer       string
	TokenAudience     string

	RecaptchaSecret    string
	RecaptchaVerifyURL string // empty selects admission.DefaultVerifyURL
}

// Client captures configuration for the CLI side of the pipeline.
type Client struct {
	APIURL           string
	FirebaseAPIKey   string
	ToolkitURL       string
	SecureTokenURL   string
	RecaptchaToken   string
	AuthReadyTimeout time.Duration
	LogLevel         string
	LogFormat        string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:               getenv("GATEHOUSE_ADDR", DefaultAddr),
		CORSOrigins:        splitList(getenv("CORS_ORIGINS", "*")),
		LogLevel:           getenv("LOG_LEVEL", "info"),
		LogFormat:          getenv("LOG_FORMAT", "json"),
		FirebaseProjectID:  os.Getenv("FIREBASE_PROJECT_ID"),
		JWTSigningKey:      os.Getenv("JWT_SIGNING_KEY"),
		TokenIssuer:        getenv("JWT_ISSUER", DefaultTokenIssuer),
		TokenAudience:      getenv("JWT_AUDIENCE", DefaultTokenAudience),
		RecaptchaSecret:    os.Getenv("RECAPTCHA_SECRET_KEY"),
		RecaptchaVerifyURL: os.Getenv("RECAPTCHA_VERIFY_URL"),
	}
	if cfg.FirebaseProjectID == "" && cfg.JWTSigningKey == "" {
		// Use a default for development - should be overridden in production
		cfg.JWTSigningKey = devSigningKey
	}
	return cfg
}

// ClientFromEnv builds a Client config from environment variables.
func ClientFromEnv() Client {
	return Client{
		APIURL:           getenv("GATEHOUSE_API_URL", DefaultAPIURL),
		FirebaseAPIKey:   os.Getenv("FIREBASE_API_KEY"),
		ToolkitURL:       os.Getenv("IDENTITY_TOOLKIT_URL"),
		SecureTokenURL:   os.Getenv("SECURE_TOKEN_URL"),
		RecaptchaToken:   os.Getenv("RECAPTCHA_TOKEN"),
		AuthReadyTimeout: getDuration("AUTH_READY_TIMEOUT", DefaultAuthReadyTimeout),
		LogLevel:         getenv("LOG_LEVEL", "warn"),
		LogFormat:        getenv("LOG_FORMAT", "text"),
	}
}

// Validate reports configuration gaps that degrade the server without
// stopping it.
func (s Server) Validate() []string {
	var warnings []string
	if s.RecaptchaSecret == "" {
		warnings = append(warnings, "RECAPTCHA_SECRET_KEY not set: bot-defense verification is bypassed and every token is admitted")
	}
	if s.FirebaseProjectID == "" && s.JWTSigningKey == devSigningKey {
		warnings = append(warnings, "FIREBASE_PROJECT_ID and JWT_SIGNING_KEY not set: using the development signing key")
	}
	return warnings
}

// Validate reports client configuration gaps.
func (c Client) Validate() []string {
	var warnings []string
	if c.FirebaseAPIKey == "" && c.ToolkitURL == "" {
		warnings = append(warnings, "FIREBASE_API_KEY not set: identity provider calls will be rejected")
	}
	if c.RecaptchaToken == "" {
		warnings = append(warnings, "RECAPTCHA_TOKEN not set: registration proceeds without bot protection")
	}
	return warnings
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
