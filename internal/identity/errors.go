package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gatehouse/pkg/platform/sentinel"
)

// ErrNoSession is returned by operations that need a signed-in user.
var ErrNoSession = fmt.Errorf("no signed-in user: %w", sentinel.ErrInvalidState)

// ProviderError is a failure reported by the identity provider. Error()
// returns a message fit to show the user.
type ProviderError struct {
	// Code is the provider's own error code, e.g. EMAIL_EXISTS.
	Code       string
	Message    string
	Underlying error
}

func (e *ProviderError) Error() string {
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

var friendlyMessages = map[string]string{
	"EMAIL_EXISTS":                "The email address is already in use by another account.",
	"EMAIL_NOT_FOUND":             "Invalid email or password.",
	"INVALID_PASSWORD":            "Invalid email or password.",
	"INVALID_LOGIN_CREDENTIALS":   "Invalid email or password.",
	"INVALID_EMAIL":               "The email address is badly formatted.",
	"USER_DISABLED":               "The user account has been disabled by an administrator.",
	"WEAK_PASSWORD":               "Password should be at least 6 characters.",
	"TOO_MANY_ATTEMPTS_TRY_LATER": "Too many attempts. Please try again later.",
	"TOKEN_EXPIRED":               "Your session has expired. Please sign in again.",
	"INVALID_REFRESH_TOKEN":       "Your session has expired. Please sign in again.",
	"USER_NOT_FOUND":              "There is no user record corresponding to this identifier.",
	"INVALID_ID_TOKEN":            "Your session has expired. Please sign in again.",
}

// providerErrorBody is the error document both REST surfaces return. Identity
// Toolkit nests it under "error"; Secure Token may return a bare string there.
type providerErrorBody struct {
	Error json.RawMessage `json:"error"`
}

type providerErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// parseProviderError decodes body into a ProviderError. fallback is used when
// the body carries no recognizable code.
func parseProviderError(body []byte, fallback string, cause error) *ProviderError {
	code := providerCode(body)
	msg, ok := friendlyMessages[code]
	if !ok {
		msg = fallback
	}
	return &ProviderError{Code: code, Message: msg, Underlying: cause}
}

func providerCode(body []byte) string {
	var envelope providerErrorBody
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Error) == 0 {
		return ""
	}

	var detail providerErrorDetail
	if err := json.Unmarshal(envelope.Error, &detail); err != nil {
		var bare string
		if err := json.Unmarshal(envelope.Error, &bare); err != nil {
			return ""
		}
		detail.Message = bare
	}
	// "WEAK_PASSWORD : Password should be at least 6 characters"
	code, _, _ := strings.Cut(detail.Message, " ")
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsCode reports whether err is a ProviderError with the given code.
func IsCode(err error, code string) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}
