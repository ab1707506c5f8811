package auth

import (
	"context"
	"time"

	"github.com/cucumber/godog"
	"github.com/golang-jwt/jwt/v5"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string, headers map[string]string) error
	POST(path string, body any) error
	SetBearer(token string)
	GetSigningKey() string
	GetIssuer() string
	GetAudience() string
}

// RegisterSteps registers bearer-token step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &authSteps{tc: tc}

	ctx.Step(`^I am signed in as "([^"]*)" with uid "([^"]*)"$`, steps.signedIn)
	ctx.Step(`^I am signed in as "([^"]*)" with uid "([^"]*)" and name "([^"]*)"$`, steps.signedInWithName)
	ctx.Step(`^my token has expired$`, steps.expiredToken)
	ctx.Step(`^I GET "([^"]*)" with authorization "([^"]*)"$`, steps.getWithAuthorization)
	ctx.Step(`^I POST to "([^"]*)" with field "([^"]*)" set to "([^"]*)"$`, steps.postField)
	ctx.Step(`^I verify the bot-defense token "([^"]*)"$`, steps.verifyToken)
}

type authSteps struct {
	tc    TestContext
	uid   string
	email string
	name  string
}

func (s *authSteps) issue(expiresIn time.Duration) error {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":       s.uid,
		"user_id":   s.uid,
		"email":     s.email,
		"iss":       s.tc.GetIssuer(),
		"aud":       s.tc.GetAudience(),
		"iat":       now.Add(-time.Minute).Unix(),
		"exp":       now.Add(expiresIn).Unix(),
		"auth_time": now.Unix(),
	}
	if s.name != "" {
		claims["name"] = s.name
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.tc.GetSigningKey()))
	if err != nil {
		return err
	}
	s.tc.SetBearer(signed)
	return nil
}

func (s *authSteps) signedIn(ctx context.Context, email, uid string) error {
	s.uid, s.email, s.name = uid, email, ""
	return s.issue(time.Hour)
}

func (s *authSteps) signedInWithName(ctx context.Context, email, uid, name string) error {
	s.uid, s.email, s.name = uid, email, name
	return s.issue(time.Hour)
}

func (s *authSteps) expiredToken(ctx context.Context) error {
	return s.issue(-time.Second)
}

func (s *authSteps) getWithAuthorization(ctx context.Context, path, header string) error {
	return s.tc.GET(path, map[string]string{"Authorization": header})
}

func (s *authSteps) postField(ctx context.Context, path, field, value string) error {
	return s.tc.POST(path, map[string]any{field: value})
}

func (s *authSteps) verifyToken(ctx context.Context, token string) error {
	return s.tc.POST("/recaptcha/verify", map[string]string{"token": token})
}
