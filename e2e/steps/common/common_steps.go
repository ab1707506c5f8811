package common

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string, headers map[string]string) error
	POST(path string, body any) error
	POSTRaw(path, body string) error
	LastStatus() int
	LastHeader(name string) string
	GetResponseField(field string) (any, error)
}

// RegisterSteps registers request and envelope assertion steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^I GET "([^"]*)"$`, steps.get)
	ctx.Step(`^I POST "([^"]*)" to "([^"]*)"$`, steps.postRaw)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response should be a success envelope with message "([^"]*)"$`, steps.successEnvelope)
	ctx.Step(`^the response should be a failure envelope with message "([^"]*)"$`, steps.failureEnvelope)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be (true|false)$`, steps.fieldShouldBeBool)
	ctx.Step(`^the response should not have field "([^"]*)"$`, steps.fieldAbsent)
	ctx.Step(`^the response should carry a request ID$`, steps.hasRequestID)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) get(ctx context.Context, path string) error {
	return s.tc.GET(path, nil)
}

func (s *commonSteps) postRaw(ctx context.Context, body, path string) error {
	return s.tc.POSTRaw(path, body)
}

func (s *commonSteps) statusShouldBe(ctx context.Context, want int) error {
	if got := s.tc.LastStatus(); got != want {
		return fmt.Errorf("expected status %d, got %d", want, got)
	}
	return nil
}

func (s *commonSteps) envelope(success bool, message string) error {
	if err := s.fieldShouldBeBool(context.Background(), "success", fmt.Sprint(success)); err != nil {
		return err
	}
	if err := s.fieldShouldBe(context.Background(), "message", message); err != nil {
		return err
	}
	if _, err := s.tc.GetResponseField("timestamp"); err != nil {
		return err
	}
	return nil
}

func (s *commonSteps) successEnvelope(ctx context.Context, message string) error {
	return s.envelope(true, message)
}

func (s *commonSteps) failureEnvelope(ctx context.Context, message string) error {
	return s.envelope(false, message)
}

func (s *commonSteps) fieldShouldBe(ctx context.Context, field, want string) error {
	got, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if fmt.Sprint(got) != want {
		return fmt.Errorf("expected %s to be %q, got %v", field, want, got)
	}
	return nil
}

func (s *commonSteps) fieldShouldBeBool(ctx context.Context, field, want string) error {
	got, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	b, ok := got.(bool)
	if !ok || fmt.Sprint(b) != want {
		return fmt.Errorf("expected %s to be %s, got %v", field, want, got)
	}
	return nil
}

func (s *commonSteps) fieldAbsent(ctx context.Context, field string) error {
	if got, err := s.tc.GetResponseField(field); err == nil {
		return fmt.Errorf("expected no %s, got %v", field, got)
	}
	return nil
}

func (s *commonSteps) hasRequestID(ctx context.Context) error {
	if s.tc.LastHeader("X-Request-ID") == "" {
		return fmt.Errorf("X-Request-ID header missing")
	}
	return nil
}
