package e2e

import (
	"github.com/cucumber/godog"

	"gatehouse/e2e/steps/auth"
	"gatehouse/e2e/steps/common"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (requests, envelope assertions)
	common.RegisterSteps(ctx, tc)

	// Register bearer-token steps
	auth.RegisterSteps(ctx, tc)
}
