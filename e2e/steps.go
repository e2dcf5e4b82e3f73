package e2e

import (
	"github.com/cucumber/godog"

	"rentoo/e2e/steps/auth"
	"rentoo/e2e/steps/items"
	"rentoo/e2e/steps/rentals"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Sessions, navigation and rendered output
	auth.RegisterSteps(ctx, tc)

	// Listing, browsing and removing items
	items.RegisterSteps(ctx, tc)

	// Rentals, messages and notifications
	rentals.RegisterSteps(ctx, tc)
}
