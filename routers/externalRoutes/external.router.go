package externalRoutes

import (
	onboardingControllers "onboard/controllers/onboarding"
	"onboard/middleware"
	onboardingValidators "onboard/validators/onboarding"

	"github.com/gofiber/fiber/v2"
)

// SetupExternalRoutes exposes the automation surface guarded by service
// tokens instead of user JWTs.
func SetupExternalRoutes(app *fiber.App) {
	externalGroup := app.Group("/external/onboarding", middleware.ServiceTokenMiddleware)

	externalGroup.Get("/status", onboardingValidators.UserStatus(), onboardingControllers.GetUserStatus)
	externalGroup.Post("/status", onboardingValidators.UserStatus(), onboardingControllers.GetUserStatus)
	externalGroup.Post("/reset", onboardingValidators.ResetCompletion(), onboardingControllers.ResetUserCompletion)
	externalGroup.Get("/report", onboardingValidators.CompletionReport(), onboardingControllers.GetCompletionReport)
	externalGroup.Get("/stats", onboardingControllers.GetFlowStats)
}
