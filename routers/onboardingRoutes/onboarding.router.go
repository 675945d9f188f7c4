package onboardingRoutes

import (
	onboardingControllers "onboard/controllers/onboarding"
	"onboard/middleware"
	onboardingValidators "onboard/validators/onboarding"

	"github.com/gofiber/fiber/v2"
)

func SetupOnboardingRoutes(app *fiber.App) {
	onboardingGroup := app.Group("/onboarding")

	onboardingGroup.Get("/flow/:flow_id", middleware.JWTMiddleware, onboardingValidators.FlowEntry(), onboardingControllers.EnterFlow)
	onboardingGroup.Get("/step/:step_id", middleware.JWTMiddleware, onboardingValidators.GetStep(), onboardingControllers.GetStep)
	onboardingGroup.Post("/flow/:flow_id/step/:step_id/video-time", middleware.JWTMiddleware, onboardingValidators.UpdateVideoTime(), onboardingControllers.UpdateVideoTime)
	onboardingGroup.Post("/flow/:flow_id/step/:step_id/complete", middleware.JWTMiddleware, onboardingValidators.CompleteStep(), onboardingControllers.CompleteStep)
}
