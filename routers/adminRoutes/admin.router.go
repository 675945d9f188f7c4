package adminRoutes

import (
	onboardingControllers "onboard/controllers/onboarding"
	"onboard/middleware"
	"onboard/models"
	onboardingValidators "onboard/validators/onboarding"

	"github.com/gofiber/fiber/v2"
)

func SetupAdminRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin/onboarding", middleware.JWTMiddleware)

	manage := adminGroup.Group("/", middleware.CheckPermissionMiddleware(models.PermManageFlows))
	manage.Get("/flows", onboardingControllers.AdminListFlows)
	manage.Post("/flows", onboardingValidators.CreateFlow(), onboardingControllers.AdminCreateFlow)
	manage.Patch("/flow/:flow_id", onboardingValidators.UpdateFlow(), onboardingControllers.AdminUpdateFlow)
	manage.Delete("/flow/:flow_id", onboardingValidators.DeleteFlow(), onboardingControllers.AdminDeleteFlow)
	manage.Put("/flows/reorder", onboardingValidators.ReorderFlows(), onboardingControllers.AdminReorderFlows)
	manage.Post("/flow/reset", onboardingValidators.ResetFlow(), onboardingControllers.AdminResetCompletions)

	manage.Get("/flow/:flow_id/steps", onboardingValidators.FlowEntry(), onboardingControllers.AdminListSteps)
	manage.Post("/flow/:flow_id/steps", onboardingValidators.CreateStep(), onboardingControllers.AdminCreateStep)
	manage.Patch("/step/:step_id", onboardingValidators.UpdateStep(), onboardingControllers.AdminUpdateStep)
	manage.Delete("/step/:step_id", onboardingValidators.DeleteStep(), onboardingControllers.AdminDeleteStep)
	manage.Put("/flow/:flow_id/steps/reorder", onboardingValidators.ReorderSteps(), onboardingControllers.AdminReorderSteps)

	reports := adminGroup.Group("/reports", middleware.CheckPermissionMiddleware(models.PermViewReports))
	reports.Get("/completions", onboardingValidators.CompletionReport(), onboardingControllers.GetCompletionReport)
	reports.Get("/user", onboardingValidators.UserStatus(), onboardingControllers.GetUserStatus)
	reports.Get("/stats", onboardingControllers.GetFlowStats)
}
