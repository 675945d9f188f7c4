package controllers

import (
	"log"

	"onboard/config"
	"onboard/database"
	"onboard/middleware"
	"onboard/models"
	"onboard/models/onboarding"
	"onboard/utils"

	"github.com/gofiber/fiber/v2"
)

// progressStep is one entry of the per-step progress indicator.
type progressStep struct {
	StepNumber int    `json:"step_number"`
	Title      string `json:"title"`
	Completed  bool   `json:"completed"`
	Current    bool   `json:"current"`
}

// resolveReturnURL picks the destination to send the user to after the
// flow: parked URL first, then the flow's own redirect, then the
// platform dashboard.
func resolveReturnURL(completion *onboarding.Completion, flow *onboarding.Flow) string {
	if completion.ReturnURL != "" {
		return completion.ReturnURL
	}
	if flow.RedirectURL != "" {
		return flow.RedirectURL
	}
	return config.AppConfig.DashboardURL
}

// EnterFlow loads the user's current position in a flow, creating and
// starting the completion record as needed.
func EnterFlow(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	db := database.Database.Db

	if _, err := models.UserByID(db, userID); err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	flowID := c.Locals("flowID").(int)

	flow, err := onboarding.FlowByID(db, uint(flowID))
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Flow not found!", nil)
	}
	if !flow.Enabled {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "This onboarding flow is currently disabled.", nil)
	}

	completion, err := onboarding.GetOrCreateCompletion(db, userID, flow.ID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to load onboarding progress!", nil)
	}

	if completion.IsCompleted() {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Flow already completed!", fiber.Map{
			"flow_completed": true,
			"return_url":     resolveReturnURL(completion, flow),
		})
	}

	if err := completion.Start(db); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to start onboarding!", nil)
	}

	currentStep, err := completion.CurrentStep(db)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to load current step!", nil)
	}
	if currentStep == nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "This flow has no steps configured.", nil)
	}

	stepView, err := currentStep.View(db)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to load current step!", nil)
	}

	steps, err := flow.Steps(db)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to load flow steps!", nil)
	}

	indicator := make([]progressStep, len(steps))
	for i := range steps {
		num := i + 1
		indicator[i] = progressStep{
			StepNumber: num,
			Title:      steps[i].Title,
			Completed:  num < stepView.StepNumber,
			Current:    num == stepView.StepNumber,
		}
	}

	percent, err := completion.ProgressPercent(db)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to compute progress!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Flow loaded successfully!", fiber.Map{
		"flow_id":          flow.ID,
		"flow_name":        flow.Name,
		"step":             stepView,
		"current_step":     stepView.StepNumber,
		"total_steps":      len(steps),
		"progress_percent": percent,
		"progress_steps":   indicator,
		"video_time":       completion.VideoTime,
		"return_url":       resolveReturnURL(completion, flow),
	})
}

// GetStep returns the exported view of a single step.
func GetStep(c *fiber.Ctx) error {
	if _, ok := c.Locals("userId").(uint); !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	db := database.Database.Db
	stepID := c.Locals("stepID").(int)

	step, err := onboarding.StepByID(db, uint(stepID))
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Step not found!", nil)
	}

	view, err := step.View(db)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to load step!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Step fetched successfully!", view)
}

// UpdateVideoTime records client-reported watch seconds for the user's
// completion of a flow. Reports are monotonic; stale or lower values
// never decrease the stored time.
func UpdateVideoTime(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	db := database.Database.Db
	flowID := c.Locals("flowID").(int)

	reqData, ok := c.Locals("validatedVideoTime").(*struct {
		Seconds int `json:"seconds"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if _, err := onboarding.FlowByID(db, uint(flowID)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Flow not found!", nil)
	}

	completion, err := onboarding.GetOrCreateCompletion(db, userID, uint(flowID))
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to load onboarding progress!", nil)
	}

	if err := completion.UpdateVideoTime(db, reqData.Seconds); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to record video time!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Video time recorded!", fiber.Map{
		"success":   true,
		"videotime": completion.VideoTime,
	})
}

// CompleteStep advances the user past the current step, completing the
// flow when no steps remain.
func CompleteStep(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	db := database.Database.Db
	flowID := c.Locals("flowID").(int)

	flow, err := onboarding.FlowByID(db, uint(flowID))
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Flow not found!", nil)
	}

	completion, err := onboarding.GetOrCreateCompletion(db, userID, flow.ID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to load onboarding progress!", nil)
	}

	// A direct API call may arrive before the entry page ran Start.
	if err := completion.Start(db); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to start onboarding!", nil)
	}

	// The precise percentage gate lives in the client tracker; here a
	// required video only needs some recorded watch time.
	met, err := completion.VideoRequirementMet(db)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to check video progress!", nil)
	}
	if !met {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Please watch the video before continuing.", nil)
	}

	hasMore, err := completion.Advance(db)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to advance step!", nil)
	}

	result := fiber.Map{
		"success":        true,
		"flow_completed": !hasMore,
		"next_step":      nil,
	}

	if hasMore {
		nextStep, err := completion.CurrentStep(db)
		if err == nil && nextStep != nil {
			if view, verr := nextStep.View(db); verr == nil {
				result["next_step"] = view
			}
		}
	} else {
		result["return_url"] = resolveReturnURL(completion, flow)

		// Completion notice is best effort.
		if user, uerr := models.UserByID(db, userID); uerr == nil {
			go func(email, name, flowName string) {
				if err := utils.SendFlowCompletionEmail(email, name, flowName); err != nil {
					log.Printf("Error sending completion email to %s: %v", email, err)
				}
			}(user.Email, user.Name, flow.Name)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Step completed successfully!", result)
}
