package controllers

import (
	"onboard/config"
	"onboard/database"
	"onboard/middleware"
	"onboard/models/onboarding"
	onboardingValidator "onboard/validators/onboarding"

	"github.com/gofiber/fiber/v2"
)

// AdminListSteps returns a flow's steps in sort order.
func AdminListSteps(c *fiber.Ctx) error {
	db := database.Database.Db
	flowID := c.Locals("flowID").(int)

	if _, err := onboarding.FlowByID(db, uint(flowID)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Flow not found!", nil)
	}

	steps, err := onboarding.StepsForFlow(db, uint(flowID))
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch steps!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Steps fetched successfully!", steps)
}

// AdminCreateStep appends a step to a flow.
func AdminCreateStep(c *fiber.Ctx) error {
	db := database.Database.Db
	flowID := c.Locals("flowID").(int)

	if _, err := onboarding.FlowByID(db, uint(flowID)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Flow not found!", nil)
	}

	reqData, ok := c.Locals("validatedStep").(*onboardingValidator.StepBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	step := onboarding.Step{
		FlowID:          uint(flowID),
		Title:           reqData.Title,
		Content:         reqData.Content,
		StepType:        onboarding.TypeContent,
		VideoURL:        reqData.VideoURL,
		VideoCompletion: config.AppConfig.DefaultVideoCompletion,
		ImageURL:        reqData.ImageURL,
		CTAButton:       reqData.CTAButton,
		CTAURL:          reqData.CTAURL,
		SortOrder:       onboarding.NextStepSortOrder(db, uint(flowID)),
	}
	if reqData.StepType != "" {
		step.StepType = reqData.StepType
	}
	if reqData.VideoRequired != nil {
		step.VideoRequired = *reqData.VideoRequired
	}
	if reqData.VideoCompletion != nil {
		step.VideoCompletion = onboarding.ClampCompletion(*reqData.VideoCompletion)
	}
	if reqData.CTANewTab != nil {
		step.CTANewTab = *reqData.CTANewTab
	}
	if reqData.SortOrder != nil {
		step.SortOrder = *reqData.SortOrder
	}

	if err := db.Create(&step).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create step!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Step created successfully!", step)
}

// AdminUpdateStep updates an existing step.
func AdminUpdateStep(c *fiber.Ctx) error {
	db := database.Database.Db
	stepID := c.Locals("stepID").(int)

	step, err := onboarding.StepByID(db, uint(stepID))
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Step not found!", nil)
	}

	reqData, ok := c.Locals("validatedStep").(*onboardingValidator.StepBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if reqData.Title != "" {
		step.Title = reqData.Title
	}
	if reqData.Content != "" {
		step.Content = reqData.Content
	}
	if reqData.StepType != "" {
		step.StepType = reqData.StepType
	}
	if reqData.VideoURL != "" {
		step.VideoURL = reqData.VideoURL
	}
	if reqData.VideoRequired != nil {
		step.VideoRequired = *reqData.VideoRequired
	}
	if reqData.VideoCompletion != nil {
		step.VideoCompletion = onboarding.ClampCompletion(*reqData.VideoCompletion)
	}
	if reqData.ImageURL != "" {
		step.ImageURL = reqData.ImageURL
	}
	if reqData.CTAButton != "" {
		step.CTAButton = reqData.CTAButton
	}
	if reqData.CTAURL != "" {
		step.CTAURL = reqData.CTAURL
	}
	if reqData.CTANewTab != nil {
		step.CTANewTab = *reqData.CTANewTab
	}
	if reqData.SortOrder != nil {
		step.SortOrder = *reqData.SortOrder
	}

	// A video step must never lose its URL through an update.
	if (step.StepType == onboarding.TypeVideo || step.StepType == onboarding.TypeMixed) && step.VideoURL == "" {
		return middleware.ValidationErrorResponse(c, map[string]string{
			"video_url": "A video URL is required for video and mixed steps!",
		})
	}

	if err := db.Save(step).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update step!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Step updated successfully!", step)
}

// AdminDeleteStep removes a step from its flow.
func AdminDeleteStep(c *fiber.Ctx) error {
	db := database.Database.Db
	stepID := c.Locals("stepID").(int)

	step, err := onboarding.StepByID(db, uint(stepID))
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Step not found!", nil)
	}

	if err := db.Model(step).Update("is_deleted", true).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete step!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Step deleted successfully!", nil)
}

// AdminReorderSteps rewrites step sort orders within a flow to match the
// given ID list.
func AdminReorderSteps(c *fiber.Ctx) error {
	db := database.Database.Db
	flowID := c.Locals("flowID").(int)

	if _, err := onboarding.FlowByID(db, uint(flowID)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Flow not found!", nil)
	}

	reqData, ok := c.Locals("validatedStepReorder").(*struct {
		StepIDs []uint `json:"step_ids"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	tx := db.Begin()
	for i, id := range reqData.StepIDs {
		if err := tx.Model(&onboarding.Step{}).
			Where("id = ? AND flow_id = ?", id, flowID).
			Update("sort_order", i+1).Error; err != nil {
			tx.Rollback()
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to reorder steps!", nil)
		}
	}
	tx.Commit()

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Steps reordered successfully!", nil)
}
