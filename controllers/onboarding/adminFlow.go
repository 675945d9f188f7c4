package controllers

import (
	"onboard/database"
	"onboard/middleware"
	"onboard/models/onboarding"
	onboardingValidator "onboard/validators/onboarding"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

// AdminListFlows returns all flows with their step counts and stats.
func AdminListFlows(c *fiber.Ctx) error {
	db := database.Database.Db

	flows, err := onboarding.AllFlows(db, false)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch flows!", nil)
	}

	type flowWithStats struct {
		onboarding.Flow
		StepCount int64                 `json:"step_count"`
		Stats     *onboarding.FlowStats `json:"stats"`
	}

	result := make([]flowWithStats, len(flows))
	for i := range flows {
		count, _ := flows[i].CountSteps(db)
		stats, _ := onboarding.Stats(db, flows[i].ID)
		result[i] = flowWithStats{Flow: flows[i], StepCount: count, Stats: stats}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Flows fetched successfully!", result)
}

// AdminCreateFlow creates a new flow.
func AdminCreateFlow(c *fiber.Ctx) error {
	db := database.Database.Db

	reqData, ok := c.Locals("validatedFlow").(*onboardingValidator.FlowBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	flow := onboarding.Flow{
		Name:        reqData.Name,
		Description: reqData.Description,
		Mandatory:   true,
		RedirectURL: reqData.RedirectURL,
		SortOrder:   onboarding.NextFlowSortOrder(db),
	}
	if reqData.Enabled != nil {
		flow.Enabled = *reqData.Enabled
	}
	if reqData.Mandatory != nil {
		flow.Mandatory = *reqData.Mandatory
	}
	if reqData.TargetRoles != nil {
		flow.TargetRoles = datatypes.NewJSONSlice(reqData.TargetRoles)
	}
	if reqData.SortOrder != nil {
		flow.SortOrder = *reqData.SortOrder
	}

	if err := db.Create(&flow).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create flow!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Flow created successfully!", flow)
}

// AdminUpdateFlow updates an existing flow.
func AdminUpdateFlow(c *fiber.Ctx) error {
	db := database.Database.Db
	flowID := c.Locals("flowID").(int)

	flow, err := onboarding.FlowByID(db, uint(flowID))
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Flow not found!", nil)
	}

	reqData, ok := c.Locals("validatedFlow").(*onboardingValidator.FlowBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if reqData.Name != "" {
		flow.Name = reqData.Name
	}
	if reqData.Description != "" {
		flow.Description = reqData.Description
	}
	if reqData.Enabled != nil {
		flow.Enabled = *reqData.Enabled
	}
	if reqData.Mandatory != nil {
		flow.Mandatory = *reqData.Mandatory
	}
	if reqData.TargetRoles != nil {
		flow.TargetRoles = datatypes.NewJSONSlice(reqData.TargetRoles)
	}
	if reqData.RedirectURL != "" {
		flow.RedirectURL = reqData.RedirectURL
	}
	if reqData.SortOrder != nil {
		flow.SortOrder = *reqData.SortOrder
	}

	if err := db.Save(flow).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update flow!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Flow updated successfully!", flow)
}

// AdminDeleteFlow removes a flow together with its steps and completions.
func AdminDeleteFlow(c *fiber.Ctx) error {
	db := database.Database.Db
	flowID := c.Locals("flowID").(int)

	flow, err := onboarding.FlowByID(db, uint(flowID))
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Flow not found!", nil)
	}

	if err := flow.Delete(db); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete flow!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Flow deleted successfully!", nil)
}

// AdminReorderFlows rewrites flow sort orders to match the given ID list.
func AdminReorderFlows(c *fiber.Ctx) error {
	db := database.Database.Db

	reqData, ok := c.Locals("validatedReorder").(*struct {
		FlowIDs []uint `json:"flow_ids"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	tx := db.Begin()
	for i, id := range reqData.FlowIDs {
		if err := tx.Model(&onboarding.Flow{}).Where("id = ?", id).Update("sort_order", i+1).Error; err != nil {
			tx.Rollback()
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to reorder flows!", nil)
		}
	}
	tx.Commit()

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Flows reordered successfully!", nil)
}

// AdminResetCompletions deletes completion records for one flow, or all
// flows when flow_id is 0.
func AdminResetCompletions(c *fiber.Ctx) error {
	db := database.Database.Db
	flowID := c.Locals("resetFlowID").(uint)

	if flowID > 0 {
		if _, err := onboarding.FlowByID(db, flowID); err != nil {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Flow not found!", nil)
		}
	}

	deleted, err := onboarding.ResetCompletions(db, 0, flowID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to reset completions!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Completions reset successfully!", fiber.Map{
		"records_deleted": deleted,
	})
}
