package controllers

import (
	"fmt"

	"onboard/database"
	"onboard/middleware"
	"onboard/models"
	"onboard/models/onboarding"
	onboardingValidator "onboard/validators/onboarding"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// completionSummary is the per-flow status row returned by the status
// and report endpoints.
type completionSummary struct {
	UserID        uint    `json:"user_id"`
	Email         string  `json:"email"`
	UserName      string  `json:"user_name"`
	FlowID        uint    `json:"flow_id"`
	FlowName      string  `json:"flow_name"`
	Status        string  `json:"status"`
	CurrentStep   int     `json:"current_step"` // 1-based step number, 0 when none
	TimeStarted   int64   `json:"time_started"`
	TimeCompleted int64   `json:"time_completed"`
	TimeModified  int64   `json:"time_modified"`
	IsCompleted   bool    `json:"is_completed"`
}

func summarize(db *gorm.DB, c *onboarding.Completion, user *models.User) completionSummary {
	summary := completionSummary{
		UserID:       c.UserID,
		FlowID:       c.FlowID,
		Status:       c.Status,
		TimeModified: c.UpdatedAt.Unix(),
		IsCompleted:  c.IsCompleted(),
	}
	if user != nil {
		summary.Email = user.Email
		summary.UserName = user.Name
	}
	if c.TimeStarted != nil {
		summary.TimeStarted = c.TimeStarted.Unix()
	}
	if c.TimeCompleted != nil {
		summary.TimeCompleted = c.TimeCompleted.Unix()
	}

	if flow, err := onboarding.FlowByID(db, c.FlowID); err == nil {
		summary.FlowName = flow.Name
	} else {
		summary.FlowName = "Unknown"
	}

	if step, err := c.CurrentStep(db); err == nil && step != nil {
		if number, nerr := step.StepNumber(db); nerr == nil {
			summary.CurrentStep = number
		}
	}
	return summary
}

// lookupUser resolves the user referenced by a status/reset request.
func lookupUser(db *gorm.DB, lookup *onboardingValidator.UserLookup) (*models.User, error) {
	if lookup.UserID > 0 {
		return models.UserByID(db, lookup.UserID)
	}
	return models.UserByEmail(db, lookup.Email)
}

// GetUserStatus returns a user's completion state across flows (or one
// flow when flow_id is given).
func GetUserStatus(c *fiber.Ctx) error {
	db := database.Database.Db

	lookup, ok := c.Locals("validatedUserLookup").(*onboardingValidator.UserLookup)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	user, err := lookupUser(db, lookup)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	q := db.Where("user_id = ?", user.ID)
	if lookup.FlowID > 0 {
		q = q.Where("flow_id = ?", lookup.FlowID)
	}

	var completions []onboarding.Completion
	if err := q.Find(&completions).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch completions!", nil)
	}

	summaries := make([]completionSummary, len(completions))
	for i := range completions {
		summaries[i] = summarize(db, &completions[i], user)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "User status fetched successfully!", fiber.Map{
		"user_id":     user.ID,
		"email":       user.Email,
		"name":        user.Name,
		"completions": summaries,
	})
}

// ResetUserCompletion deletes a user's completion records so they run
// onboarding again (one flow, or all flows when flow_id is 0).
func ResetUserCompletion(c *fiber.Ctx) error {
	db := database.Database.Db

	lookup, ok := c.Locals("validatedUserLookup").(*onboardingValidator.UserLookup)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	user, err := lookupUser(db, lookup)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	deleted, err := onboarding.ResetCompletions(db, user.ID, lookup.FlowID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to reset completions!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true,
		fmt.Sprintf("Reset %d completion record(s) for user %s", deleted, user.Email),
		fiber.Map{
			"success":         true,
			"user_id":         user.ID,
			"email":           user.Email,
			"records_deleted": deleted,
		})
}

// GetCompletionReport returns paginated completion rows with optional
// flow and status filters.
func GetCompletionReport(c *fiber.Ctx) error {
	db := database.Database.Db

	query, ok := c.Locals("validatedReport").(*onboardingValidator.ReportQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	q := db.Model(&onboarding.Completion{})
	if query.FlowID > 0 {
		q = q.Where("flow_id = ?", query.FlowID)
	}
	if query.Status != "" {
		q = q.Where("status = ?", query.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to count completions!", nil)
	}

	var completions []onboarding.Completion
	if err := q.Order("updated_at desc").Offset(query.Offset).Limit(query.Limit).Find(&completions).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch completions!", nil)
	}

	summaries := make([]completionSummary, len(completions))
	for i := range completions {
		user, _ := models.UserByID(db, completions[i].UserID)
		summaries[i] = summarize(db, &completions[i], user)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Completion report fetched successfully!", fiber.Map{
		"total_count":    total,
		"returned_count": len(summaries),
		"completions":    summaries,
	})
}

// GetFlowStats aggregates completion counts for one flow, or across all
// flows when flow_id is omitted.
func GetFlowStats(c *fiber.Ctx) error {
	db := database.Database.Db

	var flowID uint
	if raw := c.QueryInt("flow_id"); raw > 0 {
		flowID = uint(raw)
		if _, err := onboarding.FlowByID(db, flowID); err != nil {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Flow not found!", nil)
		}
	}

	stats, err := onboarding.Stats(db, flowID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to compute stats!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Stats fetched successfully!", stats)
}
