package onboardingValidator

import (
	"strconv"
	"strings"

	"onboard/middleware"
	"onboard/models/onboarding"

	"github.com/gofiber/fiber/v2"
)

var validStatuses = map[string]bool{
	onboarding.StatusPending:    true,
	onboarding.StatusInProgress: true,
	onboarding.StatusCompleted:  true,
}

// ReportQuery is the validated completion-report filter.
type ReportQuery struct {
	FlowID uint
	Status string
	Limit  int
	Offset int
}

func CompletionReport() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := &ReportQuery{Limit: 100}

		if raw := c.Query("flow_id"); raw != "" {
			id, err := strconv.Atoi(raw)
			if err != nil || id < 0 {
				return middleware.ValidationErrorResponse(c, map[string]string{
					"flow_id": "Flow ID must be a non-negative integer!",
				})
			}
			query.FlowID = uint(id)
		}

		query.Status = strings.TrimSpace(strings.ToLower(c.Query("status")))
		if query.Status != "" && !validStatuses[query.Status] {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"status": "Status must be one of pending, inprogress, completed!",
			})
		}

		if raw := c.Query("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit <= 0 || limit > 1000 {
				return middleware.ValidationErrorResponse(c, map[string]string{
					"limit": "Limit must be between 1 and 1000!",
				})
			}
			query.Limit = limit
		}

		if raw := c.Query("offset"); raw != "" {
			offset, err := strconv.Atoi(raw)
			if err != nil || offset < 0 {
				return middleware.ValidationErrorResponse(c, map[string]string{
					"offset": "Offset must not be negative!",
				})
			}
			query.Offset = offset
		}

		c.Locals("validatedReport", query)
		return c.Next()
	}
}

// UserLookup is the validated user identification for status/reset calls.
type UserLookup struct {
	UserID uint
	Email  string
	FlowID uint
}

// userLookupFromCtx reads user identification from query (GET) or body
// (POST). Either a user ID or an email must be given.
func userLookupFromCtx(c *fiber.Ctx) (*UserLookup, map[string]string) {
	lookup := &UserLookup{}
	errors := make(map[string]string)

	if c.Method() == fiber.MethodGet {
		if raw := c.Query("user_id"); raw != "" {
			id, err := strconv.Atoi(raw)
			if err != nil || id < 0 {
				errors["user_id"] = "User ID must be a non-negative integer!"
			} else {
				lookup.UserID = uint(id)
			}
		}
		lookup.Email = strings.TrimSpace(strings.ToLower(c.Query("email")))
		if raw := c.Query("flow_id"); raw != "" {
			id, err := strconv.Atoi(raw)
			if err != nil || id < 0 {
				errors["flow_id"] = "Flow ID must be a non-negative integer!"
			} else {
				lookup.FlowID = uint(id)
			}
		}
	} else {
		reqData := new(struct {
			UserID uint   `json:"user_id"`
			Email  string `json:"email"`
			FlowID uint   `json:"flow_id"`
		})
		if err := c.BodyParser(reqData); err != nil {
			errors["body"] = "Invalid request body!"
			return lookup, errors
		}
		lookup.UserID = reqData.UserID
		lookup.Email = strings.TrimSpace(strings.ToLower(reqData.Email))
		lookup.FlowID = reqData.FlowID
	}

	if lookup.UserID == 0 && lookup.Email == "" {
		errors["user"] = "Either user_id or email must be provided!"
	}

	return lookup, errors
}

func UserStatus() fiber.Handler {
	return func(c *fiber.Ctx) error {
		lookup, errors := userLookupFromCtx(c)
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedUserLookup", lookup)
		return c.Next()
	}
}

func ResetCompletion() fiber.Handler {
	return func(c *fiber.Ctx) error {
		lookup, errors := userLookupFromCtx(c)
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedUserLookup", lookup)
		return c.Next()
	}
}

// ResetFlow validates the admin bulk-reset request (flow_id 0 resets all).
func ResetFlow() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			FlowID uint `json:"flow_id"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		c.Locals("resetFlowID", reqData.FlowID)
		return c.Next()
	}
}
