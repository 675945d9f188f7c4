package onboardingValidator

import (
	"strings"

	"onboard/middleware"

	"github.com/gofiber/fiber/v2"
)

// FlowBody is the create/update payload for a flow.
type FlowBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     *bool  `json:"enabled"`
	Mandatory   *bool  `json:"mandatory"`
	TargetRoles []uint `json:"target_roles"`
	RedirectURL string `json:"redirect_url"`
	SortOrder   *int   `json:"sort_order"`
}

func validateFlowBody(c *fiber.Ctx, requireName bool) (*FlowBody, map[string]string, error) {
	reqData := new(FlowBody)
	if err := c.BodyParser(reqData); err != nil {
		return nil, nil, err
	}

	errors := make(map[string]string)

	reqData.Name = strings.TrimSpace(reqData.Name)
	reqData.Description = strings.TrimSpace(reqData.Description)
	reqData.RedirectURL = strings.TrimSpace(reqData.RedirectURL)

	if requireName && reqData.Name == "" {
		errors["name"] = "Name is required!"
	}
	if len(reqData.Name) > 255 {
		errors["name"] = "Name must not exceed 255 characters!"
	}
	if reqData.RedirectURL != "" && !strings.HasPrefix(reqData.RedirectURL, "http") && !strings.HasPrefix(reqData.RedirectURL, "/") {
		errors["redirect_url"] = "Redirect URL must be absolute or start with a slash!"
	}

	return reqData, errors, nil
}

func CreateFlow() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData, errors, err := validateFlowBody(c, true)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedFlow", reqData)
		return c.Next()
	}
}

func UpdateFlow() fiber.Handler {
	return func(c *fiber.Ctx) error {
		flowID, ok := parseID(c, "flow_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "A valid flow ID is required in the URL!", nil)
		}

		reqData, errors, err := validateFlowBody(c, false)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("flowID", flowID)
		c.Locals("validatedFlow", reqData)
		return c.Next()
	}
}

func DeleteFlow() fiber.Handler {
	return func(c *fiber.Ctx) error {
		flowID, ok := parseID(c, "flow_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "A valid flow ID is required in the URL!", nil)
		}

		c.Locals("flowID", flowID)
		return c.Next()
	}
}

func ReorderFlows() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			FlowIDs []uint `json:"flow_ids"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if len(reqData.FlowIDs) == 0 {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"flow_ids": "At least one flow ID is required!",
			})
		}

		c.Locals("validatedReorder", reqData)
		return c.Next()
	}
}
