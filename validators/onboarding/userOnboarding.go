package onboardingValidator

import (
	"strconv"
	"strings"

	"onboard/middleware"

	"github.com/gofiber/fiber/v2"
)

// parseID extracts a positive integer route parameter.
func parseID(c *fiber.Ctx, name string) (int, bool) {
	raw := strings.TrimSpace(c.Params(name))
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func FlowEntry() fiber.Handler {
	return func(c *fiber.Ctx) error {
		flowID, ok := parseID(c, "flow_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "A valid flow ID is required in the URL!", nil)
		}

		c.Locals("flowID", flowID)
		return c.Next()
	}
}

func GetStep() fiber.Handler {
	return func(c *fiber.Ctx) error {
		stepID, ok := parseID(c, "step_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "A valid step ID is required in the URL!", nil)
		}

		c.Locals("stepID", stepID)
		return c.Next()
	}
}

func UpdateVideoTime() fiber.Handler {
	return func(c *fiber.Ctx) error {
		flowID, ok := parseID(c, "flow_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "A valid flow ID is required in the URL!", nil)
		}
		stepID, ok := parseID(c, "step_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "A valid step ID is required in the URL!", nil)
		}

		reqData := new(struct {
			Seconds int `json:"seconds"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.Seconds < 0 {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"seconds": "Seconds must not be negative!",
			})
		}

		c.Locals("flowID", flowID)
		c.Locals("stepID", stepID)
		c.Locals("validatedVideoTime", reqData)
		return c.Next()
	}
}

func CompleteStep() fiber.Handler {
	return func(c *fiber.Ctx) error {
		flowID, ok := parseID(c, "flow_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "A valid flow ID is required in the URL!", nil)
		}
		stepID, ok := parseID(c, "step_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "A valid step ID is required in the URL!", nil)
		}

		c.Locals("flowID", flowID)
		c.Locals("stepID", stepID)
		return c.Next()
	}
}
