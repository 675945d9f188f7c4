package onboardingValidator

import (
	"strings"

	"onboard/middleware"
	"onboard/models/onboarding"

	"github.com/gofiber/fiber/v2"
)

// StepBody is the create/update payload for a step.
type StepBody struct {
	Title           string `json:"title"`
	Content         string `json:"content"`
	StepType        string `json:"step_type"`
	VideoURL        string `json:"video_url"`
	VideoRequired   *bool  `json:"video_required"`
	VideoCompletion *int   `json:"video_completion"`
	ImageURL        string `json:"image_url"`
	CTAButton       string `json:"cta_button"`
	CTAURL          string `json:"cta_url"`
	CTANewTab       *bool  `json:"cta_new_tab"`
	SortOrder       *int   `json:"sort_order"`
}

var validStepTypes = map[string]bool{
	onboarding.TypeContent: true,
	onboarding.TypeVideo:   true,
	onboarding.TypeImage:   true,
	onboarding.TypeMixed:   true,
}

func validateStepBody(c *fiber.Ctx, requireTitle bool) (*StepBody, map[string]string, error) {
	reqData := new(StepBody)
	if err := c.BodyParser(reqData); err != nil {
		return nil, nil, err
	}

	errors := make(map[string]string)

	reqData.Title = strings.TrimSpace(reqData.Title)
	reqData.StepType = strings.TrimSpace(strings.ToLower(reqData.StepType))
	reqData.VideoURL = strings.TrimSpace(reqData.VideoURL)
	reqData.ImageURL = strings.TrimSpace(reqData.ImageURL)
	reqData.CTAButton = strings.TrimSpace(reqData.CTAButton)
	reqData.CTAURL = strings.TrimSpace(reqData.CTAURL)

	if requireTitle && reqData.Title == "" {
		errors["title"] = "Title is required!"
	}
	if len(reqData.Title) > 255 {
		errors["title"] = "Title must not exceed 255 characters!"
	}

	if reqData.StepType != "" && !validStepTypes[reqData.StepType] {
		errors["step_type"] = "Step type must be one of content, video, image, mixed!"
	}

	// Video steps must carry a video URL.
	if (reqData.StepType == onboarding.TypeVideo || reqData.StepType == onboarding.TypeMixed) && reqData.VideoURL == "" {
		errors["video_url"] = "A video URL is required for video and mixed steps!"
	}

	if reqData.CTAButton != "" && reqData.CTAURL == "" {
		errors["cta_url"] = "A CTA URL is required when a CTA button is set!"
	}

	return reqData, errors, nil
}

func CreateStep() fiber.Handler {
	return func(c *fiber.Ctx) error {
		flowID, ok := parseID(c, "flow_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "A valid flow ID is required in the URL!", nil)
		}

		reqData, errors, err := validateStepBody(c, true)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("flowID", flowID)
		c.Locals("validatedStep", reqData)
		return c.Next()
	}
}

func UpdateStep() fiber.Handler {
	return func(c *fiber.Ctx) error {
		stepID, ok := parseID(c, "step_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "A valid step ID is required in the URL!", nil)
		}

		reqData, errors, err := validateStepBody(c, false)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("stepID", stepID)
		c.Locals("validatedStep", reqData)
		return c.Next()
	}
}

func DeleteStep() fiber.Handler {
	return func(c *fiber.Ctx) error {
		stepID, ok := parseID(c, "step_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "A valid step ID is required in the URL!", nil)
		}

		c.Locals("stepID", stepID)
		return c.Next()
	}
}

func ReorderSteps() fiber.Handler {
	return func(c *fiber.Ctx) error {
		flowID, ok := parseID(c, "flow_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "A valid flow ID is required in the URL!", nil)
		}

		reqData := new(struct {
			StepIDs []uint `json:"step_ids"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if len(reqData.StepIDs) == 0 {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"step_ids": "At least one step ID is required!",
			})
		}

		c.Locals("flowID", flowID)
		c.Locals("validatedStepReorder", reqData)
		return c.Next()
	}
}
