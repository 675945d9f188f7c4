package authController

import (
	"fmt"
	"log"
	"time"

	"onboard/config"
	"onboard/database"
	"onboard/middleware"
	"onboard/models"
	"onboard/models/onboarding"
	"onboard/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// GateDecision is the outcome of the login-time onboarding check: when
// Required is set the client must divert the user into the flow entry
// URL before their intended destination.
type GateDecision struct {
	Required bool   `json:"required"`
	FlowID   uint   `json:"flow_id,omitempty"`
	FlowName string `json:"flow_name,omitempty"`
	EntryURL string `json:"entry_url,omitempty"`
}

func Signup(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedSignup").(*struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	// Check if email already exists
	if err := db.Where("email = ?", reqData.Email).First(&models.User{}).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email is already registered!", nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.Password), config.AppConfig.SaltRound)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	newUser := models.User{
		Name:     reqData.Name,
		Email:    reqData.Email,
		Password: string(hashedPassword),
	}

	if err := db.Create(&newUser).Error; err != nil {
		log.Printf("Error saving user to database: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to signup user!", nil)
	}

	if err := models.SeedPermissions(db, newUser.Role, newUser.ID); err != nil {
		log.Printf("Error seeding permissions: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to assign permissions!", nil)
	}

	utils.SendWelcomeEmail(newUser.Email, newUser.Name)

	// Clean response
	newUser.Password = ""
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "User registered successfully!", newUser)
}

func Login(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedLogin").(*struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		WantsURL string `json:"wants_url"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	user, err := models.UserByEmail(db, reqData.Email)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid email or password!", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.Password)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid email or password!", nil)
	}

	token, err := middleware.GenerateJWT(user.ID, user.Name, user.Role, user.Email)
	if err != nil {
		log.Printf("Error generating JWT: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to login!", nil)
	}

	db.Model(user).Update("last_login", time.Now())

	gate, err := onboardingGate(db, user, reqData.WantsURL)
	if err != nil {
		// The gate must never break login; fall back to no redirect.
		log.Printf("Error evaluating onboarding gate for user %d: %v", user.ID, err)
		gate = &GateDecision{}
	}

	user.Password = ""
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login successful!", fiber.Map{
		"token":      token,
		"user":       user,
		"onboarding": gate,
	})
}

// onboardingGate decides whether the user must be diverted into an
// onboarding flow before reaching their destination. Admins (unless
// configured otherwise) and users with the bypass capability are exempt.
func onboardingGate(db *gorm.DB, user *models.User, wantsURL string) (*GateDecision, error) {
	none := &GateDecision{}

	if !config.AppConfig.OnboardingEnabled {
		return none, nil
	}
	if user.IsAdmin() && !config.AppConfig.ShowAdmins {
		return none, nil
	}

	bypass, err := models.HasPermission(db, user.ID, models.PermBypass)
	if err != nil {
		return nil, err
	}
	if bypass {
		return none, nil
	}

	roles, err := models.UserRoleIDs(db, user.ID)
	if err != nil {
		return nil, err
	}

	flow, err := onboarding.ActiveFlowForUser(db, roles)
	if err != nil {
		return nil, err
	}
	if flow == nil {
		return none, nil
	}

	done, err := onboarding.HasCompleted(db, user.ID, flow.ID)
	if err != nil {
		return nil, err
	}
	if done {
		return none, nil
	}

	// Park the intended destination on the completion row; it becomes
	// the return target once the flow completes.
	completion, err := onboarding.GetOrCreateCompletion(db, user.ID, flow.ID)
	if err != nil {
		return nil, err
	}
	returnURL := wantsURL
	if returnURL == "" {
		returnURL = config.AppConfig.DashboardURL
	}
	if err := db.Model(completion).Update("return_url", returnURL).Error; err != nil {
		return nil, err
	}

	return &GateDecision{
		Required: true,
		FlowID:   flow.ID,
		FlowName: flow.Name,
		EntryURL: fmt.Sprintf("/onboarding/flow/%d", flow.ID),
	}, nil
}
