package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port      string
	JWTKey    string
	SaltRound int

	// Base URL of this service, used as the origin parameter for video
	// embeds and as the base for tracker callbacks.
	APIBaseURL string

	// Onboarding behaviour
	OnboardingEnabled      bool
	DefaultVideoCompletion int  // percentage (0-100) required when a step does not set its own
	ShowAdmins             bool // include site admins in the login gate
	DashboardURL           string

	// Email
	SendGridKey string
	EmailSender string
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port:      getEnv("PORT", "3000"),
		JWTKey:    getEnv("JWT_SECRET_KEY", "defaultSecret"),
		SaltRound: getEnvInt("SALT_ROUND", 10),

		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:3000"),

		OnboardingEnabled:      getEnvBool("ONBOARDING_ENABLED", true),
		DefaultVideoCompletion: getEnvInt("DEFAULT_VIDEO_COMPLETION", 80),
		ShowAdmins:             getEnvBool("SHOW_ADMINS", false),
		DashboardURL:           getEnv("DASHBOARD_URL", "/dashboard"),

		SendGridKey: getEnv("SENDGRID_API_KEY", ""),
		EmailSender: getEnv("EMAIL_SENDER", "noreply@localhost"),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.DefaultVideoCompletion < 0 || AppConfig.DefaultVideoCompletion > 100 {
		log.Printf("Warning: DEFAULT_VIDEO_COMPLETION %d out of range, falling back to 80.", AppConfig.DefaultVideoCompletion)
		AppConfig.DefaultVideoCompletion = 80
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

// getEnvBool retrieves an environment variable as a boolean or returns the default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to bool: %v", key, err)
		return defaultValue
	}
	return boolValue
}
