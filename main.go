package main

import (
	"onboard/config"
	"onboard/database"
	adminRoutes "onboard/routers/adminRoutes"
	authRoutes "onboard/routers/authRoutes"
	externalRoutes "onboard/routers/externalRoutes"
	onboardingRoutes "onboard/routers/onboardingRoutes"
	"onboard/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"log"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",            // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization,X-API-Key", // Allowed headers
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	// Serve static files from the public folder
	app.Static("/", "./public")

	authRoutes.SetupAuthRoutes(app)
	onboardingRoutes.SetupOnboardingRoutes(app)
	adminRoutes.SetupAdminRoutes(app)
	externalRoutes.SetupExternalRoutes(app)

	utils.InitializeOnboardingScheduler()

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
