package handlers

import (
	"nutriplan/internal/app"
	"nutriplan/internal/handlers/middleware"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	middleware middleware.Middleware
	log        logger.Logger
	router     fiber.Router
}

func Router(router fiber.Router, app *app.App) error {
	api := router.Group("/api")
	api.Use(app.Middleware.TraceID())

	HealthHandler(api, app.Config)
	NewPlanHandler(*app, api).Register()
	NewFollowHandler(*app, api).Register()
	NewProgressHandler(*app, api).Register()

	return nil
}
