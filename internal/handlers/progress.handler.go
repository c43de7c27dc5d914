package handlers

import (
	"errors"

	"nutriplan/internal/app"
	progressController "nutriplan/internal/controllers/progress"
	"nutriplan/internal/handlers/middleware"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ProgressHandler struct {
	Handler
	progressController progressController.ProgressControllerInterface
}

type completionRequest struct {
	Date *string `json:"date,omitempty"`
}

func NewProgressHandler(app app.App, router fiber.Router) *ProgressHandler {
	return &ProgressHandler{
		progressController: app.Controllers.Progress,
		Handler: Handler{
			log:        logger.New("handlers").File("progress_handler"),
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *ProgressHandler) Register() {
	protected := h.router.Group("/", h.middleware.RequireAuth())
	protected.Get("/today", h.getToday)
	protected.Post("/meals/:mealId/complete", h.completeMeal)
	protected.Delete("/meals/:mealId/complete", h.uncompleteMeal)
	protected.Get("/plans/:planId/stats", h.groupStats)
}

func (h *ProgressHandler) getToday(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	content, err := h.progressController.GetTodayContent(c.UserContext(), user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build today view",
		})
	}

	return c.JSON(content)
}

func (h *ProgressHandler) completeMeal(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	mealID, err := uuid.Parse(c.Params("mealId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid meal ID",
		})
	}

	var req completionRequest
	if err := c.BodyParser(&req); err != nil && err != fiber.ErrUnprocessableEntity {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	completion, err := h.progressController.CompleteMeal(c.UserContext(), user, mealID, req.Date)
	if errors.Is(err, progressController.ErrAlreadyCompleted) {
		// Idempotent from the caller's side: the existing record comes back
		// with 200 instead of 201.
		return c.JSON(fiber.Map{"completion": completion})
	}
	if err != nil {
		return progressErrorResponse(c, err, "Failed to complete meal")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"completion": completion})
}

func (h *ProgressHandler) uncompleteMeal(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	mealID, err := uuid.Parse(c.Params("mealId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid meal ID",
		})
	}

	var req completionRequest
	if err := c.BodyParser(&req); err != nil && err != fiber.ErrUnprocessableEntity {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	progress, err := h.progressController.UncompleteMeal(c.UserContext(), user, mealID, req.Date)
	if err != nil {
		return progressErrorResponse(c, err, "Failed to uncomplete meal")
	}

	return c.JSON(fiber.Map{"progress": progress})
}

func (h *ProgressHandler) groupStats(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	planID, err := uuid.Parse(c.Params("planId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid plan ID",
		})
	}

	stats, err := h.progressController.GroupCompletionStats(c.UserContext(), user, planID)
	if err != nil {
		return progressErrorResponse(c, err, "Failed to compute group stats")
	}

	if stats == nil {
		return c.Status(fiber.StatusNoContent).Send(nil)
	}

	return c.JSON(stats)
}

func progressErrorResponse(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, progressController.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, progressController.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fallback})
	}
}
