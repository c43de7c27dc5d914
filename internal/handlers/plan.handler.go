package handlers

import (
	"errors"

	"nutriplan/internal/app"
	plansController "nutriplan/internal/controllers/plans"
	"nutriplan/internal/handlers/middleware"
	"nutriplan/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type PlanHandler struct {
	Handler
	planController plansController.PlanControllerInterface
}

type importDayRequest struct {
	Day     services.GeneratedDay `json:"day"`
	Publish bool                  `json:"publish,omitempty"`
}

type generateDayRequest struct {
	DayNumber int  `json:"dayNumber"`
	Publish   bool `json:"publish,omitempty"`
}

func NewPlanHandler(app app.App, router fiber.Router) *PlanHandler {
	return &PlanHandler{
		planController: app.Controllers.Plan,
		Handler: Handler{
			log:        logger.New("handlers").File("plan_handler"),
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *PlanHandler) Register() {
	plans := h.router.Group("/plans")
	plans.Get("/public", h.listPublicPlans)

	protected := plans.Group("/", h.middleware.RequireAuth())
	protected.Post("", h.createPlan)
	protected.Get("/:id", h.getPlan)
	protected.Patch("/:id", h.updatePlan)
	protected.Delete("/:id", h.deactivatePlan)
	protected.Post("/:id/archive", h.archivePlan)
	protected.Post("/:id/days", h.importDay)
	protected.Post("/:id/days/generate", h.generateDay)
}

func (h *PlanHandler) createPlan(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	var req plansController.CreatePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	plan, err := h.planController.CreatePlan(c.UserContext(), user, &req)
	if err != nil {
		return planErrorResponse(c, err, "Failed to create plan")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"plan": plan})
}

func (h *PlanHandler) getPlan(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	planID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid plan ID",
		})
	}

	detail, err := h.planController.GetPlan(c.UserContext(), user, planID)
	if err != nil {
		return planErrorResponse(c, err, "Failed to get plan")
	}

	return c.JSON(detail)
}

func (h *PlanHandler) listPublicPlans(c *fiber.Ctx) error {
	plans, err := h.planController.ListPublicPlans(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list plans",
		})
	}

	return c.JSON(fiber.Map{"plans": plans})
}

func (h *PlanHandler) updatePlan(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	planID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid plan ID",
		})
	}

	var req plansController.UpdatePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	plan, err := h.planController.UpdatePlan(c.UserContext(), user, planID, &req)
	if err != nil {
		return planErrorResponse(c, err, "Failed to update plan")
	}

	return c.JSON(fiber.Map{"plan": plan})
}

func (h *PlanHandler) deactivatePlan(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	planID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid plan ID",
		})
	}

	if err := h.planController.DeactivatePlan(c.UserContext(), user, planID); err != nil {
		return planErrorResponse(c, err, "Failed to deactivate plan")
	}

	return c.Status(fiber.StatusNoContent).Send(nil)
}

func (h *PlanHandler) archivePlan(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	planID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid plan ID",
		})
	}

	var req plansController.ArchivePlanRequest
	if err := c.BodyParser(&req); err != nil && err != fiber.ErrUnprocessableEntity {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	archived, err := h.planController.ArchivePlan(c.UserContext(), user, planID, &req)
	if err != nil {
		return planErrorResponse(c, err, "Failed to archive plan")
	}

	if archived == nil {
		// Finished plan with nobody left to remember: marked processed,
		// no snapshot produced.
		return c.Status(fiber.StatusNoContent).Send(nil)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"plan": archived})
}

func (h *PlanHandler) importDay(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	planID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid plan ID",
		})
	}

	var req importDayRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	day, err := h.planController.ImportDay(c.UserContext(), user, planID, &req.Day, req.Publish)
	if err != nil {
		return planErrorResponse(c, err, "Failed to import day")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"day": day})
}

func (h *PlanHandler) generateDay(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	planID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid plan ID",
		})
	}

	var req generateDayRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	day, err := h.planController.GenerateDay(
		c.UserContext(),
		user,
		planID,
		req.DayNumber,
		req.Publish,
	)
	if err != nil {
		return planErrorResponse(c, err, "Failed to generate day")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"day": day})
}

func planErrorResponse(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, plansController.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, plansController.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, plansController.ErrPermission):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fallback})
	}
}
