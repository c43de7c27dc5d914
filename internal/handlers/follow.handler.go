package handlers

import (
	"errors"

	"nutriplan/internal/app"
	followsController "nutriplan/internal/controllers/follows"
	"nutriplan/internal/handlers/middleware"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type FollowHandler struct {
	Handler
	followController followsController.FollowControllerInterface
}

func NewFollowHandler(app app.App, router fiber.Router) *FollowHandler {
	return &FollowHandler{
		followController: app.Controllers.Follow,
		Handler: Handler{
			log:        logger.New("handlers").File("follow_handler"),
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *FollowHandler) Register() {
	follows := h.router.Group("/follows", h.middleware.RequireAuth())
	follows.Get("", h.listFollows)
	follows.Post("/:planId", h.follow)
	follows.Delete("/:planId", h.unfollow)
}

func (h *FollowHandler) listFollows(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	follows, err := h.followController.ListFollows(c.UserContext(), user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list follows",
		})
	}

	return c.JSON(fiber.Map{"follows": follows})
}

func (h *FollowHandler) follow(c *fiber.Ctx) error {
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

	follow, err := h.followController.Follow(c.UserContext(), user, planID)
	if err != nil {
		return followErrorResponse(c, err, "Failed to follow plan")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"follow": follow})
}

func (h *FollowHandler) unfollow(c *fiber.Ctx) error {
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

	follow, err := h.followController.Unfollow(c.UserContext(), user, planID)
	if err != nil {
		return followErrorResponse(c, err, "Failed to unfollow plan")
	}

	return c.JSON(fiber.Map{"follow": follow})
}

func followErrorResponse(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, followsController.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, followsController.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fallback})
	}
}
