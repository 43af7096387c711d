package handlers

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"lapak/internal/repositories"
	"lapak/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ReturnHandler handles HTTP requests for returns (RMA).
type ReturnHandler struct {
	service  *services.ReturnService
	validate *validator.Validate
}

// NewReturnHandler creates a new ReturnHandler.
func NewReturnHandler(service *services.ReturnService) *ReturnHandler {
	return &ReturnHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the customer-facing return routes.
func (h *ReturnHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/orders/:id/returns", h.HandleCreateReturn)
	router.Get("/returns/:id", h.HandleGetReturn)
}

// RegisterAdminRoutes registers the admin return routes.
func (h *ReturnHandler) RegisterAdminRoutes(router fiber.Router) {
	returnRoutes := router.Group("/returns")
	returnRoutes.Get("/", h.HandleGetReturns)
	returnRoutes.Patch("/:id/status", h.HandleTransitionReturn)
}

// HandleCreateReturn files an RMA against a delivered order.
func (h *ReturnHandler) HandleCreateReturn(c *fiber.Ctx) error {
	orderID := c.Params("id")

	var req services.ReturnRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing return request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}

	ret, err := h.service.CreateReturn(orderID, req)
	if err != nil {
		if errors.Is(err, repositories.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Order with ID %s not found", orderID),
			})
		}
		if strings.Contains(err.Error(), "only delivered orders") ||
			strings.Contains(err.Error(), "does not belong") ||
			strings.Contains(err.Error(), "exceeds ordered quantity") {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": err.Error(),
			})
		}
		log.Printf("Error creating return for order %s: %v", orderID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create return",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(ret)
}

// HandleGetReturn retrieves a return by its ID.
func (h *ReturnHandler) HandleGetReturn(c *fiber.Ctx) error {
	returnID := c.Params("id")
	ret, err := h.service.GetReturn(returnID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Return with ID %s not found", returnID),
			})
		}
		log.Printf("Error getting return %s: %v", returnID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve return",
			"error":   err.Error(),
		})
	}
	return c.JSON(ret)
}

// HandleGetReturns retrieves all returns.
func (h *ReturnHandler) HandleGetReturns(c *fiber.Ctx) error {
	returns, err := h.service.GetAllReturns()
	if err != nil {
		log.Printf("Error getting all returns: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve returns",
			"error":   err.Error(),
		})
	}
	return c.JSON(returns)
}

// HandleTransitionReturn moves a return along its status machine. Completing
// a return triggers stock replenishment, the parent order's refund flip and
// the credit note.
func (h *ReturnHandler) HandleTransitionReturn(c *fiber.Ctx) error {
	returnID := c.Params("id")
	var updateData struct {
		Status string `json:"status"`
	}

	if err := c.BodyParser(&updateData); err != nil {
		log.Printf("Error parsing request body for return transition: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body for return transition",
			"error":   err.Error(),
		})
	}

	if updateData.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Status is required for return transition.",
		})
	}

	ret, err := h.service.TransitionReturn(returnID, updateData.Status)
	if err != nil {
		log.Printf("Error transitioning return %s: %v", returnID, err)
		if strings.Contains(err.Error(), "not found") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Return with ID %s not found", returnID),
			})
		}
		if strings.Contains(err.Error(), "cannot move from") {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update return status",
			"error":   err.Error(),
		})
	}

	return c.JSON(ret)
}
