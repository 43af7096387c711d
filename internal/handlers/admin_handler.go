package handlers

import (
	"log"
	"strconv"

	"lapak/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler serves the admin reporting endpoints.
type AdminHandler struct {
	reports *services.ReportService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(reports *services.ReportService) *AdminHandler {
	return &AdminHandler{
		reports: reports,
	}
}

// RegisterRoutes registers the reporting routes. Callers must mount these
// behind AuthRequired and AdminRequired.
func (h *AdminHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/reports/sales", h.HandleSalesReport)
}

// HandleSalesReport serves the order/revenue aggregation.
func (h *AdminHandler) HandleSalesReport(c *fiber.Ctx) error {
	topN, _ := strconv.Atoi(c.Query("top", "5"))

	report, err := h.reports.Sales(topN)
	if err != nil {
		log.Printf("Error building sales report: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not build sales report",
			"error":   err.Error(),
		})
	}
	return c.JSON(report)
}
