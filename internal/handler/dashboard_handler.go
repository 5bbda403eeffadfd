package handler

import (
	"strconv"

	"go-2pack-wms/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
}

func NewDashboardHandler(dashboardService service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetStats returns the headline counters for the dashboard
// GET /api/v1/dashboard/stats
func (h *DashboardHandler) GetStats(c *fiber.Ctx) error {
	orgID, err := orgFromContext(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	stats, err := h.dashboardService.GetDashboardStats(orgID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch dashboard stats"})
	}

	return c.JSON(stats)
}

// GetScanMovement returns per-day scan counts for the movement chart
// GET /api/v1/dashboard/scan-movement?days=7
func (h *DashboardHandler) GetScanMovement(c *fiber.Ctx) error {
	orgID, err := orgFromContext(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	days, err := strconv.Atoi(c.Query("days", "7"))
	if err != nil || days < 1 || days > 90 {
		return c.Status(400).JSON(fiber.Map{"error": "days must be between 1 and 90"})
	}

	movement, err := h.dashboardService.GetScanMovement(orgID, days)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch scan movement"})
	}

	return c.JSON(movement)
}
