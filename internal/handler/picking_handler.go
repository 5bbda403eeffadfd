package handler

import (
	"errors"
	"strings"

	"go-2pack-wms/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PickingHandler struct {
	pickingService service.PickingService
}

func NewPickingHandler(pickingService service.PickingService) *PickingHandler {
	return &PickingHandler{pickingService: pickingService}
}

// ScanRequest carries one barcode event from the scanner gun
type ScanRequest struct {
	Barcode string `json:"barcode"`
}

// CloseBoxRequest carries the scale reading at box closure
type CloseBoxRequest struct {
	ActualWeightKg decimal.Decimal `json:"actual_weight_kg"`
}

// Scan runs one barcode through the verification pipeline.
// Divergences come back as 200 with a divergence status; the session
// must never break on a bad scan.
// POST /api/v1/shipments/:id/scan
func (h *PickingHandler) Scan(c *fiber.Ctx) error {
	shipmentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid shipment ID"})
	}

	var req ScanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	barcode := strings.TrimSpace(req.Barcode)
	if barcode == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Barcode is required"})
	}

	operatorID, err := uuid.Parse(userIDFromContext(c))
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	result, err := h.pickingService.ProcessScan(shipmentID, barcode, operatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "Shipment not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Failed to process scan"})
	}

	return c.JSON(result)
}

// CloseBox reconciles the actual scale weight against the theoretical
// weight and completes the shipment when it lands inside tolerance.
// POST /api/v1/shipments/:id/close
func (h *PickingHandler) CloseBox(c *fiber.Ctx) error {
	shipmentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid shipment ID"})
	}

	var req CloseBoxRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if req.ActualWeightKg.LessThanOrEqual(decimal.Zero) {
		return c.Status(400).JSON(fiber.Map{"error": "actual_weight_kg must be greater than zero"})
	}

	operatorID, err := uuid.Parse(userIDFromContext(c))
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	result, err := h.pickingService.CloseBox(shipmentID, req.ActualWeightKg, operatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "Shipment not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Failed to close box"})
	}

	return c.JSON(result)
}
