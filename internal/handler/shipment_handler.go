package handler

import (
	"errors"

	"go-2pack-wms/internal/model"
	"go-2pack-wms/internal/repository"
	"go-2pack-wms/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShipmentHandler struct {
	shipmentService service.ShipmentService
}

func NewShipmentHandler(shipmentService service.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{shipmentService: shipmentService}
}

// GetAll lists shipments, optionally filtered by type and status
// GET /api/v1/shipments?type=outbound&status=pending
func (h *ShipmentHandler) GetAll(c *fiber.Ctx) error {
	orgID, err := orgFromContext(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	filter := repository.ShipmentFilter{
		Type:   model.ShipmentType(c.Query("type")),
		Status: model.ShipmentStatus(c.Query("status")),
	}

	shipments, err := h.shipmentService.GetAll(orgID, filter)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch shipments"})
	}

	return c.JSON(shipments)
}

// GetByID returns a shipment with its lines and picking progress
// GET /api/v1/shipments/:id
func (h *ShipmentHandler) GetByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid shipment ID"})
	}

	shipment, err := h.shipmentService.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "Shipment not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch shipment"})
	}

	return c.JSON(fiber.Map{
		"shipment":              shipment,
		"progress":              shipment.Progress(),
		"theoretical_weight_kg": shipment.TheoreticalWeightKg(),
	})
}

// Create registers a manual draft shipment
// POST /api/v1/shipments
func (h *ShipmentHandler) Create(c *fiber.Ctx) error {
	orgID, err := orgFromContext(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req service.CreateShipmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	shipment, err := h.shipmentService.CreateDraft(&req, orgID, userIDFromContext(c))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(201).JSON(shipment)
}
