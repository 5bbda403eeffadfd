package handler

import (
	"errors"

	"go-2pack-wms/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type MeliHandler struct {
	meliService service.MeliService
	syncService service.SyncService
}

func NewMeliHandler(meliService service.MeliService, syncService service.SyncService) *MeliHandler {
	return &MeliHandler{
		meliService: meliService,
		syncService: syncService,
	}
}

// Authorize returns the marketplace consent URL for the organization
// GET /api/v1/meli/authorize
func (h *MeliHandler) Authorize(c *fiber.Ctx) error {
	orgID, err := orgFromContext(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	return c.JSON(fiber.Map{"authorize_url": h.meliService.AuthorizeURL(orgID)})
}

// Callback completes the OAuth code exchange. The state parameter carries
// the organization ID set when the consent URL was issued.
// GET /api/v1/meli/callback?code=...&state=...
func (h *MeliHandler) Callback(c *fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Query("state"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid state parameter"})
	}

	if err := h.meliService.HandleCallback(c.Context(), c.Query("code"), orgID); err != nil {
		if errors.Is(err, service.ErrMissingAuthCode) {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(502).JSON(fiber.Map{"error": "Token exchange failed: " + err.Error()})
	}

	return c.JSON(fiber.Map{"message": "Marketplace account connected"})
}

// Status reports whether the organization has a linked account
// GET /api/v1/meli/status
func (h *MeliHandler) Status(c *fiber.Ctx) error {
	orgID, err := orgFromContext(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	account, err := h.meliService.GetAccount(orgID)
	if err != nil {
		if errors.Is(err, service.ErrMeliNotConnected) {
			return c.JSON(fiber.Map{"connected": false})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch account"})
	}

	return c.JSON(fiber.Map{
		"connected":    true,
		"meli_user_id": account.MeliUserID,
		"expires_at":   account.ExpiresAt,
	})
}

// Sync runs one full reconciliation pass against the marketplace
// POST /api/v1/meli/sync
func (h *MeliHandler) Sync(c *fiber.Ctx) error {
	orgID, err := orgFromContext(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	report, err := h.syncService.Run(c.Context(), orgID, userIDFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMeliNotConnected):
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, service.ErrMeliReconnect):
			return c.Status(401).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(502).JSON(fiber.Map{"error": "Sync failed: " + err.Error()})
		}
	}

	return c.JSON(report)
}

// Disconnect unlinks the marketplace account
// DELETE /api/v1/meli/disconnect
func (h *MeliHandler) Disconnect(c *fiber.Ctx) error {
	orgID, err := orgFromContext(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	if err := h.meliService.Disconnect(c.Context(), orgID); err != nil {
		if errors.Is(err, service.ErrMeliNotConnected) {
			return c.Status(404).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Failed to disconnect"})
	}

	return c.JSON(fiber.Map{"message": "Marketplace account disconnected"})
}

// CreateTestUserRequest selects the sandbox site
type CreateTestUserRequest struct {
	SiteID string `json:"site_id"`
}

// CreateTestUser provisions a sandbox buyer for end-to-end testing
// POST /api/v1/meli/test-user
func (h *MeliHandler) CreateTestUser(c *fiber.Ctx) error {
	orgID, err := orgFromContext(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req CreateTestUserRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	user, err := h.meliService.CreateTestUser(c.Context(), orgID, req.SiteID)
	if err != nil {
		if errors.Is(err, service.ErrMeliNotConnected) {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(502).JSON(fiber.Map{"error": "Failed to create test user: " + err.Error()})
	}

	return c.Status(201).JSON(user)
}
