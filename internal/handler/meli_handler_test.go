package handler

import (
	"context"
	"net/http/httptest"
	"testing"

	"go-2pack-wms/internal/meli"
	"go-2pack-wms/internal/model"
	"go-2pack-wms/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMeliService struct {
	testUserErr error
}

func (s *stubMeliService) AuthorizeURL(uuid.UUID) string                           { return "https://auth.example/consent" }
func (s *stubMeliService) HandleCallback(context.Context, string, uuid.UUID) error { return nil }
func (s *stubMeliService) Disconnect(context.Context, uuid.UUID) error             { return nil }
func (s *stubMeliService) GetAccount(uuid.UUID) (*model.MeliAccount, error) {
	return nil, service.ErrMeliNotConnected
}
func (s *stubMeliService) CreateTestUser(context.Context, uuid.UUID, string) (*meli.TestUser, error) {
	return nil, s.testUserErr
}

type stubSyncService struct {
	err error
}

func (s *stubSyncService) Run(context.Context, uuid.UUID, string) (*service.SyncReport, error) {
	return nil, s.err
}

func newMeliTestApp(meliSvc service.MeliService, syncSvc service.SyncService) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("org_id", uuid.New().String())
		c.Locals("user_id", uuid.New().String())
		return c.Next()
	})
	h := NewMeliHandler(meliSvc, syncSvc)
	app.Post("/api/v1/meli/sync", h.Sync)
	app.Post("/api/v1/meli/test-user", h.CreateTestUser)
	return app
}

func TestSyncWithoutLinkedAccountReturnsBadRequest(t *testing.T) {
	app := newMeliTestApp(&stubMeliService{}, &stubSyncService{err: service.ErrMeliNotConnected})

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/meli/sync", nil))

	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestSyncWithRejectedSessionReturnsUnauthorized(t *testing.T) {
	app := newMeliTestApp(&stubMeliService{}, &stubSyncService{err: service.ErrMeliReconnect})

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/meli/sync", nil))

	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestCreateTestUserWithoutLinkedAccountReturnsBadRequest(t *testing.T) {
	app := newMeliTestApp(&stubMeliService{testUserErr: service.ErrMeliNotConnected}, &stubSyncService{})

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/meli/test-user", nil))

	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}
