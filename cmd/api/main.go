package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-2pack-wms/internal/handler"
	"go-2pack-wms/internal/meli"
	"go-2pack-wms/internal/middleware"
	"go-2pack-wms/internal/model"
	"go-2pack-wms/internal/repository"
	"go-2pack-wms/internal/service"
	"go-2pack-wms/internal/ws"
	"go-2pack-wms/pkg/database"
	"go-2pack-wms/pkg/jwt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// 2. Setup Database
	db := database.ConnectDB()
	db.AutoMigrate(
		&model.Organization{},
		&model.Product{},
		&model.Shipment{},
		&model.ShipmentItem{},
		&model.Scan{},
		&model.Inventory{},
		&model.MeliAccount{},
		&model.User{},
		&model.Privilege{},
		&model.Role{},
		&model.UserInvite{},
	)

	// 3. Seed default privileges, roles, organization, and admin user
	seedDefaults(db)

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 5. Marketplace client from env
	meliClient, err := meli.NewClient(meli.Config{
		ClientID:     os.Getenv("MELI_CLIENT_ID"),
		ClientSecret: os.Getenv("MELI_CLIENT_SECRET"),
		RedirectURI:  os.Getenv("MELI_REDIRECT_URI"),
		BaseURL:      os.Getenv("MELI_API_URL"),
	})
	if err != nil {
		log.Printf("Warning: marketplace integration disabled: %v", err)
	}

	// 6. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	shipmentRepo := repository.NewShipmentRepo(db)
	scanRepo := repository.NewScanRepo(db)
	inventoryRepo := repository.NewInventoryRepo(db)
	accountRepo := repository.NewMeliAccountRepo(db)
	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	inviteRepo := repository.NewInviteRepo(db)

	catalogService := service.NewCatalogService(productRepo, db, wsHub)
	shipmentService := service.NewShipmentService(shipmentRepo, productRepo)
	pickingService := service.NewPickingService(shipmentRepo, productRepo, scanRepo, inventoryRepo, db, wsHub)
	dashService := service.NewDashboardService(scanRepo)
	authService := service.NewAuthService(userRepo, wsHub)
	userService := service.NewUserService(userRepo, privilegeRepo, roleRepo, inviteRepo)

	productHandler := handler.NewProductHandler(catalogService)
	shipmentHandler := handler.NewShipmentHandler(shipmentService)
	pickingHandler := handler.NewPickingHandler(pickingService)
	dashHandler := handler.NewDashboardHandler(dashService)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleRepo, privilegeRepo)

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "2pack WMS v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 8. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/validate-token", authHandler.ValidateToken)
	auth.Post("/accept-invite", userHandler.AcceptInvite)
	auth.Post("/heartbeat", middleware.RequireAuth(userRepo), authHandler.Heartbeat)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(userRepo))

	// Dashboard
	protected.Get("/dashboard/stats", middleware.RequirePrivilege("dashboard:view"), dashHandler.GetStats)
	protected.Get("/dashboard/scan-movement", middleware.RequirePrivilege("dashboard:view"), dashHandler.GetScanMovement)

	// Product catalog
	protected.Get("/products", middleware.RequirePrivilege("product:view"), productHandler.GetAll)
	protected.Get("/products/:id", middleware.RequirePrivilege("product:view"), productHandler.GetByID)
	protected.Post("/products", middleware.RequirePrivilege("product:create"), productHandler.Create)
	protected.Put("/products/:id", middleware.RequirePrivilege("product:update"), productHandler.Update)
	protected.Delete("/products/:id", middleware.RequirePrivilege("product:delete"), productHandler.Delete)

	// Shipments and picking
	protected.Get("/shipments", middleware.RequirePrivilege("shipment:view"), shipmentHandler.GetAll)
	protected.Get("/shipments/:id", middleware.RequirePrivilege("shipment:view"), shipmentHandler.GetByID)
	protected.Post("/shipments", middleware.RequirePrivilege("shipment:create"), shipmentHandler.Create)
	protected.Post("/shipments/:id/scan", middleware.RequirePrivilege("picking:scan"), pickingHandler.Scan)
	protected.Post("/shipments/:id/close", middleware.RequirePrivilege("picking:close"), pickingHandler.CloseBox)

	// Marketplace linkage (only when client credentials are configured)
	if meliClient != nil {
		tokenService := service.NewMeliTokenService(accountRepo, meliClient)
		meliService := service.NewMeliService(accountRepo, tokenService, meliClient)
		syncService := service.NewSyncService(accountRepo, productRepo, shipmentRepo, tokenService, meliClient, db, wsHub)
		meliHandler := handler.NewMeliHandler(meliService, syncService)

		api.Get("/meli/callback", meliHandler.Callback) // OAuth redirect target, no session yet
		protected.Get("/meli/authorize", middleware.RequirePrivilege("meli:manage"), meliHandler.Authorize)
		protected.Get("/meli/status", middleware.RequirePrivilege("meli:manage"), meliHandler.Status)
		protected.Post("/meli/sync", middleware.RequirePrivilege("sync:run"), meliHandler.Sync)
		protected.Delete("/meli/disconnect", middleware.RequirePrivilege("meli:manage"), meliHandler.Disconnect)
		protected.Post("/meli/test-user", middleware.RequirePrivilege("meli:manage"), meliHandler.CreateTestUser)
	} else {
		api.All("/meli/*", func(c *fiber.Ctx) error {
			return c.Status(503).JSON(fiber.Map{"error": "Marketplace integration not configured"})
		})
	}

	// User management
	protected.Get("/users", middleware.RequirePrivilege("user:view"), userHandler.GetAll)
	protected.Get("/users/invites", middleware.RequirePrivilege("user:invite"), userHandler.GetInvites)
	protected.Post("/users/invites", middleware.RequirePrivilege("user:invite"), userHandler.Invite)
	protected.Delete("/users/invites/:id", middleware.RequirePrivilege("user:invite"), userHandler.RevokeInvite)
	protected.Get("/users/:id", middleware.RequirePrivilege("user:view"), userHandler.GetByID)
	protected.Post("/users", middleware.RequirePrivilege("user:create"), userHandler.Create)
	protected.Put("/users/:id", middleware.RequirePrivilege("user:update"), userHandler.Update)
	protected.Delete("/users/:id", middleware.RequirePrivilege("user:delete"), userHandler.Delete)
	protected.Put("/users/:id/privileges", middleware.RequirePrivilege("user:update_privilege"), userHandler.UpdatePrivileges)

	// Roles and privileges
	protected.Get("/roles", roleHandler.GetAll)
	protected.Get("/privileges", roleHandler.GetPrivileges)

	// Broadcast WebSocket (dashboards subscribe to scan/sync events)
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// Picking session WebSocket: keystrokes in, scan results out.
	// Browsers cannot set headers on upgrade, so the JWT rides a query param.
	app.Use("/ws/picking/:id", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return c.SendStatus(fiber.StatusUpgradeRequired)
		}
		claims, err := jwt.ValidateToken(c.Query("token"))
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		c.Locals("user_id", claims.UserID.String())
		return c.Next()
	})
	app.Get("/ws/picking/:id", websocket.New(pickingHandler.Session))

	// 9. Graceful Shutdown
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// seedDefaults creates default privileges, roles, the default organization,
// and the admin user if they don't exist
func seedDefaults(db *gorm.DB) {
	privilegeRepo := repository.NewPrivilegeRepo(db)
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	orgRepo := repository.NewOrganizationRepo(db)

	// 1. Seed privileges first
	if err := privilegeRepo.SeedDefaults(); err != nil {
		log.Printf("Warning: Failed to seed privileges: %v", err)
	}

	// 2. Seed roles
	if err := roleRepo.SeedDefaults(); err != nil {
		log.Printf("Warning: Failed to seed roles: %v", err)
	}

	// 3. Assign privileges to roles
	allPrivileges, _ := privilegeRepo.FindAll()

	// MASTER_ADMIN gets ALL privileges
	masterRole, err := roleRepo.FindByCode(model.RoleMasterAdmin)
	if err == nil && len(masterRole.Privileges) == 0 {
		db.Model(&masterRole).Association("Privileges").Replace(allPrivileges)
		log.Println("✅ MASTER_ADMIN role assigned all privileges")
	}

	// ADMIN gets everything except user management
	adminRole, err := roleRepo.FindByCode(model.RoleAdmin)
	if err == nil && len(adminRole.Privileges) == 0 {
		adminPrivileges := []model.Privilege{}
		for _, p := range allPrivileges {
			if p.Code != "user:create" && p.Code != "user:update" && p.Code != "user:delete" && p.Code != "user:update_privilege" {
				adminPrivileges = append(adminPrivileges, p)
			}
		}
		db.Model(&adminRole).Association("Privileges").Replace(adminPrivileges)
		log.Println("✅ ADMIN role assigned limited privileges")
	}

	// OPERATOR gets the picking-floor subset
	operatorRole, err := roleRepo.FindByCode(model.RoleOperator)
	if err == nil && len(operatorRole.Privileges) == 0 {
		operatorPrivileges, err := privilegeRepo.FindByCodes(model.OperatorPrivilegeCodes)
		if err == nil {
			db.Model(&operatorRole).Association("Privileges").Replace(operatorPrivileges)
			log.Println("✅ OPERATOR role assigned picking privileges")
		}
	}

	// 4. Default organization
	org, err := orgRepo.FindByName("Default Warehouse")
	if err != nil {
		org = &model.Organization{Name: "Default Warehouse"}
		org.CreatedBy = "system"
		org.UpdatedBy = "system"
		if err := orgRepo.Create(org); err != nil {
			log.Printf("Warning: Failed to create default organization: %v", err)
			return
		}
		log.Println("✅ Default organization created")
	}

	// 5. Create default admin user with MASTER_ADMIN role
	_, err = userRepo.FindByEmail("admin@example.com")
	if err != nil {
		masterRole, _ := roleRepo.FindByCode(model.RoleMasterAdmin)

		admin := &model.User{
			OrganizationID: org.ID,
			Email:          "admin@example.com",
			FullName:       "Master Administrator",
			RoleID:         &masterRole.ID,
			IsActive:       true,
			Privileges:     masterRole.Privileges,
		}
		admin.CreatedBy = "system"
		admin.UpdatedBy = "system"

		if err := admin.SetPassword("admin123"); err != nil {
			log.Printf("Warning: Failed to hash admin password: %v", err)
			return
		}

		if err := userRepo.Create(admin); err != nil {
			log.Printf("Warning: Failed to create admin user: %v", err)
		} else {
			log.Println("✅ Admin user created: admin@example.com / admin123 (MASTER_ADMIN)")
		}
	}
}
