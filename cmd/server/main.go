package main

import (
	"notifyhub/internal/apikey"
	"notifyhub/internal/handler"
	"notifyhub/internal/middleware"
	"notifyhub/pkg/config"
	"notifyhub/pkg/database"
	"notifyhub/pkg/jwtutil"
	"notifyhub/pkg/logger"
	"notifyhub/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting NotifyHub admin service...", zap.String("environment", cfg.Server.Env))

	// Initialize database (includes migrations)
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established and migrations completed")

	// Initialize JWT utility and API key issuance
	jwtutil.Initialize(&cfg.JWT)
	apikey.Initialize(&cfg.APIKey)
	handler.InitAuthHandler(cfg)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Admin session
	e.POST("/admin/auth/login", handler.AdminLogin)

	// Admin routes - require a bearer token
	admin := e.Group("/admin")
	admin.Use(middleware.AdminAuthMiddleware)

	tenants := admin.Group("/tenants")
	tenants.POST("", handler.CreateTenant)
	tenants.GET("", handler.ListTenants)
	tenants.GET("/:idOrEmail", handler.GetTenant)
	tenants.PATCH("/:email/update-plan", handler.UpdateTenantPlan)
	tenants.PATCH("/:email/update-email", handler.UpdateTenantEmail)
	tenants.PATCH("/:email/suspend", handler.UpdateTenantSuspension)

	tenants.POST("/:tenantEmail/api-keys", handler.CreateAPIKey)
	tenants.GET("/:tenantEmail/api-keys", handler.ListAPIKeys)
	tenants.PATCH("/:tenantEmail/api-keys/:keyIdOrMode/deactivate", handler.DeactivateAPIKey)
	tenants.PATCH("/:tenantEmail/api-keys/:keyIdOrMode/reactivate", handler.ReactivateAPIKey)

	// Tenant-scoped routes - require a valid x-api-key
	users := e.Group("/users")
	users.Use(middleware.APIKeyAuthMiddleware)
	users.POST("", handler.CreateUser)
	users.PATCH("/:externalId/active", handler.SetUserActiveState)
	users.DELETE("/:externalId", handler.DeleteUser)

	channelConfigs := e.Group("/channel-configs")
	channelConfigs.Use(middleware.APIKeyAuthMiddleware)
	channelConfigs.POST("", handler.CreateChannelConfig)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
