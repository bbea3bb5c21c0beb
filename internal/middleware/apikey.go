package middleware

import (
	"errors"
	"net/http"

	"notifyhub/internal/apikey"
	"notifyhub/internal/model"
	"notifyhub/pkg/database"
	"notifyhub/pkg/logger"
	"notifyhub/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// APIKeyHeader is the header carrying the tenant API key.
const APIKeyHeader = "x-api-key"

// APIKeyAuthMiddleware gates every tenant-scoped endpoint. The checks run in
// a fixed order and the first failure wins: missing header, unknown key,
// inactive key, suspended tenant. An inactive key on a suspended tenant
// therefore reports "api key inactive".
func APIKeyAuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		rawKey := c.Request().Header.Get(APIKeyHeader)
		if rawKey == "" {
			log.Warn("Missing x-api-key header")
			prometheus.RecordAuthError("missing_api_key")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing x-api-key"})
		}

		var key model.APIKey
		err := database.GetDB().Preload("Tenant").
			Where("key_hash = ?", apikey.HashKey(rawKey)).
			First(&key).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Warn("Unknown API key presented")
				prometheus.RecordAuthError("api_key_not_found")
				return c.JSON(http.StatusForbidden, echo.Map{"error": "api key not found"})
			}
			log.Error("Failed to look up API key", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}

		if !key.IsActive {
			log.Warn("Inactive API key presented", zap.String("key_id", key.ID))
			prometheus.RecordAuthError("api_key_inactive")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "api key inactive"})
		}

		if key.Tenant.IsSuspended {
			log.Warn("API key of suspended tenant presented",
				zap.String("key_id", key.ID),
				zap.String("tenant_id", key.TenantID))
			prometheus.RecordAuthError("tenant_suspended")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant suspended"})
		}

		// Attach the resolved tenant for downstream handlers; no other side effect.
		c.Set("tenant", &key.Tenant)

		return next(c)
	}
}

// TenantFromContext returns the tenant attached by APIKeyAuthMiddleware.
func TenantFromContext(c echo.Context) (*model.Tenant, bool) {
	tenant, ok := c.Get("tenant").(*model.Tenant)
	return tenant, ok
}
