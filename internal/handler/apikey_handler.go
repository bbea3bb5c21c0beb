package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"notifyhub/internal/apikey"
	"notifyhub/pkg/database"
	"notifyhub/pkg/logger"
	"notifyhub/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CreateAPIKey issues a new API key for a tenant. The plaintext key appears
// in this response and nowhere else, ever.
func CreateAPIKey(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAPIKeyOperation("generate")

	tenantEmail := c.Param("tenantEmail")

	defer prometheus.TrackDBOperation("insert")(time.Now())

	key, rawKey, err := apikey.GenerateForTenant(database.GetDB(), tenantEmail)
	if err != nil {
		if errors.Is(err, apikey.ErrTenantNotFound) {
			log.Warn("Tenant not found", zap.String("email", tenantEmail))
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		log.Error("Failed to generate API key", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "api key generation failed"})
	}

	log.Info("API key issued",
		zap.String("tenant_email", tenantEmail),
		zap.String("key_id", key.ID))

	return c.JSON(http.StatusCreated, echo.Map{
		"id":        key.ID,
		"key":       rawKey,
		"isActive":  key.IsActive,
		"createdAt": key.CreatedAt,
	})
}

// ListAPIKeys lists a tenant's keys, newest first. Only id, createdAt and
// isActive are exposed.
func ListAPIKeys(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAPIKeyOperation("list")

	tenantEmail := c.Param("tenantEmail")

	defer prometheus.TrackDBOperation("query")(time.Now())

	keys, err := apikey.ListTenantKeys(database.GetDB(), tenantEmail)
	if err != nil {
		if errors.Is(err, apikey.ErrTenantNotFound) {
			log.Warn("Tenant not found", zap.String("email", tenantEmail))
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		log.Error("Failed to list API keys", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list api keys"})
	}

	if len(keys) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no api keys found for this tenant"})
	}

	return c.JSON(http.StatusOK, keys)
}

// DeactivateAPIKey deactivates keys selected by mode or ID
func DeactivateAPIKey(c echo.Context) error {
	return updateAPIKeyStatus(c, false)
}

// ReactivateAPIKey reactivates keys selected by mode or ID
func ReactivateAPIKey(c echo.Context) error {
	return updateAPIKeyStatus(c, true)
}

func updateAPIKeyStatus(c echo.Context, isActive bool) error {
	log := logger.FromContext(c)

	action := "deactivated"
	if isActive {
		prometheus.RecordAPIKeyOperation("reactivate")
		action = "reactivated"
	} else {
		prometheus.RecordAPIKeyOperation("deactivate")
	}

	tenantEmail := c.Param("tenantEmail")
	sel := apikey.ParseSelector(c.Param("keyIdOrMode"))

	defer prometheus.TrackDBOperation("update")(time.Now())

	update, err := apikey.UpdateStatusByMode(database.GetDB(), tenantEmail, sel, isActive)
	if err != nil {
		switch {
		case errors.Is(err, apikey.ErrTenantNotFound):
			log.Warn("Tenant not found", zap.String("email", tenantEmail))
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		case errors.Is(err, apikey.ErrKeyNotFound):
			message := keyNotFoundMessage(sel, isActive)
			log.Warn("No matching API key", zap.String("email", tenantEmail))
			return c.JSON(http.StatusNotFound, echo.Map{"error": message})
		default:
			log.Error("Failed to update API key status", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "api key update failed"})
		}
	}

	log.Info("API key status updated",
		zap.String("tenant_email", tenantEmail),
		zap.Bool("is_active", isActive),
		zap.Int64("count", update.Count),
		zap.String("key_id", update.KeyID))

	if sel.Kind == apikey.SelectAll {
		return c.JSON(http.StatusOK, echo.Map{
			"message": fmt.Sprintf("All API keys (%d) %s successfully", update.Count, action),
			"count":   update.Count,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": fmt.Sprintf("API key %s successfully", action),
		"keyId":   update.KeyID,
	})
}

func keyNotFoundMessage(sel apikey.Selector, isActive bool) string {
	switch sel.Kind {
	case apikey.SelectLatest, apikey.SelectOldest:
		if isActive {
			return "no inactive keys found"
		}
		return "no active keys found"
	default:
		return "api key not found for this tenant"
	}
}
