package handler

import (
	"errors"
	"net/http"
	"time"

	"notifyhub/internal/middleware"
	"notifyhub/internal/model"
	"notifyhub/pkg/database"
	"notifyhub/pkg/logger"
	"notifyhub/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateUser registers an end user of the authenticated tenant
func CreateUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordUserOperation("create")

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		log.Error("Missing tenant in context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		ExternalID string `json:"externalId"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse user creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.ExternalID == "" {
		log.Warn("Missing externalId")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "externalId is required"})
	}

	// Check for an existing user with the same external ID - track DB query
	defer prometheus.TrackDBOperation("query")(time.Now())
	var existing model.User
	result := database.GetDB().
		Where("tenant_id = ? AND external_id = ?", tenant.ID, req.ExternalID).
		First(&existing)
	if result.Error == nil {
		log.Warn("Duplicate user",
			zap.String("tenant_id", tenant.ID),
			zap.String("external_id", req.ExternalID))
		return c.JSON(http.StatusConflict, echo.Map{"error": "externalId already exists"})
	}

	user := model.User{
		ExternalID: req.ExternalID,
		TenantID:   tenant.ID,
		IsActive:   true,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "externalId already exists"})
		}
		log.Error("Failed to create user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "user creation failed"})
	}

	log.Info("User created",
		zap.String("tenant_id", tenant.ID),
		zap.String("user_id", user.ID),
		zap.String("external_id", user.ExternalID))

	return c.JSON(http.StatusCreated, echo.Map{
		"id":         user.ID,
		"externalId": user.ExternalID,
		"createdAt":  user.CreatedAt,
	})
}

// SetUserActiveState activates or deactivates a user. Deactivation cancels
// the user's queued and in-flight notifications.
func SetUserActiveState(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordUserOperation("set_active")

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		log.Error("Missing tenant in context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	externalID := c.Param("externalId")

	var req struct {
		IsActive *bool `json:"isActive"`
	}
	if err := c.Bind(&req); err != nil || req.IsActive == nil {
		log.Warn("Missing isActive flag")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "isActive (boolean) is required"})
	}

	if err := setActiveState(database.GetDB(), tenant.ID, externalID, *req.IsActive); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("User not found",
				zap.String("tenant_id", tenant.ID),
				zap.String("external_id", externalID))
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		log.Error("Failed to update user state", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "user update failed"})
	}

	log.Info("User active state changed",
		zap.String("tenant_id", tenant.ID),
		zap.String("external_id", externalID),
		zap.Bool("is_active", *req.IsActive))

	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"externalId": externalID,
		"isActive":   *req.IsActive,
	})
}

// DeleteUser removes a user. With force=true the user and all owned
// subscriptions and notifications are hard-deleted; otherwise the user is
// deactivated (soft delete) with the same notification cancellation cascade.
func DeleteUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordUserOperation("delete")

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		log.Error("Missing tenant in context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	externalID := c.Param("externalId")
	force := c.QueryParam("force") == "true"

	defer prometheus.TrackDBOperation("delete")(time.Now())

	if !force {
		if err := setActiveState(database.GetDB(), tenant.ID, externalID, false); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
			}
			log.Error("Failed to soft-delete user", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "user deletion failed"})
		}

		log.Info("User soft-deleted",
			zap.String("tenant_id", tenant.ID),
			zap.String("external_id", externalID))
		return c.JSON(http.StatusOK, echo.Map{"success": true, "deleted": false})
	}

	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.Where("tenant_id = ? AND external_id = ?", tenant.ID, externalID).
			First(&user).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&model.Subscription{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&model.Notification{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		log.Error("Failed to hard-delete user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "user deletion failed"})
	}

	log.Info("User hard-deleted",
		zap.String("tenant_id", tenant.ID),
		zap.String("external_id", externalID))

	return c.JSON(http.StatusOK, echo.Map{"success": true, "deleted": true})
}

// setActiveState flips a user's active flag; deactivation transitions the
// user's QUEUED and SENDING notifications to CANCELED.
func setActiveState(db *gorm.DB, tenantID, externalID string, isActive bool) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.Where("tenant_id = ? AND external_id = ?", tenantID, externalID).
			First(&user).Error; err != nil {
			return err
		}

		if err := tx.Model(&user).Update("is_active", isActive).Error; err != nil {
			return err
		}

		if !isActive {
			if err := tx.Model(&model.Notification{}).
				Where("user_id = ? AND status IN ?", user.ID,
					[]model.NotificationStatus{model.NotificationQueued, model.NotificationSending}).
				Update("status", model.NotificationCanceled).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
