package handler

import (
	"encoding/json"
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

// EmailChannelConfig is the SMTP settings payload for the EMAIL channel.
type EmailChannelConfig struct {
	SMTPHost string  `json:"smtpHost"`
	SMTPPort int     `json:"smtpPort"`
	User     *string `json:"user"`
	Pass     *string `json:"pass"`
	From     string  `json:"from"`
}

// ExpoPushChannelConfig is the settings payload for the EXPO_PUSH channel.
type ExpoPushChannelConfig struct {
	ProjectID string `json:"projectId"`
}

// CreateChannelConfig creates a delivery-provider configuration for the
// authenticated tenant. Each tenant may hold one config per channel.
func CreateChannelConfig(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("channel_config_create")

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		log.Error("Missing tenant in context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Channel        model.Channel          `json:"channel"`
		Email          *EmailChannelConfig    `json:"email"`
		ExpoPush       *ExpoPushChannelConfig `json:"expoPush"`
		AllowOverrides bool                   `json:"allowOverrides"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse channel config request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	configJSON, err := buildConfigJSON(req.Channel, req.Email, req.ExpoPush)
	if err != nil {
		log.Warn("Invalid channel config", zap.String("channel", string(req.Channel)), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	config := model.ChannelConfig{
		TenantID:       tenant.ID,
		Channel:        req.Channel,
		ConfigJSON:     configJSON,
		AllowOverrides: req.AllowOverrides,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&config).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Warn("Channel config already exists",
				zap.String("tenant_id", tenant.ID),
				zap.String("channel", string(req.Channel)))
			return c.JSON(http.StatusConflict, echo.Map{"error": "config already exists"})
		}
		log.Error("Failed to create channel config", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "channel config creation failed"})
	}

	log.Info("Channel config created",
		zap.String("tenant_id", tenant.ID),
		zap.String("channel", string(config.Channel)),
		zap.String("config_id", config.ID))

	return c.JSON(http.StatusCreated, echo.Map{
		"id":              config.ID,
		"tenant_id":       config.TenantID,
		"channel":         config.Channel,
		"allow_overrides": config.AllowOverrides,
		"created_at":      config.CreatedAt,
		"config_json":     sanitizeConfigJSON(config.Channel, config.ConfigJSON),
	})
}

// buildConfigJSON validates the per-channel payload and serializes it.
func buildConfigJSON(channel model.Channel, email *EmailChannelConfig, expoPush *ExpoPushChannelConfig) (string, error) {
	switch channel {
	case model.ChannelEmail:
		if email == nil || email.SMTPHost == "" || email.SMTPPort == 0 || email.From == "" {
			return "", errors.New("missing smtpHost/smtpPort/from")
		}
		if email.SMTPPort < 1 || email.SMTPPort > 65535 {
			return "", errors.New("smtpPort out of range")
		}
		data, err := json.Marshal(email)
		return string(data), err

	case model.ChannelExpoPush:
		if expoPush == nil || expoPush.ProjectID == "" {
			return "", errors.New("missing projectId")
		}
		data, err := json.Marshal(expoPush)
		return string(data), err

	default:
		return "", errors.New("unsupported channel")
	}
}

// sanitizeConfigJSON masks the SMTP password before the config is echoed
// back to the caller.
func sanitizeConfigJSON(channel model.Channel, configJSON string) json.RawMessage {
	if channel != model.ChannelEmail {
		return json.RawMessage(configJSON)
	}

	var cfg EmailChannelConfig
	if err := json.Unmarshal([]byte(configJSON), &cfg); err != nil {
		return json.RawMessage(configJSON)
	}
	if cfg.Pass != nil && *cfg.Pass != "" {
		masked := "********"
		cfg.Pass = &masked
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return json.RawMessage(configJSON)
	}
	return data
}
