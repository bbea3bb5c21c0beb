package handler

import (
	"net/http"
	"time"

	"notifyhub/internal/model"
	"notifyhub/pkg/config"
	"notifyhub/pkg/database"
	"notifyhub/pkg/jwtutil"
	"notifyhub/pkg/logger"
	"notifyhub/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var jwtCfg *config.JWTConfig

// InitAuthHandler stores the JWT configuration needed by the login response.
func InitAuthHandler(cfg *config.Config) {
	jwtCfg = &cfg.JWT
}

// AdminLogin authenticates a platform admin and issues a session token
func AdminLogin(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	// Parse request
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	// Find admin in database - track DB operation duration
	defer prometheus.TrackDBOperation("query")(time.Now())
	var admin model.AdminUser
	result := database.GetDB().Where("email = ?", req.Email).First(&admin)
	if result.Error != nil {
		log.Warn("Admin not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("admin_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	// Generate session token
	token, err := jwtutil.GenerateAdminToken(admin.ID, admin.Email, string(admin.Role))
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("Admin logged in",
		zap.String("email", admin.Email),
		zap.String("role", string(admin.Role)))

	// expiresIn is a separately configured value and does not track the
	// signed token expiry. See pkg/config.JWTConfig.
	expiresIn := 7200
	if jwtCfg != nil {
		expiresIn = jwtCfg.ReportedExpiresIn
	}

	return c.JSON(http.StatusOK, echo.Map{
		"accessToken": token,
		"expiresIn":   expiresIn,
		"tokenType":   "Bearer",
	})
}

// MetricsHandler serves the Prometheus metrics endpoint
func MetricsHandler(c echo.Context) error {
	handler := prometheus.GetPrometheusHandler()
	handler.ServeHTTP(c.Response(), c.Request())
	return nil
}
