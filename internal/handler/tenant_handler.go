package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"notifyhub/internal/apikey"
	"notifyhub/internal/model"
	"notifyhub/pkg/database"
	"notifyhub/pkg/logger"
	"notifyhub/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateTenant handles tenant creation by a platform admin
func CreateTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("create")

	adminID, _ := c.Get("admin_id").(string)

	// Parse request
	var req struct {
		Email       string     `json:"email"`
		Plan        model.Plan `json:"plan"`
		IssueAPIKey bool       `json:"issueApiKey"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse tenant creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if strings.TrimSpace(req.Email) == "" {
		log.Warn("Empty tenant email")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant email cannot be empty"})
	}

	if !req.Plan.Valid() {
		log.Warn("Invalid plan", zap.String("plan", string(req.Plan)))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plan type, must be FREE, PRO or ULTRA"})
	}

	// Check if tenant already exists - track DB query
	defer prometheus.TrackDBOperation("query")(time.Now())
	var existing model.Tenant
	if result := database.GetDB().Where("email = ?", req.Email).First(&existing); result.Error == nil {
		log.Warn("Tenant already exists", zap.String("email", req.Email))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant already exists"})
	}

	tenant := model.Tenant{
		Email:       req.Email,
		Plan:        req.Plan,
		IsSuspended: false,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&tenant).Error; err != nil {
		// A racing duplicate insert lands here; the unique index is the
		// actual enforcement point, the pre-check above is only the
		// friendlier error path.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Warn("Tenant already exists", zap.String("email", req.Email))
			return c.JSON(http.StatusConflict, echo.Map{"error": "tenant already exists"})
		}
		log.Error("Failed to create tenant", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant creation failed"})
	}

	var keyResponse interface{}
	if req.IssueAPIKey {
		key, rawKey, err := apikey.GenerateForTenant(database.GetDB(), tenant.Email)
		if err != nil {
			log.Error("Failed to issue API key for new tenant", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "api key generation failed"})
		}
		// The plaintext key is visible in this response only.
		keyResponse = echo.Map{
			"id":        key.ID,
			"key":       rawKey,
			"isActive":  key.IsActive,
			"createdAt": key.CreatedAt,
		}
	}

	log.Info("Tenant created",
		zap.String("admin_id", adminID),
		zap.String("tenant_id", tenant.ID),
		zap.String("email", tenant.Email),
		zap.String("plan", string(tenant.Plan)))

	return c.JSON(http.StatusCreated, echo.Map{
		"tenant": tenant,
		"apiKey": keyResponse,
	})
}

// ListTenants retrieves tenants with optional filters and pagination
func ListTenants(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("list")

	// Parse query parameters for pagination
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}

	pageSize, _ := strconv.Atoi(c.QueryParam("pageSize"))
	if pageSize <= 0 {
		pageSize = 10
	}

	offset := (page - 1) * pageSize

	query := database.GetDB().Model(&model.Tenant{})

	// Filter by plan if specified
	if plan := c.QueryParam("plan"); plan != "" {
		if !model.Plan(plan).Valid() {
			log.Warn("Invalid plan filter", zap.String("plan", plan))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plan type, must be FREE, PRO or ULTRA"})
		}
		query = query.Where("plan = ?", plan)
	}

	// Case-insensitive substring filter on email
	if q := c.QueryParam("q"); q != "" {
		query = query.Where("LOWER(email) LIKE ?", "%"+strings.ToLower(q)+"%")
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Error("Failed to count tenants", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve tenants"})
	}

	var tenants []model.Tenant
	result := query.
		Order("created_at desc").
		Limit(pageSize).
		Offset(offset).
		Find(&tenants)

	if result.Error != nil {
		log.Error("Failed to retrieve tenants", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve tenants"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": tenants,
		"meta": echo.Map{
			"total":      total,
			"page":       page,
			"pageSize":   pageSize,
			"totalPages": (total + int64(pageSize) - 1) / int64(pageSize),
		},
	})
}

// GetTenant retrieves a single tenant by ID or email. The identifier kind is
// distinguished by the presence of "@".
func GetTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("get")

	idOrEmail := c.Param("idOrEmail")

	defer prometheus.TrackDBOperation("query")(time.Now())

	query := database.GetDB()
	if strings.Contains(idOrEmail, "@") {
		query = query.Where("email = ?", idOrEmail)
	} else {
		query = query.Where("id = ?", idOrEmail)
	}

	var tenant model.Tenant
	if err := query.First(&tenant).Error; err != nil {
		log.Warn("Tenant not found", zap.String("id_or_email", idOrEmail))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	return c.JSON(http.StatusOK, tenant)
}

// UpdateTenantPlan changes a tenant's subscription plan
func UpdateTenantPlan(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("update_plan")

	email := c.Param("email")

	var req struct {
		Plan model.Plan `json:"plan"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse plan update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if !req.Plan.Valid() {
		log.Warn("Invalid plan", zap.String("plan", string(req.Plan)))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plan type, must be FREE, PRO or ULTRA"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	var tenant model.Tenant
	if err := database.GetDB().Where("email = ?", email).First(&tenant).Error; err != nil {
		log.Warn("Tenant not found", zap.String("email", email))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	// A no-op plan change is rejected, not silently accepted.
	if tenant.Plan == req.Plan {
		log.Warn("Plan unchanged", zap.String("email", email), zap.String("plan", string(req.Plan)))
		return c.JSON(http.StatusConflict, echo.Map{"error": "plan unchanged"})
	}

	previousPlan := tenant.Plan
	if err := database.GetDB().Model(&tenant).Update("plan", req.Plan).Error; err != nil {
		log.Error("Failed to update tenant plan", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "plan update failed"})
	}

	log.Info("Tenant plan changed",
		zap.String("tenant_id", tenant.ID),
		zap.String("email", tenant.Email),
		zap.String("from", string(previousPlan)),
		zap.String("to", string(req.Plan)))

	return c.JSON(http.StatusOK, tenant)
}

// UpdateTenantEmail changes a tenant's email, enforcing uniqueness
func UpdateTenantEmail(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("update_email")

	email := c.Param("email")

	var req struct {
		NewEmail string `json:"newEmail"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse email update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if strings.TrimSpace(req.NewEmail) == "" || !strings.Contains(req.NewEmail, "@") {
		log.Warn("Invalid email format", zap.String("new_email", req.NewEmail))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email format"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	var tenant model.Tenant
	if err := database.GetDB().Where("email = ?", email).First(&tenant).Error; err != nil {
		log.Warn("Tenant not found", zap.String("email", email))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	if tenant.Email == req.NewEmail {
		log.Warn("Email unchanged", zap.String("email", email))
		return c.JSON(http.StatusConflict, echo.Map{"error": "email unchanged"})
	}

	var existing model.Tenant
	if result := database.GetDB().Where("email = ?", req.NewEmail).First(&existing); result.Error == nil {
		log.Warn("Email already in use",
			zap.String("new_email", req.NewEmail),
			zap.String("holder_id", existing.ID))
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already in use"})
	}

	previousEmail := tenant.Email
	if err := database.GetDB().Model(&tenant).Update("email", req.NewEmail).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race against a concurrent claim of the same email.
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already in use"})
		}
		log.Error("Failed to update tenant email", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "email update failed"})
	}

	log.Info("Tenant email changed",
		zap.String("tenant_id", tenant.ID),
		zap.String("from", previousEmail),
		zap.String("to", req.NewEmail))

	return c.JSON(http.StatusOK, tenant)
}

// UpdateTenantSuspension sets the tenant kill switch. Suspending deactivates
// all currently-active API keys in the same transaction; unsuspending leaves
// keys deactivated - reactivation is a separate, explicit API key operation.
func UpdateTenantSuspension(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("suspend")

	email := c.Param("email")

	var req struct {
		IsSuspended *bool `json:"isSuspended"`
	}
	if err := c.Bind(&req); err != nil || req.IsSuspended == nil {
		log.Error("Failed to parse suspension request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "isSuspended (boolean) is required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	var tenant model.Tenant
	if err := database.GetDB().Where("email = ?", email).First(&tenant).Error; err != nil {
		log.Warn("Tenant not found", zap.String("email", email))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	var deactivated int64
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&tenant).Update("is_suspended", *req.IsSuspended).Error; err != nil {
			return err
		}
		if *req.IsSuspended {
			var err error
			deactivated, err = apikey.DeactivateAllForTenant(tx, tenant.ID)
			return err
		}
		return nil
	})
	if err != nil {
		log.Error("Failed to update tenant suspension", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "suspension update failed"})
	}

	var suspendedCount int64
	if err := database.GetDB().Model(&model.Tenant{}).Where("is_suspended = ?", true).Count(&suspendedCount).Error; err == nil {
		prometheus.SuspendedTenantsGauge.Set(float64(suspendedCount))
	}

	message := "Tenant reactivated (API keys remain inactive)"
	if *req.IsSuspended {
		message = "Tenant suspended and API keys deactivated"
		log.Info("Tenant suspended",
			zap.String("tenant_id", tenant.ID),
			zap.String("email", tenant.Email),
			zap.Int64("deactivated_keys", deactivated))
	} else {
		log.Info("Tenant reactivated",
			zap.String("tenant_id", tenant.ID),
			zap.String("email", tenant.Email))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":         message,
		"deactivatedKeys": deactivated,
		"tenant": echo.Map{
			"email":       tenant.Email,
			"isSuspended": *req.IsSuspended,
			"plan":        tenant.Plan,
		},
	})
}
