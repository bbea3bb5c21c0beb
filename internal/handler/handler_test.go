package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"notifyhub/internal/apikey"
	"notifyhub/internal/model"
	"notifyhub/pkg/config"
	"notifyhub/pkg/database"
	"notifyhub/pkg/jwtutil"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory database, migrates the schema and installs
// it as the global connection used by the handlers.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	database.DB = db
	t.Cleanup(func() {
		database.DB = nil
		_ = sqlDB.Close()
	})

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			SigningKey:        "test-signing-key",
			ExpirationHours:   24,
			ReportedExpiresIn: 7200,
		},
		APIKey: config.APIKeyConfig{Prefix: "key_"},
	}
}

func initTestHandlers(t *testing.T) {
	t.Helper()
	cfg := testConfig()
	jwtutil.Initialize(&cfg.JWT)
	apikey.Initialize(&cfg.APIKey)
	InitAuthHandler(cfg)
}

// doRequest runs an echo handler against a fresh request and returns the
// recorder plus the decoded JSON body.
func doRequest(t *testing.T, h echo.HandlerFunc, method, path, body string, setup func(echo.Context)) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	e := echo.New()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if setup != nil {
		setup(c)
	}

	require.NoError(t, h(c))

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		var raw interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
		// Array bodies (e.g. list endpoints) yield a nil map; callers that
		// need the elements decode rec.Body themselves.
		decoded, _ = raw.(map[string]interface{})
	}
	return rec, decoded
}

func createTenant(t *testing.T, db *gorm.DB, email string, plan model.Plan) *model.Tenant {
	t.Helper()
	tenant := &model.Tenant{Email: email, Plan: plan}
	require.NoError(t, db.Create(tenant).Error)
	return tenant
}

func mustStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, "unexpected status, body: %s", rec.Body.String())
}

func TestHealthCheck(t *testing.T) {
	rec, body := doRequest(t, HealthCheck, http.MethodGet, "/health", "", nil)
	mustStatus(t, rec, http.StatusOK)
	require.Equal(t, "healthy", body["status"])
	require.Equal(t, "notifyhub", body["service"])
}
