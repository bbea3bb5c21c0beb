package handler

import (
	"net/http"
	"testing"

	"notifyhub/internal/model"
	"notifyhub/pkg/jwtutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func seedAdmin(t *testing.T, db *gorm.DB, email, password string) *model.AdminUser {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	admin := &model.AdminUser{
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RolePlatformAdmin,
	}
	require.NoError(t, db.Create(admin).Error)
	return admin
}

func TestAdminLogin(t *testing.T) {
	initTestHandlers(t)

	t.Run("valid credentials issue a usable token", func(t *testing.T) {
		db := setupTestDB(t)
		admin := seedAdmin(t, db, "admin@notifyhub.io", "s3cret")

		rec, body := doRequest(t, AdminLogin, http.MethodPost, "/admin/auth/login",
			`{"email":"admin@notifyhub.io","password":"s3cret"}`, nil)
		mustStatus(t, rec, http.StatusOK)

		assert.Equal(t, "Bearer", body["tokenType"])
		assert.Equal(t, float64(7200), body["expiresIn"])

		claims, err := jwtutil.ValidateToken(body["accessToken"].(string))
		require.NoError(t, err)
		assert.Equal(t, admin.ID, claims.Subject)
		assert.Equal(t, admin.Email, claims.Email)
		assert.Equal(t, string(model.RolePlatformAdmin), claims.Role)
	})

	t.Run("unknown admin", func(t *testing.T) {
		setupTestDB(t)

		rec, body := doRequest(t, AdminLogin, http.MethodPost, "/admin/auth/login",
			`{"email":"nobody@notifyhub.io","password":"s3cret"}`, nil)
		mustStatus(t, rec, http.StatusUnauthorized)
		assert.Equal(t, "invalid credentials", body["error"])
	})

	t.Run("wrong password is indistinguishable from unknown admin", func(t *testing.T) {
		db := setupTestDB(t)
		seedAdmin(t, db, "admin@notifyhub.io", "s3cret")

		rec, body := doRequest(t, AdminLogin, http.MethodPost, "/admin/auth/login",
			`{"email":"admin@notifyhub.io","password":"wrong"}`, nil)
		mustStatus(t, rec, http.StatusUnauthorized)
		assert.Equal(t, "invalid credentials", body["error"])
	})
}
