package handler

import (
	"net/http"
	"testing"

	"notifyhub/internal/model"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// asTenant injects the tenant the API key middleware would have attached.
func asTenant(tenant *model.Tenant, extra ...string) func(echo.Context) {
	return func(c echo.Context) {
		c.Set("tenant", tenant)
		if len(extra) > 1 {
			c.SetParamNames(extra[0])
			c.SetParamValues(extra[1])
		}
	}
}

func seedUser(t *testing.T, db *gorm.DB, tenantID, externalID string, active bool) *model.User {
	t.Helper()
	user := &model.User{ExternalID: externalID, TenantID: tenantID, IsActive: active}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedNotification(t *testing.T, db *gorm.DB, userID string, status model.NotificationStatus) *model.Notification {
	t.Helper()
	n := &model.Notification{UserID: userID, Status: status}
	require.NoError(t, db.Create(n).Error)
	return n
}

func TestCreateUser(t *testing.T) {
	initTestHandlers(t)

	t.Run("registers a user for the authenticated tenant", func(t *testing.T) {
		db := setupTestDB(t)
		tenant := createTenant(t, db, "t@x.io", model.PlanFree)

		rec, body := doRequest(t, CreateUser, http.MethodPost, "/users",
			`{"externalId":"u-1"}`, asTenant(tenant))
		mustStatus(t, rec, http.StatusCreated)
		assert.Equal(t, "u-1", body["externalId"])
		assert.NotEmpty(t, body["id"])

		var stored model.User
		require.NoError(t, db.First(&stored, "external_id = ?", "u-1").Error)
		assert.Equal(t, tenant.ID, stored.TenantID)
		assert.True(t, stored.IsActive)
	})

	t.Run("missing externalId", func(t *testing.T) {
		db := setupTestDB(t)
		tenant := createTenant(t, db, "t@x.io", model.PlanFree)

		rec, _ := doRequest(t, CreateUser, http.MethodPost, "/users",
			`{}`, asTenant(tenant))
		mustStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("duplicate externalId within the tenant", func(t *testing.T) {
		db := setupTestDB(t)
		tenant := createTenant(t, db, "t@x.io", model.PlanFree)
		seedUser(t, db, tenant.ID, "u-1", true)

		rec, body := doRequest(t, CreateUser, http.MethodPost, "/users",
			`{"externalId":"u-1"}`, asTenant(tenant))
		mustStatus(t, rec, http.StatusConflict)
		assert.Equal(t, "externalId already exists", body["error"])
	})

	t.Run("same externalId under another tenant is allowed", func(t *testing.T) {
		db := setupTestDB(t)
		first := createTenant(t, db, "t@x.io", model.PlanFree)
		second := createTenant(t, db, "other@x.io", model.PlanPro)
		seedUser(t, db, first.ID, "u-1", true)

		rec, _ := doRequest(t, CreateUser, http.MethodPost, "/users",
			`{"externalId":"u-1"}`, asTenant(second))
		mustStatus(t, rec, http.StatusCreated)
	})
}

func TestSetUserActiveState(t *testing.T) {
	initTestHandlers(t)

	t.Run("unknown user", func(t *testing.T) {
		db := setupTestDB(t)
		tenant := createTenant(t, db, "t@x.io", model.PlanFree)

		rec, _ := doRequest(t, SetUserActiveState, http.MethodPatch, "/users/u-1/active",
			`{"isActive":false}`, asTenant(tenant, "externalId", "u-1"))
		mustStatus(t, rec, http.StatusNotFound)
	})

	t.Run("missing flag", func(t *testing.T) {
		db := setupTestDB(t)
		tenant := createTenant(t, db, "t@x.io", model.PlanFree)
		seedUser(t, db, tenant.ID, "u-1", true)

		rec, _ := doRequest(t, SetUserActiveState, http.MethodPatch, "/users/u-1/active",
			`{}`, asTenant(tenant, "externalId", "u-1"))
		mustStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("deactivation cancels queued and in-flight notifications", func(t *testing.T) {
		db := setupTestDB(t)
		tenant := createTenant(t, db, "t@x.io", model.PlanFree)
		user := seedUser(t, db, tenant.ID, "u-1", true)
		queued := seedNotification(t, db, user.ID, model.NotificationQueued)
		sending := seedNotification(t, db, user.ID, model.NotificationSending)
		sent := seedNotification(t, db, user.ID, model.NotificationSent)

		rec, body := doRequest(t, SetUserActiveState, http.MethodPatch, "/users/u-1/active",
			`{"isActive":false}`, asTenant(tenant, "externalId", "u-1"))
		mustStatus(t, rec, http.StatusOK)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, false, body["isActive"])

		for _, n := range []*model.Notification{queued, sending} {
			var stored model.Notification
			require.NoError(t, db.First(&stored, "id = ?", n.ID).Error)
			assert.Equal(t, model.NotificationCanceled, stored.Status)
		}

		// Terminal states are left alone.
		var stored model.Notification
		require.NoError(t, db.First(&stored, "id = ?", sent.ID).Error)
		assert.Equal(t, model.NotificationSent, stored.Status)
	})

	t.Run("reactivation does not touch notifications", func(t *testing.T) {
		db := setupTestDB(t)
		tenant := createTenant(t, db, "t@x.io", model.PlanFree)
		user := seedUser(t, db, tenant.ID, "u-1", false)
		canceled := seedNotification(t, db, user.ID, model.NotificationCanceled)

		rec, _ := doRequest(t, SetUserActiveState, http.MethodPatch, "/users/u-1/active",
			`{"isActive":true}`, asTenant(tenant, "externalId", "u-1"))
		mustStatus(t, rec, http.StatusOK)

		var storedUser model.User
		require.NoError(t, db.First(&storedUser, "id = ?", user.ID).Error)
		assert.True(t, storedUser.IsActive)

		var stored model.Notification
		require.NoError(t, db.First(&stored, "id = ?", canceled.ID).Error)
		assert.Equal(t, model.NotificationCanceled, stored.Status)
	})
}

func TestDeleteUser(t *testing.T) {
	initTestHandlers(t)

	t.Run("soft delete deactivates and cancels notifications", func(t *testing.T) {
		db := setupTestDB(t)
		tenant := createTenant(t, db, "t@x.io", model.PlanFree)
		user := seedUser(t, db, tenant.ID, "u-1", true)
		queued := seedNotification(t, db, user.ID, model.NotificationQueued)

		rec, body := doRequest(t, DeleteUser, http.MethodDelete, "/users/u-1",
			"", asTenant(tenant, "externalId", "u-1"))
		mustStatus(t, rec, http.StatusOK)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, false, body["deleted"])

		var storedUser model.User
		require.NoError(t, db.First(&storedUser, "id = ?", user.ID).Error)
		assert.False(t, storedUser.IsActive)

		var stored model.Notification
		require.NoError(t, db.First(&stored, "id = ?", queued.ID).Error)
		assert.Equal(t, model.NotificationCanceled, stored.Status)
	})

	t.Run("force delete removes the user and owned records", func(t *testing.T) {
		db := setupTestDB(t)
		tenant := createTenant(t, db, "t@x.io", model.PlanFree)
		user := seedUser(t, db, tenant.ID, "u-1", true)
		seedNotification(t, db, user.ID, model.NotificationQueued)
		sub := &model.Subscription{UserID: user.ID, Channel: model.ChannelEmail}
		require.NoError(t, db.Create(sub).Error)

		rec, body := doRequest(t, DeleteUser, http.MethodDelete, "/users/u-1?force=true",
			"", asTenant(tenant, "externalId", "u-1"))
		mustStatus(t, rec, http.StatusOK)
		assert.Equal(t, true, body["deleted"])

		var users, subs, notifications int64
		require.NoError(t, db.Model(&model.User{}).Where("id = ?", user.ID).Count(&users).Error)
		require.NoError(t, db.Model(&model.Subscription{}).Where("user_id = ?", user.ID).Count(&subs).Error)
		require.NoError(t, db.Model(&model.Notification{}).Where("user_id = ?", user.ID).Count(&notifications).Error)
		assert.Zero(t, users)
		assert.Zero(t, subs)
		assert.Zero(t, notifications)
	})

	t.Run("force delete of an unknown user", func(t *testing.T) {
		db := setupTestDB(t)
		tenant := createTenant(t, db, "t@x.io", model.PlanFree)

		rec, _ := doRequest(t, DeleteUser, http.MethodDelete, "/users/u-1?force=true",
			"", asTenant(tenant, "externalId", "u-1"))
		mustStatus(t, rec, http.StatusNotFound)
	})
}
