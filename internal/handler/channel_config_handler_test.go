package handler

import (
	"net/http"
	"testing"

	"notifyhub/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateChannelConfig(t *testing.T) {
	initTestHandlers(t)

	t.Run("creates an email config and masks the password", func(t *testing.T) {
		db := setupTestDB(t)
		tenant := createTenant(t, db, "t@x.io", model.PlanFree)

		rec, body := doRequest(t, CreateChannelConfig, http.MethodPost, "/channel-configs",
			`{"channel":"EMAIL","email":{"smtpHost":"smtp.x.io","smtpPort":587,"user":"mailer","pass":"hunter2","from":"no-reply@x.io"}}`,
			asTenant(tenant))
		mustStatus(t, rec, http.StatusCreated)

		assert.Equal(t, "EMAIL", body["channel"])
		assert.Equal(t, tenant.ID, body["tenant_id"])
		assert.Equal(t, false, body["allow_overrides"])

		echoed := body["config_json"].(map[string]interface{})
		assert.Equal(t, "smtp.x.io", echoed["smtpHost"])
		assert.Equal(t, "********", echoed["pass"])

		// The stored config keeps the real password; only the response masks it.
		var stored model.ChannelConfig
		require.NoError(t, db.First(&stored, "tenant_id = ?", tenant.ID).Error)
		assert.Contains(t, stored.ConfigJSON, "hunter2")
	})

	t.Run("creates an expo push config", func(t *testing.T) {
		db := setupTestDB(t)
		tenant := createTenant(t, db, "t@x.io", model.PlanFree)

		rec, body := doRequest(t, CreateChannelConfig, http.MethodPost, "/channel-configs",
			`{"channel":"EXPO_PUSH","expoPush":{"projectId":"proj-1"},"allowOverrides":true}`,
			asTenant(tenant))
		mustStatus(t, rec, http.StatusCreated)
		assert.Equal(t, "EXPO_PUSH", body["channel"])
		assert.Equal(t, true, body["allow_overrides"])

		echoed := body["config_json"].(map[string]interface{})
		assert.Equal(t, "proj-1", echoed["projectId"])
	})

	t.Run("rejects invalid payloads", func(t *testing.T) {
		db := setupTestDB(t)
		tenant := createTenant(t, db, "t@x.io", model.PlanFree)

		for name, payload := range map[string]string{
			"unsupported channel":         `{"channel":"SMS"}`,
			"email without smtp settings": `{"channel":"EMAIL","email":{"smtpHost":"smtp.x.io"}}`,
			"email port out of range":     `{"channel":"EMAIL","email":{"smtpHost":"smtp.x.io","smtpPort":70000,"from":"no-reply@x.io"}}`,
			"expo push without project":   `{"channel":"EXPO_PUSH","expoPush":{}}`,
		} {
			t.Run(name, func(t *testing.T) {
				rec, _ := doRequest(t, CreateChannelConfig, http.MethodPost, "/channel-configs",
					payload, asTenant(tenant))
				mustStatus(t, rec, http.StatusBadRequest)
			})
		}
	})

	t.Run("one config per channel per tenant", func(t *testing.T) {
		db := setupTestDB(t)
		tenant := createTenant(t, db, "t@x.io", model.PlanFree)
		payload := `{"channel":"EXPO_PUSH","expoPush":{"projectId":"proj-1"}}`

		rec, _ := doRequest(t, CreateChannelConfig, http.MethodPost, "/channel-configs",
			payload, asTenant(tenant))
		mustStatus(t, rec, http.StatusCreated)

		rec, body := doRequest(t, CreateChannelConfig, http.MethodPost, "/channel-configs",
			payload, asTenant(tenant))
		mustStatus(t, rec, http.StatusConflict)
		assert.Equal(t, "config already exists", body["error"])
	})

	t.Run("a second channel for the same tenant is allowed", func(t *testing.T) {
		db := setupTestDB(t)
		tenant := createTenant(t, db, "t@x.io", model.PlanFree)

		rec, _ := doRequest(t, CreateChannelConfig, http.MethodPost, "/channel-configs",
			`{"channel":"EXPO_PUSH","expoPush":{"projectId":"proj-1"}}`, asTenant(tenant))
		mustStatus(t, rec, http.StatusCreated)

		rec, _ = doRequest(t, CreateChannelConfig, http.MethodPost, "/channel-configs",
			`{"channel":"EMAIL","email":{"smtpHost":"smtp.x.io","smtpPort":587,"from":"no-reply@x.io"}}`,
			asTenant(tenant))
		mustStatus(t, rec, http.StatusCreated)
	})
}
