package integration_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigsos_backend/internal/models"
	"gigsos_backend/test/helpers"
)

func TestModeration_BanRevokesSessions(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	adminToken, _ := helpers.CreateAndLoginUser(t, ts, tx, "Admin", models.UserRoleAdmin)
	userToken, user := helpers.CreateAndLoginUser(t, ts, tx, "Spammer", models.UserRoleUser)

	res, _ := ts.SendRequest(t, tx, http.MethodGet, "/api/v1/user", userToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	// обычный пользователь не видит админку
	res, _ = ts.SendRequest(t, tx, http.MethodGet, "/api/v1/admin/dashboard", userToken, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, body := ts.SendRequest(t, tx, http.MethodPost, fmt.Sprintf("/api/v1/admin/users/%d/ban", user.ID), adminToken, map[string]interface{}{
		"reason":        "Posting spam in job descriptions",
		"duration_days": 7,
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	// старый токен больше не работает
	res, _ = ts.SendRequest(t, tx, http.MethodGet, "/api/v1/user", userToken, nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	// логин возвращает причину бана
	res, body = ts.SendRequest(t, tx, http.MethodPost, "/api/v1/login", "", map[string]string{
		"email":    user.Email,
		"password": helpers.DefaultPassword,
	})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Contains(t, body, "Posting spam")

	// жалоба на бан принимается публично
	res, body = ts.SendRequest(t, tx, http.MethodPost, "/api/v1/ban-complaints", "", map[string]string{
		"email":  user.Email,
		"reason": "I was not spamming, these were real job offers",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	res, body = ts.SendRequest(t, tx, http.MethodGet, "/api/v1/admin/ban-complaints?status=pending", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, user.Email)

	// снятие бана и повторный вход
	res, body = ts.SendRequest(t, tx, http.MethodPost, fmt.Sprintf("/api/v1/admin/users/%d/unban", user.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	helpers.Login(t, ts, tx, user.Email)
}

func TestModeration_AdminCannotBanAdmin(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	adminToken, _ := helpers.CreateAndLoginUser(t, ts, tx, "Admin", models.UserRoleAdmin)
	other := &models.User{Name: "Other admin", Role: models.UserRoleAdmin}
	helpers.CreateUser(t, tx, other)

	res, _ := ts.SendRequest(t, tx, http.MethodPost, fmt.Sprintf("/api/v1/admin/users/%d/ban", other.ID), adminToken, map[string]interface{}{
		"reason":       "Testing the role hierarchy",
		"is_permanent": true,
	})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}
