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

func TestSOS_CompletionAwardsHelper(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	requesterToken, _ := helpers.CreateAndLoginUser(t, ts, tx, "Requester", models.UserRoleUser)
	helperToken, helper := helpers.CreateAndLoginUser(t, ts, tx, "Helper", models.UserRoleUser)

	// помощник рядом получает уведомление
	res, body := ts.SendRequest(t, tx, http.MethodPost, "/api/v1/location/update", helperToken, map[string]interface{}{
		"latitude":  43.2400,
		"longitude": 76.8900,
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	res, body = ts.SendRequest(t, tx, http.MethodPost, "/api/v1/sos", requesterToken, map[string]interface{}{
		"title":       "Car battery is dead",
		"description": "Need jumper cables",
		"latitude":    43.2389,
		"longitude":   76.8897,
		"address":     "Abay 1",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)
	var sos models.SOSRequest
	helpers.DecodeJSON(t, body, &sos)

	res, body = ts.SendRequest(t, tx, http.MethodGet, "/api/v1/notifications", helperToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, `"unread_count":1`)

	res, body = ts.SendRequest(t, tx, http.MethodPost, fmt.Sprintf("/api/v1/sos/%d/respond", sos.ID), helperToken, map[string]interface{}{
		"latitude":  43.2400,
		"longitude": 76.8900,
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	res, body = ts.SendRequest(t, tx, http.MethodPut, fmt.Sprintf("/api/v1/sos/%d", sos.ID), requesterToken, map[string]interface{}{
		"status": "completed",
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, `"points_awarded":true`)

	var stored models.User
	require.NoError(t, tx.First(&stored, helper.ID).Error)
	assert.Equal(t, 100, stored.TotalPoints)
	assert.Equal(t, 1, stored.HelpedSOS)

	res, body = ts.SendRequest(t, tx, http.MethodGet, "/api/v1/points/history", helperToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, `"total":1`)
}

func TestSOS_NearbyAndLeaderboard(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	tx := ts.BeginTransaction(t)
	defer ts.RollbackTransaction(t, tx)

	token, _ := helpers.CreateAndLoginUser(t, ts, tx, "Viewer", models.UserRoleUser)

	res, body := ts.SendRequest(t, tx, http.MethodGet, "/api/v1/location/nearby-sos?latitude=43.24&longitude=76.89&radius=100", token, nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, body)

	res, body = ts.SendRequest(t, tx, http.MethodGet, "/api/v1/leaderboard-public?limit=5", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, `"category":"all"`)
}
