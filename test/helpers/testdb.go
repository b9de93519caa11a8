package helpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"gigsos_backend/internal/auth"
	"gigsos_backend/internal/models"
)

const DefaultPassword = "password123"

var seq atomic.Int64

// UniqueEmail - email, не пересекающийся между параллельными тестами
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s_%d_%d@test.com", prefix, time.Now().UnixNano(), seq.Add(1))
}

// CreateUser создает пользователя с паролем DefaultPassword
func CreateUser(t *testing.T, db *gorm.DB, user *models.User) {
	hash, err := auth.HashPassword(DefaultPassword)
	require.NoError(t, err)
	user.PasswordHash = hash
	if user.Email == "" {
		user.Email = UniqueEmail("user")
	}
	if user.Role == "" {
		user.Role = models.UserRoleUser
	}
	require.NoError(t, db.Create(user).Error, "failed to create user %s", user.Email)
}

// CreateAndLoginUser создает пользователя и логинит его через API
func CreateAndLoginUser(t *testing.T, ts *TestServer, tx *gorm.DB, name string, role models.UserRole) (string, *models.User) {
	user := &models.User{Name: name, Role: role}
	CreateUser(t, tx, user)

	return Login(t, ts, tx, user.Email), user
}

func Login(t *testing.T, ts *TestServer, tx *gorm.DB, email string) string {
	res, body := ts.SendRequest(t, tx, http.MethodPost, "/api/v1/login", "", map[string]string{
		"email":    email,
		"password": DefaultPassword,
	})
	require.Equal(t, http.StatusOK, res.StatusCode, "login failed: %s", body)

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

// DecodeJSON разбирает тело ответа в out
func DecodeJSON(t *testing.T, body string, out interface{}) {
	require.NoError(t, json.Unmarshal([]byte(body), out), "body: %s", body)
}
