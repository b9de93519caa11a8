package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"gorm.io/gorm"

	"gigsos_backend/database"
	"gigsos_backend/internal/app"
	"gigsos_backend/internal/config"
	"gigsos_backend/pkg/contextkeys"
)

// TestServer - роутер приложения поверх тестовой БД
type TestServer struct {
	App *app.App
	DB  *gorm.DB
}

// NewTestServer поднимает приложение; без DATABASE_URL тест пропускается
func NewTestServer(t *testing.T) *TestServer {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL is not set, skipping integration test")
	}
	if os.Getenv("JWT_SECRET") == "" {
		_ = os.Setenv("JWT_SECRET", "integration-secret")
	}
	_ = os.Setenv("WS_ENABLED", "false")
	_ = os.Setenv("RATE_LIMIT_RPS", "1000")
	_ = os.Setenv("RATE_LIMIT_BURST", "1000")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.Database.DSN, false)
	if err != nil {
		t.Fatalf("failed to connect to test DB: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test DB: %v", err)
	}

	return &TestServer{App: app.New(cfg, db), DB: db}
}

func (ts *TestServer) Close() {
	if sqlDB, err := ts.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// BeginTransaction - каждый тест работает в своей транзакции и откатывает ее
func (ts *TestServer) BeginTransaction(t *testing.T) *gorm.DB {
	tx := ts.DB.Begin()
	if tx.Error != nil {
		t.Fatalf("failed to begin transaction: %v", tx.Error)
	}
	return tx
}

func (ts *TestServer) RollbackTransaction(t *testing.T, tx *gorm.DB) {
	if err := tx.Rollback().Error; err != nil {
		t.Logf("rollback failed: %v", err)
	}
}

// SendRequest выполняет запрос через роутер; tx попадает в DBMiddleware через контекст
func (ts *TestServer) SendRequest(t *testing.T, tx *gorm.DB, method, path, token string, body interface{}) (*http.Response, string) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if tx != nil {
		req = req.WithContext(context.WithValue(req.Context(), contextkeys.DBContextKey, tx))
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	ts.App.Router.ServeHTTP(w, req)
	return w.Result(), w.Body.String()
}
