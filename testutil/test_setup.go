// Package testutil はテスト用のデータベースとルーターを提供します。
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"go-next-task/backend/internal/config"
	"go-next-task/backend/internal/database"
	"go-next-task/backend/internal/models"
	"go-next-task/backend/internal/routes"
	"go-next-task/backend/internal/services"
)

const (
	NormalUserEmail = "normal_user@example.com"
	OtherUserEmail  = "other_user@example.com"
	TestPassword    = "password123"
)

// TestConfig はテスト用の設定を返します。
func TestConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: "0", Environment: "test", AllowedOrigins: []string{"http://localhost:3000"}},
		Database: config.DatabaseConfig{Driver: "sqlite3", Name: ":memory:"},
		JWT: config.JWTConfig{
			Secret:               "test-secret",
			AccessTokenDuration:  time.Hour,
			RefreshTokenDuration: 24 * time.Hour,
		},
		Guest: config.GuestConfig{TTL: time.Hour, SweepInterval: time.Minute},
	}
}

// OpenTestDB はマイグレーション済みのインメモリSQLiteを開きます。
func OpenTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(context.Background(), TestConfig().Database)
	if err != nil {
		t.Fatalf("Failed to open database connection: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		db.Close()
		t.Fatalf("Failed to migrate database: %v", err)
	}
	return db
}

// SetupTestDB はテスト用のデータベースを作成し、テストユーザーを投入してルーターを返します。
// テストごとに新しいインメモリDBになるため、テスト間でデータは共有されません。
func SetupTestDB(t *testing.T) (*database.DB, *gin.Engine, *services.Services) {
	t.Helper()
	db := OpenTestDB(t)
	svc := services.New(db, TestConfig())

	// テストユーザーの挿入
	for _, u := range []struct{ username, email string }{
		{"normal_user", NormalUserEmail},
		{"other_user", OtherUserEmail},
	} {
		_, err := svc.Users.RegisterUser(context.Background(), map[string]any{
			"username": u.username,
			"email":    u.email,
			"password": TestPassword,
		})
		if err != nil {
			db.Close()
			t.Fatalf("Failed to create %s: %v", u.username, err)
		}
	}
	log.Println("Successfully set up test database!")

	return db, SetupTestRouter(t, db, svc), svc
}

// SetupTestRouter はテスト用のGinルーターをセットアップします。レート制限は行いません。
func SetupTestRouter(t *testing.T, db *database.DB, svc *services.Services) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return routes.SetupRouter(db, svc, TestConfig().Server, nil)
}

// LoginAndGetToken はログインしてアクセストークンを返します。
func LoginAndGetToken(t *testing.T, router *gin.Engine, email, password string) (string, error) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})

	req, _ := http.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d: %s", resp.Code, resp.Body.String())
	}

	var loginRes models.AuthResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &loginRes); err != nil {
		return "", fmt.Errorf("failed to unmarshal login response: %w", err)
	}
	if loginRes.AccessToken == "" {
		return "", errors.New("accessToken not found in login response")
	}
	return loginRes.AccessToken, nil
}

// DoJSON は認証付きのJSONリクエストを送ります。payload が nil の場合はボディを送りません。
func DoJSON(t *testing.T, router *gin.Engine, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody *bytes.Buffer
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return Serve(router, req)
}

// Serve はリクエストをルーターに渡し、レスポンスを記録します。
func Serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

// CreateTestTask はAPI経由でタスクを作成します。
func CreateTestTask(t *testing.T, router *gin.Engine, token string, payload map[string]any) *models.Task {
	t.Helper()
	resp := DoJSON(t, router, http.MethodPost, "/api/tasks", token, payload)
	require.Equal(t, http.StatusCreated, resp.Code, "タスク作成に失敗しました: %s", resp.Body.String())

	var task models.Task
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &task))
	return &task
}

// CreateTestLabel はAPI経由でラベルを作成します。
func CreateTestLabel(t *testing.T, router *gin.Engine, token, name string) *models.Label {
	t.Helper()
	resp := DoJSON(t, router, http.MethodPost, "/api/labels", token, map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, resp.Code, "ラベル作成に失敗しました: %s", resp.Body.String())

	var label models.Label
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &label))
	return &label
}
