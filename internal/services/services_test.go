package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-next-task/backend/internal/config"
	"go-next-task/backend/internal/database"
	"go-next-task/backend/internal/models"
)

// testClock は手動で進める時計です。
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Now().UTC().Truncate(time.Millisecond)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:               "test-secret",
			AccessTokenDuration:  time.Hour,
			RefreshTokenDuration: 24 * time.Hour,
		},
		Guest: config.GuestConfig{TTL: time.Hour, SweepInterval: time.Minute},
	}
}

// newTestServices はインメモリSQLite上にサービス一式を作成します。
func newTestServices(t *testing.T) *Services {
	t.Helper()
	svc, _ := newTestServicesWithDB(t)
	return svc
}

// newTestServicesWithDB はテーブルを直接操作するテスト向けにDBハンドルも返します。
func newTestServicesWithDB(t *testing.T) (*Services, *database.DB) {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, config.DatabaseConfig{Driver: "sqlite3", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))
	t.Cleanup(func() { db.Close() })
	return New(db, testConfig()), db
}

// countLabelRefs は labelID を参照している task_labels の行数を返します。
func countLabelRefs(t *testing.T, db *database.DB, labelID string) int {
	t.Helper()
	conn, err := db.Conn()
	require.NoError(t, err)
	var n int
	require.NoError(t, conn.Get(&n, conn.Rebind("SELECT COUNT(*) FROM task_labels WHERE label_id = ?"), labelID))
	return n
}

func registerUser(t *testing.T, svc *Services, username string) *models.User {
	t.Helper()
	u, err := svc.Users.RegisterUser(context.Background(), map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	require.NoError(t, err)
	return u
}

func createTask(t *testing.T, svc *Services, userID string, input map[string]any) *models.Task {
	t.Helper()
	task, err := svc.Tasks.CreateTask(context.Background(), userID, input)
	require.NoError(t, err)
	return task
}

func createLabel(t *testing.T, svc *Services, userID, name string) *models.Label {
	t.Helper()
	label, err := svc.Labels.CreateLabel(context.Background(), userID, map[string]any{"name": name})
	require.NoError(t, err)
	return label
}
