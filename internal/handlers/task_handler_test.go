package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-next-task/backend/internal/models"
	"go-next-task/backend/testutil"
)

func TestCreateTask_Success(t *testing.T) {
	db, r, _ := testutil.SetupTestDB(t)
	defer db.Close()

	token, err := testutil.LoginAndGetToken(t, r, testutil.NormalUserEmail, testutil.TestPassword)
	require.NoError(t, err)

	label := testutil.CreateTestLabel(t, r, token, "Work")
	task := testutil.CreateTestTask(t, r, token, map[string]any{
		"title":    "Test Task",
		"labels":   []string{label.ID},
		"priority": "P2",
	})

	assert.NotEmpty(t, task.ID, "Expected an ID")
	assert.Equal(t, "Test Task", task.Title)
	assert.Equal(t, "P2", task.Priority)
	assert.Equal(t, []string{label.ID}, task.Labels)
	require.Len(t, task.LabelDetails, 1)
	assert.Equal(t, "Work", task.LabelDetails[0].Name)
	assert.True(t, task.CreatedAt.Equal(task.UpdatedAt))
}

func TestCreateTask_ValidationError(t *testing.T) {
	db, r, _ := testutil.SetupTestDB(t)
	defer db.Close()

	token, err := testutil.LoginAndGetToken(t, r, testutil.NormalUserEmail, testutil.TestPassword)
	require.NoError(t, err)

	w := testutil.DoJSON(t, r, http.MethodPost, "/api/tasks", token, map[string]any{"title": "", "priority": "P7"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var response struct {
		Error   string `json:"error"`
		Details []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response.Details, 2, "every violated field should be reported")
	assert.Contains(t, response.Error, "validation failed")
}

func TestCreateTask_InvalidJSON(t *testing.T) {
	db, r, _ := testutil.SetupTestDB(t)
	defer db.Close()

	token, err := testutil.LoginAndGetToken(t, r, testutil.NormalUserEmail, testutil.TestPassword)
	require.NoError(t, err)

	w := testutil.DoJSON(t, r, http.MethodPost, "/api/tasks", token, []string{"not", "an", "object"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTaskByID_InvalidAndMissing(t *testing.T) {
	db, r, _ := testutil.SetupTestDB(t)
	defer db.Close()

	token, err := testutil.LoginAndGetToken(t, r, testutil.NormalUserEmail, testutil.TestPassword)
	require.NoError(t, err)

	w := testutil.DoJSON(t, r, http.MethodGet, "/api/tasks/123", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid ID format")

	w = testutil.DoJSON(t, r, http.MethodGet, "/api/tasks/0123456789abcdef01234567", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Task not found")
}

func TestTask_OtherUserCannotAccess(t *testing.T) {
	db, r, _ := testutil.SetupTestDB(t)
	defer db.Close()

	owner, err := testutil.LoginAndGetToken(t, r, testutil.NormalUserEmail, testutil.TestPassword)
	require.NoError(t, err)
	intruder, err := testutil.LoginAndGetToken(t, r, testutil.OtherUserEmail, testutil.TestPassword)
	require.NoError(t, err)

	task := testutil.CreateTestTask(t, r, owner, map[string]any{"title": "Secret"})

	for _, req := range []struct{ method, path string }{
		{http.MethodGet, "/api/tasks/" + task.ID},
		{http.MethodPut, "/api/tasks/" + task.ID},
		{http.MethodDelete, "/api/tasks/" + task.ID},
		{http.MethodPatch, "/api/tasks/" + task.ID + "/toggle-completed"},
	} {
		w := testutil.DoJSON(t, r, req.method, req.path, intruder, map[string]any{"isCompleted": true})
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", req.method, req.path)
	}

	w := testutil.DoJSON(t, r, http.MethodGet, "/api/tasks", intruder, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tasks []models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	assert.Empty(t, tasks)
}

func TestDeleteAndRestoreTask(t *testing.T) {
	db, r, _ := testutil.SetupTestDB(t)
	defer db.Close()

	token, err := testutil.LoginAndGetToken(t, r, testutil.NormalUserEmail, testutil.TestPassword)
	require.NoError(t, err)
	task := testutil.CreateTestTask(t, r, token, map[string]any{"title": "Temporary"})

	w := testutil.DoJSON(t, r, http.MethodDelete, "/api/tasks/"+task.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var deleted models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &deleted))
	assert.NotNil(t, deleted.DeletedAt)

	w = testutil.DoJSON(t, r, http.MethodGet, "/api/tasks", token, nil)
	var tasks []models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	assert.Empty(t, tasks)

	w = testutil.DoJSON(t, r, http.MethodPut, "/api/tasks/"+task.ID+"?undoing=true", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var restored models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &restored))
	assert.Nil(t, restored.DeletedAt)

	w = testutil.DoJSON(t, r, http.MethodGet, "/api/tasks", token, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	assert.Len(t, tasks, 1)
}

func TestUpdateTask(t *testing.T) {
	db, r, _ := testutil.SetupTestDB(t)
	defer db.Close()

	token, err := testutil.LoginAndGetToken(t, r, testutil.NormalUserEmail, testutil.TestPassword)
	require.NoError(t, err)
	task := testutil.CreateTestTask(t, r, token, map[string]any{"title": "Before", "description": "stays"})

	w := testutil.DoJSON(t, r, http.MethodPut, "/api/tasks/"+task.ID, token, map[string]any{
		"title":   "After",
		"dueDate": "2030-01-02T03:04:05.678Z",
		"userId":  "0123456789abcdef01234567",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "After", updated.Title)
	assert.Equal(t, "stays", updated.Description)
	assert.Equal(t, task.UserID, updated.UserID)
	require.NotNil(t, updated.DueDate)
	assert.Equal(t, "2030-01-02T03:04:05.678Z", updated.DueDate.UTC().Format("2006-01-02T15:04:05.000Z"))
}

func TestToggleCompleted(t *testing.T) {
	db, r, _ := testutil.SetupTestDB(t)
	defer db.Close()

	token, err := testutil.LoginAndGetToken(t, r, testutil.NormalUserEmail, testutil.TestPassword)
	require.NoError(t, err)
	task := testutil.CreateTestTask(t, r, token, map[string]any{"title": "Do it"})
	path := "/api/tasks/" + task.ID + "/toggle-completed"

	w := testutil.DoJSON(t, r, http.MethodPatch, path, token, map[string]any{"isCompleted": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var done models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &done))
	assert.True(t, done.IsCompleted)
	assert.NotNil(t, done.CompletedAt)

	w = testutil.DoJSON(t, r, http.MethodPatch, path, token, map[string]any{"isCompleted": false})
	require.Equal(t, http.StatusOK, w.Code)
	var undone models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &undone))
	assert.False(t, undone.IsCompleted)
	assert.Nil(t, undone.CompletedAt)

	w = testutil.DoJSON(t, r, http.MethodPatch, path, token, map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
