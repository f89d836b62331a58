package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-next-task/backend/internal/apperror"
	"go-next-task/backend/internal/validation"
)

func TestCreateTask_AppliesDefaults(t *testing.T) {
	svc := newTestServices(t)
	user := registerUser(t, svc, "alice")

	task := createTask(t, svc, user.ID, map[string]any{"title": "Write report"})

	assert.True(t, validation.IsObjectID(task.ID))
	assert.Equal(t, user.ID, task.UserID)
	assert.Equal(t, "Write report", task.Title)
	assert.Equal(t, "", task.Description)
	assert.Equal(t, validation.PriorityLow, task.Priority)
	assert.Empty(t, task.Labels)
	assert.NotNil(t, task.LabelDetails)
	assert.Empty(t, task.LabelDetails)
	assert.Nil(t, task.DueDate)
	assert.Nil(t, task.DeletedAt)
	assert.Nil(t, task.CompletedAt)
	assert.False(t, task.IsCompleted)
	assert.True(t, task.CreatedAt.Equal(task.UpdatedAt), "updatedAt should equal createdAt on creation")
}

func TestCreateTask_CompletedOnCreation(t *testing.T) {
	svc := newTestServices(t)
	user := registerUser(t, svc, "alice")

	task := createTask(t, svc, user.ID, map[string]any{"title": "Already done", "isCompleted": true})

	assert.True(t, task.IsCompleted)
	require.NotNil(t, task.CompletedAt)
	assert.True(t, task.CompletedAt.Equal(task.CreatedAt))
}

func TestCreateTask_IgnoresClientOwner(t *testing.T) {
	svc := newTestServices(t)
	alice := registerUser(t, svc, "alice")
	bob := registerUser(t, svc, "bob")

	task := createTask(t, svc, alice.ID, map[string]any{"title": "Mine", "userId": bob.ID})
	assert.Equal(t, alice.ID, task.UserID)
}

func TestCreateTask_ValidationError(t *testing.T) {
	svc := newTestServices(t)
	user := registerUser(t, svc, "alice")

	_, err := svc.Tasks.CreateTask(context.Background(), user.ID, map[string]any{"title": "", "priority": "urgent"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	tasks, err := svc.Tasks.GetTasks(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestToggleCompletion_DerivesCompletedAt(t *testing.T) {
	svc := newTestServices(t)
	clock := newTestClock()
	svc.Tasks.now = clock.Now
	user := registerUser(t, svc, "alice")
	ctx := context.Background()

	task := createTask(t, svc, user.ID, map[string]any{"title": "Toggle me"})

	clock.Advance(time.Minute)
	done, err := svc.Tasks.ToggleCompletion(ctx, task.ID, user.ID, true)
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)
	require.NotNil(t, done.CompletedAt)
	assert.True(t, done.CompletedAt.Equal(clock.Now()))
	assert.False(t, done.CompletedAt.Before(done.CreatedAt))
	assert.True(t, done.UpdatedAt.Equal(clock.Now()))

	clock.Advance(time.Minute)
	undone, err := svc.Tasks.ToggleCompletion(ctx, task.ID, user.ID, false)
	require.NoError(t, err)
	assert.False(t, undone.IsCompleted)
	assert.Nil(t, undone.CompletedAt)
}

func TestUpdateTask_PartialUpdate(t *testing.T) {
	svc := newTestServices(t)
	clock := newTestClock()
	svc.Tasks.now = clock.Now
	user := registerUser(t, svc, "alice")
	ctx := context.Background()

	label := createLabel(t, svc, user.ID, "Work")
	task := createTask(t, svc, user.ID, map[string]any{
		"title":       "Original",
		"description": "keep me",
		"labels":      []string{label.ID},
	})

	clock.Advance(time.Second)
	updated, err := svc.Tasks.UpdateTask(ctx, task.ID, user.ID, map[string]any{"title": "Renamed", "priority": "P1"}, UpdateNormal)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "keep me", updated.Description)
	assert.Equal(t, validation.PriorityHigh, updated.Priority)
	assert.Equal(t, []string{label.ID}, updated.Labels, "labels are untouched when not in the patch")
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	cleared, err := svc.Tasks.UpdateTask(ctx, task.ID, user.ID, map[string]any{"labels": []any{}}, UpdateNormal)
	require.NoError(t, err)
	assert.Empty(t, cleared.Labels)
}

func TestUpdateTask_CompletionViaUpdate(t *testing.T) {
	svc := newTestServices(t)
	user := registerUser(t, svc, "alice")
	ctx := context.Background()

	task := createTask(t, svc, user.ID, map[string]any{"title": "Finish"})
	done, err := svc.Tasks.UpdateTask(ctx, task.ID, user.ID, map[string]any{"isCompleted": true}, UpdateNormal)
	require.NoError(t, err)
	require.NotNil(t, done.CompletedAt)

	page, err := svc.ActivityLogs.FindByUser(ctx, user.ID, 0, 10)
	require.NoError(t, err)
	actions := make([]string, 0, len(page.Logs))
	for _, l := range page.Logs {
		actions = append(actions, l.Action)
	}
	assert.ElementsMatch(t, []string{validation.ActionCreated, validation.ActionUpdated, validation.ActionCompleted}, actions)
}

func TestSoftDeleteAndRestore(t *testing.T) {
	svc := newTestServices(t)
	user := registerUser(t, svc, "alice")
	ctx := context.Background()

	keep := createTask(t, svc, user.ID, map[string]any{"title": "Keep"})
	gone := createTask(t, svc, user.ID, map[string]any{"title": "Delete me"})

	deleted, err := svc.Tasks.UpdateTask(ctx, gone.ID, user.ID, map[string]any{}, UpdateSoftDelete)
	require.NoError(t, err)
	require.NotNil(t, deleted.DeletedAt)

	tasks, err := svc.Tasks.GetTasks(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, keep.ID, tasks[0].ID)

	// 論理削除済みでもIDでは取得できる
	tombstone, err := svc.Tasks.GetTaskByID(ctx, gone.ID, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, tombstone.DeletedAt)

	restored, err := svc.Tasks.UpdateTask(ctx, gone.ID, user.ID, map[string]any{}, UpdateRestore)
	require.NoError(t, err)
	assert.Nil(t, restored.DeletedAt)

	tasks, err = svc.Tasks.GetTasks(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestSoftDelete_RejectsDeletedAtBeforeCreation(t *testing.T) {
	svc := newTestServices(t)
	user := registerUser(t, svc, "alice")

	task := createTask(t, svc, user.ID, map[string]any{"title": "Task"})
	_, err := svc.Tasks.UpdateTask(context.Background(), task.ID, user.ID, map[string]any{
		"deletedAt": task.CreatedAt.Add(-time.Hour).Format(time.RFC3339Nano),
	}, UpdateSoftDelete)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestGetTasks_NewestFirst(t *testing.T) {
	svc := newTestServices(t)
	clock := newTestClock()
	svc.Tasks.now = clock.Now
	user := registerUser(t, svc, "alice")

	for _, title := range []string{"first", "second", "third"} {
		createTask(t, svc, user.ID, map[string]any{"title": title})
		clock.Advance(time.Second)
	}

	tasks, err := svc.Tasks.GetTasks(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "third", tasks[0].Title)
	assert.Equal(t, "first", tasks[2].Title)
}

func TestEnrich_DropsDeletedAndForeignLabels(t *testing.T) {
	svc := newTestServices(t)
	alice := registerUser(t, svc, "alice")
	bob := registerUser(t, svc, "bob")
	ctx := context.Background()

	work := createLabel(t, svc, alice.ID, "Work")
	home := createLabel(t, svc, alice.ID, "Home")
	foreign := createLabel(t, svc, bob.ID, "Bob's")

	task := createTask(t, svc, alice.ID, map[string]any{
		"title":  "Labelled",
		"labels": []string{work.ID, home.ID, foreign.ID},
	})
	require.Len(t, task.LabelDetails, 2)

	// 取り外し前の状態 (論理削除だけが済んだ状態) を再現する
	require.NoError(t, svc.Labels.labelRepo.MarkDeleted(ctx, home.ID, alice.ID))

	got, err := svc.Tasks.GetTaskByID(ctx, task.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{work.ID, home.ID, foreign.ID}, got.Labels)
	require.Len(t, got.LabelDetails, 1)
	assert.Equal(t, work.ID, got.LabelDetails[0].ID)
}

func TestTaskOwnership(t *testing.T) {
	svc := newTestServices(t)
	alice := registerUser(t, svc, "alice")
	bob := registerUser(t, svc, "bob")
	ctx := context.Background()

	task := createTask(t, svc, alice.ID, map[string]any{"title": "Private"})

	_, err := svc.Tasks.GetTaskByID(ctx, task.ID, bob.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = svc.Tasks.UpdateTask(ctx, task.ID, bob.ID, map[string]any{"title": "Hijacked"}, UpdateNormal)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = svc.Tasks.UpdateTask(ctx, task.ID, bob.ID, map[string]any{}, UpdateSoftDelete)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = svc.Tasks.ToggleCompletion(ctx, task.ID, bob.ID, true)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	untouched, err := svc.Tasks.GetTaskByID(ctx, task.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Private", untouched.Title)
	assert.Nil(t, untouched.DeletedAt)
	assert.False(t, untouched.IsCompleted)
}
