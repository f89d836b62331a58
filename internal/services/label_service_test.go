package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-next-task/backend/internal/apperror"
	"go-next-task/backend/internal/validation"
)

func TestCreateLabel_DefaultColor(t *testing.T) {
	svc := newTestServices(t)
	user := registerUser(t, svc, "alice")

	label := createLabel(t, svc, user.ID, "  Errands ")
	assert.Equal(t, "Errands", label.Name)
	assert.Equal(t, validation.DefaultLabelColor, label.Color)
	assert.False(t, label.Deleted)
}

func TestCreateLabel_NameTooLong(t *testing.T) {
	svc := newTestServices(t)
	user := registerUser(t, svc, "alice")

	_, err := svc.Labels.CreateLabel(context.Background(), user.ID, map[string]any{"name": "abcdefghijklmnopqrstuvwxyz012345"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestUpdateLabel(t *testing.T) {
	svc := newTestServices(t)
	alice := registerUser(t, svc, "alice")
	bob := registerUser(t, svc, "bob")
	ctx := context.Background()

	label := createLabel(t, svc, alice.ID, "Work")
	updated, err := svc.Labels.UpdateLabel(ctx, label.ID, alice.ID, map[string]any{"color": "#ff0000"})
	require.NoError(t, err)
	assert.Equal(t, "Work", updated.Name)
	assert.Equal(t, "#ff0000", updated.Color)

	_, err = svc.Labels.UpdateLabel(ctx, label.ID, bob.ID, map[string]any{"name": "Stolen"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDeleteLabel_DetachesFromEveryTask(t *testing.T) {
	svc, db := newTestServicesWithDB(t)
	user := registerUser(t, svc, "alice")
	ctx := context.Background()

	doomed := createLabel(t, svc, user.ID, "Doomed")
	keep := createLabel(t, svc, user.ID, "Keep")

	var taskIDs []string
	for _, title := range []string{"one", "two", "three"} {
		task := createTask(t, svc, user.ID, map[string]any{"title": title, "labels": []string{doomed.ID, keep.ID}})
		taskIDs = append(taskIDs, task.ID)
	}
	untagged := createTask(t, svc, user.ID, map[string]any{"title": "untagged"})

	deleted, err := svc.Labels.DeleteLabel(ctx, doomed.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)
	assert.Equal(t, doomed.ID, deleted.ID)

	for _, id := range taskIDs {
		task, err := svc.Tasks.GetTaskByID(ctx, id, user.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{keep.ID}, task.Labels)
		require.Len(t, task.LabelDetails, 1)
		assert.Equal(t, keep.ID, task.LabelDetails[0].ID)
	}
	other, err := svc.Tasks.GetTaskByID(ctx, untagged.ID, user.ID)
	require.NoError(t, err)
	assert.Empty(t, other.Labels)

	assert.Zero(t, countLabelRefs(t, db, doomed.ID))

	labels, err := svc.Labels.GetLabels(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, labels, 1)
	assert.Equal(t, keep.ID, labels[0].ID)

	// 論理削除済みのラベルもIDでは取得できる
	tombstone, err := svc.Labels.GetLabelByID(ctx, doomed.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, tombstone.Deleted)
}

func TestDeleteLabel_OtherUser(t *testing.T) {
	svc := newTestServices(t)
	alice := registerUser(t, svc, "alice")
	bob := registerUser(t, svc, "bob")
	ctx := context.Background()

	label := createLabel(t, svc, alice.ID, "Work")
	task := createTask(t, svc, alice.ID, map[string]any{"title": "Tagged", "labels": []string{label.ID}})

	_, err := svc.Labels.DeleteLabel(ctx, label.ID, bob.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	got, err := svc.Tasks.GetTaskByID(ctx, task.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{label.ID}, got.Labels)
}

func TestDeleteLabel_DetachFailureKeepsMark(t *testing.T) {
	svc, db := newTestServicesWithDB(t)
	user := registerUser(t, svc, "alice")
	ctx := context.Background()

	label := createLabel(t, svc, user.ID, "Broken")
	createTask(t, svc, user.ID, map[string]any{"title": "Tagged", "labels": []string{label.ID}})

	conn, err := db.Conn()
	require.NoError(t, err)
	_, err = conn.Exec("DROP TABLE task_labels")
	require.NoError(t, err)

	// 取り外しに失敗しても削除マークは戻さない
	deleted, err := svc.Labels.DeleteLabel(ctx, label.ID, user.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrInternal)
	require.NotNil(t, deleted)
	assert.True(t, deleted.Deleted)
	assert.Equal(t, label.ID, deleted.ID)

	tombstone, err := svc.Labels.GetLabelByID(ctx, label.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, tombstone.Deleted)
}
