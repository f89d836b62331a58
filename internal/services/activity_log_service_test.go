package services

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-next-task/backend/internal/apperror"
	"go-next-task/backend/internal/repositories"
	"go-next-task/backend/internal/validation"
)

func TestActivityLogs_Pagination(t *testing.T) {
	svc := newTestServices(t)
	clock := newTestClock()
	svc.ActivityLogs.now = clock.Now
	alice := registerUser(t, svc, "alice")
	bob := registerUser(t, svc, "bob")
	ctx := context.Background()

	taskID := repositories.NewID()
	for i := range 15 {
		_, err := svc.ActivityLogs.Append(ctx, alice.ID, taskID, fmt.Sprintf("task %02d", i), validation.ActionUpdated)
		require.NoError(t, err)
		clock.Advance(time.Second)
	}
	_, err := svc.ActivityLogs.Append(ctx, bob.ID, taskID, "not alice's", validation.ActionCreated)
	require.NoError(t, err)

	first, err := svc.ActivityLogs.FindByUser(ctx, alice.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 15, first.Total)
	require.Len(t, first.Logs, 10)
	assert.Equal(t, "task 14", first.Logs[0].TaskTitle)

	second, err := svc.ActivityLogs.FindByUser(ctx, alice.ID, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, 15, second.Total)
	require.Len(t, second.Logs, 5)
	assert.Equal(t, "task 04", second.Logs[0].TaskTitle)
	assert.Equal(t, "task 00", second.Logs[4].TaskTitle)

	beyond, err := svc.ActivityLogs.FindByUser(ctx, alice.ID, 20, 10)
	require.NoError(t, err)
	assert.Equal(t, 15, beyond.Total)
	assert.Empty(t, beyond.Logs)
}

func TestActivityLogs_FindByIDIsScoped(t *testing.T) {
	svc := newTestServices(t)
	alice := registerUser(t, svc, "alice")
	bob := registerUser(t, svc, "bob")
	ctx := context.Background()

	entry, err := svc.ActivityLogs.Append(ctx, alice.ID, repositories.NewID(), "Task", validation.ActionCreated)
	require.NoError(t, err)

	got, err := svc.ActivityLogs.FindByID(ctx, entry.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, validation.ActionCreated, got.Action)

	_, err = svc.ActivityLogs.FindByID(ctx, entry.ID, bob.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestActivityLogs_RejectsUnknownAction(t *testing.T) {
	svc := newTestServices(t)
	user := registerUser(t, svc, "alice")

	_, err := svc.ActivityLogs.Append(context.Background(), user.ID, repositories.NewID(), "Task", "archived")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		page, limit, wantPage, wantLimit, wantSkip int
	}{
		{0, 0, 1, DefaultPageLimit, 0},
		{2, 10, 2, 10, 10},
		{3, 500, 3, MaxPageLimit, 200},
		{-1, -5, 1, DefaultPageLimit, 0},
		{math.MaxInt / 5, 100, math.MaxInt / 100, 100, (math.MaxInt/100 - 1) * 100},
	}
	for _, tt := range tests {
		page, limit, skip := NormalizePage(tt.page, tt.limit)
		assert.Equal(t, tt.wantPage, page)
		assert.Equal(t, tt.wantLimit, limit)
		assert.Equal(t, tt.wantSkip, skip)
		assert.GreaterOrEqual(t, skip, 0)
	}
}
