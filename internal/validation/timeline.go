package validation

import (
	"go-next-task/backend/internal/apperror"
	"go-next-task/backend/internal/models"
)

// CheckTaskTimeline はパッチ適用後のタスクについて日時の整合性を検証します。
//   - updatedAt >= createdAt
//   - deletedAt は null か createdAt 以降
//   - isCompleted が true のときのみ completedAt が必須で、createdAt 以降
func CheckTaskTimeline(t *models.Task) error {
	verr := &apperror.ValidationError{}

	if t.UpdatedAt.Before(t.CreatedAt) {
		verr.Add("updatedAt", `"updatedAt" must be greater than or equal to "createdAt"`)
	}
	if t.DeletedAt != nil && t.DeletedAt.Before(t.CreatedAt) {
		verr.Add("deletedAt", `"deletedAt" must be greater than or equal to "createdAt"`)
	}
	switch {
	case t.IsCompleted && t.CompletedAt == nil:
		verr.Add("completedAt", `"completedAt" is required when "isCompleted" is true`)
	case t.IsCompleted && t.CompletedAt.Before(t.CreatedAt):
		verr.Add("completedAt", `"completedAt" must be greater than or equal to "createdAt"`)
	case !t.IsCompleted && t.CompletedAt != nil:
		verr.Add("completedAt", `"completedAt" must be empty when "isCompleted" is false`)
	}

	return verr.ErrOrNil()
}
