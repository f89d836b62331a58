package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go-next-task/backend/internal/apperror"
	"go-next-task/backend/internal/models"
	"go-next-task/backend/internal/repositories"
	"go-next-task/backend/internal/validation"
)

// UpdateMode はタスク更新時に適用するスキーマを選びます。
type UpdateMode int

const (
	UpdateNormal UpdateMode = iota
	UpdateSoftDelete
	UpdateRestore
)

// TaskService はTask関連のビジネスロジックを扱います。
// 読み取り結果には必ずラベル情報 (LabelDetails) を付与します。
type TaskService struct {
	taskRepo  *repositories.TaskRepository
	labelRepo *repositories.LabelRepository
	activity  *ActivityLogService
	validator *validation.Engine
	now       func() time.Time
}

// NewTaskService は新しいTaskServiceを作成します。activity が nil の場合、履歴は記録しません。
func NewTaskService(taskRepo *repositories.TaskRepository, labelRepo *repositories.LabelRepository, activity *ActivityLogService, validator *validation.Engine) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		labelRepo: labelRepo,
		activity:  activity,
		validator: validator,
		now:       time.Now,
	}
}

// CreateTask は新しいTaskを作成します。
func (s *TaskService) CreateTask(ctx context.Context, userID string, input map[string]any) (*models.Task, error) {
	clean, err := s.validator.Validate(validation.KindTask, validation.ModeCreate, input)
	if err != nil {
		return nil, err
	}

	now := timestamp(s.now)
	task := &models.Task{UserID: userID, CreatedAt: now, UpdatedAt: now}
	applyTaskValues(task, clean)
	if isCompleted, _ := clean.Bool("isCompleted"); isCompleted {
		setCompletion(task, true, now)
	}
	if err := validation.CheckTaskTimeline(task); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}
	created, err := s.taskRepo.FindByID(ctx, task.ID, userID)
	if err != nil {
		log.Printf("Failed to re-read created task %s: %v", task.ID, err)
		return nil, apperror.Internal("Failed to create task", err)
	}
	if err := s.enrich(ctx, userID, created); err != nil {
		return nil, err
	}
	s.record(ctx, created, validation.ActionCreated)
	return created, nil
}

// GetTaskByID は所有者のTaskを取得します。論理削除済みでも返します。
func (s *TaskService) GetTaskByID(ctx context.Context, id, userID string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := s.enrich(ctx, userID, task); err != nil {
		return nil, err
	}
	return task, nil
}

// GetTasks はユーザーの論理削除されていないTaskを取得します。
func (s *TaskService) GetTasks(ctx context.Context, userID string) ([]*models.Task, error) {
	tasks, err := s.taskRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.enrich(ctx, userID, tasks...); err != nil {
		return nil, err
	}
	return tasks, nil
}

// UpdateTask は存在と所有者を確認してからTaskを更新します。
//   - UpdateNormal: 更新スキーマ全体を適用
//   - UpdateSoftDelete: deletedAt と updatedAt のみを書き込む
//   - UpdateRestore: 同じフィールドを受け付け、deletedAt を null に戻す
func (s *TaskService) UpdateTask(ctx context.Context, id, userID string, patch map[string]any, mode UpdateMode) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	var actions []string
	switch mode {
	case UpdateSoftDelete, UpdateRestore:
		vmode := validation.ModeSoftDelete
		if mode == UpdateRestore {
			vmode = validation.ModeRestore
		}
		clean, err := s.validator.Validate(validation.KindTask, vmode, patch)
		if err != nil {
			return nil, err
		}
		updatedAt, _ := clean.Time("updatedAt")
		task.UpdatedAt = *updatedAt
		if mode == UpdateSoftDelete {
			task.DeletedAt, _ = clean.Time("deletedAt")
			actions = append(actions, validation.ActionDeleted)
		} else {
			task.DeletedAt = nil
		}
		if err := validation.CheckTaskTimeline(task); err != nil {
			return nil, err
		}
		if err := s.taskRepo.SetDeletedAt(ctx, id, userID, task.DeletedAt, task.UpdatedAt); err != nil {
			return nil, err
		}

	case UpdateNormal:
		clean, err := s.validator.Validate(validation.KindTask, validation.ModeUpdate, patch)
		if err != nil {
			return nil, err
		}
		now := timestamp(s.now)
		labelsSet := applyTaskValues(task, clean)
		actions = append(actions, validation.ActionUpdated)
		if isCompleted, ok := clean.Bool("isCompleted"); ok && task.IsCompleted != isCompleted {
			setCompletion(task, isCompleted, now)
			if isCompleted {
				actions = append(actions, validation.ActionCompleted)
			}
		}
		task.UpdatedAt = now
		if err := validation.CheckTaskTimeline(task); err != nil {
			return nil, err
		}
		if err := s.taskRepo.Update(ctx, task, labelsSet); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unknown update mode %d", mode)
	}

	return s.reload(ctx, id, userID, actions...)
}

// ToggleCompletion は完了状態を設定し、completedAt をサーバー側で導出します。
// true にした場合は現在時刻、false にした場合は null です。
func (s *TaskService) ToggleCompletion(ctx context.Context, id, userID string, isCompleted bool) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	now := timestamp(s.now)
	setCompletion(task, isCompleted, now)
	task.UpdatedAt = now
	if err := validation.CheckTaskTimeline(task); err != nil {
		return nil, err
	}
	if err := s.taskRepo.SetCompletion(ctx, id, userID, task.IsCompleted, task.CompletedAt, task.UpdatedAt); err != nil {
		return nil, err
	}

	action := validation.ActionUpdated
	if isCompleted {
		action = validation.ActionCompleted
	}
	return s.reload(ctx, id, userID, action)
}

// reload は更新後のTaskを読み直し、ラベル情報を付与して履歴を記録します。
// 読み直しで見つからない場合は並行して削除されたとみなし NotFound を返します。
func (s *TaskService) reload(ctx context.Context, id, userID string, actions ...string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, apperror.Internal("Failed to load updated task", err)
	}
	if err := s.enrich(ctx, userID, task); err != nil {
		return nil, err
	}
	for _, action := range actions {
		s.record(ctx, task, action)
	}
	return task, nil
}

// enrich は参照されているラベルIDをまとめて取得し、各Taskに LabelDetails を付与します。
// 削除済み・存在しないIDは黙って除外します。
func (s *TaskService) enrich(ctx context.Context, userID string, tasks ...*models.Task) error {
	seen := make(map[string]bool)
	var ids []string
	for _, t := range tasks {
		t.LabelDetails = []*models.Label{}
		for _, id := range t.Labels {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	labels, err := s.labelRepo.FindActiveByIDs(ctx, userID, ids)
	if err != nil {
		return err
	}
	byID := make(map[string]*models.Label, len(labels))
	for _, l := range labels {
		byID[l.ID] = l
	}
	for _, t := range tasks {
		for _, id := range t.Labels {
			if l, ok := byID[id]; ok {
				t.LabelDetails = append(t.LabelDetails, l)
			}
		}
	}
	return nil
}

// record はアクティビティログを記録します。失敗してもTaskの操作は失敗させません。
func (s *TaskService) record(ctx context.Context, t *models.Task, action string) {
	if s.activity == nil {
		return
	}
	if _, err := s.activity.Append(ctx, t.UserID, t.ID, t.Title, action); err != nil {
		log.Printf("Failed to record %s activity for task %s: %v", action, t.ID, err)
	}
}

// applyTaskValues は正規化済みの値をTaskに反映し、ラベル配列が指定されたかを返します。
func applyTaskValues(t *models.Task, v validation.Values) bool {
	if title, ok := v.String("title"); ok {
		t.Title = title
	}
	if description, ok := v.String("description"); ok {
		t.Description = description
	}
	if dueDate, ok := v.Time("dueDate"); ok {
		t.DueDate = dueDate
	}
	if priority, ok := v.String("priority"); ok {
		t.Priority = priority
	}
	labels, ok := v.IDs("labels")
	if ok {
		t.Labels = labels
	}
	return ok
}

func setCompletion(t *models.Task, isCompleted bool, now time.Time) {
	t.IsCompleted = isCompleted
	if isCompleted {
		completedAt := now
		t.CompletedAt = &completedAt
		return
	}
	t.CompletedAt = nil
}
