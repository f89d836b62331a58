package services

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"go-next-task/backend/internal/models"
	"go-next-task/backend/internal/repositories"
	"go-next-task/backend/internal/validation"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// ActivityLogService はアクティビティログの追記と参照を扱います。
type ActivityLogService struct {
	repo      *repositories.ActivityLogRepository
	validator *validation.Engine
	now       func() time.Time
}

func NewActivityLogService(repo *repositories.ActivityLogRepository, validator *validation.Engine) *ActivityLogService {
	return &ActivityLogService{repo: repo, validator: validator, now: time.Now}
}

// Append はアクティビティログを1件追記します。
func (s *ActivityLogService) Append(ctx context.Context, userID, taskID, taskTitle, action string) (*models.ActivityLog, error) {
	clean, err := s.validator.Validate(validation.KindActivityLog, validation.ModeCreate, map[string]any{
		"taskId":    taskID,
		"taskTitle": taskTitle,
		"action":    action,
	})
	if err != nil {
		return nil, err
	}
	entry := &models.ActivityLog{
		UserID:    userID,
		CreatedAt: timestamp(s.now),
	}
	entry.TaskID, _ = clean.String("taskId")
	entry.TaskTitle, _ = clean.String("taskTitle")
	entry.Action, _ = clean.String("action")

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// FindByUser は新しい順にページングしたログと総件数を返します。
// 一覧と件数は別クエリで並行に取得します。
func (s *ActivityLogService) FindByUser(ctx context.Context, userID string, skip, limit int) (*models.ActivityLogPage, error) {
	page := &models.ActivityLogPage{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logs, err := s.repo.FindByUserID(gctx, userID, skip, limit)
		page.Logs = logs
		return err
	})
	g.Go(func() error {
		total, err := s.repo.CountByUserID(gctx, userID)
		page.Total = total
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return page, nil
}

func (s *ActivityLogService) FindByID(ctx context.Context, id, userID string) (*models.ActivityLog, error) {
	return s.repo.FindByID(ctx, id, userID)
}

// NormalizePage はクエリの page と limit を補正し、skip を計算します。
func NormalizePage(page, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	// skip が int に収まるように page を制限する
	if maxPage := math.MaxInt / limit; page > maxPage {
		page = maxPage
	}
	return page, limit, (page - 1) * limit
}
