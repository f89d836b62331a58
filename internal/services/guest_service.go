package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"go-next-task/backend/internal/apperror"
	"go-next-task/backend/internal/models"
	"go-next-task/backend/internal/repositories"
	"go-next-task/backend/internal/validation"
)

// purgeBatchSize は1回のDELETEで扱うユーザーIDの上限です。
const purgeBatchSize = 500

// GuestDeps は GuestService が利用するリポジトリとサービスです。
type GuestDeps struct {
	Users         *repositories.UserRepository
	Tasks         *repositories.TaskRepository
	Labels        *repositories.LabelRepository
	Notifications *repositories.NotificationRepository
	ActivityLogs  *repositories.ActivityLogRepository

	TaskService         *TaskService
	LabelService        *LabelService
	NotificationService *NotificationService
	JWTService          *JWTService
}

// GuestService はゲストアカウントの作成 (初期データ付き) と期限切れアカウントの削除を扱います。
type GuestService struct {
	deps GuestDeps
	ttl  time.Duration
	now  func() time.Time
}

// PurgeResult は1回の削除スイープで物理削除した件数です。
type PurgeResult struct {
	Users         int64
	Tasks         int64
	Labels        int64
	Notifications int64
	ActivityLogs  int64
}

// NewGuestService は新しいGuestServiceを作成します。ttl はゲストアカウントの有効期間です。
func NewGuestService(deps GuestDeps, ttl time.Duration) *GuestService {
	return &GuestService{deps: deps, ttl: ttl, now: time.Now}
}

// LoginAsGuest は一時的なゲストユーザーを作成し、初期データを投入してトークンを発行します。
func (s *GuestService) LoginAsGuest(ctx context.Context) (*models.AuthResponse, error) {
	now := timestamp(s.now)
	expiry := now.Add(s.ttl)
	id := repositories.NewID()
	guest := &models.User{
		ID:              id,
		Username:        "Guest",
		Email:           fmt.Sprintf("guest_%s@guest.local", id),
		IsGuest:         true,
		GuestExpiryDate: &expiry,
		CreatedAt:       now,
	}
	if _, err := s.deps.Users.Create(ctx, guest); err != nil {
		return nil, err
	}

	if err := s.seed(ctx, guest.ID); err != nil {
		// 作成済みのデータは有効期限切れのスイープで削除される
		log.Printf("Failed to seed guest %s: %v", guest.ID, err)
		return nil, apperror.Internal("Failed to prepare guest account", err)
	}

	tokens, err := s.deps.JWTService.GenerateTokenPair(guest)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{User: guest, TokenPair: tokens}, nil
}

func (s *GuestService) seed(ctx context.Context, userID string) error {
	work, err := s.deps.LabelService.CreateLabel(ctx, userID, map[string]any{"name": "Work", "color": "#4f46e5"})
	if err != nil {
		return err
	}
	personal, err := s.deps.LabelService.CreateLabel(ctx, userID, map[string]any{"name": "Personal", "color": "#16a34a"})
	if err != nil {
		return err
	}

	tomorrow := timestamp(s.now).Add(24 * time.Hour)
	tasks := []map[string]any{
		{
			"title":       "Welcome to your task list",
			"description": "Open a task to edit it, or mark it complete from the list.",
			"labels":      []string{personal.ID},
			"priority":    validation.PriorityLow,
		},
		{
			"title":       "Plan the week",
			"description": "Add due dates and priorities to keep track of what matters.",
			"labels":      []string{work.ID},
			"dueDate":     tomorrow,
			"priority":    validation.PriorityHigh,
		},
		{
			"title":       "Try labels",
			"description": "Create your own labels and attach them to tasks.",
			"labels":      []string{work.ID, personal.ID},
			"priority":    validation.PriorityMedium,
		},
	}
	for _, input := range tasks {
		if _, err := s.deps.TaskService.CreateTask(ctx, userID, input); err != nil {
			return err
		}
	}

	notifications := []map[string]any{
		{
			"listTitle":  "Welcome, guest!",
			"modalTitle": "Welcome to the guest workspace",
			"message":    fmt.Sprintf("This account and its data are removed automatically after %s.", s.ttl),
		},
		{
			"listTitle":  "Sample tasks added",
			"modalTitle": "We added a few sample tasks",
			"message":    "Edit, complete or delete them to see how things work.",
		},
	}
	for _, input := range notifications {
		if _, err := s.deps.NotificationService.CreateNotification(ctx, userID, input); err != nil {
			return err
		}
	}
	return nil
}

// PurgeExpiredGuests は有効期限切れのゲストユーザーとその所有データを物理削除します。
//
// 子データを先に、ユーザーを最後に削除するため、途中で失敗しても次回の実行で続きから削除されます。
// 期限切れのゲストがいなければ何もしません。
func (s *GuestService) PurgeExpiredGuests(ctx context.Context) (PurgeResult, error) {
	var result PurgeResult
	ids, err := s.deps.Users.FindExpiredGuestIDs(ctx, timestamp(s.now))
	if err != nil {
		return result, err
	}

	for start := 0; start < len(ids); start += purgeBatchSize {
		end := min(start+purgeBatchSize, len(ids))
		if err := s.purge(ctx, ids[start:end], &result); err != nil {
			return result, err
		}
	}
	if result.Users > 0 {
		log.Printf("Purged %d expired guest accounts (%d tasks, %d labels, %d notifications, %d activity logs)",
			result.Users, result.Tasks, result.Labels, result.Notifications, result.ActivityLogs)
	}
	return result, nil
}

func (s *GuestService) purge(ctx context.Context, ids []string, result *PurgeResult) error {
	steps := []struct {
		name  string
		del   func(context.Context, []string) (int64, error)
		count *int64
	}{
		{"tasks", s.deps.Tasks.DeleteByUserIDs, &result.Tasks},
		{"labels", s.deps.Labels.DeleteByUserIDs, &result.Labels},
		{"notifications", s.deps.Notifications.DeleteByUserIDs, &result.Notifications},
		{"activity logs", s.deps.ActivityLogs.DeleteByUserIDs, &result.ActivityLogs},
		{"users", s.deps.Users.DeleteByIDs, &result.Users},
	}
	for _, step := range steps {
		n, err := step.del(ctx, ids)
		if err != nil {
			return fmt.Errorf("could not purge guest %s: %w", step.name, err)
		}
		*step.count += n
	}
	return nil
}
