package services

import (
	"context"
	"log"
	"time"

	"go-next-task/backend/internal/apperror"
	"go-next-task/backend/internal/models"
	"go-next-task/backend/internal/repositories"
	"go-next-task/backend/internal/validation"
)

// NotificationService はお知らせの作成・一覧・既読切り替えを扱います。
type NotificationService struct {
	repo      *repositories.NotificationRepository
	validator *validation.Engine
	now       func() time.Time
}

func NewNotificationService(repo *repositories.NotificationRepository, validator *validation.Engine) *NotificationService {
	return &NotificationService{repo: repo, validator: validator, now: time.Now}
}

// CreateNotification は新しいお知らせを作成します。
func (s *NotificationService) CreateNotification(ctx context.Context, userID string, input map[string]any) (*models.Notification, error) {
	clean, err := s.validator.Validate(validation.KindNotification, validation.ModeCreate, input)
	if err != nil {
		return nil, err
	}
	n := &models.Notification{UserID: userID, CreatedAt: timestamp(s.now)}
	n.ListTitle, _ = clean.String("listTitle")
	n.ModalTitle, _ = clean.String("modalTitle")
	n.Message, _ = clean.String("message")
	n.IsRead, _ = clean.Bool("isRead")

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	created, err := s.repo.FindByID(ctx, n.ID, userID)
	if err != nil {
		log.Printf("Failed to re-read created notification %s: %v", n.ID, err)
		return nil, apperror.Internal("Failed to create notification", err)
	}
	return created, nil
}

func (s *NotificationService) GetNotifications(ctx context.Context, userID string) ([]*models.Notification, error) {
	return s.repo.FindByUserID(ctx, userID)
}

func (s *NotificationService) GetNotificationByID(ctx context.Context, id, userID string) (*models.Notification, error) {
	return s.repo.FindByID(ctx, id, userID)
}

// ToggleIsRead は所有者を確認してから既読フラグを設定します。
func (s *NotificationService) ToggleIsRead(ctx context.Context, id, userID string, isRead bool) (*models.Notification, error) {
	if _, err := s.repo.FindByID(ctx, id, userID); err != nil {
		return nil, err
	}
	if err := s.repo.SetRead(ctx, id, userID, isRead); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id, userID)
}
