package services

import (
	"context"
	"log"

	"go-next-task/backend/internal/apperror"
	"go-next-task/backend/internal/models"
	"go-next-task/backend/internal/repositories"
	"go-next-task/backend/internal/validation"
)

// LabelService はLabel関連のビジネスロジックを扱います。
type LabelService struct {
	labelRepo *repositories.LabelRepository
	taskRepo  *repositories.TaskRepository
	validator *validation.Engine
}

// NewLabelService は新しいLabelServiceを作成します。
func NewLabelService(labelRepo *repositories.LabelRepository, taskRepo *repositories.TaskRepository, validator *validation.Engine) *LabelService {
	return &LabelService{labelRepo: labelRepo, taskRepo: taskRepo, validator: validator}
}

// CreateLabel は新しいLabelを作成します。
func (s *LabelService) CreateLabel(ctx context.Context, userID string, input map[string]any) (*models.Label, error) {
	clean, err := s.validator.Validate(validation.KindLabel, validation.ModeCreate, input)
	if err != nil {
		return nil, err
	}
	label := &models.Label{UserID: userID}
	label.Name, _ = clean.String("name")
	label.Color, _ = clean.String("color")

	if err := s.labelRepo.Create(ctx, label); err != nil {
		return nil, err
	}
	created, err := s.labelRepo.FindByID(ctx, label.ID, userID)
	if err != nil {
		log.Printf("Failed to re-read created label %s: %v", label.ID, err)
		return nil, apperror.Internal("Failed to create label", err)
	}
	return created, nil
}

func (s *LabelService) GetLabelByID(ctx context.Context, id, userID string) (*models.Label, error) {
	return s.labelRepo.FindByID(ctx, id, userID)
}

// GetLabels は論理削除されていないLabelを取得します。
func (s *LabelService) GetLabels(ctx context.Context, userID string) ([]*models.Label, error) {
	return s.labelRepo.FindByUserID(ctx, userID)
}

// UpdateLabel は存在と所有者を確認してからLabelを更新します。
func (s *LabelService) UpdateLabel(ctx context.Context, id, userID string, patch map[string]any) (*models.Label, error) {
	label, err := s.labelRepo.FindByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	clean, err := s.validator.Validate(validation.KindLabel, validation.ModeUpdate, patch)
	if err != nil {
		return nil, err
	}
	if name, ok := clean.String("name"); ok {
		label.Name = name
	}
	if color, ok := clean.String("color"); ok {
		label.Color = color
	}
	if err := s.labelRepo.Update(ctx, label); err != nil {
		return nil, err
	}
	return s.labelRepo.FindByID(ctx, id, userID)
}

// DeleteLabel はLabelを論理削除し、すべてのTaskのラベル配列からIDを取り除きます。
//
// 2段階の操作でトランザクションではありません。削除マークを先に確定させ、
// 取り外しに失敗した場合はマークを戻さずにエラーを返します。残ったIDは読み取り時に無視されます。
func (s *LabelService) DeleteLabel(ctx context.Context, id, userID string) (*models.Label, error) {
	if err := s.labelRepo.MarkDeleted(ctx, id, userID); err != nil {
		return nil, err
	}

	detached, detachErr := s.taskRepo.DetachLabel(ctx, id)

	label, err := s.labelRepo.FindByID(ctx, id, userID)
	if err != nil {
		log.Printf("Failed to re-read deleted label %s: %v", id, err)
		label = nil
	}
	if detachErr != nil {
		log.Printf("Label %s marked deleted but detach failed: %v", id, detachErr)
		return label, apperror.Internal("Label was deleted but could not be removed from tasks", detachErr)
	}
	if label == nil {
		return nil, apperror.Internal("Failed to load deleted label", err)
	}
	log.Printf("Label %s deleted and detached from %d tasks", id, detached)
	return label, nil
}
