// Package services はビジネスロジックを提供します。
package services

import (
	"go-next-task/backend/internal/config"
	"go-next-task/backend/internal/database"
	"go-next-task/backend/internal/repositories"
	"go-next-task/backend/internal/validation"
)

// Services はリポジトリを組み立てたサービス一式です。
type Services struct {
	Validator     *validation.Engine
	JWT           *JWTService
	Users         *UserService
	Tasks         *TaskService
	Labels        *LabelService
	Notifications *NotificationService
	ActivityLogs  *ActivityLogService
	Guests        *GuestService
}

// New は共有データベースハンドルからすべてのサービスを作成します。
func New(db *database.DB, cfg *config.Config) *Services {
	validator := validation.NewEngine(validation.WithStrictToggle(cfg.Validation.StrictToggle))

	// リポジトリ
	userRepo := repositories.NewUserRepository(db)
	taskRepo := repositories.NewTaskRepository(db)
	labelRepo := repositories.NewLabelRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	activityRepo := repositories.NewActivityLogRepository(db)

	// サービス
	jwtService := NewJWTService(cfg.JWT)
	activityService := NewActivityLogService(activityRepo, validator)
	taskService := NewTaskService(taskRepo, labelRepo, activityService, validator)
	labelService := NewLabelService(labelRepo, taskRepo, validator)
	notificationService := NewNotificationService(notificationRepo, validator)
	guestService := NewGuestService(GuestDeps{
		Users:               userRepo,
		Tasks:               taskRepo,
		Labels:              labelRepo,
		Notifications:       notificationRepo,
		ActivityLogs:        activityRepo,
		TaskService:         taskService,
		LabelService:        labelService,
		NotificationService: notificationService,
		JWTService:          jwtService,
	}, cfg.Guest.TTL)

	return &Services{
		Validator:     validator,
		JWT:           jwtService,
		Users:         NewUserService(userRepo, validator),
		Tasks:         taskService,
		Labels:        labelService,
		Notifications: notificationService,
		ActivityLogs:  activityService,
		Guests:        guestService,
	}
}
