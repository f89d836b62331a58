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

var ErrInvalidCredentials = apperror.Unauthorized("Invalid credentials")

// UserService はユーザー関連のビジネスロジックを扱います。
type UserService struct {
	userRepo  *repositories.UserRepository
	validator *validation.Engine
	now       func() time.Time
}

// NewUserService は新しいUserServiceを作成します。
func NewUserService(userRepo *repositories.UserRepository, validator *validation.Engine) *UserService {
	return &UserService{userRepo: userRepo, validator: validator, now: time.Now}
}

// RegisterUser はユーザーを登録します。メールアドレスが重複している場合は Conflict です。
func (s *UserService) RegisterUser(ctx context.Context, input map[string]any) (*models.User, error) {
	clean, err := s.validator.Validate(validation.KindUser, validation.ModeCreate, input)
	if err != nil {
		return nil, err
	}
	username, _ := clean.String("username")
	email, _ := clean.String("email")
	password, _ := clean.String("password")

	hashedPassword, err := repositories.HashPassword(password)
	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		CreatedAt:    timestamp(s.now),
	}
	createdUser, err := s.userRepo.Create(ctx, newUser)
	if err != nil {
		return nil, err
	}
	createdUser.PasswordHash = "" // レスポンスにパスワードを含めない
	return createdUser, nil
}

// AuthenticateUser はユーザーを認証し、成功したらユーザーを返します。
// ゲストユーザーはパスワードを持たないため、パスワードでログインできません。
func (s *UserService) AuthenticateUser(ctx context.Context, req models.UserLoginRequest) (*models.User, error) {
	foundUser, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if foundUser.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := repositories.VerifyPassword(foundUser.PasswordHash, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	foundUser.PasswordHash = "" // レスポンスにパスワードを含めない
	return foundUser, nil
}

// FindByID はユーザーを取得します。
func (s *UserService) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = ""
	return u, nil
}

// timestamp はミリ秒に丸めたUTCの現在時刻を返します。
func timestamp(now func() time.Time) time.Time {
	return now().UTC().Truncate(time.Millisecond)
}
