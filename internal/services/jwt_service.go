package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"go-next-task/backend/internal/config"
	"go-next-task/backend/internal/models"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// JWTService はJWTトークンの生成と検証を扱います。
type JWTService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWTService は新しいJWTServiceを作成します。
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.AccessTokenDuration,
		refreshTTL: cfg.RefreshTokenDuration,
		now:        time.Now,
	}
}

// GenerateToken はJWTトークンを生成します。
// ゲストユーザーのトークンはアカウントの有効期限を超えません。
func (s *JWTService) GenerateToken(user *models.User, tokenType string) (string, error) {
	ttl := s.accessTTL
	if tokenType == TokenTypeRefresh {
		ttl = s.refreshTTL
	}
	now := s.now()
	exp := now.Add(ttl)
	if user.IsGuest && user.GuestExpiryDate != nil && user.GuestExpiryDate.Before(exp) {
		exp = *user.GuestExpiryDate
	}

	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"email":    user.Email,
		"is_guest": user.IsGuest,
		"type":     tokenType,
		"jti":      uuid.NewString(),
		"iat":      now.Unix(),
		"exp":      exp.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return tokenString, nil
}

// GenerateTokenPair はアクセストークンとリフレッシュトークンを生成します。
func (s *JWTService) GenerateTokenPair(user *models.User) (models.TokenPair, error) {
	access, err := s.GenerateToken(user, TokenTypeAccess)
	if err != nil {
		return models.TokenPair{}, err
	}
	refresh, err := s.GenerateToken(user, TokenTypeRefresh)
	if err != nil {
		return models.TokenPair{}, err
	}
	return models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ValidateToken はJWTトークンを検証し、種別が expectedType と一致すればクレームを返します。
func (s *JWTService) ValidateToken(tokenString, expectedType string) (*models.JWTClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, fmt.Errorf("invalid user_id")
	}
	tokenType, _ := claims["type"].(string)
	if tokenType != expectedType {
		return nil, fmt.Errorf("unexpected token type %q", tokenType)
	}
	email, _ := claims["email"].(string)
	isGuest, _ := claims["is_guest"].(bool)
	return &models.JWTClaims{
		UserID:  userID,
		Email:   email,
		IsGuest: isGuest,
		Type:    tokenType,
	}, nil
}
