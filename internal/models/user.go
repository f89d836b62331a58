package models

import "time"

// User はユーザーのデータベース構造体を表します。
// ゲストユーザーは有効期限 (GuestExpiryDate) を持ち、期限切れになると削除されます。
type User struct {
	ID              string     `db:"id" json:"id"`
	Username        string     `db:"username" json:"username"`
	Email           string     `db:"email" json:"email"`
	PasswordHash    string     `db:"password_hash" json:"-"` // JSONに出さない
	IsGuest         bool       `db:"is_guest" json:"isGuest"`
	GuestExpiryDate *time.Time `db:"guest_expiry_date" json:"guestExpiryDate,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
}

type UserLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"` // 生パスワード
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// TokenPair はログイン時に発行するアクセストークンとリフレッシュトークンです。
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResponse はログイン系エンドポイントのレスポンスです。
type AuthResponse struct {
	User *User `json:"user"`
	TokenPair
}

type JWTClaims struct {
	UserID  string
	Email   string
	IsGuest bool
	Type    string
}
