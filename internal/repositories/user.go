package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt" // パスワードのハッシュ化用

	"go-next-task/backend/internal/apperror"
	"go-next-task/backend/internal/database"
	"go-next-task/backend/internal/models"
)

// UserRepository はユーザーの永続化を行います。
type UserRepository struct {
	db *database.DB
}

// NewUserRepository は新しいUserRepositoryインスタンスを作成します。
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// HashPassword は与えられたパスワードをbcryptでハッシュ化します。
func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedPassword), nil
}

// VerifyPassword はハッシュ化されたパスワードと平文のパスワードを比較します。
func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

var (
	ErrDuplicateEmail = apperror.Conflict("Email already exists")
	ErrUserNotFound   = apperror.NotFound("User not found")
)

const userColumns = "id, username, email, password_hash, is_guest, guest_expiry_date, created_at"

// Create は新しいユーザーをデータベースに挿入します。
func (r *UserRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	conn, err := r.db.Conn()
	if err != nil {
		return nil, err
	}
	if u.ID == "" {
		u.ID = NewID()
	}
	query := `INSERT INTO users (id, username, email, password_hash, is_guest, guest_expiry_date, created_at)
		VALUES (:id, :username, :email, :password_hash, :is_guest, :guest_expiry_date, :created_at)`
	if _, err := conn.NamedExecContext(ctx, query, u); err != nil {
		if database.IsDuplicateKey(err) {
			return nil, ErrDuplicateEmail
		}
		log.Printf("Failed to insert user: %v", err)
		return nil, fmt.Errorf("could not insert user: %w", err)
	}
	return u, nil
}

// FindByEmail はメールアドレスでユーザーを検索します。
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

// FindByID はIDでユーザーを検索します。
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg any) (*models.User, error) {
	conn, err := r.db.Conn()
	if err != nil {
		return nil, err
	}
	var u models.User
	err = conn.GetContext(ctx, &u, conn.Rebind("SELECT "+userColumns+" FROM users WHERE "+where), arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		log.Printf("Failed to query user: %v", err)
		return nil, fmt.Errorf("could not query user: %w", err)
	}
	return &u, nil
}

// FindExpiredGuestIDs は有効期限が now より前のゲストユーザーのIDを返します。
func (r *UserRepository) FindExpiredGuestIDs(ctx context.Context, now time.Time) ([]string, error) {
	conn, err := r.db.Conn()
	if err != nil {
		return nil, err
	}
	ids := []string{}
	query := conn.Rebind("SELECT id FROM users WHERE is_guest = ? AND guest_expiry_date IS NOT NULL AND guest_expiry_date < ? ORDER BY id")
	if err := conn.SelectContext(ctx, &ids, query, true, now.UTC()); err != nil {
		return nil, fmt.Errorf("could not query expired guests: %w", err)
	}
	return ids, nil
}

// DeleteByIDs はユーザーを物理削除します。
func (r *UserRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	conn, err := r.db.Conn()
	if err != nil {
		return 0, err
	}
	query, args, err := queryIn(conn, "DELETE FROM users WHERE id IN (?)", ids)
	if err != nil {
		return 0, err
	}
	res, err := conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("could not delete users: %w", err)
	}
	return res.RowsAffected()
}
