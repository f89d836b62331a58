package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"go-next-task/backend/internal/apperror"
	"go-next-task/backend/internal/database"
	"go-next-task/backend/internal/models"
)

var ErrNotificationNotFound = apperror.NotFound("Notification not found")

const notificationColumns = "id, user_id, list_title, modal_title, message, created_at, is_read"

type NotificationRepository struct {
	db *database.DB
}

func NewNotificationRepository(db *database.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create は新しいお知らせを挿入します。
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	conn, err := r.db.Conn()
	if err != nil {
		return err
	}
	if n.ID == "" {
		n.ID = NewID()
	}
	query := "INSERT INTO notifications (" + notificationColumns + ") VALUES (:id, :user_id, :list_title, :modal_title, :message, :created_at, :is_read)"
	if _, err := conn.NamedExecContext(ctx, query, n); err != nil {
		log.Printf("Failed to insert notification: %v", err)
		return fmt.Errorf("could not insert notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) FindByID(ctx context.Context, id, userID string) (*models.Notification, error) {
	conn, err := r.db.Conn()
	if err != nil {
		return nil, err
	}
	var n models.Notification
	query := conn.Rebind("SELECT " + notificationColumns + " FROM notifications WHERE id = ? AND user_id = ?")
	if err := conn.GetContext(ctx, &n, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("could not query notification: %w", err)
	}
	return &n, nil
}

// FindByUserID はお知らせを新しい順に返します。
func (r *NotificationRepository) FindByUserID(ctx context.Context, userID string) ([]*models.Notification, error) {
	conn, err := r.db.Conn()
	if err != nil {
		return nil, err
	}
	notifications := []*models.Notification{}
	query := conn.Rebind("SELECT " + notificationColumns + " FROM notifications WHERE user_id = ? ORDER BY created_at DESC, id DESC")
	if err := conn.SelectContext(ctx, &notifications, query, userID); err != nil {
		log.Printf("Failed to query notifications: %v", err)
		return nil, fmt.Errorf("could not query notifications: %w", err)
	}
	return notifications, nil
}

// SetRead は既読フラグを書き換えます。
func (r *NotificationRepository) SetRead(ctx context.Context, id, userID string, isRead bool) error {
	conn, err := r.db.Conn()
	if err != nil {
		return err
	}
	res, err := conn.ExecContext(ctx, conn.Rebind("UPDATE notifications SET is_read = ? WHERE id = ? AND user_id = ?"), isRead, id, userID)
	if err != nil {
		log.Printf("Failed to update notification: %v", err)
		return fmt.Errorf("could not update notification: %w", err)
	}
	return requireAffected(res, ErrNotificationNotFound)
}

func (r *NotificationRepository) DeleteByUserIDs(ctx context.Context, userIDs []string) (int64, error) {
	return deleteByUserIDs(ctx, r.db, "notifications", userIDs)
}
