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

var ErrActivityLogNotFound = apperror.NotFound("Activity log not found")

const activityLogColumns = "id, user_id, task_id, task_title, action, created_at"

// ActivityLogRepository はアクティビティログを扱います。追記と参照のみです。
type ActivityLogRepository struct {
	db *database.DB
}

func NewActivityLogRepository(db *database.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

func (r *ActivityLogRepository) Create(ctx context.Context, l *models.ActivityLog) error {
	conn, err := r.db.Conn()
	if err != nil {
		return err
	}
	if l.ID == "" {
		l.ID = NewID()
	}
	query := "INSERT INTO activity_logs (" + activityLogColumns + ") VALUES (:id, :user_id, :task_id, :task_title, :action, :created_at)"
	if _, err := conn.NamedExecContext(ctx, query, l); err != nil {
		log.Printf("Failed to insert activity log: %v", err)
		return fmt.Errorf("could not insert activity log: %w", err)
	}
	return nil
}

func (r *ActivityLogRepository) FindByID(ctx context.Context, id, userID string) (*models.ActivityLog, error) {
	conn, err := r.db.Conn()
	if err != nil {
		return nil, err
	}
	var l models.ActivityLog
	query := conn.Rebind("SELECT " + activityLogColumns + " FROM activity_logs WHERE id = ? AND user_id = ?")
	if err := conn.GetContext(ctx, &l, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrActivityLogNotFound
		}
		return nil, fmt.Errorf("could not query activity log: %w", err)
	}
	return &l, nil
}

// FindByUserID は新しい順に skip 件を飛ばして最大 limit 件を返します。
func (r *ActivityLogRepository) FindByUserID(ctx context.Context, userID string, skip, limit int) ([]*models.ActivityLog, error) {
	conn, err := r.db.Conn()
	if err != nil {
		return nil, err
	}
	logs := []*models.ActivityLog{}
	query := conn.Rebind("SELECT " + activityLogColumns + " FROM activity_logs WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?")
	if err := conn.SelectContext(ctx, &logs, query, userID, limit, skip); err != nil {
		log.Printf("Failed to query activity logs: %v", err)
		return nil, fmt.Errorf("could not query activity logs: %w", err)
	}
	return logs, nil
}

// CountByUserID はユーザーのアクティビティログ総数を返します。
func (r *ActivityLogRepository) CountByUserID(ctx context.Context, userID string) (int, error) {
	conn, err := r.db.Conn()
	if err != nil {
		return 0, err
	}
	var total int
	if err := conn.GetContext(ctx, &total, conn.Rebind("SELECT COUNT(*) FROM activity_logs WHERE user_id = ?"), userID); err != nil {
		return 0, fmt.Errorf("could not count activity logs: %w", err)
	}
	return total, nil
}

func (r *ActivityLogRepository) DeleteByUserIDs(ctx context.Context, userIDs []string) (int64, error) {
	return deleteByUserIDs(ctx, r.db, "activity_logs", userIDs)
}
