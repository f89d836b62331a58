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

var ErrLabelNotFound = apperror.NotFound("Label not found")

const labelColumns = "id, user_id, name, color, deleted"

type LabelRepository struct {
	db *database.DB
}

// NewLabelRepository は新しいLabelRepositoryを作成します。
func NewLabelRepository(db *database.DB) *LabelRepository {
	return &LabelRepository{db: db}
}

// Create は新しいラベルを挿入します。
func (r *LabelRepository) Create(ctx context.Context, l *models.Label) error {
	conn, err := r.db.Conn()
	if err != nil {
		return err
	}
	if l.ID == "" {
		l.ID = NewID()
	}
	query := "INSERT INTO labels (" + labelColumns + ") VALUES (:id, :user_id, :name, :color, :deleted)"
	if _, err := conn.NamedExecContext(ctx, query, l); err != nil {
		log.Printf("Failed to insert label: %v", err)
		return fmt.Errorf("could not insert label: %w", err)
	}
	return nil
}

// FindByID は所有者で絞り込んでラベルを取得します。論理削除済みでも返します。
func (r *LabelRepository) FindByID(ctx context.Context, id, userID string) (*models.Label, error) {
	conn, err := r.db.Conn()
	if err != nil {
		return nil, err
	}
	var l models.Label
	query := conn.Rebind("SELECT " + labelColumns + " FROM labels WHERE id = ? AND user_id = ?")
	if err := conn.GetContext(ctx, &l, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLabelNotFound
		}
		log.Printf("Failed to query label: %v", err)
		return nil, fmt.Errorf("could not query label: %w", err)
	}
	return &l, nil
}

// FindByUserID は論理削除されていないラベルをID順に返します。
func (r *LabelRepository) FindByUserID(ctx context.Context, userID string) ([]*models.Label, error) {
	conn, err := r.db.Conn()
	if err != nil {
		return nil, err
	}
	labels := []*models.Label{}
	query := conn.Rebind("SELECT " + labelColumns + " FROM labels WHERE user_id = ? AND deleted = ? ORDER BY id")
	if err := conn.SelectContext(ctx, &labels, query, userID, false); err != nil {
		log.Printf("Failed to query labels: %v", err)
		return nil, fmt.Errorf("could not query labels: %w", err)
	}
	return labels, nil
}

// FindActiveByIDs は ids のうち、所有者が userID で論理削除されていないラベルを一括取得します。
func (r *LabelRepository) FindActiveByIDs(ctx context.Context, userID string, ids []string) ([]*models.Label, error) {
	labels := []*models.Label{}
	if len(ids) == 0 {
		return labels, nil
	}
	conn, err := r.db.Conn()
	if err != nil {
		return nil, err
	}
	query, args, err := queryIn(conn, "SELECT "+labelColumns+" FROM labels WHERE id IN (?) AND user_id = ? AND deleted = ?", ids, userID, false)
	if err != nil {
		return nil, err
	}
	if err := conn.SelectContext(ctx, &labels, query, args...); err != nil {
		log.Printf("Failed to query labels by ids: %v", err)
		return nil, fmt.Errorf("could not query labels: %w", err)
	}
	return labels, nil
}

// Update はラベルの名前と色を書き換えます。
func (r *LabelRepository) Update(ctx context.Context, l *models.Label) error {
	conn, err := r.db.Conn()
	if err != nil {
		return err
	}
	res, err := conn.NamedExecContext(ctx, "UPDATE labels SET name = :name, color = :color WHERE id = :id AND user_id = :user_id", l)
	if err != nil {
		log.Printf("Failed to update label: %v", err)
		return fmt.Errorf("could not update label: %w", err)
	}
	return requireAffected(res, ErrLabelNotFound)
}

// MarkDeleted は所有者を条件にラベルを論理削除します。
func (r *LabelRepository) MarkDeleted(ctx context.Context, id, userID string) error {
	conn, err := r.db.Conn()
	if err != nil {
		return err
	}
	res, err := conn.ExecContext(ctx, conn.Rebind("UPDATE labels SET deleted = ? WHERE id = ? AND user_id = ?"), true, id, userID)
	if err != nil {
		log.Printf("Failed to mark label deleted: %v", err)
		return fmt.Errorf("could not delete label: %w", err)
	}
	return requireAffected(res, ErrLabelNotFound)
}

// DeleteByUserIDs は指定ユーザーのラベルを物理削除します。
func (r *LabelRepository) DeleteByUserIDs(ctx context.Context, userIDs []string) (int64, error) {
	return deleteByUserIDs(ctx, r.db, "labels", userIDs)
}
