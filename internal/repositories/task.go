package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"go-next-task/backend/internal/apperror"
	"go-next-task/backend/internal/database"
	"go-next-task/backend/internal/models"
)

var ErrTaskNotFound = apperror.NotFound("Task not found")

const taskColumns = "id, user_id, title, description, due_date, priority, created_at, updated_at, deleted_at, completed_at, is_completed"

// TaskRepository はタスクと task_labels (タスクのラベル配列) を扱います。
// タスク行とそのラベル行は1つのトランザクションで書き込みます。
type TaskRepository struct {
	db *database.DB
}

// NewTaskRepository は新しいTaskRepositoryを作成します。
func NewTaskRepository(db *database.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create は新しいタスクを挿入します。ID が空の場合は生成します。
func (r *TaskRepository) Create(ctx context.Context, t *models.Task) error {
	conn, err := r.db.Conn()
	if err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = NewID()
	}

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO tasks (` + taskColumns + `)
		VALUES (:id, :user_id, :title, :description, :due_date, :priority, :created_at, :updated_at, :deleted_at, :completed_at, :is_completed)`
	if _, err := tx.NamedExecContext(ctx, query, t); err != nil {
		log.Printf("Failed to insert task: %v", err)
		return fmt.Errorf("could not insert task: %w", err)
	}
	if err := insertTaskLabels(ctx, tx, t.ID, t.Labels); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit task: %w", err)
	}
	return nil
}

// FindByID は所有者で絞り込んでタスクを取得します。論理削除済みのタスクも返します。
func (r *TaskRepository) FindByID(ctx context.Context, id, userID string) (*models.Task, error) {
	conn, err := r.db.Conn()
	if err != nil {
		return nil, err
	}
	var t models.Task
	query := conn.Rebind("SELECT " + taskColumns + " FROM tasks WHERE id = ? AND user_id = ?")
	if err := conn.GetContext(ctx, &t, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		log.Printf("Failed to query task: %v", err)
		return nil, fmt.Errorf("could not query task: %w", err)
	}
	if err := loadTaskLabels(ctx, conn, []*models.Task{&t}); err != nil {
		return nil, err
	}
	return &t, nil
}

// FindByUserID は論理削除されていないタスクを作成日時の降順で返します。
func (r *TaskRepository) FindByUserID(ctx context.Context, userID string) ([]*models.Task, error) {
	conn, err := r.db.Conn()
	if err != nil {
		return nil, err
	}
	tasks := []*models.Task{}
	query := conn.Rebind("SELECT " + taskColumns + " FROM tasks WHERE user_id = ? AND deleted_at IS NULL ORDER BY created_at DESC, id DESC")
	if err := conn.SelectContext(ctx, &tasks, query, userID); err != nil {
		log.Printf("Failed to query tasks: %v", err)
		return nil, fmt.Errorf("could not query tasks: %w", err)
	}
	if err := loadTaskLabels(ctx, conn, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update はタスク行全体を書き換えます。replaceLabels が true の場合はラベル配列も置き換えます。
// 一致する行がなければ ErrTaskNotFound を返します。
func (r *TaskRepository) Update(ctx context.Context, t *models.Task, replaceLabels bool) error {
	conn, err := r.db.Conn()
	if err != nil {
		return err
	}
	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE tasks SET title = :title, description = :description, due_date = :due_date,
		priority = :priority, updated_at = :updated_at, deleted_at = :deleted_at,
		completed_at = :completed_at, is_completed = :is_completed
		WHERE id = :id AND user_id = :user_id`
	res, err := tx.NamedExecContext(ctx, query, t)
	if err != nil {
		log.Printf("Failed to update task: %v", err)
		return fmt.Errorf("could not update task: %w", err)
	}
	if err := requireAffected(res, ErrTaskNotFound); err != nil {
		return err
	}

	if replaceLabels {
		if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM task_labels WHERE task_id = ?"), t.ID); err != nil {
			return fmt.Errorf("could not clear task labels: %w", err)
		}
		if err := insertTaskLabels(ctx, tx, t.ID, t.Labels); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit task: %w", err)
	}
	return nil
}

// SetDeletedAt は deleted_at と updated_at のみを書き換えます。deletedAt が nil なら復元です。
func (r *TaskRepository) SetDeletedAt(ctx context.Context, id, userID string, deletedAt *time.Time, updatedAt time.Time) error {
	conn, err := r.db.Conn()
	if err != nil {
		return err
	}
	query := conn.Rebind("UPDATE tasks SET deleted_at = ?, updated_at = ? WHERE id = ? AND user_id = ?")
	res, err := conn.ExecContext(ctx, query, deletedAt, updatedAt, id, userID)
	if err != nil {
		log.Printf("Failed to update task deletion: %v", err)
		return fmt.Errorf("could not update task: %w", err)
	}
	return requireAffected(res, ErrTaskNotFound)
}

// SetCompletion は完了状態と completed_at を書き換えます。
func (r *TaskRepository) SetCompletion(ctx context.Context, id, userID string, isCompleted bool, completedAt *time.Time, updatedAt time.Time) error {
	conn, err := r.db.Conn()
	if err != nil {
		return err
	}
	query := conn.Rebind("UPDATE tasks SET is_completed = ?, completed_at = ?, updated_at = ? WHERE id = ? AND user_id = ?")
	res, err := conn.ExecContext(ctx, query, isCompleted, completedAt, updatedAt, id, userID)
	if err != nil {
		log.Printf("Failed to update task completion: %v", err)
		return fmt.Errorf("could not update task: %w", err)
	}
	return requireAffected(res, ErrTaskNotFound)
}

// DetachLabel はすべてのタスクのラベル配列から labelID を取り除きます。
// ラベルIDは全体で一意なので、所有者では絞り込みません。
func (r *TaskRepository) DetachLabel(ctx context.Context, labelID string) (int64, error) {
	conn, err := r.db.Conn()
	if err != nil {
		return 0, err
	}
	res, err := conn.ExecContext(ctx, conn.Rebind("DELETE FROM task_labels WHERE label_id = ?"), labelID)
	if err != nil {
		log.Printf("Failed to detach label %s: %v", labelID, err)
		return 0, fmt.Errorf("could not detach label: %w", err)
	}
	return res.RowsAffected()
}

// DeleteByUserIDs は指定ユーザーのタスクとそのラベル行を物理削除します。
func (r *TaskRepository) DeleteByUserIDs(ctx context.Context, userIDs []string) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	conn, err := r.db.Conn()
	if err != nil {
		return 0, err
	}
	query, args, err := queryIn(conn, "DELETE FROM task_labels WHERE task_id IN (SELECT id FROM tasks WHERE user_id IN (?))", userIDs)
	if err != nil {
		return 0, err
	}
	if _, err := conn.ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("could not delete task labels: %w", err)
	}
	return deleteByUserIDs(ctx, r.db, "tasks", userIDs)
}

func insertTaskLabels(ctx context.Context, tx *sqlx.Tx, taskID string, labelIDs []string) error {
	if len(labelIDs) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(labelIDs))
	for i, labelID := range labelIDs {
		rows = append(rows, map[string]any{"task_id": taskID, "label_id": labelID, "sort_order": i})
	}
	query := "INSERT INTO task_labels (task_id, label_id, sort_order) VALUES (:task_id, :label_id, :sort_order)"
	if _, err := tx.NamedExecContext(ctx, query, rows); err != nil {
		log.Printf("Failed to insert task labels: %v", err)
		return fmt.Errorf("could not insert task labels: %w", err)
	}
	return nil
}

type taskLabelRow struct {
	TaskID  string `db:"task_id"`
	LabelID string `db:"label_id"`
}

// loadTaskLabels は複数タスクのラベル配列を1回のクエリで読み込みます。
func loadTaskLabels(ctx context.Context, conn *sqlx.DB, tasks []*models.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	byID := make(map[string]*models.Task, len(tasks))
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		t.Labels = []string{}
		byID[t.ID] = t
		ids = append(ids, t.ID)
	}

	query, args, err := queryIn(conn, "SELECT task_id, label_id FROM task_labels WHERE task_id IN (?) ORDER BY task_id, sort_order", ids)
	if err != nil {
		return err
	}
	var rows []taskLabelRow
	if err := conn.SelectContext(ctx, &rows, query, args...); err != nil {
		log.Printf("Failed to query task labels: %v", err)
		return fmt.Errorf("could not query task labels: %w", err)
	}
	for _, row := range rows {
		if t, ok := byID[row.TaskID]; ok {
			t.Labels = append(t.Labels, row.LabelID)
		}
	}
	return nil
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
