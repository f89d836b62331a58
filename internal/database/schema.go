package database

import (
	"context"
	"fmt"
	"strings"
)

// dialect はドライバーごとのDDLの差分です。
type dialect struct {
	timestamp string
	// MySQL は CREATE INDEX IF NOT EXISTS を持たないため、テーブル定義内にインデックスを書く
	inlineIndexes bool
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case "mysql":
		return dialect{timestamp: "DATETIME(3)", inlineIndexes: true}, nil
	case "postgres":
		return dialect{timestamp: "TIMESTAMPTZ"}, nil
	case "sqlite3":
		// go-sqlite3 は宣言型が "datetime" の場合のみ time.Time に変換する
		return dialect{timestamp: "DATETIME"}, nil
	default:
		return dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

type table struct {
	name    string
	columns []string
	indexes map[string]string // インデックス名 -> カラム
}

func tables(d dialect) []table {
	ts := d.timestamp
	return []table{
		{
			name: "users",
			columns: []string{
				"id CHAR(24) PRIMARY KEY",
				"username VARCHAR(50) NOT NULL",
				"email VARCHAR(255) NOT NULL UNIQUE",
				"password_hash VARCHAR(255) NOT NULL DEFAULT ''",
				"is_guest BOOLEAN NOT NULL DEFAULT FALSE",
				"guest_expiry_date " + ts + " NULL",
				"created_at " + ts + " NOT NULL",
			},
			indexes: map[string]string{"idx_users_guest_expiry": "is_guest, guest_expiry_date"},
		},
		{
			name: "tasks",
			columns: []string{
				"id CHAR(24) PRIMARY KEY",
				"user_id CHAR(24) NOT NULL",
				"title TEXT NOT NULL",
				"description TEXT NOT NULL",
				"due_date " + ts + " NULL",
				"priority VARCHAR(2) NOT NULL DEFAULT 'P3'",
				"created_at " + ts + " NOT NULL",
				"updated_at " + ts + " NOT NULL",
				"deleted_at " + ts + " NULL",
				"completed_at " + ts + " NULL",
				"is_completed BOOLEAN NOT NULL DEFAULT FALSE",
			},
			indexes: map[string]string{"idx_tasks_user": "user_id, created_at"},
		},
		{
			name: "task_labels",
			columns: []string{
				"task_id CHAR(24) NOT NULL",
				"label_id CHAR(24) NOT NULL",
				"sort_order INT NOT NULL",
				"PRIMARY KEY (task_id, label_id)",
			},
			indexes: map[string]string{"idx_task_labels_label": "label_id"},
		},
		{
			name: "labels",
			columns: []string{
				"id CHAR(24) PRIMARY KEY",
				"user_id CHAR(24) NOT NULL",
				"name VARCHAR(30) NOT NULL",
				"color VARCHAR(9) NOT NULL DEFAULT '#cccccc'",
				"deleted BOOLEAN NOT NULL DEFAULT FALSE",
			},
			indexes: map[string]string{"idx_labels_user": "user_id"},
		},
		{
			name: "notifications",
			columns: []string{
				"id CHAR(24) PRIMARY KEY",
				"user_id CHAR(24) NOT NULL",
				"list_title VARCHAR(100) NOT NULL",
				"modal_title VARCHAR(100) NOT NULL",
				"message TEXT NOT NULL",
				"created_at " + ts + " NOT NULL",
				"is_read BOOLEAN NOT NULL DEFAULT FALSE",
			},
			indexes: map[string]string{"idx_notifications_user": "user_id, created_at"},
		},
		{
			name: "activity_logs",
			columns: []string{
				"id CHAR(24) PRIMARY KEY",
				"user_id CHAR(24) NOT NULL",
				"task_id CHAR(24) NOT NULL",
				"task_title TEXT NOT NULL",
				"action VARCHAR(20) NOT NULL",
				"created_at " + ts + " NOT NULL",
			},
			indexes: map[string]string{"idx_activity_logs_user": "user_id, created_at"},
		},
	}
}

// statements はテーブルとインデックスを作成するDDLを返します。
func statements(driver string) ([]string, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	var stmts []string
	for _, t := range tables(d) {
		cols := append([]string{}, t.columns...)
		var indexStmts []string
		for name, on := range t.indexes {
			if d.inlineIndexes {
				cols = append(cols, fmt.Sprintf("INDEX %s (%s)", name, on))
				continue
			}
			indexStmts = append(indexStmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", name, t.name, on))
		}
		stmts = append(stmts, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", t.name, strings.Join(cols, ",\n\t")))
		stmts = append(stmts, indexStmts...)
	}
	return stmts, nil
}

// Migrate はスキーマを作成します。何度実行しても安全です。
func (d *DB) Migrate(ctx context.Context) error {
	conn, err := d.Conn()
	if err != nil {
		return err
	}
	stmts, err := statements(conn.DriverName())
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("could not run migration: %w", err)
		}
	}
	return nil
}
