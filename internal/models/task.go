// Package models はドメインのエンティティを定義します。
package models

import (
	"time"
)

// Task はユーザーが所有するタスクです。
// Labels はラベルIDの配列、LabelDetails は読み取り時に解決されたラベル本体です。
type Task struct {
	ID           string     `db:"id" json:"id"`
	UserID       string     `db:"user_id" json:"userId"`
	Title        string     `db:"title" json:"title"`
	Description  string     `db:"description" json:"description"`
	Labels       []string   `db:"-" json:"labels"`
	LabelDetails []*Label   `db:"-" json:"labelDetails"`
	DueDate      *time.Time `db:"due_date" json:"dueDate"`
	Priority     string     `db:"priority" json:"priority"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
	DeletedAt    *time.Time `db:"deleted_at" json:"deletedAt"`
	CompletedAt  *time.Time `db:"completed_at" json:"completedAt"`
	IsCompleted  bool       `db:"is_completed" json:"isCompleted"`
}
