package models

import "time"

// ActivityLog はタスク操作の履歴です。追記のみで更新・削除はしません。
type ActivityLog struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	TaskID    string    `db:"task_id" json:"taskId"`
	TaskTitle string    `db:"task_title" json:"taskTitle"`
	Action    string    `db:"action" json:"action"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// ActivityLogPage はページングされたアクティビティログです。
type ActivityLogPage struct {
	Logs  []*ActivityLog `json:"logs"`
	Total int            `json:"total"`
	Page  int            `json:"page,omitempty"`
	Limit int            `json:"limit,omitempty"`
}
