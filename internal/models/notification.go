package models

import "time"

// Notification はユーザー向けのお知らせです。作成後に変更できるのは IsRead のみです。
type Notification struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"userId"`
	ListTitle  string    `db:"list_title" json:"listTitle"`
	ModalTitle string    `db:"modal_title" json:"modalTitle"`
	Message    string    `db:"message" json:"message"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	IsRead     bool      `db:"is_read" json:"isRead"`
}
