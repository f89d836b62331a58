package models

// Label はタスクに付けるラベルです。削除は論理削除 (Deleted) で行います。
type Label struct {
	ID      string `db:"id" json:"id"`
	UserID  string `db:"user_id" json:"userId"`
	Name    string `db:"name" json:"name"`
	Color   string `db:"color" json:"color"`
	Deleted bool   `db:"deleted" json:"deleted"`
}
