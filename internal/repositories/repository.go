// Package repositories はデータベース操作を行うリポジトリを提供します。
package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-next-task/backend/internal/database"
)

// NewID は 24桁の16進数IDを生成します。
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// queryIn は IN (?) を含むクエリを展開し、ドライバーのプレースホルダーに変換します。
func queryIn(conn *sqlx.DB, query string, args ...any) (string, []any, error) {
	q, a, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, fmt.Errorf("could not expand query: %w", err)
	}
	return conn.Rebind(q), a, nil
}

// deleteByUserIDs は user_id が ids に含まれる行を物理削除します。
func deleteByUserIDs(ctx context.Context, db *database.DB, table string, userIDs []string) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	conn, err := db.Conn()
	if err != nil {
		return 0, err
	}
	query, args, err := queryIn(conn, "DELETE FROM "+table+" WHERE user_id IN (?)", userIDs)
	if err != nil {
		return 0, err
	}
	res, err := conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("could not delete from %s: %w", table, err)
	}
	return res.RowsAffected()
}
