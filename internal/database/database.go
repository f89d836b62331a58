// Package database はプロセス全体で共有するデータベースハンドルを提供します。
package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"go-next-task/backend/internal/config"
)

var (
	// ErrNotInitialized は初期化前のハンドルを使おうとした場合のエラーです。
	ErrNotInitialized = errors.New("database: handle is not initialized")
	// ErrClosed は Close 後のハンドルを使おうとした場合のエラーです。
	ErrClosed = errors.New("database: handle is closed")
)

// DB は起動時に一度だけ作成され、すべてのリポジトリに注入される接続プールです。
// Close は一度だけ実行され、その後の Conn 呼び出しは ErrClosed を返します。
type DB struct {
	mu     sync.RWMutex
	conn   *sqlx.DB
	closed bool
}

// New は既存の接続をラップします。
func New(conn *sqlx.DB) *DB {
	return &DB{conn: conn}
}

// GetDSN は設定からドライバーごとの接続文字列 (DSN) を構築します。
func GetDSN(cfg config.DatabaseConfig) (string, error) {
	switch cfg.Driver {
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = cfg.Host + ":" + strconv.Itoa(cfg.Port)
		mc.DBName = cfg.Name
		mc.ParseTime = true
		mc.Loc = time.UTC
		// UPDATE の RowsAffected を「一致した行数」にする
		mc.ClientFoundRows = true
		return mc.FormatDSN(), nil
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode), nil
	case "sqlite3":
		return cfg.Name, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Open はデータベース接続を初期化し、疎通を確認します。
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	dsn, err := GetDSN(cfg)
	if err != nil {
		return nil, err
	}
	conn, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if cfg.Driver == "sqlite3" {
		// インメモリDBは接続ごとに別のDBになるため、接続を1本に絞る
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(25)
		conn.SetMaxIdleConns(25)
		conn.SetConnMaxLifetime(5 * time.Minute)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Printf("Successfully connected to %s database!", cfg.Driver)
	return New(conn), nil
}

// Conn は利用可能な接続プールを返します。
func (d *DB) Conn() (*sqlx.DB, error) {
	if d == nil {
		return nil, ErrNotInitialized
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, ErrClosed
	}
	if d.conn == nil {
		return nil, ErrNotInitialized
	}
	return d.conn, nil
}

// Ping はデータベースの疎通を確認します。
func (d *DB) Ping(ctx context.Context) error {
	conn, err := d.Conn()
	if err != nil {
		return err
	}
	return conn.PingContext(ctx)
}

// Close は接続プールを閉じます。2回目以降の呼び出しは ErrClosed を返します。
func (d *DB) Close() error {
	if d == nil {
		return ErrNotInitialized
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if d.conn == nil {
		return ErrNotInitialized
	}
	d.closed = true
	return d.conn.Close()
}

// IsDuplicateKey はドライバーごとの一意制約違反エラーかどうかを判定します。
func IsDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
