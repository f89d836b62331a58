// Package config は環境変数からアプリケーション設定を読み込みます。
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Guest      GuestConfig
	Validation ValidationConfig
	Redis      RedisConfig
}

type ServerConfig struct {
	Port           string
	Environment    string
	AllowedOrigins []string
}

// DatabaseConfig は共有データベースハンドルの接続設定です。
// Driver は mysql / postgres / sqlite3 のいずれかです。
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	Secret               string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
}

// GuestConfig はゲストアカウントの有効期限と削除スイープの間隔です。
type GuestConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

type ValidationConfig struct {
	StrictToggle bool
}

// RedisConfig はレート制限用の設定です。Addr が空の場合、レート制限は無効になります。
type RedisConfig struct {
	Addr              string
	Password          string
	DB                int
	RequestsPerWindow int
	Window            time.Duration
}

// Enabled はレート制限が有効かどうかを返します。
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// Load は環境変数から設定を読み込み、必須項目を検証します。
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "mysql"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 3306),
			User:     getEnv("DB_USER", "root"),
			Password: os.Getenv("DB_PASS"),
			Name:     getEnv("DB_NAME", "go_next_task"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:               os.Getenv("JWT_SECRET"),
			AccessTokenDuration:  getEnvAsDuration("JWT_ACCESS_TTL", 24*time.Hour),
			RefreshTokenDuration: getEnvAsDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
		},
		Guest: GuestConfig{
			TTL:           getEnvAsDuration("GUEST_TTL", 24*time.Hour),
			SweepInterval: getEnvAsDuration("GUEST_SWEEP_INTERVAL", time.Hour),
		},
		Validation: ValidationConfig{
			StrictToggle: getEnvAsBool("VALIDATION_STRICT_TOGGLE", false),
		},
		Redis: RedisConfig{
			Addr:              os.Getenv("REDIS_ADDR"),
			Password:          os.Getenv("REDIS_PASSWORD"),
			DB:                getEnvAsInt("REDIS_DB", 0),
			RequestsPerWindow: getEnvAsInt("RATE_LIMIT_REQUESTS", 10),
			Window:            getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate は設定値をまとめて検証し、問題をすべて報告します。
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET environment variable not set"))
	}
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite3":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver))
	}
	if c.Guest.TTL <= 0 {
		errs = append(errs, errors.New("GUEST_TTL must be positive"))
	}
	if c.Guest.SweepInterval <= 0 {
		errs = append(errs, errors.New("GUEST_SWEEP_INTERVAL must be positive"))
	}
	if c.Redis.Enabled() && (c.Redis.RequestsPerWindow <= 0 || c.Redis.Window <= 0) {
		errs = append(errs, errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
