// Package config はアプリケーション設定を管理します。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/stsysd/taskboard/logging"
)

// Config はアプリケーション全体の設定を保持します。
type Config struct {
	// データディレクトリのパス（SQLite使用時）
	DataDir string

	// HTTPサーバーのポート
	Port string

	// PostgreSQLの接続文字列。空の場合はSQLiteを使用します。
	DatabaseURL string

	// Access-Control-Allow-Origin に設定する値
	CORSOrigin string

	// ログ設定
	LogLevel  string
	LogFormat string
	LogFile   string
}

// Load は .env（存在する場合）と環境変数から設定を読み込みます。
func Load() (*Config, error) {
	// .env が無いのはエラーではない
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		DataDir:     getenv("TASKBOARD_DATA_DIR", filepath.Join(".", "data")),
		Port:        getenv("TASKBOARD_PORT", getenv("PORT", "3001")),
		DatabaseURL: os.Getenv("TASKBOARD_DATABASE_URL"),
		CORSOrigin:  getenv("TASKBOARD_CORS_ORIGIN", "*"),
		LogLevel:    getenv("TASKBOARD_LOG_LEVEL", "info"),
		LogFormat:   getenv("TASKBOARD_LOG_FORMAT", "text"),
		LogFile:     os.Getenv("TASKBOARD_LOG_FILE"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate は設定値の妥当性を検証します。
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid TASKBOARD_LOG_LEVEL: %w", err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid TASKBOARD_LOG_FORMAT %q", c.LogFormat)
	}
	return nil
}

// LoggingOptions はロガー初期化用の設定を返します。
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{Level: c.LogLevel, Format: c.LogFormat, File: c.LogFile}
}

// UsePostgres はPostgreSQLバックエンドを使用するかを返します。
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
