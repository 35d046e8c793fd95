package db

import (
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/stsysd/taskboard/logging"
)

//go:embed schema/sqlite/*.sql schema/postgres/*.sql
var embedMigrations embed.FS

// goose はパッケージ単位の状態を持つため、方言の切り替えを直列化します。
var gooseMu sync.Mutex

// Migrate はSQLiteデータベースに対してマイグレーションを実行します。
func Migrate(conn *sql.DB) error {
	// 外部キー制約を有効化
	if _, err := conn.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return up(conn, "sqlite3", "schema/sqlite")
}

// MigratePostgres はPostgreSQLデータベースに対してマイグレーションを実行します。
// conn は pgx の database/sql ドライバで開いた接続を想定しています。
func MigratePostgres(conn *sql.DB) error {
	return up(conn, "postgres", "schema/postgres")
}

func up(conn *sql.DB, dialect, dir string) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(logging.Logger)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	// マイグレーションを実行
	if err := goose.Up(conn, dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
