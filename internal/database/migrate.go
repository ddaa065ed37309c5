// Package database はデータベース接続とスキーマ管理を提供する。
package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// マイグレーションSQLはバイナリに埋め込む。外部ファイルへの依存を持たないため、
// migrateサブコマンドは単体のバイナリだけで実行できる。
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

// newMigrator は埋め込みSQLをソースとするmigrateインスタンスを生成する。
func newMigrator(databaseURL string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	return migrate.NewWithSourceInstance("iofs", source, databaseURL)
}

// RunMigrations は未適用のマイグレーションをすべて順番に適用する。
// すでに最新の場合は何もせず正常終了する。
func RunMigrations(databaseURL string) error {
	m, err := newMigrator(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// RollbackLast は直近に適用したマイグレーションを1段階だけ戻す。
// 適用済みマイグレーションがない場合は何もしない。
func RollbackLast(databaseURL string) error {
	m, err := newMigrator(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	return nil
}
