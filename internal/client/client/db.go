package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophdisk/internal/client/migrations"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// RunMigrations applies the embedded migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Migrations)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// InitDatabase opens the SQLite database at dsn and migrates it.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
