// Package storage opens the client's local SQLite database and vends the
// repositories bound to it.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/epicrunze/journal/internal/client/migrations"
	"github.com/epicrunze/journal/internal/client/repositories/conflicts"
	"github.com/epicrunze/journal/internal/client/repositories/entries"
	"github.com/epicrunze/journal/internal/client/repositories/goals"
	"github.com/epicrunze/journal/internal/client/repositories/metadata"
	"github.com/epicrunze/journal/internal/client/repositories/pending"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// Repositories bundles the local persistence layer.
type Repositories struct {
	Metadata  metadata.Repository
	Entries   entries.Repository
	Goals     goals.Repository
	Pending   pending.Repository
	Conflicts conflicts.Repository
	DB        *sql.DB
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Repositories{
		Metadata:  metadata.NewSQLiteRepository(db),
		Entries:   entries.NewSQLiteRepository(db),
		Goals:     goals.NewSQLiteRepository(db),
		Pending:   pending.NewSQLiteRepository(db),
		Conflicts: conflicts.NewSQLiteRepository(db),
		DB:        db,
	}, nil
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}
