package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/echosync/internal/client/migrations"
	"github.com/dmitrijs2005/echosync/internal/client/repositories/history"
	"github.com/dmitrijs2005/echosync/internal/client/securestore"
	"github.com/dmitrijs2005/echosync/internal/common"
	"github.com/dmitrijs2005/echosync/internal/filex"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// Repositories groups everything backed by the local database.
type Repositories struct {
	Secrets *securestore.SQLiteStore
	History *history.SQLiteRepository
	DB      *sql.DB
}

// Close releases the underlying database handle.
func (r *Repositories) Close() error {
	return r.DB.Close()
}

// RunMigrations applies the embedded migrations. It is safe to call repeatedly.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// OpenDatabase opens the SQLite file at path and migrates it.
func OpenDatabase(ctx context.Context, path string) (*sql.DB, error) {
	if err := filex.EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	// the key lives in this file
	if err := filex.RestrictFile(path); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	return db, nil
}

// InitDatabase opens the database at path and builds the repositories.
func InitDatabase(ctx context.Context, path string) (*Repositories, error) {
	db, err := OpenDatabase(ctx, path)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Secrets: securestore.NewSQLiteStore(db),
		History: history.NewSQLiteRepository(db),
		DB:      db,
	}, nil
}
