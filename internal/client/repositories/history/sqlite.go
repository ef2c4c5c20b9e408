package history

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/echosync/internal/dbx"
)

// SQLiteRepository implements Repository on the history table.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) ReplaceAll(ctx context.Context, rows []Row) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := clearRows(ctx, tx); err != nil {
			return err
		}
		for i := range rows {
			if err := insertRow(ctx, tx, &rows[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]Row, error) {
	query := `select id, position, ciphertext, nonce, created_at, source, device_name, pinned, content_type
		from history order by position`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select history: %w", err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		var item Row
		err := rows.Scan(&item.ID, &item.Position, &item.Ciphertext, &item.Nonce, &item.CreatedAt,
			&item.Source, &item.DeviceName, &item.Pinned, &item.ContentType)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	return clearRows(ctx, r.db)
}

func clearRows(ctx context.Context, db dbx.DBTX) error {
	if _, err := db.ExecContext(ctx, `delete from history`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

func insertRow(ctx context.Context, db dbx.DBTX, row *Row) error {
	query := `insert into history (id, position, ciphertext, nonce, created_at, source, device_name, pinned, content_type)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query, row.ID, row.Position, row.Ciphertext, row.Nonce, row.CreatedAt,
		row.Source, row.DeviceName, row.Pinned, row.ContentType)
	if err != nil {
		return fmt.Errorf("failed to insert history row[%s]: %w", row.ID, err)
	}
	return nil
}
