package securestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/echosync/internal/common"
	"github.com/dmitrijs2005/echosync/internal/dbx"
)

// SQLiteStore keeps secrets in the "secrets" table.
type SQLiteStore struct {
	db *sql.DB

	mu      sync.Mutex
	pending map[string]change
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, pending: make(map[string]change)}
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	c, staged := s.pending[key]
	s.mu.Unlock()
	if staged {
		if c.deleted {
			return "", false, nil
		}
		return c.value, true, nil
	}

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM secrets WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get secret[%s]: %w: %v", key, common.ErrStorage, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[key] = change{value: value}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[key] = change{deleted: true}
	return nil
}

// Save writes every staged change in one transaction. On failure the changes
// stay staged so a later Save can retry them.
func (s *SQLiteStore) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return nil
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for key, c := range s.pending {
			if c.deleted {
				if err := deleteSecret(ctx, tx, key); err != nil {
					return err
				}
				continue
			}
			if err := upsertSecret(ctx, tx, key, c.value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrStorage) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	clear(s.pending)
	return nil
}

func upsertSecret(ctx context.Context, db dbx.DBTX, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO secrets (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set secret[%s]: %w", key, err)
	}
	return nil
}

func deleteSecret(ctx context.Context, db dbx.DBTX, key string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM secrets WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete secret[%s]: %w", key, err)
	}
	return nil
}
