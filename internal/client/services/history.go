package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/echosync/internal/client/history"
	repo "github.com/dmitrijs2005/echosync/internal/client/repositories/history"
	"github.com/dmitrijs2005/echosync/internal/cryptox"
	"github.com/dmitrijs2005/echosync/internal/logging"
)

type HistoryService interface {
	// Restore loads the persisted history into store. Rows that no longer
	// open with key are skipped. It returns the number of entries restored.
	Restore(ctx context.Context, store *history.Store, key []byte) (int, error)

	// Persist replaces the persisted history with store's current content.
	Persist(ctx context.Context, store *history.Store, key []byte) error
}

type historyService struct {
	repo repo.Repository
	log  logging.Logger
}

func NewHistoryService(r repo.Repository, log logging.Logger) HistoryService {
	return &historyService{repo: r, log: log.With(logging.KeyComponent, "history")}
}

func (s *historyService) Restore(ctx context.Context, store *history.Store, key []byte) (int, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading history: %w", err)
	}

	entries := make([]history.Entry, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		content, err := cryptox.OpenString(row.Ciphertext, row.Nonce, key)
		if err != nil {
			skipped++
			continue
		}
		entries = append(entries, history.Entry{
			ID:          row.ID,
			Content:     content,
			Timestamp:   time.UnixMilli(row.CreatedAt),
			Source:      history.Source(row.Source),
			DeviceName:  row.DeviceName,
			Pinned:      row.Pinned,
			ContentType: history.ContentType(row.ContentType),
		})
	}
	if skipped > 0 {
		s.log.Warn(ctx, "history rows skipped", "count", skipped)
	}

	store.Restore(entries)
	return store.Len(), nil
}

func (s *historyService) Persist(ctx context.Context, store *history.Store, key []byte) error {
	entries := store.Snapshot()

	rows := make([]repo.Row, 0, len(entries))
	for i, e := range entries {
		ct, nonce, err := cryptox.SealString(e.Content, key)
		if err != nil {
			return fmt.Errorf("encryption error: %w", err)
		}
		rows = append(rows, repo.Row{
			ID:          e.ID,
			Position:    i,
			Ciphertext:  ct,
			Nonce:       nonce,
			CreatedAt:   e.Timestamp.UnixMilli(),
			Source:      string(e.Source),
			DeviceName:  e.DeviceName,
			Pinned:      e.Pinned,
			ContentType: string(e.ContentType),
		})
	}

	if err := s.repo.ReplaceAll(ctx, rows); err != nil {
		return fmt.Errorf("saving history: %w", err)
	}
	return nil
}
