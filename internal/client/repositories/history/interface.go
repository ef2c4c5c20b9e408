package history

import "context"

// Row is one persisted history entry.
type Row struct {
	ID          string
	Position    int
	Ciphertext  string
	Nonce       string
	CreatedAt   int64 // unix milliseconds
	Source      string
	DeviceName  string
	Pinned      bool
	ContentType string
}

// Repository stores the encrypted history snapshot.
type Repository interface {
	// ReplaceAll atomically swaps the stored history for rows.
	ReplaceAll(ctx context.Context, rows []Row) error

	// GetAll returns the stored rows ordered by position.
	GetAll(ctx context.Context) ([]Row, error)

	// Clear removes every row.
	Clear(ctx context.Context) error
}
