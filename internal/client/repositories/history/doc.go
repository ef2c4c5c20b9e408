// Package history persists the clipboard history between runs.
//
// Rows hold the entry content sealed with the shared key (ciphertext and
// nonce, standard base64) next to the plain metadata needed to rebuild the
// in-memory store: timestamp, source, device name, pin flag and content type.
// Position orders rows newest first.
//
// The whole history is written at once with ReplaceAll inside a single
// transaction, so a reader never observes a half-written snapshot.
//
//	repo := history.NewSQLiteRepository(db)
//	_ = repo.ReplaceAll(ctx, rows)
//	rows, _ := repo.GetAll(ctx)
package history
