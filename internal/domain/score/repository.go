package score

import "context"

// Repository stores the derived per-user aggregates. Upsert and ReplaceAll
// are individually atomic; ReplaceAll swaps the whole table in one call so
// readers never observe a partially rebuilt state.
type Repository interface {
	Get(ctx context.Context, userID string) (Score, bool, error)
	List(ctx context.Context) ([]Score, error)
	Upsert(ctx context.Context, row Score) error
	ReplaceAll(ctx context.Context, rows []Score) error
}
