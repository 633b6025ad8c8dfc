package prediction

import "context"

// Repository exposes prediction storage. AppendHistory must commit before
// the overwriting Upsert so the audit log never misses a replaced value.
type Repository interface {
	Get(ctx context.Context, userID, matchID string) (Prediction, bool, error)
	ListByMatch(ctx context.Context, matchID string) ([]Prediction, error)
	ListByUser(ctx context.Context, userID string) ([]Prediction, error)
	Upsert(ctx context.Context, row Prediction) error
	AppendHistory(ctx context.Context, entry HistoryEntry) error
	ListHistoryByUser(ctx context.Context, userID string) ([]HistoryEntry, error)
}
