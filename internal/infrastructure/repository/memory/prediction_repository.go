package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/openkick/predictor/internal/domain/prediction"
)

type predictionKey struct {
	userID  string
	matchID string
}

// PredictionRepository keeps predictions and their overwrite history in
// process memory.
type PredictionRepository struct {
	mu      sync.RWMutex
	byKey   map[predictionKey]prediction.Prediction
	history []prediction.HistoryEntry
}

func NewPredictionRepository() *PredictionRepository {
	return &PredictionRepository{byKey: make(map[predictionKey]prediction.Prediction)}
}

func (r *PredictionRepository) Get(_ context.Context, userID, matchID string) (prediction.Prediction, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.byKey[predictionKey{userID: userID, matchID: matchID}]
	return item, ok, nil
}

func (r *PredictionRepository) ListByMatch(_ context.Context, matchID string) ([]prediction.Prediction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]prediction.Prediction, 0)
	for key, item := range r.byKey {
		if key.matchID == matchID {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (r *PredictionRepository) ListByUser(_ context.Context, userID string) ([]prediction.Prediction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]prediction.Prediction, 0)
	for key, item := range r.byKey {
		if key.userID == userID {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchID < out[j].MatchID })
	return out, nil
}

func (r *PredictionRepository) Upsert(_ context.Context, row prediction.Prediction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byKey[predictionKey{userID: row.UserID, matchID: row.MatchID}] = row
	return nil
}

func (r *PredictionRepository) AppendHistory(_ context.Context, entry prediction.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.history = append(r.history, entry)
	return nil
}

func (r *PredictionRepository) ListHistoryByUser(_ context.Context, userID string) ([]prediction.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]prediction.HistoryEntry, 0)
	for _, entry := range r.history {
		if entry.UserID == userID {
			out = append(out, entry)
		}
	}
	return out, nil
}
