package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/openkick/predictor/internal/domain/score"
)

// ScoreRepository keeps the per-user aggregates in process memory.
// ReplaceAll swaps the whole map under one lock so readers never see a
// half-rebuilt table.
type ScoreRepository struct {
	mu     sync.RWMutex
	byUser map[string]score.Score
}

func NewScoreRepository() *ScoreRepository {
	return &ScoreRepository{byUser: make(map[string]score.Score)}
}

func (r *ScoreRepository) Get(_ context.Context, userID string) (score.Score, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.byUser[userID]
	return item, ok, nil
}

func (r *ScoreRepository) List(_ context.Context) ([]score.Score, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]score.Score, 0, len(r.byUser))
	for _, item := range r.byUser {
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (r *ScoreRepository) Upsert(_ context.Context, row score.Score) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byUser[row.UserID] = row
	return nil
}

func (r *ScoreRepository) ReplaceAll(_ context.Context, rows []score.Score) error {
	next := make(map[string]score.Score, len(rows))
	for _, row := range rows {
		next[row.UserID] = row
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.byUser = next
	return nil
}
