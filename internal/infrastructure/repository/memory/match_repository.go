package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/openkick/predictor/internal/domain/match"
)

// MatchRepository is the in-memory match store used for tests and for
// running without a database. Match ids are derived from the external id so
// repeated syncs address the same row.
type MatchRepository struct {
	mu   sync.RWMutex
	byID map[string]match.Match
	now  func() time.Time
}

func NewMatchRepository(seed []match.Match) *MatchRepository {
	byID := make(map[string]match.Match, len(seed))
	for _, item := range seed {
		if item.ID == "" {
			item.ID = MatchID(item.ExtID)
		}
		byID[item.ID] = item
	}
	return &MatchRepository{byID: byID, now: time.Now}
}

// MatchID derives the internal match id from the feed's external id.
func MatchID(extID int64) string {
	return fmt.Sprintf("m-%d", extID)
}

func (r *MatchRepository) UpsertByExtID(_ context.Context, row match.Upsert) (match.UpsertOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := MatchID(row.ExtID)
	prev, existed := r.byID[id]
	item := match.Match{
		ID:        id,
		ExtID:     row.ExtID,
		Stage:     row.Stage,
		Group:     row.Group,
		Matchday:  row.Matchday,
		HomeTeam:  row.HomeTeam,
		AwayTeam:  row.AwayTeam,
		KickoffAt: row.KickoffAt,
		Status:    row.Status,
		HomeScore: cloneScore(row.HomeScore),
		AwayScore: cloneScore(row.AwayScore),
		UpdatedAt: r.now().UTC(),
	}
	r.byID[id] = item

	return match.UpsertOutcome{
		MatchID:   id,
		ResultSet: item.HasResult() && (!existed || !prev.HasResult()),
	}, nil
}

func (r *MatchRepository) List(_ context.Context) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0, len(r.byID))
	for _, item := range r.byID {
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].KickoffAt.Equal(out[j].KickoffAt) {
			return out[i].KickoffAt.Before(out[j].KickoffAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MatchRepository) GetByID(_ context.Context, matchID string) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.byID[matchID]
	return item, ok, nil
}

func (r *MatchRepository) ListFinishedWithScore(_ context.Context) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0)
	for _, item := range r.byID {
		if item.Status == match.StatusFinished && item.HasResult() {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MatchRepository) SetResult(_ context.Context, matchID string, homeScore, awayScore int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.byID[matchID]
	if !ok {
		return fmt.Errorf("match %s not found", matchID)
	}
	item.HomeScore = &homeScore
	item.AwayScore = &awayScore
	item.Status = match.StatusFinished
	item.UpdatedAt = r.now().UTC()
	r.byID[matchID] = item
	return nil
}

func cloneScore(value *int) *int {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
