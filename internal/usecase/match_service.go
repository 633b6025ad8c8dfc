package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/openkick/predictor/internal/domain/match"
	"github.com/openkick/predictor/internal/platform/cache"
	"github.com/openkick/predictor/internal/platform/logging"
)

// Cache keys shared between the read surface and everything that mutates the
// underlying match or score state outside the cache's own refresh cycle.
const (
	CacheKeyMatches     = "matches"
	CacheKeyLeaderboard = "leaderboard"
)

// MatchView is a match decorated with the derived status flags, so server
// and client apply literally the same bettable logic.
type MatchView struct {
	match.Match
	IsLive     bool
	IsFinished bool
	IsBettable bool
}

// MatchService is the cached public read surface for matches. A cache miss
// triggers a provider sync before reading the datastore, and the cache's
// singleflight keeps the rate-limited provider to one call per TTL window.
type MatchService struct {
	matchRepo match.Repository
	syncSvc   *SyncService
	recalcSvc *RecalcService
	cache     *cache.Store
	season    string
	ttl       time.Duration
	now       func() time.Time
	logger    *logging.Logger
}

func NewMatchService(
	matchRepo match.Repository,
	syncSvc *SyncService,
	recalcSvc *RecalcService,
	cacheStore *cache.Store,
	season string,
	ttl time.Duration,
	logger *logging.Logger,
) *MatchService {
	if logger == nil {
		logger = logging.Default()
	}
	return &MatchService{
		matchRepo: matchRepo,
		syncSvc:   syncSvc,
		recalcSvc: recalcSvc,
		cache:     cacheStore,
		season:    season,
		ttl:       ttl,
		now:       time.Now,
		logger:    logger,
	}
}

func (s *MatchService) GetMatches(ctx context.Context) ([]MatchView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.GetMatches")
	defer span.End()

	v, err := s.cache.GetOrLoad(ctx, CacheKeyMatches, s.ttl, func(ctx context.Context) (any, error) {
		if _, err := s.syncSvc.Sync(ctx, s.season); err != nil {
			return nil, err
		}
		return s.listViews(ctx)
	})
	if err != nil {
		return nil, err
	}

	views, _ := v.([]MatchView)
	return append([]MatchView(nil), views...), nil
}

// SyncNow forces a provider sync outside the cache refresh cycle and
// invalidates the read-side keys so the next read reflects fresh data.
func (s *MatchService) SyncNow(ctx context.Context) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.SyncNow")
	defer span.End()

	count, err := s.syncSvc.Sync(ctx, s.season)
	if err != nil {
		return 0, err
	}

	s.cache.Invalidate(CacheKeyMatches)
	s.cache.Invalidate(CacheKeyLeaderboard)
	return count, nil
}

// SetResult is the admin score override: writes the final score, marks the
// match finished, settles it, and drops the read-side cache keys.
func (s *MatchService) SetResult(ctx context.Context, matchID string, homeScore, awayScore int) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.SetResult")
	defer span.End()

	if homeScore < 0 || awayScore < 0 {
		return fmt.Errorf("%w: scores must be non-negative", ErrInvalidInput)
	}
	prev, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return fmt.Errorf("get match for result override match=%s: %w", matchID, err)
	}
	if !exists {
		return fmt.Errorf("%w: match %s", ErrNotFound, matchID)
	}

	if err := s.matchRepo.SetResult(ctx, matchID, homeScore, awayScore); err != nil {
		return fmt.Errorf("set match result match=%s: %w", matchID, err)
	}

	// A repeated override must replace the earlier result's contribution,
	// not stack a second one on top of it.
	if prev.HasResult() {
		prevHome, prevAway := prev.Result()
		if _, err := s.recalcSvc.ResettleMatch(ctx, matchID, prevHome, prevAway); err != nil {
			return fmt.Errorf("resettle overridden match=%s: %w", matchID, err)
		}
	} else if _, err := s.recalcSvc.RecalcForMatch(ctx, matchID); err != nil {
		return fmt.Errorf("settle overridden match=%s: %w", matchID, err)
	}

	s.cache.Invalidate(CacheKeyMatches)
	s.cache.Invalidate(CacheKeyLeaderboard)
	s.logger.InfoContext(ctx, "match result overridden", "match_id", matchID, "home", homeScore, "away", awayScore)

	return nil
}

func (s *MatchService) CacheStats() map[string]cache.Stat {
	return s.cache.Stats()
}

func (s *MatchService) listViews(ctx context.Context) ([]MatchView, error) {
	items, err := s.matchRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	now := s.now().UTC()
	out := make([]MatchView, 0, len(items))
	for _, m := range items {
		resolution := match.Resolve(string(m.Status), m.KickoffAt, now, m.HomeScore, m.AwayScore)
		out = append(out, MatchView{
			Match:      m,
			IsLive:     resolution.IsLive,
			IsFinished: resolution.IsFinished,
			IsBettable: resolution.IsBettable,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].KickoffAt.Equal(out[j].KickoffAt) {
			return out[i].KickoffAt.Before(out[j].KickoffAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}
