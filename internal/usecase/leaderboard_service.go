package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/openkick/predictor/internal/domain/score"
	"github.com/openkick/predictor/internal/platform/cache"
	"github.com/openkick/predictor/internal/platform/logging"
)

// RankedUser is one leaderboard row.
type RankedUser struct {
	Rank         int       `json:"rank"`
	UserID       string    `json:"userId"`
	PointsTotal  int       `json:"pointsTotal"`
	ExactCount   int       `json:"exactCount"`
	DiffCount    int       `json:"diffCount"`
	OutcomeCount int       `json:"outcomeCount"`
	BonusPoints  int       `json:"bonusPoints"`
	FirstPredAt  time.Time `json:"firstPredAt,omitzero"`
}

// LeaderboardService composes cached score aggregates into a ranked view.
type LeaderboardService struct {
	scoreRepo score.Repository
	cache     *cache.Store
	ttl       time.Duration
	logger    *logging.Logger
}

func NewLeaderboardService(scoreRepo score.Repository, cacheStore *cache.Store, ttl time.Duration, logger *logging.Logger) *LeaderboardService {
	if logger == nil {
		logger = logging.Default()
	}
	return &LeaderboardService{
		scoreRepo: scoreRepo,
		cache:     cacheStore,
		ttl:       ttl,
		logger:    logger,
	}
}

func (s *LeaderboardService) GetLeaderboard(ctx context.Context) ([]RankedUser, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.GetLeaderboard")
	defer span.End()

	v, err := s.cache.GetOrLoad(ctx, CacheKeyLeaderboard, s.ttl, func(ctx context.Context) (any, error) {
		return s.build(ctx)
	})
	if err != nil {
		return nil, err
	}

	rows, _ := v.([]RankedUser)
	return append([]RankedUser(nil), rows...), nil
}

func (s *LeaderboardService) build(ctx context.Context) ([]RankedUser, error) {
	scores, err := s.scoreRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list score aggregates for leaderboard: %w", err)
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return score.Less(scores[i], scores[j])
	})

	out := make([]RankedUser, 0, len(scores))
	rank := 0
	for idx, row := range scores {
		if idx == 0 || rankingKeyDiffers(scores[idx-1], row) {
			rank++
		}
		out = append(out, RankedUser{
			Rank:         rank,
			UserID:       row.UserID,
			PointsTotal:  row.PointsTotal,
			ExactCount:   row.ExactCount,
			DiffCount:    row.DiffCount,
			OutcomeCount: row.OutcomeCount,
			BonusPoints:  row.BonusPoints,
			FirstPredAt:  row.FirstPredAt,
		})
	}

	return out, nil
}

func rankingKeyDiffers(a, b score.Score) bool {
	return a.PointsTotal != b.PointsTotal ||
		a.ExactCount != b.ExactCount ||
		a.DiffCount != b.DiffCount ||
		a.OutcomeCount != b.OutcomeCount
}
