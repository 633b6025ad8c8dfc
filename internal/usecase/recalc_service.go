package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/openkick/predictor/internal/domain/match"
	"github.com/openkick/predictor/internal/domain/prediction"
	"github.com/openkick/predictor/internal/domain/score"
	"github.com/openkick/predictor/internal/platform/cache"
	"github.com/openkick/predictor/internal/platform/logging"
	"github.com/openkick/predictor/internal/platform/resilience"
)

const defaultRecalcWorkers = 8

// RecalcService converts finalized match results into per-user score
// aggregates. Per-match recalculations are serialized through a singleflight
// so two overlapping runs for the same match cannot double-count.
type RecalcService struct {
	matchRepo match.Repository
	predRepo  prediction.Repository
	scoreRepo score.Repository
	cache     *cache.Store
	flight    resilience.SingleFlight
	workers   int
	now       func() time.Time
	logger    *logging.Logger
}

func NewRecalcService(
	matchRepo match.Repository,
	predRepo prediction.Repository,
	scoreRepo score.Repository,
	cacheStore *cache.Store,
	logger *logging.Logger,
) *RecalcService {
	if logger == nil {
		logger = logging.Default()
	}
	return &RecalcService{
		matchRepo: matchRepo,
		predRepo:  predRepo,
		scoreRepo: scoreRepo,
		cache:     cacheStore,
		workers:   defaultRecalcWorkers,
		now:       time.Now,
		logger:    logger,
	}
}

// contribution is one match's share of a user's aggregate.
type contribution struct {
	points       int
	exactCount   int
	diffCount    int
	outcomeCount int
	firstPredAt  time.Time
}

// priorResult is the result a match carried before an override, whose
// contribution has to be backed out before the new one is merged.
type priorResult struct {
	home int
	away int
}

// RecalcForMatch settles one match and merges its contribution into each
// predicting user's existing aggregate. A match without both scores is a
// no-op. Returns the number of updated users.
func (s *RecalcService) RecalcForMatch(ctx context.Context, matchID string) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RecalcService.RecalcForMatch")
	defer span.End()

	return s.settleMatch(ctx, matchID, nil)
}

// ResettleMatch replaces an already-settled result's contribution with the
// current one: the previous result's share is subtracted from each aggregate
// before the new share is merged, so repeated overrides never double-count.
func (s *RecalcService) ResettleMatch(ctx context.Context, matchID string, prevHome, prevAway int) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RecalcService.ResettleMatch")
	defer span.End()

	return s.settleMatch(ctx, matchID, &priorResult{home: prevHome, away: prevAway})
}

func (s *RecalcService) settleMatch(ctx context.Context, matchID string, prev *priorResult) (int, error) {
	updatedAny, err, _ := s.flight.Do("recalc:match:"+matchID, func() (any, error) {
		return s.settleMatchOnce(ctx, matchID, prev)
	})
	if err != nil {
		return 0, err
	}

	updated, _ := updatedAny.(int)
	return updated, nil
}

func (s *RecalcService) settleMatchOnce(ctx context.Context, matchID string, prev *priorResult) (int, error) {
	m, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return 0, fmt.Errorf("get match for recalc match=%s: %w", matchID, err)
	}
	if !exists {
		return 0, fmt.Errorf("%w: match %s", ErrNotFound, matchID)
	}
	if !m.HasResult() {
		return 0, nil
	}

	predictions, err := s.predRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return 0, fmt.Errorf("list predictions for recalc match=%s: %w", matchID, err)
	}
	if len(predictions) == 0 {
		return 0, nil
	}

	actualHome, actualAway := m.Result()
	now := s.now().UTC()
	updated := 0
	for _, p := range predictions {
		delta := scorePrediction(p, actualHome, actualAway)

		existing, _, err := s.scoreRepo.Get(ctx, p.UserID)
		if err != nil {
			return updated, fmt.Errorf("get score aggregate user=%s: %w", p.UserID, err)
		}
		existing.UserID = p.UserID
		if prev != nil {
			unmergeContribution(&existing, scorePrediction(p, prev.home, prev.away))
		}
		mergeContribution(&existing, delta)
		existing.UpdatedAt = now

		if err := s.scoreRepo.Upsert(ctx, existing); err != nil {
			return updated, fmt.Errorf("upsert score aggregate user=%s match=%s: %w", p.UserID, matchID, err)
		}
		updated++
	}

	if s.cache != nil {
		s.cache.Invalidate(CacheKeyLeaderboard)
	}
	s.logger.InfoContext(ctx, "match settled", "match_id", matchID, "users_updated", updated)

	return updated, nil
}

// RecalcAll rebuilds every aggregate from the full prediction history: fold
// each finished-and-scored match exactly once into fresh per-user totals,
// then swap the whole score table in one call. Running it twice without an
// underlying data change produces identical rows.
func (s *RecalcService) RecalcAll(ctx context.Context) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RecalcService.RecalcAll")
	defer span.End()

	usersAny, err, _ := s.flight.Do("recalc:all", func() (any, error) {
		return s.recalcAllOnce(ctx)
	})
	if err != nil {
		return 0, err
	}

	users, _ := usersAny.(int)
	return users, nil
}

func (s *RecalcService) recalcAllOnce(ctx context.Context) (int, error) {
	matches, err := s.matchRepo.ListFinishedWithScore(ctx)
	if err != nil {
		return 0, fmt.Errorf("list finished matches for rebuild: %w", err)
	}

	var (
		mu     sync.Mutex
		byUser = make(map[string]*score.Score)
		firstW error
		wg     sync.WaitGroup
	)

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return 0, fmt.Errorf("create rebuild worker pool: %w", err)
	}
	defer pool.Release()

	for _, item := range matches {
		m := item
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := s.foldMatch(ctx, m, &mu, byUser); err != nil {
				mu.Lock()
				if firstW == nil {
					firstW = err
				}
				mu.Unlock()
			}
		})
		if submitErr != nil {
			wg.Done()
			return 0, fmt.Errorf("submit rebuild task match=%s: %w", m.ID, submitErr)
		}
	}
	wg.Wait()
	if firstW != nil {
		return 0, firstW
	}

	if err := s.carryBonusPoints(ctx, byUser); err != nil {
		return 0, err
	}

	now := s.now().UTC()
	rows := make([]score.Score, 0, len(byUser))
	for _, row := range byUser {
		row.UpdatedAt = now
		rows = append(rows, *row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].UserID < rows[j].UserID })

	// Single-call swap keeps the rebuild atomic from a reader's perspective
	// and makes a retried run converge on the same rows.
	if err := s.scoreRepo.ReplaceAll(ctx, rows); err != nil {
		return 0, fmt.Errorf("replace score aggregates: %w", err)
	}

	if s.cache != nil {
		s.cache.Invalidate(CacheKeyLeaderboard)
	}
	s.logger.InfoContext(ctx, "full recalculation complete", "matches", len(matches), "users", len(rows))

	return len(rows), nil
}

func (s *RecalcService) foldMatch(ctx context.Context, m match.Match, mu *sync.Mutex, byUser map[string]*score.Score) error {
	if !m.HasResult() {
		return nil
	}

	predictions, err := s.predRepo.ListByMatch(ctx, m.ID)
	if err != nil {
		return fmt.Errorf("list predictions for rebuild match=%s: %w", m.ID, err)
	}

	actualHome, actualAway := m.Result()
	for _, p := range predictions {
		delta := scorePrediction(p, actualHome, actualAway)

		mu.Lock()
		row, ok := byUser[p.UserID]
		if !ok {
			row = &score.Score{UserID: p.UserID}
			byUser[p.UserID] = row
		}
		mergeContribution(row, delta)
		mu.Unlock()
	}
	return nil
}

// carryBonusPoints re-applies manually awarded bonus points, which cannot be
// derived from matches and predictions.
func (s *RecalcService) carryBonusPoints(ctx context.Context, byUser map[string]*score.Score) error {
	existing, err := s.scoreRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("list score aggregates for bonus carry: %w", err)
	}

	for _, prev := range existing {
		if prev.BonusPoints == 0 {
			continue
		}
		row, ok := byUser[prev.UserID]
		if !ok {
			row = &score.Score{UserID: prev.UserID}
			byUser[prev.UserID] = row
		}
		row.BonusPoints = prev.BonusPoints
		row.PointsTotal += prev.BonusPoints
	}
	return nil
}

// AwardBonus adds admin-granted points to one user's aggregate. Bonus points
// survive full rebuilds.
func (s *RecalcService) AwardBonus(ctx context.Context, userID string, points int, reason string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.RecalcService.AwardBonus")
	defer span.End()

	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	row, _, err := s.scoreRepo.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("get score aggregate for bonus user=%s: %w", userID, err)
	}
	row.UserID = userID
	row.BonusPoints += points
	row.PointsTotal += points
	row.UpdatedAt = s.now().UTC()

	if err := s.scoreRepo.Upsert(ctx, row); err != nil {
		return fmt.Errorf("upsert bonus points user=%s: %w", userID, err)
	}

	if s.cache != nil {
		s.cache.Invalidate(CacheKeyLeaderboard)
	}
	s.logger.InfoContext(ctx, "bonus points awarded", "user_id", userID, "points", points, "reason", reason)

	return nil
}

func scorePrediction(p prediction.Prediction, actualHome, actualAway int) contribution {
	points := prediction.Points(p.PredHome, p.PredAway, actualHome, actualAway)

	out := contribution{points: points, firstPredAt: p.CreatedAt}
	switch points {
	case prediction.PointsExact:
		out.exactCount = 1
	case prediction.PointsDiff:
		out.diffCount = 1
	case prediction.PointsOutcome:
		out.outcomeCount = 1
	}
	return out
}

// unmergeContribution backs a contribution out of an aggregate. FirstPredAt
// stays untouched: it derives from prediction timestamps, not results.
func unmergeContribution(row *score.Score, delta contribution) {
	row.PointsTotal -= delta.points
	row.ExactCount -= delta.exactCount
	row.DiffCount -= delta.diffCount
	row.OutcomeCount -= delta.outcomeCount
}

func mergeContribution(row *score.Score, delta contribution) {
	row.PointsTotal += delta.points
	row.ExactCount += delta.exactCount
	row.DiffCount += delta.diffCount
	row.OutcomeCount += delta.outcomeCount
	if !delta.firstPredAt.IsZero() && (row.FirstPredAt.IsZero() || delta.firstPredAt.Before(row.FirstPredAt)) {
		row.FirstPredAt = delta.firstPredAt
	}
}
