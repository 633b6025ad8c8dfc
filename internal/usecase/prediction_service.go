package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/openkick/predictor/internal/domain/match"
	"github.com/openkick/predictor/internal/domain/prediction"
	"github.com/openkick/predictor/internal/platform/logging"
)

const maxPredictedGoals = 99

// PredictionService places and overwrites tips. The betting lock runs
// through match.Resolve, the same function the read surface uses.
type PredictionService struct {
	matchRepo match.Repository
	predRepo  prediction.Repository
	now       func() time.Time
	logger    *logging.Logger
}

func NewPredictionService(matchRepo match.Repository, predRepo prediction.Repository, logger *logging.Logger) *PredictionService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PredictionService{
		matchRepo: matchRepo,
		predRepo:  predRepo,
		now:       time.Now,
		logger:    logger,
	}
}

// Place validates and stores a prediction. Overwriting an existing tip
// archives the previous value before the update commits.
func (s *PredictionService) Place(ctx context.Context, userID, matchID string, predHome, predAway int) (prediction.Prediction, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.Place")
	defer span.End()

	if userID == "" || matchID == "" {
		return prediction.Prediction{}, fmt.Errorf("%w: user id and match id are required", ErrInvalidInput)
	}
	if predHome < 0 || predAway < 0 || predHome > maxPredictedGoals || predAway > maxPredictedGoals {
		return prediction.Prediction{}, fmt.Errorf("%w: predicted goals must be between 0 and %d", ErrInvalidInput, maxPredictedGoals)
	}

	m, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("get match for prediction match=%s: %w", matchID, err)
	}
	if !exists {
		return prediction.Prediction{}, fmt.Errorf("%w: match %s", ErrNotFound, matchID)
	}

	now := s.now().UTC()
	resolution := match.Resolve(string(m.Status), m.KickoffAt, now, m.HomeScore, m.AwayScore)
	if !resolution.IsBettable {
		return prediction.Prediction{}, fmt.Errorf("%w: match %s status=%s", ErrBettingClosed, matchID, resolution.Canonical)
	}

	row := prediction.Prediction{
		UserID:    userID,
		MatchID:   matchID,
		PredHome:  predHome,
		PredAway:  predAway,
		CreatedAt: now,
		UpdatedAt: now,
	}

	previous, hadPrevious, err := s.predRepo.Get(ctx, userID, matchID)
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("get existing prediction user=%s match=%s: %w", userID, matchID, err)
	}
	if hadPrevious {
		row.CreatedAt = previous.CreatedAt
		// Write-ahead audit: archive the old value first so the log never
		// misses a replaced prediction.
		if err := s.predRepo.AppendHistory(ctx, prediction.HistoryEntry{
			UserID:     userID,
			MatchID:    matchID,
			PredHome:   previous.PredHome,
			PredAway:   previous.PredAway,
			ReplacedAt: now,
		}); err != nil {
			return prediction.Prediction{}, fmt.Errorf("archive prediction history user=%s match=%s: %w", userID, matchID, err)
		}
	}

	if err := s.predRepo.Upsert(ctx, row); err != nil {
		return prediction.Prediction{}, fmt.Errorf("upsert prediction user=%s match=%s: %w", userID, matchID, err)
	}

	s.logger.InfoContext(ctx, "prediction placed",
		"user_id", userID,
		"match_id", matchID,
		"pred", fmt.Sprintf("%d:%d", predHome, predAway),
		"overwrite", hadPrevious,
	)

	return row, nil
}

func (s *PredictionService) ListByUser(ctx context.Context, userID string) ([]prediction.Prediction, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.ListByUser")
	defer span.End()

	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	items, err := s.predRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list predictions user=%s: %w", userID, err)
	}
	return items, nil
}

func (s *PredictionService) ListHistoryByUser(ctx context.Context, userID string) ([]prediction.HistoryEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.ListHistoryByUser")
	defer span.End()

	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	items, err := s.predRepo.ListHistoryByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list prediction history user=%s: %w", userID, err)
	}
	return items, nil
}
