package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openkick/predictor/internal/domain/match"
	"github.com/openkick/predictor/internal/platform/logging"
)

// ExternalMatch is one record from the upstream feed, already parsed into a
// strict shape at the client boundary.
type ExternalMatch struct {
	ExternalID int64
	Stage      string
	Group      string
	Matchday   int
	HomeTeam   string
	AwayTeam   string
	KickoffAt  time.Time
	RawStatus  string
	HomeScore  *int
	AwayScore  *int
}

// MatchFeedProvider fetches the full current match list for a season. It may
// fail with a rate-limit or transport error; the cache wrapping this service
// converts that into serve-stale behavior.
type MatchFeedProvider interface {
	FetchSeasonMatches(ctx context.Context, season string) ([]ExternalMatch, error)
}

// MatchSettler folds one finished match into the score aggregates.
type MatchSettler interface {
	RecalcForMatch(ctx context.Context, matchID string) (int, error)
}

// SyncService normalizes external match records and upserts them into the
// datastore. It performs no locking itself; the wrapping cache's singleflight
// guarantee keeps concurrent calls off the rate-limited provider.
type SyncService struct {
	provider  MatchFeedProvider
	matchRepo match.Repository
	settler   MatchSettler
	now       func() time.Time
	logger    *logging.Logger
}

func NewSyncService(provider MatchFeedProvider, matchRepo match.Repository, settler MatchSettler, logger *logging.Logger) *SyncService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SyncService{
		provider:  provider,
		matchRepo: matchRepo,
		settler:   settler,
		now:       time.Now,
		logger:    logger,
	}
}

// Sync fetches the season's matches, resolves each status against local time
// and score data, and upserts by external id. Upserts always write the
// currently resolved state, so out-of-order delivery converges on the same
// final rows.
func (s *SyncService) Sync(ctx context.Context, season string) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.Sync")
	defer span.End()

	if s.provider == nil || s.matchRepo == nil {
		return 0, fmt.Errorf("%w: match feed provider is not configured", ErrDependencyUnavailable)
	}

	records, err := s.provider.FetchSeasonMatches(ctx, season)
	if err != nil {
		return 0, fmt.Errorf("fetch season matches season=%s: %w", season, err)
	}

	now := s.now().UTC()
	count := 0
	skipped := 0
	var finished []string
	for _, item := range records {
		row, ok := mapExternalMatch(item, now)
		if !ok {
			skipped++
			continue
		}
		outcome, err := s.matchRepo.UpsertByExtID(ctx, row)
		if err != nil {
			return count, fmt.Errorf("upsert match ext_id=%d season=%s: %w", item.ExternalID, season, err)
		}
		if outcome.ResultSet {
			finished = append(finished, outcome.MatchID)
		}
		count++
	}

	// Matches whose result arrived with this sync are settled once, here.
	// The upsert outcome flags the transition, so a result already folded
	// in is never re-submitted on the next refresh cycle.
	if s.settler != nil {
		for _, matchID := range finished {
			if _, err := s.settler.RecalcForMatch(ctx, matchID); err != nil {
				return count, fmt.Errorf("settle synced match=%s season=%s: %w", matchID, season, err)
			}
		}
	}

	if skipped > 0 {
		s.logger.WarnContext(ctx, "skipped malformed feed records", "season", season, "skipped", skipped, "upserted", count)
	}
	s.logger.InfoContext(ctx, "season sync complete", "season", season, "upserted", count, "settled", len(finished))

	return count, nil
}

func mapExternalMatch(item ExternalMatch, now time.Time) (match.Upsert, bool) {
	if item.ExternalID <= 0 || item.KickoffAt.IsZero() {
		return match.Upsert{}, false
	}

	homeScore, awayScore := normalizeScorePair(item.HomeScore, item.AwayScore)
	resolution := match.Resolve(item.RawStatus, item.KickoffAt, now, homeScore, awayScore)

	return match.Upsert{
		ExtID:     item.ExternalID,
		Stage:     strings.TrimSpace(item.Stage),
		Group:     strings.TrimSpace(item.Group),
		Matchday:  item.Matchday,
		HomeTeam:  strings.TrimSpace(item.HomeTeam),
		AwayTeam:  strings.TrimSpace(item.AwayTeam),
		KickoffAt: item.KickoffAt.UTC(),
		Status:    resolution.Canonical,
		HomeScore: cloneIntPtr(homeScore),
		AwayScore: cloneIntPtr(awayScore),
	}, true
}

// normalizeScorePair treats a half-set score as absent so a partially
// delivered result never reaches settlement.
func normalizeScorePair(home, away *int) (*int, *int) {
	if home == nil || away == nil {
		return nil, nil
	}
	return home, away
}

func cloneIntPtr(value *int) *int {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
