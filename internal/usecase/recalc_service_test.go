package usecase

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/openkick/predictor/internal/domain/match"
	"github.com/openkick/predictor/internal/domain/prediction"
	"github.com/openkick/predictor/internal/domain/score"
	"github.com/openkick/predictor/internal/infrastructure/repository/memory"
	"github.com/openkick/predictor/internal/platform/cache"
	"github.com/openkick/predictor/internal/platform/logging"
)

func intPtr(v int) *int { return &v }

func newRecalcFixture(t *testing.T, matches []match.Match) (*RecalcService, *memory.PredictionRepository, *memory.ScoreRepository) {
	t.Helper()

	matchRepo := memory.NewMatchRepository(matches)
	predRepo := memory.NewPredictionRepository()
	scoreRepo := memory.NewScoreRepository()
	store := cache.NewStore(logging.NewNop())
	t.Cleanup(store.Close)

	svc := NewRecalcService(matchRepo, predRepo, scoreRepo, store, logging.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 6, 20, 12, 0, 0, 0, time.UTC) }
	return svc, predRepo, scoreRepo
}

func TestRecalcService_RecalcForMatch_MergesContribution(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2026, 6, 14, 19, 0, 0, 0, time.UTC)
	svc, predRepo, scoreRepo := newRecalcFixture(t, []match.Match{{
		ID:        "m-1",
		ExtID:     1,
		HomeTeam:  "Germany",
		AwayTeam:  "Scotland",
		KickoffAt: kickoff,
		Status:    match.StatusFinished,
		HomeScore: intPtr(2),
		AwayScore: intPtr(1),
	}})

	ctx := context.Background()
	predAt := kickoff.Add(-time.Hour)
	for _, p := range []prediction.Prediction{
		{UserID: "alice", MatchID: "m-1", PredHome: 2, PredAway: 1, CreatedAt: predAt},
		{UserID: "bob", MatchID: "m-1", PredHome: 1, PredAway: 0, CreatedAt: predAt.Add(time.Minute)},
		{UserID: "carol", MatchID: "m-1", PredHome: 0, PredAway: 2, CreatedAt: predAt.Add(2 * time.Minute)},
	} {
		if err := predRepo.Upsert(ctx, p); err != nil {
			t.Fatalf("seed prediction: %v", err)
		}
	}
	// alice already has points from an earlier match; settling must add, not
	// overwrite.
	if err := scoreRepo.Upsert(ctx, score.Score{UserID: "alice", PointsTotal: 3, DiffCount: 1, FirstPredAt: predAt.Add(-time.Hour)}); err != nil {
		t.Fatalf("seed score: %v", err)
	}

	updated, err := svc.RecalcForMatch(ctx, "m-1")
	if err != nil {
		t.Fatalf("RecalcForMatch: %v", err)
	}
	if updated != 3 {
		t.Fatalf("unexpected updated users: got=%d want=3", updated)
	}

	alice, _, _ := scoreRepo.Get(ctx, "alice")
	if alice.PointsTotal != 8 || alice.ExactCount != 1 || alice.DiffCount != 1 {
		t.Fatalf("unexpected alice aggregate: %+v", alice)
	}
	if !alice.FirstPredAt.Equal(predAt.Add(-time.Hour)) {
		t.Fatalf("alice first prediction regressed: %v", alice.FirstPredAt)
	}

	bob, _, _ := scoreRepo.Get(ctx, "bob")
	if bob.PointsTotal != 2 || bob.OutcomeCount != 1 {
		t.Fatalf("unexpected bob aggregate: %+v", bob)
	}

	carol, _, _ := scoreRepo.Get(ctx, "carol")
	if carol.PointsTotal != 0 {
		t.Fatalf("unexpected carol aggregate: %+v", carol)
	}
}

func TestRecalcService_RecalcForMatch_NoResultIsNoop(t *testing.T) {
	t.Parallel()

	svc, predRepo, scoreRepo := newRecalcFixture(t, []match.Match{{
		ID:        "m-1",
		ExtID:     1,
		KickoffAt: time.Date(2026, 6, 14, 19, 0, 0, 0, time.UTC),
		Status:    match.StatusLive,
	}})

	ctx := context.Background()
	if err := predRepo.Upsert(ctx, prediction.Prediction{UserID: "alice", MatchID: "m-1", PredHome: 1, PredAway: 0}); err != nil {
		t.Fatalf("seed prediction: %v", err)
	}

	updated, err := svc.RecalcForMatch(ctx, "m-1")
	if err != nil {
		t.Fatalf("RecalcForMatch: %v", err)
	}
	if updated != 0 {
		t.Fatalf("expected no-op for unscored match, updated=%d", updated)
	}
	if _, exists, _ := scoreRepo.Get(ctx, "alice"); exists {
		t.Fatalf("unscored match must not create aggregates")
	}
}

func TestRecalcService_RecalcAll_Idempotent(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2026, 6, 14, 19, 0, 0, 0, time.UTC)
	svc, predRepo, scoreRepo := newRecalcFixture(t, []match.Match{
		{
			ID: "m-1", ExtID: 1, KickoffAt: kickoff,
			Status: match.StatusFinished, HomeScore: intPtr(2), AwayScore: intPtr(1),
		},
		{
			ID: "m-2", ExtID: 2, KickoffAt: kickoff.Add(3 * time.Hour),
			Status: match.StatusFinished, HomeScore: intPtr(0), AwayScore: intPtr(0),
		},
		// live match with no score must not contribute
		{
			ID: "m-3", ExtID: 3, KickoffAt: kickoff.Add(24 * time.Hour),
			Status: match.StatusLive,
		},
	})

	ctx := context.Background()
	predAt := kickoff.Add(-2 * time.Hour)
	for _, p := range []prediction.Prediction{
		{UserID: "alice", MatchID: "m-1", PredHome: 2, PredAway: 1, CreatedAt: predAt},
		{UserID: "alice", MatchID: "m-2", PredHome: 1, PredAway: 1, CreatedAt: predAt.Add(time.Minute)},
		{UserID: "bob", MatchID: "m-1", PredHome: 3, PredAway: 2, CreatedAt: predAt.Add(2 * time.Minute)},
		{UserID: "bob", MatchID: "m-3", PredHome: 1, PredAway: 0, CreatedAt: predAt.Add(3 * time.Minute)},
	} {
		if err := predRepo.Upsert(ctx, p); err != nil {
			t.Fatalf("seed prediction: %v", err)
		}
	}

	users, err := svc.RecalcAll(ctx)
	if err != nil {
		t.Fatalf("first RecalcAll: %v", err)
	}
	if users != 2 {
		t.Fatalf("unexpected user count: got=%d want=2", users)
	}
	first, err := scoreRepo.List(ctx)
	if err != nil {
		t.Fatalf("list after first run: %v", err)
	}

	// alice: exact on m-1 (+5), goal-diff on m-2 draw (+3)
	if first[0].UserID != "alice" || first[0].PointsTotal != 8 || first[0].ExactCount != 1 || first[0].DiffCount != 1 {
		t.Fatalf("unexpected alice rebuild: %+v", first[0])
	}
	// bob: goal-diff on m-1 (+3); m-3 is unscored
	if first[1].UserID != "bob" || first[1].PointsTotal != 3 || first[1].DiffCount != 1 {
		t.Fatalf("unexpected bob rebuild: %+v", first[1])
	}

	if _, err := svc.RecalcAll(ctx); err != nil {
		t.Fatalf("second RecalcAll: %v", err)
	}
	second, err := scoreRepo.List(ctx)
	if err != nil {
		t.Fatalf("list after second run: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("rebuild is not idempotent:\nfirst=%+v\nsecond=%+v", first, second)
	}
}

func TestRecalcService_RecalcAll_CarriesBonusPoints(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2026, 6, 14, 19, 0, 0, 0, time.UTC)
	svc, predRepo, scoreRepo := newRecalcFixture(t, []match.Match{{
		ID: "m-1", ExtID: 1, KickoffAt: kickoff,
		Status: match.StatusFinished, HomeScore: intPtr(1), AwayScore: intPtr(0),
	}})

	ctx := context.Background()
	if err := predRepo.Upsert(ctx, prediction.Prediction{UserID: "alice", MatchID: "m-1", PredHome: 1, PredAway: 0, CreatedAt: kickoff.Add(-time.Hour)}); err != nil {
		t.Fatalf("seed prediction: %v", err)
	}
	if err := svc.AwardBonus(ctx, "alice", 10, "quiz winner"); err != nil {
		t.Fatalf("AwardBonus: %v", err)
	}

	if _, err := svc.RecalcAll(ctx); err != nil {
		t.Fatalf("RecalcAll: %v", err)
	}

	alice, _, _ := scoreRepo.Get(ctx, "alice")
	if alice.BonusPoints != 10 {
		t.Fatalf("bonus points lost in rebuild: %+v", alice)
	}
	if alice.PointsTotal != 15 {
		t.Fatalf("unexpected total with bonus: got=%d want=15", alice.PointsTotal)
	}
}
