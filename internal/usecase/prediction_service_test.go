package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openkick/predictor/internal/domain/match"
	"github.com/openkick/predictor/internal/infrastructure/repository/memory"
	"github.com/openkick/predictor/internal/platform/logging"
)

func newPredictionFixture(t *testing.T, kickoff time.Time, status match.Status) (*PredictionService, *memory.PredictionRepository) {
	t.Helper()

	matchRepo := memory.NewMatchRepository([]match.Match{{
		ID: "m-1", ExtID: 1, HomeTeam: "Spain", AwayTeam: "Croatia",
		KickoffAt: kickoff, Status: status,
	}})
	predRepo := memory.NewPredictionRepository()
	svc := NewPredictionService(matchRepo, predRepo, logging.NewNop())
	return svc, predRepo
}

func TestPredictionService_Place_BeforeKickoff(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2026, 6, 15, 18, 0, 0, 0, time.UTC)
	svc, _ := newPredictionFixture(t, kickoff, match.StatusScheduled)
	svc.now = func() time.Time { return kickoff.Add(-time.Hour) }

	got, err := svc.Place(context.Background(), "alice", "m-1", 2, 1)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if got.PredHome != 2 || got.PredAway != 1 {
		t.Fatalf("unexpected stored prediction: %+v", got)
	}
	if !got.CreatedAt.Equal(kickoff.Add(-time.Hour)) {
		t.Fatalf("unexpected CreatedAt: %v", got.CreatedAt)
	}
}

func TestPredictionService_Place_ClosedAfterKickoff(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2026, 6, 15, 18, 0, 0, 0, time.UTC)
	svc, _ := newPredictionFixture(t, kickoff, match.StatusScheduled)
	svc.now = func() time.Time { return kickoff.Add(time.Second) }

	if _, err := svc.Place(context.Background(), "alice", "m-1", 2, 1); !errors.Is(err, ErrBettingClosed) {
		t.Fatalf("expected ErrBettingClosed, got=%v", err)
	}
}

func TestPredictionService_Place_ClosedForPostponed(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2026, 6, 15, 18, 0, 0, 0, time.UTC)
	svc, _ := newPredictionFixture(t, kickoff, match.StatusPostponed)
	svc.now = func() time.Time { return kickoff.Add(-24 * time.Hour) }

	if _, err := svc.Place(context.Background(), "alice", "m-1", 1, 0); !errors.Is(err, ErrBettingClosed) {
		t.Fatalf("postponed match must not be bettable, got=%v", err)
	}
}

func TestPredictionService_Place_OverwriteArchivesHistory(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2026, 6, 15, 18, 0, 0, 0, time.UTC)
	svc, predRepo := newPredictionFixture(t, kickoff, match.StatusScheduled)

	firstAt := kickoff.Add(-3 * time.Hour)
	svc.now = func() time.Time { return firstAt }
	if _, err := svc.Place(context.Background(), "alice", "m-1", 1, 0); err != nil {
		t.Fatalf("first Place: %v", err)
	}

	secondAt := kickoff.Add(-time.Hour)
	svc.now = func() time.Time { return secondAt }
	got, err := svc.Place(context.Background(), "alice", "m-1", 3, 1)
	if err != nil {
		t.Fatalf("second Place: %v", err)
	}

	if !got.CreatedAt.Equal(firstAt) {
		t.Fatalf("overwrite must keep original CreatedAt: got=%v want=%v", got.CreatedAt, firstAt)
	}
	if !got.UpdatedAt.Equal(secondAt) {
		t.Fatalf("overwrite must bump UpdatedAt: got=%v want=%v", got.UpdatedAt, secondAt)
	}

	history, err := svc.ListHistoryByUser(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ListHistoryByUser: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("unexpected history length: got=%d want=1", len(history))
	}
	if history[0].PredHome != 1 || history[0].PredAway != 0 {
		t.Fatalf("history must hold the replaced value: %+v", history[0])
	}
	if !history[0].ReplacedAt.Equal(secondAt) {
		t.Fatalf("unexpected ReplacedAt: %v", history[0].ReplacedAt)
	}

	current, exists, _ := predRepo.Get(context.Background(), "alice", "m-1")
	if !exists || current.PredHome != 3 || current.PredAway != 1 {
		t.Fatalf("unexpected current prediction: %+v", current)
	}
}

func TestPredictionService_Place_Validation(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2026, 6, 15, 18, 0, 0, 0, time.UTC)
	svc, _ := newPredictionFixture(t, kickoff, match.StatusScheduled)
	svc.now = func() time.Time { return kickoff.Add(-time.Hour) }

	cases := []struct {
		name     string
		userID   string
		matchID  string
		home     int
		away     int
		expected error
	}{
		{name: "missing user", matchID: "m-1", home: 1, away: 0, expected: ErrInvalidInput},
		{name: "missing match", userID: "alice", home: 1, away: 0, expected: ErrInvalidInput},
		{name: "negative home", userID: "alice", matchID: "m-1", home: -1, away: 0, expected: ErrInvalidInput},
		{name: "home too large", userID: "alice", matchID: "m-1", home: 100, away: 0, expected: ErrInvalidInput},
		{name: "unknown match", userID: "alice", matchID: "m-999", home: 1, away: 0, expected: ErrNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Place(context.Background(), tc.userID, tc.matchID, tc.home, tc.away); !errors.Is(err, tc.expected) {
				t.Fatalf("expected %v, got=%v", tc.expected, err)
			}
		})
	}
}
