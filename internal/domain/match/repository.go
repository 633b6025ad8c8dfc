package match

import (
	"context"
	"time"
)

// Upsert carries the fields written for one match keyed by external id.
type Upsert struct {
	ExtID     int64
	Stage     string
	Group     string
	Matchday  int
	HomeTeam  string
	AwayTeam  string
	KickoffAt time.Time
	Status    Status
	HomeScore *int
	AwayScore *int
}

// UpsertOutcome reports what an upsert did to the stored row. ResultSet is
// true only on the write that takes the row from no result to a full result,
// so callers can settle each finished match exactly once.
type UpsertOutcome struct {
	MatchID   string
	ResultSet bool
}

// Repository exposes the match read/write contract consumed by the sync and
// recalculation services. Each call is individually atomic.
type Repository interface {
	UpsertByExtID(ctx context.Context, row Upsert) (UpsertOutcome, error)
	List(ctx context.Context) ([]Match, error)
	GetByID(ctx context.Context, matchID string) (Match, bool, error)
	// ListFinishedWithScore returns matches eligible for settlement.
	ListFinishedWithScore(ctx context.Context) ([]Match, error)
	SetResult(ctx context.Context, matchID string, homeScore, awayScore int) error
}
