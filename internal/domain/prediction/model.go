package prediction

import "time"

// Prediction is one user's tip for one match. The (UserID, MatchID) pair is
// unique; the row is mutable until kickoff.
type Prediction struct {
	UserID    string
	MatchID   string
	PredHome  int
	PredAway  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HistoryEntry archives the previous value of an overwritten prediction.
// The history is an append-only audit log and is never mutated.
type HistoryEntry struct {
	UserID     string
	MatchID    string
	PredHome   int
	PredAway   int
	ReplacedAt time.Time
}
