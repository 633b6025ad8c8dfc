package score

import "time"

// Score is the per-user aggregate over all settled matches. It is wholly
// derived from matches and predictions and safe to rebuild at any time.
type Score struct {
	UserID       string
	PointsTotal  int
	ExactCount   int
	DiffCount    int
	OutcomeCount int
	BonusPoints  int
	// FirstPredAt is the user's earliest prediction instant, used as the
	// final leaderboard tie-break.
	FirstPredAt time.Time
	UpdatedAt   time.Time
}

// Less orders scores for the leaderboard: points desc, exact desc, diff
// desc, outcome desc, earliest first prediction last.
func Less(a, b Score) bool {
	if a.PointsTotal != b.PointsTotal {
		return a.PointsTotal > b.PointsTotal
	}
	if a.ExactCount != b.ExactCount {
		return a.ExactCount > b.ExactCount
	}
	if a.DiffCount != b.DiffCount {
		return a.DiffCount > b.DiffCount
	}
	if a.OutcomeCount != b.OutcomeCount {
		return a.OutcomeCount > b.OutcomeCount
	}
	if !a.FirstPredAt.Equal(b.FirstPredAt) {
		if a.FirstPredAt.IsZero() {
			return false
		}
		if b.FirstPredAt.IsZero() {
			return true
		}
		return a.FirstPredAt.Before(b.FirstPredAt)
	}
	return a.UserID < b.UserID
}
