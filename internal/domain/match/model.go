package match

import "time"

// Match represents one fixture as tracked by the prediction game.
type Match struct {
	ID        string
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
	UpdatedAt time.Time
}

// HasResult reports whether both full-time scores are present. Half-set
// scores are never settled; callers treat them as score-absent.
func (m Match) HasResult() bool {
	return m.HomeScore != nil && m.AwayScore != nil
}

// Result returns the full-time score, valid only when HasResult is true.
func (m Match) Result() (home, away int) {
	if !m.HasResult() {
		return 0, 0
	}
	return *m.HomeScore, *m.AwayScore
}
