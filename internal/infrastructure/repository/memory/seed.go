package memory

import (
	"time"

	"github.com/openkick/predictor/internal/domain/match"
)

// SeedMatches returns a small group-stage slate around the given instant,
// used when the service runs without a database or a feed token.
func SeedMatches(now time.Time) []match.Match {
	now = now.UTC().Truncate(time.Minute)
	finished := func(h, a int) (*int, *int) { return &h, &a }

	h1, a1 := finished(2, 1)
	h2, a2 := finished(0, 0)

	return []match.Match{
		{
			ExtID:     400100,
			Stage:     "GROUP_STAGE",
			Group:     "Group A",
			Matchday:  1,
			HomeTeam:  "Germany",
			AwayTeam:  "Scotland",
			KickoffAt: now.Add(-48 * time.Hour),
			Status:    match.StatusFinished,
			HomeScore: h1,
			AwayScore: a1,
		},
		{
			ExtID:     400101,
			Stage:     "GROUP_STAGE",
			Group:     "Group A",
			Matchday:  1,
			HomeTeam:  "Hungary",
			AwayTeam:  "Switzerland",
			KickoffAt: now.Add(-45 * time.Hour),
			Status:    match.StatusFinished,
			HomeScore: h2,
			AwayScore: a2,
		},
		{
			ExtID:     400102,
			Stage:     "GROUP_STAGE",
			Group:     "Group B",
			Matchday:  1,
			HomeTeam:  "Spain",
			AwayTeam:  "Croatia",
			KickoffAt: now.Add(3 * time.Hour),
			Status:    match.StatusScheduled,
		},
		{
			ExtID:     400103,
			Stage:     "GROUP_STAGE",
			Group:     "Group B",
			Matchday:  1,
			HomeTeam:  "Italy",
			AwayTeam:  "Albania",
			KickoffAt: now.Add(6 * time.Hour),
			Status:    match.StatusScheduled,
		},
	}
}
