package match

import (
	"testing"
	"time"
)

func intPtr(v int) *int { return &v }

func TestResolve_Scenarios(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2026, 6, 14, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		raw       string
		now       time.Time
		home      *int
		away      *int
		want      Status
		wantLive  bool
		wantBet   bool
		wantFinal bool
	}{
		{
			name:    "timed before kickoff stays scheduled and bettable",
			raw:     "TIMED",
			now:     kickoff.Add(-2 * time.Hour),
			want:    StatusScheduled,
			wantBet: true,
		},
		{
			name:     "timed ten minutes after kickoff promotes to live",
			raw:      "TIMED",
			now:      kickoff.Add(10 * time.Minute),
			want:     StatusLive,
			wantLive: true,
		},
		{
			name:     "in_play maps to live",
			raw:      "IN_PLAY",
			now:      kickoff.Add(30 * time.Minute),
			want:     StatusLive,
			wantLive: true,
		},
		{
			name:      "score with in_play status implies finished",
			raw:       "IN_PLAY",
			now:       kickoff.Add(100 * time.Minute),
			home:      intPtr(2),
			away:      intPtr(1),
			want:      StatusFinished,
			wantFinal: true,
		},
		{
			name:    "score with timed status before kickoff is not finished",
			raw:     "TIMED",
			now:     kickoff.Add(-time.Hour),
			home:    intPtr(0),
			away:    intPtr(0),
			want:    StatusScheduled,
			wantBet: true,
		},
		{
			name:      "hard ceiling forces finished without a score",
			raw:       "IN_PLAY",
			now:       kickoff.Add(241 * time.Minute),
			want:      StatusFinished,
			wantFinal: true,
		},
		{
			name:      "soft ceiling with score forces finished",
			raw:       "IN_PLAY",
			now:       kickoff.Add(185 * time.Minute),
			home:      intPtr(1),
			away:      intPtr(1),
			want:      StatusFinished,
			wantFinal: true,
		},
		{
			name:      "paused at 200 minutes with score finishes",
			raw:       "PAUSED",
			now:       kickoff.Add(200 * time.Minute),
			home:      intPtr(1),
			away:      intPtr(0),
			want:      StatusFinished,
			wantFinal: true,
		},
		{
			name:      "paused past halftime ceiling finishes without score",
			raw:       "PAUSED",
			now:       kickoff.Add(160 * time.Minute),
			want:      StatusFinished,
			wantFinal: true,
		},
		{
			name:     "paused within ceiling stays paused",
			raw:      "PAUSED",
			now:      kickoff.Add(50 * time.Minute),
			want:     StatusPaused,
			wantLive: true,
		},
		{
			name: "postponed passes through even long after kickoff",
			raw:  "POSTPONED",
			now:  kickoff.Add(300 * time.Minute),
			want: StatusPostponed,
		},
		{
			name: "postponed before kickoff is not bettable",
			raw:  "POSTPONED",
			now:  kickoff.Add(-time.Hour),
			want: StatusPostponed,
		},
		{
			name: "awarded keeps its administrative status despite a score",
			raw:  "AWARDED",
			now:  kickoff.Add(2 * time.Hour),
			home: intPtr(3),
			away: intPtr(0),
			want: StatusAwarded,
		},
		{
			name: "cancelled passes through",
			raw:  "CANCELLED",
			now:  kickoff.Add(-time.Hour),
			want: StatusCancelled,
		},
		{
			name: "suspended passes through",
			raw:  "SUSPENDED",
			now:  kickoff.Add(time.Hour),
			want: StatusSuspended,
		},
		{
			name:    "unknown code before kickoff falls back to scheduled",
			raw:     "WEIRD_STATE",
			now:     kickoff.Add(-time.Minute),
			want:    StatusScheduled,
			wantBet: true,
		},
		{
			name:     "unknown code after kickoff without score falls back to live",
			raw:      "WEIRD_STATE",
			now:      kickoff.Add(time.Minute),
			want:     StatusLive,
			wantLive: true,
		},
		{
			name:      "unknown code after kickoff with score falls back to finished",
			raw:       "WEIRD_STATE",
			now:       kickoff.Add(2 * time.Hour),
			home:      intPtr(0),
			away:      intPtr(2),
			want:      StatusFinished,
			wantFinal: true,
		},
		{
			name:      "finished maps to finished",
			raw:       "FINISHED",
			now:       kickoff.Add(2 * time.Hour),
			home:      intPtr(2),
			away:      intPtr(2),
			want:      StatusFinished,
			wantFinal: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := Resolve(tc.raw, kickoff, tc.now, tc.home, tc.away)
			if got.Canonical != tc.want {
				t.Fatalf("canonical: got=%s want=%s", got.Canonical, tc.want)
			}
			if got.IsLive != tc.wantLive {
				t.Fatalf("isLive: got=%t want=%t", got.IsLive, tc.wantLive)
			}
			if got.IsFinished != tc.wantFinal {
				t.Fatalf("isFinished: got=%t want=%t", got.IsFinished, tc.wantFinal)
			}
			if got.IsBettable != tc.wantBet {
				t.Fatalf("isBettable: got=%t want=%t", got.IsBettable, tc.wantBet)
			}
		})
	}
}

func TestResolve_IsDeterministic(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2026, 6, 14, 18, 0, 0, 0, time.UTC)
	now := kickoff.Add(47 * time.Minute)
	home, away := intPtr(1), intPtr(0)

	first := Resolve("IN_PLAY", kickoff, now, home, away)
	second := Resolve("IN_PLAY", kickoff, now, home, away)
	if first != second {
		t.Fatalf("identical inputs resolved differently: %+v vs %+v", first, second)
	}
}

func TestResolve_NeverBettableAfterKickoff(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2026, 6, 14, 18, 0, 0, 0, time.UTC)
	statuses := []string{"SCHEDULED", "TIMED", "IN_PLAY", "PAUSED", "FINISHED", "POSTPONED", "SUSPENDED", "CANCELLED", "AWARDED", "NO_PLAY", "???"}

	for _, raw := range statuses {
		got := Resolve(raw, kickoff, kickoff, nil, nil)
		if got.IsBettable {
			t.Fatalf("status %q bettable at kickoff instant", raw)
		}
		got = Resolve(raw, kickoff, kickoff.Add(time.Second), nil, nil)
		if got.IsBettable {
			t.Fatalf("status %q bettable after kickoff", raw)
		}
	}
}
