package postgres

import (
	"database/sql"
	"time"

	"github.com/openkick/predictor/internal/domain/match"
)

type matchTableModel struct {
	ID        string        `db:"id"`
	ExtID     int64         `db:"ext_id"`
	Stage     string        `db:"stage"`
	GroupName string        `db:"group_name"`
	Matchday  int           `db:"matchday"`
	HomeTeam  string        `db:"home_team"`
	AwayTeam  string        `db:"away_team"`
	KickoffAt time.Time     `db:"kickoff_at"`
	Status    string        `db:"status"`
	HomeScore sql.NullInt64 `db:"home_score"`
	AwayScore sql.NullInt64 `db:"away_score"`
	UpdatedAt time.Time     `db:"updated_at"`
}

func (m matchTableModel) toDomain() match.Match {
	return match.Match{
		ID:        m.ID,
		ExtID:     m.ExtID,
		Stage:     m.Stage,
		Group:     m.GroupName,
		Matchday:  m.Matchday,
		HomeTeam:  m.HomeTeam,
		AwayTeam:  m.AwayTeam,
		KickoffAt: m.KickoffAt.UTC(),
		Status:    match.Status(m.Status),
		HomeScore: nullInt64ToScore(m.HomeScore),
		AwayScore: nullInt64ToScore(m.AwayScore),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

func nullInt64ToScore(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int64)
	return &v
}
