package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/openkick/predictor/internal/domain/match"
	qb "github.com/openkick/predictor/internal/platform/querybuilder"
)

type MatchRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db, now: time.Now}
}

// MatchID derives the internal match id from the feed's external id, keeping
// repeated syncs idempotent.
func MatchID(extID int64) string {
	return fmt.Sprintf("m-%d", extID)
}

func (r *MatchRepository) UpsertByExtID(ctx context.Context, row match.Upsert) (match.UpsertOutcome, error) {
	prevHasResult, err := r.hasResultByExtID(ctx, row.ExtID)
	if err != nil {
		return match.UpsertOutcome{}, err
	}

	model := struct {
		ID        string    `db:"id"`
		ExtID     int64     `db:"ext_id"`
		Stage     string    `db:"stage"`
		GroupName string    `db:"group_name"`
		Matchday  int       `db:"matchday"`
		HomeTeam  string    `db:"home_team"`
		AwayTeam  string    `db:"away_team"`
		KickoffAt time.Time `db:"kickoff_at"`
		Status    string    `db:"status"`
		HomeScore any       `db:"home_score"`
		AwayScore any       `db:"away_score"`
		UpdatedAt time.Time `db:"updated_at"`
	}{
		ID:        MatchID(row.ExtID),
		ExtID:     row.ExtID,
		Stage:     row.Stage,
		GroupName: row.Group,
		Matchday:  row.Matchday,
		HomeTeam:  row.HomeTeam,
		AwayTeam:  row.AwayTeam,
		KickoffAt: row.KickoffAt.UTC(),
		Status:    string(row.Status),
		HomeScore: nullableScore(row.HomeScore),
		AwayScore: nullableScore(row.AwayScore),
		UpdatedAt: r.now().UTC(),
	}

	query, args, err := qb.InsertModel("matches", model, `ON CONFLICT (ext_id) DO UPDATE SET
		stage = EXCLUDED.stage,
		group_name = EXCLUDED.group_name,
		matchday = EXCLUDED.matchday,
		home_team = EXCLUDED.home_team,
		away_team = EXCLUDED.away_team,
		kickoff_at = EXCLUDED.kickoff_at,
		status = EXCLUDED.status,
		home_score = EXCLUDED.home_score,
		away_score = EXCLUDED.away_score,
		updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return match.UpsertOutcome{}, fmt.Errorf("build upsert match query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return match.UpsertOutcome{}, fmt.Errorf("upsert match ext_id=%d: %w", row.ExtID, err)
	}

	hasResult := row.HomeScore != nil && row.AwayScore != nil
	return match.UpsertOutcome{
		MatchID:   MatchID(row.ExtID),
		ResultSet: hasResult && !prevHasResult,
	}, nil
}

// hasResultByExtID reports whether the stored row already carries a full
// result. A missing row counts as no result.
func (r *MatchRepository) hasResultByExtID(ctx context.Context, extID int64) (bool, error) {
	query, args, err := qb.Select("home_score IS NOT NULL AND away_score IS NOT NULL AS has_result").
		From("matches").
		Where(qb.Eq("ext_id", extID)).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build match result lookup query: %w", err)
	}

	var hasResult bool
	if err := r.db.GetContext(ctx, &hasResult, query, args...); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("read match result state ext_id=%d: %w", extID, err)
	}
	return hasResult, nil
}

func (r *MatchRepository) List(ctx context.Context) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("matches").
		OrderBy("kickoff_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID string) (match.Match, bool, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Eq("id", matchID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build select match query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("select match id=%s: %w", matchID, err)
	}
	return row.toDomain(), true, nil
}

func (r *MatchRepository) ListFinishedWithScore(ctx context.Context) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(
			qb.Eq("status", string(match.StatusFinished)),
			qb.Expr("home_score IS NOT NULL AND away_score IS NOT NULL"),
		).
		OrderBy("kickoff_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select finished matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select finished matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *MatchRepository) SetResult(ctx context.Context, matchID string, homeScore, awayScore int) error {
	query, args, err := qb.Update("matches").
		Set("home_score", homeScore).
		Set("away_score", awayScore).
		Set("status", string(match.StatusFinished)).
		Set("updated_at", r.now().UTC()).
		Where(qb.Eq("id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update match result query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update match result id=%s: %w", matchID, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("match %s not found", matchID)
	}
	return nil
}
