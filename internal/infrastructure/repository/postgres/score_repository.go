package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/openkick/predictor/internal/domain/score"
	qb "github.com/openkick/predictor/internal/platform/querybuilder"
)

const scoreUpsertSuffix = `ON CONFLICT (user_id) DO UPDATE SET
	points_total = EXCLUDED.points_total,
	exact_count = EXCLUDED.exact_count,
	diff_count = EXCLUDED.diff_count,
	outcome_count = EXCLUDED.outcome_count,
	bonus_points = EXCLUDED.bonus_points,
	first_pred_at = EXCLUDED.first_pred_at,
	updated_at = EXCLUDED.updated_at`

type ScoreRepository struct {
	db *sqlx.DB
}

func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

func (r *ScoreRepository) Get(ctx context.Context, userID string) (score.Score, bool, error) {
	query, args, err := qb.Select("*").From("scores").
		Where(qb.Eq("user_id", userID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return score.Score{}, false, fmt.Errorf("build select score query: %w", err)
	}

	var row scoreTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return score.Score{}, false, nil
		}
		return score.Score{}, false, fmt.Errorf("select score user=%s: %w", userID, err)
	}
	return row.toDomain(), true, nil
}

func (r *ScoreRepository) List(ctx context.Context) ([]score.Score, error) {
	query, args, err := qb.Select("*").From("scores").
		OrderBy("user_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select scores query: %w", err)
	}

	var rows []scoreTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select scores: %w", err)
	}

	out := make([]score.Score, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *ScoreRepository) Upsert(ctx context.Context, row score.Score) error {
	query, args, err := qb.InsertModel("scores", scoreToModel(row), scoreUpsertSuffix)
	if err != nil {
		return fmt.Errorf("build upsert score query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert score user=%s: %w", row.UserID, err)
	}
	return nil
}

// ReplaceAll swaps the whole table inside one transaction so concurrent
// leaderboard reads never observe a partially rebuilt state.
func (r *ScoreRepository) ReplaceAll(ctx context.Context, rows []score.Score) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin score replace tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM scores"); err != nil {
		return fmt.Errorf("clear scores: %w", err)
	}

	for _, row := range rows {
		query, args, err := qb.InsertModel("scores", scoreToModel(row), "")
		if err != nil {
			return fmt.Errorf("build insert score query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert score user=%s: %w", row.UserID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit score replace tx: %w", err)
	}
	return nil
}
