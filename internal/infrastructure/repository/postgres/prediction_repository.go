package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/openkick/predictor/internal/domain/prediction"
	qb "github.com/openkick/predictor/internal/platform/querybuilder"
)

type PredictionRepository struct {
	db *sqlx.DB
}

func NewPredictionRepository(db *sqlx.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

func (r *PredictionRepository) Get(ctx context.Context, userID, matchID string) (prediction.Prediction, bool, error) {
	query, args, err := qb.Select("*").From("predictions").
		Where(qb.Eq("user_id", userID), qb.Eq("match_id", matchID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return prediction.Prediction{}, false, fmt.Errorf("build select prediction query: %w", err)
	}

	var row predictionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return prediction.Prediction{}, false, nil
		}
		return prediction.Prediction{}, false, fmt.Errorf("select prediction user=%s match=%s: %w", userID, matchID, err)
	}
	return row.toDomain(), true, nil
}

func (r *PredictionRepository) ListByMatch(ctx context.Context, matchID string) ([]prediction.Prediction, error) {
	query, args, err := qb.Select("*").From("predictions").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("user_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select predictions by match query: %w", err)
	}

	var rows []predictionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select predictions match=%s: %w", matchID, err)
	}

	out := make([]prediction.Prediction, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *PredictionRepository) ListByUser(ctx context.Context, userID string) ([]prediction.Prediction, error) {
	query, args, err := qb.Select("*").From("predictions").
		Where(qb.Eq("user_id", userID)).
		OrderBy("match_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select predictions by user query: %w", err)
	}

	var rows []predictionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select predictions user=%s: %w", userID, err)
	}

	out := make([]prediction.Prediction, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *PredictionRepository) Upsert(ctx context.Context, row prediction.Prediction) error {
	model := predictionTableModel{
		UserID:    row.UserID,
		MatchID:   row.MatchID,
		PredHome:  row.PredHome,
		PredAway:  row.PredAway,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}

	query, args, err := qb.InsertModel("predictions", model, `ON CONFLICT (user_id, match_id) DO UPDATE SET
		pred_home = EXCLUDED.pred_home,
		pred_away = EXCLUDED.pred_away,
		updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build upsert prediction query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert prediction user=%s match=%s: %w", row.UserID, row.MatchID, err)
	}
	return nil
}

func (r *PredictionRepository) AppendHistory(ctx context.Context, entry prediction.HistoryEntry) error {
	model := struct {
		UserID     string    `db:"user_id"`
		MatchID    string    `db:"match_id"`
		PredHome   int       `db:"pred_home"`
		PredAway   int       `db:"pred_away"`
		ReplacedAt time.Time `db:"replaced_at"`
	}{
		UserID:     entry.UserID,
		MatchID:    entry.MatchID,
		PredHome:   entry.PredHome,
		PredAway:   entry.PredAway,
		ReplacedAt: entry.ReplacedAt.UTC(),
	}

	query, args, err := qb.InsertModel("prediction_history", model, "")
	if err != nil {
		return fmt.Errorf("build insert prediction history query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert prediction history user=%s match=%s: %w", entry.UserID, entry.MatchID, err)
	}
	return nil
}

func (r *PredictionRepository) ListHistoryByUser(ctx context.Context, userID string) ([]prediction.HistoryEntry, error) {
	query, args, err := qb.Select("*").From("prediction_history").
		Where(qb.Eq("user_id", userID)).
		OrderBy("replaced_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select prediction history query: %w", err)
	}

	var rows []predictionHistoryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select prediction history user=%s: %w", userID, err)
	}

	out := make([]prediction.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
