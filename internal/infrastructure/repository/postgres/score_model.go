package postgres

import (
	"time"

	"github.com/openkick/predictor/internal/domain/score"
)

type scoreTableModel struct {
	UserID       string     `db:"user_id"`
	PointsTotal  int        `db:"points_total"`
	ExactCount   int        `db:"exact_count"`
	DiffCount    int        `db:"diff_count"`
	OutcomeCount int        `db:"outcome_count"`
	BonusPoints  int        `db:"bonus_points"`
	FirstPredAt  *time.Time `db:"first_pred_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

func (m scoreTableModel) toDomain() score.Score {
	out := score.Score{
		UserID:       m.UserID,
		PointsTotal:  m.PointsTotal,
		ExactCount:   m.ExactCount,
		DiffCount:    m.DiffCount,
		OutcomeCount: m.OutcomeCount,
		BonusPoints:  m.BonusPoints,
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
	if m.FirstPredAt != nil {
		out.FirstPredAt = m.FirstPredAt.UTC()
	}
	return out
}

func scoreToModel(row score.Score) scoreTableModel {
	model := scoreTableModel{
		UserID:       row.UserID,
		PointsTotal:  row.PointsTotal,
		ExactCount:   row.ExactCount,
		DiffCount:    row.DiffCount,
		OutcomeCount: row.OutcomeCount,
		BonusPoints:  row.BonusPoints,
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	if !row.FirstPredAt.IsZero() {
		at := row.FirstPredAt.UTC()
		model.FirstPredAt = &at
	}
	return model
}
