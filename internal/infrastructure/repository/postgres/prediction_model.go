package postgres

import (
	"time"

	"github.com/openkick/predictor/internal/domain/prediction"
)

type predictionTableModel struct {
	UserID    string    `db:"user_id"`
	MatchID   string    `db:"match_id"`
	PredHome  int       `db:"pred_home"`
	PredAway  int       `db:"pred_away"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (m predictionTableModel) toDomain() prediction.Prediction {
	return prediction.Prediction{
		UserID:    m.UserID,
		MatchID:   m.MatchID,
		PredHome:  m.PredHome,
		PredAway:  m.PredAway,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type predictionHistoryTableModel struct {
	ID         int64     `db:"id"`
	UserID     string    `db:"user_id"`
	MatchID    string    `db:"match_id"`
	PredHome   int       `db:"pred_home"`
	PredAway   int       `db:"pred_away"`
	ReplacedAt time.Time `db:"replaced_at"`
}

func (m predictionHistoryTableModel) toDomain() prediction.HistoryEntry {
	return prediction.HistoryEntry{
		UserID:     m.UserID,
		MatchID:    m.MatchID,
		PredHome:   m.PredHome,
		PredAway:   m.PredAway,
		ReplacedAt: m.ReplacedAt.UTC(),
	}
}
