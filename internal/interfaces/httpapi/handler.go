package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/openkick/predictor/internal/domain/prediction"
	"github.com/openkick/predictor/internal/platform/logging"
	"github.com/openkick/predictor/internal/usecase"
)

// Handler exposes the prediction game over plain HTTP. There is no auth
// protocol; callers identify themselves with the X-User-ID header.
type Handler struct {
	matchService       *usecase.MatchService
	predictionService  *usecase.PredictionService
	leaderboardService *usecase.LeaderboardService
	recalcService      *usecase.RecalcService
	logger             *logging.Logger
	validator          *validator.Validate
}

func NewHandler(
	matchService *usecase.MatchService,
	predictionService *usecase.PredictionService,
	leaderboardService *usecase.LeaderboardService,
	recalcService *usecase.RecalcService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		matchService:       matchService,
		predictionService:  predictionService,
		leaderboardService: leaderboardService,
		recalcService:      recalcService,
		logger:             logger,
		validator:          validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

type matchDTO struct {
	ID         string `json:"id"`
	Stage      string `json:"stage,omitempty"`
	Group      string `json:"group,omitempty"`
	Matchday   int    `json:"matchday,omitempty"`
	HomeTeam   string `json:"homeTeam"`
	AwayTeam   string `json:"awayTeam"`
	KickoffAt  string `json:"kickoffAt"`
	Status     string `json:"status"`
	HomeScore  *int   `json:"homeScore"`
	AwayScore  *int   `json:"awayScore"`
	IsLive     bool   `json:"isLive"`
	IsFinished bool   `json:"isFinished"`
	IsBettable bool   `json:"isBettable"`
}

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatches")
	defer span.End()

	views, err := h.matchService.GetMatches(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list matches failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]matchDTO, 0, len(views))
	for _, view := range views {
		out = append(out, matchDTO{
			ID:         view.ID,
			Stage:      view.Stage,
			Group:      view.Group,
			Matchday:   view.Matchday,
			HomeTeam:   view.HomeTeam,
			AwayTeam:   view.AwayTeam,
			KickoffAt:  view.KickoffAt.UTC().Format(time.RFC3339),
			Status:     string(view.Status),
			HomeScore:  view.HomeScore,
			AwayScore:  view.AwayScore,
			IsLive:     view.IsLive,
			IsFinished: view.IsFinished,
			IsBettable: view.IsBettable,
		})
	}

	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeaderboard")
	defer span.End()

	rows, err := h.leaderboardService.GetLeaderboard(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "get leaderboard failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, rows)
}

func (h *Handler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCacheStats")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.matchService.CacheStats())
}

type placePredictionRequest struct {
	Home int `json:"home" validate:"gte=0,lte=99"`
	Away int `json:"away" validate:"gte=0,lte=99"`
}

type predictionDTO struct {
	MatchID   string `json:"matchId"`
	PredHome  int    `json:"predHome"`
	PredAway  int    `json:"predAway"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func (h *Handler) PlacePrediction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PlacePrediction")
	defer span.End()

	userID, err := callerID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	matchID := r.PathValue("matchID")

	var payload placePredictionRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: decode request body: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, payload); err != nil {
		writeError(ctx, w, err)
		return
	}

	placed, err := h.predictionService.Place(ctx, userID, matchID, payload.Home, payload.Away)
	if err != nil {
		h.logger.WarnContext(ctx, "place prediction rejected", "user_id", userID, "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, predictionToDTO(placed))
}

func (h *Handler) ListMyPredictions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyPredictions")
	defer span.End()

	userID, err := callerID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.predictionService.ListByUser(ctx, userID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]predictionDTO, 0, len(items))
	for _, item := range items {
		out = append(out, predictionToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

type historyDTO struct {
	MatchID    string `json:"matchId"`
	PredHome   int    `json:"predHome"`
	PredAway   int    `json:"predAway"`
	ReplacedAt string `json:"replacedAt"`
}

func (h *Handler) ListMyPredictionHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyPredictionHistory")
	defer span.End()

	userID, err := callerID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.predictionService.ListHistoryByUser(ctx, userID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]historyDTO, 0, len(items))
	for _, item := range items {
		out = append(out, historyDTO{
			MatchID:    item.MatchID,
			PredHome:   item.PredHome,
			PredAway:   item.PredAway,
			ReplacedAt: item.ReplacedAt.UTC().Format(time.RFC3339),
		})
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) RunSyncJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSyncJob")
	defer span.End()

	count, err := h.matchService.SyncNow(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "sync job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]int{"upserted": count})
}

func (h *Handler) RunRecalcJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRecalcJob")
	defer span.End()

	users, err := h.recalcService.RecalcAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "recalc job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]int{"users": users})
}

type setResultRequest struct {
	Home int `json:"home" validate:"gte=0"`
	Away int `json:"away" validate:"gte=0"`
}

func (h *Handler) SetMatchResult(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetMatchResult")
	defer span.End()

	matchID := r.PathValue("matchID")

	var payload setResultRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: decode request body: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, payload); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.matchService.SetResult(ctx, matchID, payload.Home, payload.Away); err != nil {
		h.logger.ErrorContext(ctx, "set match result failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"matchId": matchID, "status": "FINISHED"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func callerID(r *http.Request) (string, error) {
	userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if userID == "" {
		return "", fmt.Errorf("%w: X-User-ID header is required", usecase.ErrInvalidInput)
	}
	return userID, nil
}

func predictionToDTO(item prediction.Prediction) predictionDTO {
	return predictionDTO{
		MatchID:   item.MatchID,
		PredHome:  item.PredHome,
		PredAway:  item.PredAway,
		CreatedAt: item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
