package httpapi

import (
	"net/http"

	"github.com/openkick/predictor/internal/platform/logging"
)

func NewRouter(
	handler *Handler,
	logger *logging.Logger,
	corsAllowedOrigins []string,
	internalJobToken string,
) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler)
	registerPublicRoutes(mux, handler)
	registerInternalRoutes(mux, handler, internalJobToken)

	return RequestTracing(RequestLogging(logger, CORS(corsAllowedOrigins, recoverPanic(logger, mux))))
}

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /api/v1/matches", handler.ListMatches)
	mux.HandleFunc("GET /api/v1/leaderboard", handler.GetLeaderboard)
	mux.HandleFunc("GET /api/v1/cache/stats", handler.GetCacheStats)
	mux.HandleFunc("PUT /api/v1/predictions/{matchID}", handler.PlacePrediction)
	mux.HandleFunc("GET /api/v1/predictions", handler.ListMyPredictions)
	mux.HandleFunc("GET /api/v1/predictions/history", handler.ListMyPredictionHistory)
}

func registerInternalRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /internal/jobs/sync", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSyncJob)))
	mux.Handle("POST /internal/jobs/recalc", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunRecalcJob)))
	mux.Handle("PUT /internal/matches/{matchID}/result", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.SetMatchResult)))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
