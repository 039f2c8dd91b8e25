package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/badminton-pairing/internal/api/apierr"
	"github.com/mcoot/badminton-pairing/internal/api/events"
	"github.com/mcoot/badminton-pairing/internal/api/handler"
	"github.com/mcoot/badminton-pairing/internal/api/response"
	"github.com/mcoot/badminton-pairing/internal/metrics"
	"github.com/mcoot/badminton-pairing/internal/middleware"
	"github.com/mcoot/badminton-pairing/internal/model"
	"github.com/mcoot/badminton-pairing/internal/services/session"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger            *slog.Logger
	SessionController session.ControllerInterface
	Metrics           *metrics.Metrics // Optional; /metrics is not served when nil
	Events            *events.Hub      // Optional; /events is not served when nil
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	sessionHandler := handler.NewSessionHandler(cfg.SessionController)
	playerHandler := handler.NewPlayerHandler(cfg.SessionController)
	courtHandler := handler.NewCourtHandler(cfg.SessionController)

	// Create middleware
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger, panicHandler)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Live session stream; every successful write republishes the session
	if cfg.Events != nil {
		publisher := events.NewPublisher(cfg.Events, cfg.SessionController, cfg.Logger)
		api.Use(publisher.Middleware())
		api.HandleFunc("/events", publisher.Stream).Methods(http.MethodGet)
	}

	// Session routes
	api.HandleFunc("/session", sessionHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/session", sessionHandler.Clear).Methods(http.MethodDelete)
	api.HandleFunc("/session/export", sessionHandler.Export).Methods(http.MethodGet)
	api.HandleFunc("/session/export", sessionHandler.Restore).Methods(http.MethodPut)
	api.HandleFunc("/stats/reset", sessionHandler.ResetStats).Methods(http.MethodPost)

	// Player routes
	api.HandleFunc("/players", playerHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/players", playerHandler.Add).Methods(http.MethodPost)
	api.HandleFunc("/players/import", playerHandler.Import).Methods(http.MethodPost)
	api.HandleFunc("/players/{id}", playerHandler.Edit).Methods(http.MethodPatch)
	api.HandleFunc("/players/{id}", playerHandler.Remove).Methods(http.MethodDelete)
	api.HandleFunc("/players/{id}/rest", playerHandler.ToggleResting).Methods(http.MethodPost)

	// Court routes; fixed paths are registered before /courts/{id}
	api.HandleFunc("/courts/count", sessionHandler.SetCourtCount).Methods(http.MethodPut)
	api.HandleFunc("/courts/auto-pair", courtHandler.AutoPair).Methods(http.MethodPost)
	api.HandleFunc("/courts/suggestion", courtHandler.Suggest).Methods(http.MethodGet)
	api.HandleFunc("/courts/start-all", courtHandler.StartAll).Methods(http.MethodPost)
	api.HandleFunc("/courts/{id:[0-9]+}/pairs", courtHandler.Propose).Methods(http.MethodPut)
	api.HandleFunc("/courts/{id:[0-9]+}/pairs", courtHandler.Clear).Methods(http.MethodDelete)
	api.HandleFunc("/courts/{id:[0-9]+}/start", courtHandler.Start).Methods(http.MethodPost)
	api.HandleFunc("/courts/{id:[0-9]+}/cancel", courtHandler.Cancel).Methods(http.MethodPost)
	api.HandleFunc("/courts/{id:[0-9]+}/end", courtHandler.End).Methods(http.MethodPost)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler(cfg.SessionController)).Methods(http.MethodGet)

	// Prometheus scrape endpoint, outside the API prefix
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)
	}

	return r
}

// panicHandler answers a recovered panic with the API's JSON error shape
func panicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}

// healthHandler reports ok once the session can be loaded from storage
func healthHandler(controller session.ControllerInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := controller.Snapshot(r.Context())
		if err != nil {
			response.JSON(w, http.StatusServiceUnavailable, response.Health{Status: "unavailable"})
			return
		}

		health := response.Health{
			Status:     "ok",
			Players:    len(snap.Players),
			CourtCount: snap.CourtCount,
		}
		for _, court := range snap.Courts {
			if court.State == model.CourtStateActive {
				health.ActiveCourts++
			}
		}
		response.JSON(w, http.StatusOK, health)
	}
}
