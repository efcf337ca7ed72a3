package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/daylog-app/daylog/internal/profile"
	"github.com/daylog-app/daylog/internal/series"
	"github.com/daylog-app/daylog/internal/storage"
	"github.com/daylog-app/daylog/internal/summary"
	"github.com/daylog-app/daylog/internal/tracker"
)

const maxRequestBodySize = 1 << 20 // 1MB

// AppDeps holds dependencies for the REST API.
type AppDeps struct {
	Tracker *tracker.Service
	Series  *series.Fetcher
	Profile *profile.Manager
	Token   string
}

// NewAppHandler returns the daylog REST API. Everything except /health
// requires the bearer token.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/logs/meds", handleAddMed(deps))
		r.Patch("/logs/meds/{id}", handleUpdateMed(deps))
		r.Delete("/logs/meds/{id}", handleDeleteMed(deps))

		r.Post("/logs/exercise", handleAddExercise(deps))
		r.Patch("/logs/exercise/{id}", handleUpdateExercise(deps))
		r.Delete("/logs/exercise/{id}", handleDeleteExercise(deps))

		r.Post("/logs/consumed", handleAddConsumed(deps))
		r.Patch("/logs/consumed/{id}", handleUpdateConsumed(deps))
		r.Delete("/logs/consumed/{id}", handleDeleteConsumed(deps))

		r.Post("/logs/weight", handleAddWeight(deps))
		r.Patch("/logs/weight/{id}", handleUpdateWeight(deps))
		r.Delete("/logs/weight/{id}", handleDeleteWeight(deps))

		r.Put("/days/consumed/{user}/{day}/status", handleSetDayStatus(deps))

		r.Get("/summaries/{domain}", handleGetSummaries(deps))
		r.Get("/overview", handleGetOverview(deps))

		r.Post("/users", handleCreateUser(deps))
		r.Get("/users/{id}", handleGetUser(deps))
		r.Put("/users/{id}/settings", handleUpdateSettings(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

// writeServiceError maps errors from the service layers onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tracker.ErrInvalid), errors.Is(err, profile.ErrInvalid):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
	case errors.Is(err, storage.ErrNotFound):
		httpError(w, http.StatusNotFound, "not_found", "%v", err)
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
	}
}

// resolveRange fills absent range bounds: the end defaults to the user's
// current day, the start to six days earlier (a one-week window).
func resolveRange(deps AppDeps, userID, start, end string) (string, string, error) {
	if end == "" {
		today, err := deps.Profile.Today(userID)
		if err != nil {
			return "", "", err
		}
		end = today
	}
	if !summary.ValidDay(end) {
		return "", "", fmt.Errorf("%w: bad end day %q", tracker.ErrInvalid, end)
	}
	if start == "" {
		var err error
		start, err = summary.AddDays(end, -6)
		if err != nil {
			return "", "", err
		}
	}
	if !summary.ValidDay(start) {
		return "", "", fmt.Errorf("%w: bad start day %q", tracker.ErrInvalid, start)
	}
	return start, end, nil
}
