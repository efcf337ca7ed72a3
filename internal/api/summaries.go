package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/daylog-app/daylog/internal/series"
	"github.com/daylog-app/daylog/internal/summary"
)

func handleGetSummaries(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		domain, err := summary.ParseDomain(chi.URLParam(r, "domain"))
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}

		userID := r.URL.Query().Get("user")
		if userID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "user is required")
			return
		}

		order, err := series.ParseOrder(r.URL.Query().Get("order"))
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}

		start, end, err := resolveRange(deps, userID, r.URL.Query().Get("start"), r.URL.Query().Get("end"))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		var payload any
		switch domain {
		case summary.DomainMeds:
			rows := deps.Series.Meds(userID, start, end, order)
			if rows == nil {
				rows = []summary.MedsDay{}
			}
			payload = rows
		case summary.DomainExercise:
			rows := deps.Series.Exercise(userID, start, end, order)
			if rows == nil {
				rows = []summary.ExerciseDay{}
			}
			payload = rows
		case summary.DomainConsumed:
			rows := deps.Series.Consumed(userID, start, end, order)
			if rows == nil {
				rows = []summary.ConsumedDay{}
			}
			payload = rows
		case summary.DomainWeight:
			rows := deps.Series.Weights(userID, start, end, order)
			if rows == nil {
				rows = []series.WeightPoint{}
			}
			payload = rows
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payload)
	}
}

func handleGetOverview(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user")
		if userID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "user is required")
			return
		}

		order, err := series.ParseOrder(r.URL.Query().Get("order"))
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}

		start, end, err := resolveRange(deps, userID, r.URL.Query().Get("start"), r.URL.Query().Get("end"))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		ov := deps.Series.Range(userID, start, end, order)
		if ov.Meds == nil {
			ov.Meds = []summary.MedsDay{}
		}
		if ov.Exercise == nil {
			ov.Exercise = []summary.ExerciseDay{}
		}
		if ov.Consumed == nil {
			ov.Consumed = []summary.ConsumedDay{}
		}
		if ov.Weights == nil {
			ov.Weights = []series.WeightPoint{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ov)
	}
}
