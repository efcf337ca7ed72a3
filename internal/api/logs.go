package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/daylog-app/daylog/internal/summary"
)

type medLogRequest struct {
	UserID string `json:"user_id"`
	Day    string `json:"day"`
	Kind   string `json:"kind"`
	Name   string `json:"name"`
}

func (req medLogRequest) toLog() summary.MedLog {
	return summary.MedLog{
		UserID: req.UserID,
		Day:    req.Day,
		Kind:   summary.MedKind(req.Kind),
		Name:   req.Name,
	}
}

type exerciseLogRequest struct {
	UserID     string   `json:"user_id"`
	Day        string   `json:"day"`
	Category   string   `json:"category"`
	Name       string   `json:"name"`
	Minutes    *Decimal `json:"minutes"`
	DistanceKm *Decimal `json:"distance_km"`
}

func (req exerciseLogRequest) toLog() summary.ExerciseLog {
	return summary.ExerciseLog{
		UserID:     req.UserID,
		Day:        req.Day,
		Category:   summary.ExerciseCategory(req.Category),
		Name:       req.Name,
		Minutes:    req.Minutes.Float64Ptr(),
		DistanceKm: req.DistanceKm.Float64Ptr(),
	}
}

type consumedLogRequest struct {
	UserID        string  `json:"user_id"`
	Day           string  `json:"day"`
	Name          string  `json:"name"`
	Calories      Decimal `json:"calories"`
	ProteinG      Decimal `json:"protein_g"`
	CarbsG        Decimal `json:"carbs_g"`
	FatG          Decimal `json:"fat_g"`
	FibreG        Decimal `json:"fibre_g"`
	SugarG        Decimal `json:"sugar_g"`
	SaturatedFatG Decimal `json:"saturated_fat_g"`
	TransFatG     Decimal `json:"trans_fat_g"`
	SodiumMg      Decimal `json:"sodium_mg"`
}

func (req consumedLogRequest) toLog() summary.ConsumedLog {
	return summary.ConsumedLog{
		UserID: req.UserID,
		Day:    req.Day,
		Name:   req.Name,
		Nutrients: summary.Nutrients{
			Calories:      float64(req.Calories),
			ProteinG:      float64(req.ProteinG),
			CarbsG:        float64(req.CarbsG),
			FatG:          float64(req.FatG),
			FibreG:        float64(req.FibreG),
			SugarG:        float64(req.SugarG),
			SaturatedFatG: float64(req.SaturatedFatG),
			TransFatG:     float64(req.TransFatG),
			SodiumMg:      float64(req.SodiumMg),
		},
	}
}

type weightLogRequest struct {
	UserID   string  `json:"user_id"`
	Day      string  `json:"day"`
	WeightKg Decimal `json:"weight_kg"`
}

func (req weightLogRequest) toLog() summary.WeightLog {
	return summary.WeightLog{
		UserID:   req.UserID,
		Day:      req.Day,
		WeightKg: float64(req.WeightKg),
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

// decodeJSON reads a bounded request body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid JSON: %v", err)
		return false
	}
	return true
}

func handleAddMed(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req medLogRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		created, err := deps.Tracker.AddMed(req.toLog())
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(created)
	}
}

func handleUpdateMed(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req medLogRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		l := req.toLog()
		l.ID = chi.URLParam(r, "id")
		updated, err := deps.Tracker.UpdateMed(l)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(updated)
	}
}

func handleDeleteMed(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Tracker.DeleteMed(chi.URLParam(r, "id")); err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}
}

func handleAddExercise(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req exerciseLogRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		created, err := deps.Tracker.AddExercise(req.toLog())
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(created)
	}
}

func handleUpdateExercise(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req exerciseLogRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		l := req.toLog()
		l.ID = chi.URLParam(r, "id")
		updated, err := deps.Tracker.UpdateExercise(l)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(updated)
	}
}

func handleDeleteExercise(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Tracker.DeleteExercise(chi.URLParam(r, "id")); err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}
}

func handleAddConsumed(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req consumedLogRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		created, err := deps.Tracker.AddConsumed(req.toLog())
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(created)
	}
}

func handleUpdateConsumed(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req consumedLogRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		l := req.toLog()
		l.ID = chi.URLParam(r, "id")
		updated, err := deps.Tracker.UpdateConsumed(l)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(updated)
	}
}

func handleDeleteConsumed(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Tracker.DeleteConsumed(chi.URLParam(r, "id")); err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}
}

func handleAddWeight(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req weightLogRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		created, err := deps.Tracker.AddWeight(req.toLog())
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(created)
	}
}

func handleUpdateWeight(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req weightLogRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		l := req.toLog()
		l.ID = chi.URLParam(r, "id")
		updated, err := deps.Tracker.UpdateWeight(l)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(updated)
	}
}

func handleDeleteWeight(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Tracker.DeleteWeight(chi.URLParam(r, "id")); err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}
}

func handleSetDayStatus(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req statusRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		userID := chi.URLParam(r, "user")
		day := chi.URLParam(r, "day")
		row, err := deps.Tracker.SetConsumedStatus(userID, day, summary.DayStatus(req.Status))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(row)
	}
}
