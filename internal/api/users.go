package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/daylog-app/daylog/internal/storage"
)

type userRequest struct {
	ID         string `json:"id"`
	SignupAt   string `json:"signup_at"`
	Timezone   string `json:"timezone"`
	WeightUnit string `json:"weight_unit"`
}

type settingsRequest struct {
	Timezone   string `json:"timezone"`
	WeightUnit string `json:"weight_unit"`
}

func handleCreateUser(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req userRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		u := storage.User{
			ID:         req.ID,
			Timezone:   req.Timezone,
			WeightUnit: req.WeightUnit,
		}
		if req.SignupAt != "" {
			t, err := time.Parse(time.RFC3339, req.SignupAt)
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid signup_at: %v", err)
				return
			}
			u.SignupAt = t.UTC()
		}

		created, err := deps.Profile.Create(u)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(created)
	}
}

func handleGetUser(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := deps.Profile.Get(chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(u)
	}
}

func handleUpdateSettings(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req settingsRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		id := chi.URLParam(r, "id")
		if err := deps.Profile.SetSettings(id, req.Timezone, req.WeightUnit); err != nil {
			writeServiceError(w, err)
			return
		}

		u, err := deps.Profile.Get(id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(u)
	}
}
