package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vetwatch/vetwatch/internal/storage"
)

func handleListAlerts(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit := parseIntParam(r, "limit", 100, 500)
		alerts, err := store.ListAlerts(q.Get("status"), q.Get("severity"), q.Get("siteId"), limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list alerts: %v", err)
			return
		}
		if alerts == nil {
			alerts = []storage.Alert{}
		}
		writeData(w, alerts)
	}
}

func handleCreateAlert(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var alert storage.Alert
		if err := json.NewDecoder(r.Body).Decode(&alert); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if alert.Title == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "title is required")
			return
		}
		alert.ID = uuid.New().String()

		if err := store.CreateAlert(alert); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to create alert: %v", err)
			return
		}

		created, err := store.GetAlert(alert.ID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load created alert: %v", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(envelope{Success: true, Data: created})
	}
}

func handleAcknowledgeAlert(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var body struct {
			AssignedTo string `json:"assignedTo"`
		}
		// Body is optional; an empty acknowledgement is still valid.
		if r.Body != nil {
			json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize)).Decode(&body)
		}

		err := store.AcknowledgeAlert(id, body.AssignedTo)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "alert not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to acknowledge alert: %v", err)
			return
		}

		alert, err := store.GetAlert(id)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load alert: %v", err)
			return
		}
		writeData(w, alert)
	}
}

func handleResolveAlert(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := store.ResolveAlert(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "alert not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to resolve alert: %v", err)
			return
		}

		alert, err := store.GetAlert(id)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load alert: %v", err)
			return
		}
		writeData(w, alert)
	}
}

func handleAlertStats(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := store.GetAlertStats()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to compute alert stats: %v", err)
			return
		}
		writeData(w, stats)
	}
}
