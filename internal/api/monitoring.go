package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/vetwatch/vetwatch/internal/storage"
)

func handleListMonitoringData(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 100, 1000)
		data, err := store.ListMonitoringData(r.URL.Query().Get("siteId"), limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list monitoring data: %v", err)
			return
		}
		if data == nil {
			data = []storage.MonitoringData{}
		}
		writeData(w, data)
	}
}

func handleCreateMonitoringData(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var m storage.MonitoringData
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if m.SiteID == "" || m.Metric == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "siteId and metric are required")
			return
		}
		m.ID = uuid.New().String()

		if err := store.InsertMonitoringData(m); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save monitoring data: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(envelope{Success: true, Data: map[string]string{"id": m.ID}})
	}
}
