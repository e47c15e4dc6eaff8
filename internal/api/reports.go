package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vetwatch/vetwatch/internal/storage"
)

func handleListReports(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page, err := store.ListReports(storage.ReportFilter{
			Type:   q.Get("reportType"),
			Status: q.Get("status"),
			Page:   parseIntParam(r, "page", 1, 1<<30),
			Limit:  parseIntParam(r, "limit", 20, 100),
		})
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list reports: %v", err)
			return
		}
		writeData(w, page)
	}
}

// handleGetReport returns one report and counts the read as a view.
func handleGetReport(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := store.ViewReport(chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "report not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get report: %v", err)
			return
		}
		writeData(w, rep)
	}
}

func handleCreateReport(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var rep storage.Report
		if err := json.NewDecoder(r.Body).Decode(&rep); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if rep.Title == "" || rep.ReportType == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "title and reportType are required")
			return
		}
		rep.ID = uuid.New().String()

		if err := store.CreateReport(rep); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to create report: %v", err)
			return
		}

		created, err := store.GetReport(rep.ID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load created report: %v", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(envelope{Success: true, Data: created})
	}
}

func handleDeleteReport(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.DeleteReport(chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "report not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete report: %v", err)
			return
		}
		writeData(w, map[string]string{"status": "deleted"})
	}
}
