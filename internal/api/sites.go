package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vetwatch/vetwatch/internal/storage"
)

func handleListSites(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		sites, err := store.ListSites(storage.SiteFilter{
			Status:   q.Get("status"),
			Province: q.Get("province"),
			City:     q.Get("city"),
			Limit:    parseIntParam(r, "limit", 100, 500),
		})
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list sites: %v", err)
			return
		}
		if sites == nil {
			sites = []storage.Site{}
		}
		writeData(w, sites)
	}
}

func handleCreateSite(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var site storage.Site
		if err := json.NewDecoder(r.Body).Decode(&site); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if site.SiteCode == "" || site.Name == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "siteCode and name are required")
			return
		}
		site.ID = uuid.New().String()

		if err := store.CreateSite(site); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				httpError(w, http.StatusConflict, "conflict", "site code %q already exists", site.SiteCode)
				return
			}
			httpError(w, http.StatusInternalServerError, "api_error", "failed to create site: %v", err)
			return
		}

		created, err := store.GetSite(site.ID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load created site: %v", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(envelope{Success: true, Data: created})
	}
}

func handleGetSite(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		site, err := store.GetSite(chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "site not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get site: %v", err)
			return
		}
		writeData(w, site)
	}
}

func handleUpdateSite(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		current, err := store.GetSite(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "site not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get site: %v", err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		// Decode over the current record so omitted fields keep their values.
		updated := current
		if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		updated.ID = id

		if err := store.UpdateSite(updated); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				httpError(w, http.StatusConflict, "conflict", "site code %q already exists", updated.SiteCode)
				return
			}
			httpError(w, http.StatusInternalServerError, "api_error", "failed to update site: %v", err)
			return
		}

		site, err := store.GetSite(id)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load updated site: %v", err)
			return
		}
		writeData(w, site)
	}
}

func handleDeleteSite(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.DeleteSite(chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "site not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete site: %v", err)
			return
		}
		writeData(w, map[string]string{"status": "deleted"})
	}
}
