package handler

import (
	"errors"
	"net/http"
	"time"

	navctxdomain "diamond-app-go/internal/domain/navctx"
	"diamond-app-go/internal/transport/httpserver/middleware"
)

func (h *Handlers) YearlyStats(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	year, err := parseIntParam(r.URL.Query().Get("year"), time.Now().Year())
	if err != nil || year < 1000 || year > 9999 {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid year")
		return
	}

	// The stats service never fails; degraded tiers are reported via source.
	result := h.Stats.GetYearlyStats(r.Context(), user.ID, year)
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) StatsCacheStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	year, err := parseIntParam(r.URL.Query().Get("year"), time.Now().Year())
	if err != nil || year < 1000 || year > 9999 {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid year")
		return
	}

	status, err := h.Stats.GetCacheStatus(r.Context(), user.ID, year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handlers) GetDashboardContext(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	snapshot, err := h.NavCtx.Get(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, navctxdomain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "context_not_found", "no saved dashboard context")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handlers) SaveDashboardContext(w http.ResponseWriter, r *http.Request) {
	var snapshot navctxdomain.Snapshot
	if err := decodeJSON(r, &snapshot); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	// Saving is best effort by contract; the service logs failures itself.
	h.NavCtx.Save(r.Context(), user.ID, snapshot)
	w.WriteHeader(http.StatusNoContent)
}
