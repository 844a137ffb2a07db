package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	projectsdomain "diamond-app-go/internal/domain/projects"
	"diamond-app-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

type projectRequest struct {
	Title         string   `json:"title"`
	Status        string   `json:"status"`
	CompanyName   string   `json:"company_name"`
	ArtistName    string   `json:"artist_name"`
	CompanyID     *string  `json:"company_id"`
	ArtistID      *string  `json:"artist_id"`
	Width         *float64 `json:"width"`
	Height        *float64 `json:"height"`
	DrillShape    *string  `json:"drill_shape"`
	KitCategory   *string  `json:"kit_category"`
	DatePurchased string   `json:"date_purchased"`
	DateReceived  string   `json:"date_received"`
	DateStarted   string   `json:"date_started"`
	DateCompleted string   `json:"date_completed"`
	GeneralNotes  string   `json:"general_notes"`
	SourceURL     *string  `json:"source_url"`
	TotalDiamonds *int64   `json:"total_diamonds"`
	ImagePath     *string  `json:"image_path"`
	TagIDs        []string `json:"tag_ids"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// filtersFromQuery reads the dashboard filter controls out of the query string.
// Unset include flags mean "excluded", matching the dashboard defaults.
func filtersFromQuery(r *http.Request, userID string) projectsdomain.Filters {
	query := r.URL.Query()
	return projectsdomain.Filters{
		UserID:           userID,
		Status:           query.Get("status"),
		CompanyID:        query.Get("company"),
		ArtistID:         query.Get("artist"),
		DrillShape:       query.Get("drill_shape"),
		YearFinished:     query.Get("year_finished"),
		IncludeMiniKits:  parseBoolParam(query.Get("include_mini_kits"), false),
		IncludeWishlist:  parseBoolParam(query.Get("include_wishlist"), false),
		IncludeOnHold:    parseBoolParam(query.Get("include_on_hold"), false),
		IncludeArchived:  parseBoolParam(query.Get("include_archived"), false),
		IncludeDestashed: parseBoolParam(query.Get("include_destashed"), false),
		SearchTerm:       query.Get("search"),
		SelectedTags:     parseCSV(query.Get("tags")),
	}
}

func (h *Handlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	query := r.URL.Query()
	page, err := parseIntParam(query.Get("page"), 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid page")
		return
	}
	pageSize, err := parseIntParam(query.Get("page_size"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid page_size")
		return
	}

	opts := projectsdomain.ListOptions{
		Filters:             filtersFromQuery(r, user.ID),
		SortField:           query.Get("sort_field"),
		SortDir:             query.Get("sort_dir"),
		Page:                page,
		PageSize:            pageSize,
		IncludeStatusCounts: parseBoolParam(query.Get("counts"), false),
	}

	result, err := h.Projects.ListProjects(r.Context(), opts)
	if err != nil {
		h.writeProjectError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) GetProject(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	projectID := strings.TrimSpace(chi.URLParam(r, "id"))
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "id is required")
		return
	}

	view, err := h.Projects.GetProject(r.Context(), user.ID, projectID)
	if err != nil {
		h.writeProjectError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	input := projectsdomain.CreateProjectInput{
		UserID:        user.ID,
		Title:         req.Title,
		Status:        projectsdomain.Status(req.Status),
		CompanyName:   req.CompanyName,
		ArtistName:    req.ArtistName,
		Width:         req.Width,
		Height:        req.Height,
		DrillShape:    req.DrillShape,
		KitCategory:   req.KitCategory,
		GeneralNotes:  req.GeneralNotes,
		SourceURL:     req.SourceURL,
		TotalDiamonds: req.TotalDiamonds,
		ImagePath:     req.ImagePath,
		TagIDs:        req.TagIDs,
	}

	var err error
	if input.DatePurchased, err = parseDateParam(req.DatePurchased); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid date_purchased")
		return
	}
	if input.DateReceived, err = parseDateParam(req.DateReceived); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid date_received")
		return
	}
	if input.DateStarted, err = parseDateParam(req.DateStarted); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid date_started")
		return
	}
	if input.DateCompleted, err = parseDateParam(req.DateCompleted); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid date_completed")
		return
	}

	created, err := h.Projects.CreateProject(r.Context(), input)
	if err != nil {
		h.writeProjectError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handlers) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	projectID := strings.TrimSpace(chi.URLParam(r, "id"))
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "id is required")
		return
	}

	input := projectsdomain.UpdateProjectInput{
		ID:            projectID,
		UserID:        user.ID,
		Title:         req.Title,
		Status:        projectsdomain.Status(req.Status),
		CompanyID:     req.CompanyID,
		ArtistID:      req.ArtistID,
		Width:         req.Width,
		Height:        req.Height,
		DrillShape:    req.DrillShape,
		KitCategory:   req.KitCategory,
		GeneralNotes:  req.GeneralNotes,
		SourceURL:     req.SourceURL,
		TotalDiamonds: req.TotalDiamonds,
		ImagePath:     req.ImagePath,
	}

	var err error
	if input.DatePurchased, err = parseDateParam(req.DatePurchased); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid date_purchased")
		return
	}
	if input.DateReceived, err = parseDateParam(req.DateReceived); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid date_received")
		return
	}
	if input.DateStarted, err = parseDateParam(req.DateStarted); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid date_started")
		return
	}
	if input.DateCompleted, err = parseDateParam(req.DateCompleted); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid date_completed")
		return
	}

	updated, err := h.Projects.UpdateProject(r.Context(), input)
	if err != nil {
		h.writeProjectError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handlers) UpdateProjectStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	projectID := strings.TrimSpace(chi.URLParam(r, "id"))
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "id is required")
		return
	}

	updated, err := h.Projects.UpdateStatus(r.Context(), user.ID, projectID, projectsdomain.Status(req.Status))
	if err != nil {
		h.writeProjectError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handlers) ArchiveProject(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	projectID := strings.TrimSpace(chi.URLParam(r, "id"))
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "id is required")
		return
	}

	if err := h.Projects.ArchiveProject(r.Context(), user.ID, projectID); err != nil {
		h.writeProjectError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) DeleteProject(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	projectID := strings.TrimSpace(chi.URLParam(r, "id"))
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "id is required")
		return
	}

	if err := h.Projects.DeleteProject(r.Context(), user.ID, projectID); err != nil {
		h.writeProjectError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) RandomProject(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	view, err := h.Projects.RandomPick(r.Context(), filtersFromQuery(r, user.ID))
	if err != nil {
		if errors.Is(err, projectsdomain.ErrProjectNotFound) {
			writeError(w, http.StatusNotFound, "no_projects", "no projects match the current filters")
			return
		}
		h.writeProjectError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) ExportProjects(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="projects-`+time.Now().UTC().Format("2006-01-02")+`.csv"`)
	if err := h.Projects.ExportCSV(r.Context(), user.ID, w); err != nil {
		// Headers are already written; all that is left is logging.
		h.log.Error("export: csv write failed", "user_id", user.ID, "err", err)
	}
}

func (h *Handlers) ImportProjects(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	result, err := h.Projects.ImportCSV(r.Context(), user.ID, r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_csv", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) writeProjectError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, projectsdomain.ErrProjectNotFound):
		writeError(w, http.StatusNotFound, "project_not_found", "project not found")
	case errors.Is(err, projectsdomain.ErrMissingOwner):
		writeError(w, http.StatusBadRequest, "invalid_request", "owner is required")
	case errors.Is(err, projectsdomain.ErrTitleRequired):
		writeError(w, http.StatusBadRequest, "invalid_request", "title is required")
	case errors.Is(err, projectsdomain.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid status")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
