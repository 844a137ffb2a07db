package handler

import (
	"errors"
	"net/http"
	"strings"

	projectsdomain "diamond-app-go/internal/domain/projects"
	tagsdomain "diamond-app-go/internal/domain/tags"
	"diamond-app-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

type tagRequest struct {
	Name  string  `json:"name"`
	Color *string `json:"color"`
}

type toggleTagResponse struct {
	Attached bool `json:"attached"`
}

func (h *Handlers) ListTags(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	tags, err := h.Tags.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (h *Handlers) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	created, err := h.Tags.Create(r.Context(), tagsdomain.CreateTagInput{
		UserID: user.ID,
		Name:   req.Name,
		Color:  req.Color,
	})
	if err != nil {
		h.writeTagError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handlers) UpdateTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	tagID := strings.TrimSpace(chi.URLParam(r, "tag_id"))
	if tagID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "tag_id is required")
		return
	}

	updated, err := h.Tags.Update(r.Context(), tagsdomain.UpdateTagInput{
		ID:     tagID,
		UserID: user.ID,
		Name:   req.Name,
		Color:  req.Color,
	})
	if err != nil {
		h.writeTagError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handlers) DeleteTag(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	tagID := strings.TrimSpace(chi.URLParam(r, "tag_id"))
	if tagID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "tag_id is required")
		return
	}

	if err := h.Tags.Delete(r.Context(), user.ID, tagID); err != nil {
		h.writeTagError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ToggleTag(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	projectID := strings.TrimSpace(chi.URLParam(r, "id"))
	tagID := strings.TrimSpace(chi.URLParam(r, "tag_id"))
	if projectID == "" || tagID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "id and tag_id are required")
		return
	}

	attached, err := h.Tags.Toggle(r.Context(), user.ID, projectID, tagID)
	if err != nil {
		h.writeTagError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toggleTagResponse{Attached: attached})
}

func (h *Handlers) AttachTag(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	projectID := strings.TrimSpace(chi.URLParam(r, "id"))
	tagID := strings.TrimSpace(chi.URLParam(r, "tag_id"))
	if projectID == "" || tagID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "id and tag_id are required")
		return
	}

	if err := h.Tags.Attach(r.Context(), user.ID, projectID, tagID); err != nil {
		h.writeTagError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) DetachTag(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	projectID := strings.TrimSpace(chi.URLParam(r, "id"))
	tagID := strings.TrimSpace(chi.URLParam(r, "tag_id"))
	if projectID == "" || tagID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "id and tag_id are required")
		return
	}

	if err := h.Tags.Detach(r.Context(), user.ID, projectID, tagID); err != nil {
		h.writeTagError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) writeTagError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tagsdomain.ErrTagNotFound):
		writeError(w, http.StatusNotFound, "tag_not_found", "tag not found")
	case errors.Is(err, projectsdomain.ErrProjectNotFound):
		writeError(w, http.StatusNotFound, "project_not_found", "project not found")
	case errors.Is(err, tagsdomain.ErrInvalidTagName):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, tagsdomain.ErrTagNameTaken):
		writeError(w, http.StatusConflict, "tag_name_taken", "a tag with that name already exists")
	case errors.Is(err, tagsdomain.ErrInvalidTagColor):
		writeError(w, http.StatusBadRequest, "invalid_request", "color must be a lowercase hex value like #a1b2c3")
	case errors.Is(err, tagsdomain.ErrMissingOwner):
		writeError(w, http.StatusBadRequest, "invalid_request", "owner is required")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
