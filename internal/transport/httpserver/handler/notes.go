package handler

import (
	"errors"
	"net/http"
	"strings"

	notesdomain "diamond-app-go/internal/domain/notes"
	projectsdomain "diamond-app-go/internal/domain/projects"
	"diamond-app-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

type noteRequest struct {
	Date      string  `json:"date"`
	Content   string  `json:"content"`
	ImagePath *string `json:"image_path"`
}

func (h *Handlers) ListNotes(w http.ResponseWriter, r *http.Request) {
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

	notes, err := h.Notes.ListByProject(r.Context(), user.ID, projectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *Handlers) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
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

	date, err := parseDateParam(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid date")
		return
	}

	input := notesdomain.CreateNoteInput{
		UserID:    user.ID,
		ProjectID: projectID,
		Content:   req.Content,
		ImagePath: req.ImagePath,
	}
	if date != nil {
		input.Date = *date
	}

	created, err := h.Notes.Create(r.Context(), input)
	if err != nil {
		h.writeNoteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handlers) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	noteID := strings.TrimSpace(chi.URLParam(r, "note_id"))
	if noteID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "note_id is required")
		return
	}

	date, err := parseDateParam(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid date")
		return
	}

	input := notesdomain.UpdateNoteInput{
		ID:        noteID,
		UserID:    user.ID,
		Content:   req.Content,
		ImagePath: req.ImagePath,
	}
	if date != nil {
		input.Date = *date
	}

	updated, err := h.Notes.Update(r.Context(), input)
	if err != nil {
		h.writeNoteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handlers) DeleteNote(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	noteID := strings.TrimSpace(chi.URLParam(r, "note_id"))
	if noteID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "note_id is required")
		return
	}

	if err := h.Notes.Delete(r.Context(), user.ID, noteID); err != nil {
		h.writeNoteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) writeNoteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, notesdomain.ErrNoteNotFound):
		writeError(w, http.StatusNotFound, "note_not_found", "note not found")
	case errors.Is(err, projectsdomain.ErrProjectNotFound):
		writeError(w, http.StatusNotFound, "project_not_found", "project not found")
	case errors.Is(err, notesdomain.ErrContentRequired):
		writeError(w, http.StatusBadRequest, "invalid_request", "content is required")
	case errors.Is(err, notesdomain.ErrMissingOwner):
		writeError(w, http.StatusBadRequest, "invalid_request", "owner is required")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
