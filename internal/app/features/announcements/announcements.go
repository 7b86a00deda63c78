// internal/app/features/announcements/announcements.go
package announcements

import (
	"net/http"

	"github.com/dalemusser/noticeboard/internal/app/system/apperr"
	"github.com/dalemusser/noticeboard/internal/app/system/auth"
	"github.com/dalemusser/noticeboard/internal/app/system/jsonutil"
	"github.com/dalemusser/noticeboard/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

type createdResponse struct {
	ID string `json:"id"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// ListActive handles GET /announcements.
func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list active announcements")
	defer cancel()

	items, err := h.Service.ListActive(ctx)
	if err != nil {
		jsonutil.Error(w, r, h.Log, err)
		return
	}
	jsonutil.Write(w, http.StatusOK, items)
}

// ListAll handles GET /announcements/manage.
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list all announcements")
	defer cancel()

	items, err := h.Service.ListAll(ctx)
	if err != nil {
		jsonutil.Error(w, r, h.Log, err)
		return
	}
	jsonutil.Write(w, http.StatusOK, items)
}

// Create handles POST /announcements.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Error(w, r, h.Log, apperr.ErrUnauthorized)
		return
	}
	fields, err := jsonutil.DecodeObject(r)
	if err != nil {
		jsonutil.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create announcement")
	defer cancel()

	id, err := h.Service.Create(ctx, user, fields)
	if err != nil {
		jsonutil.Error(w, r, h.Log, err)
		return
	}
	jsonutil.Write(w, http.StatusCreated, createdResponse{ID: id})
}

// Update handles PUT /announcements/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	fields, err := jsonutil.DecodeObject(r)
	if err != nil {
		jsonutil.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update announcement")
	defer cancel()

	if err := h.Service.Update(ctx, id, fields); err != nil {
		jsonutil.Error(w, r, h.Log, err)
		return
	}
	jsonutil.Write(w, http.StatusOK, statusResponse{Status: "updated"})
}

// Delete handles DELETE /announcements/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete announcement")
	defer cancel()

	if err := h.Service.Delete(ctx, id); err != nil {
		jsonutil.Error(w, r, h.Log, err)
		return
	}
	jsonutil.Write(w, http.StatusOK, statusResponse{Status: "deleted"})
}
