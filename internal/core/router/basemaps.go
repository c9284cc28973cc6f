package router

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/geopreview/internal/basemap"
)

type basemapHandlers struct {
	store *basemap.Store
	log   *slog.Logger
}

type settingsResponse struct {
	Basemaps  []basemap.Basemap `json:"basemaps"`
	DefaultID string            `json:"defaultId"`
	Version   uint64            `json:"version"`
}

func toResponse(s basemap.Settings) settingsResponse {
	def, _ := s.Default()
	return settingsResponse{Basemaps: s.Ordered(), DefaultID: def.ID, Version: s.Version}
}

func namespace(r *http.Request) string { return r.URL.Query().Get("ns") }

// storeError maps store errors onto HTTP statuses.
func (h basemapHandlers) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, basemap.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, basemap.ErrConflict), errors.Is(err, basemap.ErrLastBasemap):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, basemap.ErrInvalid), errors.Is(err, basemap.ErrInvalidOrder):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.ErrorContext(r.Context(), "basemap store failure", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "basemap storage unavailable")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (h basemapHandlers) list(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.Settings(r.Context(), namespace(r))
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(s))
}

func (h basemapHandlers) add(w http.ResponseWriter, r *http.Request) {
	var b basemap.Basemap
	if !decodeBody(w, r, &b) {
		return
	}
	out, err := h.store.Add(r.Context(), namespace(r), b)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h basemapHandlers) update(w http.ResponseWriter, r *http.Request) {
	var b basemap.Basemap
	if !decodeBody(w, r, &b) {
		return
	}
	out, err := h.store.Update(r.Context(), namespace(r), chi.URLParam(r, "id"), b)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h basemapHandlers) remove(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.Remove(r.Context(), namespace(r), chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(s))
}

func (h basemapHandlers) reorder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Order []string `json:"order"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s, err := h.store.Reorder(r.Context(), namespace(r), req.Order)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(s))
}

func (h basemapHandlers) setDefault(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s, err := h.store.SetDefault(r.Context(), namespace(r), req.ID)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(s))
}

func (h basemapHandlers) reset(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.Reset(r.Context(), namespace(r))
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(s))
}
