// internal/api/handlers.go
package api

import (
	"encoding/json"
	"net/http"
	"net/url"

	"ttfs/internal/errors"
	"ttfs/internal/filestore"
	"ttfs/internal/logging"
	"ttfs/internal/safe"
	"ttfs/internal/validation"
	"ttfs/shared/types"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	store  *filestore.Store
	blobs  safe.BlobStats
	logger *logging.Logger
}

func NewHandler(store *filestore.Store, blobs safe.BlobStats, logger *logging.Logger) *Handler {
	return &Handler{store: store, blobs: blobs, logger: logger}
}

// Routes registers every endpoint on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/files", h.CreateFile)
		r.Get("/files/{name}", h.ReadFile)
		r.Post("/files/{name}/insert", h.Insert)
		r.Post("/files/{name}/update", h.Update)
		r.Post("/files/{name}/snapshot", h.Snapshot)
		r.Post("/files/{name}/rollback", h.Rollback)
		r.Get("/files/{name}/history", h.History)

		r.Get("/analytics/recent", h.Recent)
		r.Get("/analytics/biggest", h.Biggest)
		r.Get("/stats", h.Stats)
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) CreateFile(w http.ResponseWriter, r *http.Request) {
	var req shared.CreateFileRequest
	if err := validation.DecodeRequest(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.store.CreateFile(req.Name); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, shared.FileContent{Name: req.Name})
}

func (h *Handler) ReadFile(w http.ResponseWriter, r *http.Request) {
	name, ok := h.filename(w, r)
	if !ok {
		return
	}

	content, err := h.store.ReadFile(name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, shared.FileContent{Name: name, Content: content})
}

func (h *Handler) Insert(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, h.store.Insert)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, h.store.Update)
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request, apply func(name, text string) error) {
	name, ok := h.filename(w, r)
	if !ok {
		return
	}

	var req shared.WriteRequest
	if err := validation.DecodeRequest(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := apply(name, req.Text); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	name, ok := h.filename(w, r)
	if !ok {
		return
	}

	var req shared.SnapshotRequest
	if err := validation.DecodeRequest(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.store.Snapshot(name, req.Message); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Rollback(w http.ResponseWriter, r *http.Request) {
	name, ok := h.filename(w, r)
	if !ok {
		return
	}

	var req shared.RollbackRequest
	if err := validation.DecodeRequest(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.store.Rollback(name, req.Target()); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	name, ok := h.filename(w, r)
	if !ok {
		return
	}

	entries, err := h.store.History(name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, shared.History{Name: name, Entries: entries})
}

func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	count, err := validation.Count(r.URL.Query().Get("count"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, shared.RecentFiles{Files: h.store.TopRecent(count)})
}

func (h *Handler) Biggest(w http.ResponseWriter, r *http.Request) {
	count, err := validation.Count(r.URL.Query().Get("count"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, shared.SizedFiles{Files: h.store.TopBySize(count)})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	blobs, err := h.blobs.Stats()
	if err != nil {
		h.writeError(w, r, errors.Internal("reading content stats", err))
		return
	}

	h.writeJSON(w, r, http.StatusOK, shared.Stats{
		Stats:       h.store.Stats(),
		Blobs:       blobs.Blobs,
		BlobBytes:   blobs.Bytes,
		StoredBytes: blobs.StoredBytes,
	})
}

// filename reads the {name} path parameter. chi routes on RawPath when the
// request carries one, and then the parameter is still escaped; otherwise it
// was decoded along with Path and must not be decoded again.
func (h *Handler) filename(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath != "" {
		var err error
		if name, err = url.PathUnescape(name); err != nil {
			h.writeError(w, r, errors.ValidationError("malformed filename", err.Error()))
			return "", false
		}
	}
	if err := validation.Filename(name); err != nil {
		h.writeError(w, r, err)
		return "", false
	}
	return name, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.WithRequestID(r.Context()).Warn("encoding response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr, ok := errors.As(err)
	if !ok {
		apiErr = errors.Internal("unexpected failure", err)
	}
	if apiErr.Code >= http.StatusInternalServerError {
		h.logger.WithRequestID(r.Context()).Error("request failed", zap.Error(err))
	}
	h.writeJSON(w, r, apiErr.Code, apiErr)
}
