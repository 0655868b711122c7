package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/godutch/internal/images"
)

// multipartOverhead is allowed on top of the image size for form framing.
const multipartOverhead = 64 << 10

type handlers struct {
	images    *images.Service
	maxUpload int64
	db        Pinger
	logger    *slog.Logger
}

// --- helpers ---

func (h *handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func (h *handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

// --- routes ---

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error("Health check failed", "error", err)
		h.writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) uploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)

	file, header, err := r.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeError(w, http.StatusRequestEntityTooLarge, images.ErrTooLarge.Error())
			return
		}
		h.writeError(w, http.StatusBadRequest, "multipart field \"image\" is required")
		return
	}
	defer file.Close()

	name, err := h.images.Upload(r.Context(), header.Header.Get("Content-Type"), file)
	switch {
	case errors.Is(err, images.ErrUnsupportedType):
		h.writeError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	case errors.Is(err, images.ErrTooLarge):
		h.writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	case err != nil:
		h.logger.Error("Image upload failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	h.logger.Info("Image uploaded", "filename", name, "size", header.Size)
	h.writeJSON(w, http.StatusCreated, map[string]string{"filename": name})
}

func (h *handlers) getImage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")

	img, err := h.images.Fetch(r.Context(), name)
	switch {
	case errors.Is(err, images.ErrInvalidName):
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, images.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		h.logger.Error("Image fetch failed", "filename", name, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to load image")
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "private, max-age=86400, immutable")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	// SVGs may carry scripts.
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; sandbox")
	w.WriteHeader(http.StatusOK)
	w.Write(img.Data)
}
