package upload

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
)

type Handler struct {
	service *Service
	repo    *Repository
}

// NewHandler wires the HTTP surface. repo may be nil, which disables Recent.
func NewHandler(s *Service, repo *Repository) *Handler {
	return &Handler{service: s, repo: repo}
}

type uploadResponse struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Upload accepts one multipart "file" field and answers {"url": ...}.
// The body must already be capped by the caller's middleware.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.service.MaxBytes()); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.service.MaxBytes()+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}

	url, err := h.service.Upload(r.Context(), data)
	switch {
	case errors.Is(err, ErrNoFile):
		writeError(w, http.StatusBadRequest, "No file uploaded")
	case errors.Is(err, ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "File too large")
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Upload failed")
	default:
		writeJSON(w, http.StatusOK, uploadResponse{URL: url})
	}
}

// Recent lists the latest uploads from the audit table.
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusNotFound, "Upload audit disabled")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	recs, err := h.repo.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Listing failed")
		return
	}
	type item struct {
		URL         string `json:"url"`
		ContentType string `json:"contentType"`
		Size        int64  `json:"size"`
	}
	out := make([]item, 0, len(recs))
	for _, rec := range recs {
		out = append(out, item{URL: rec.URL, ContentType: rec.ContentType, Size: rec.Size})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
