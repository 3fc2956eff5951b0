// Package handlers exposes descriptive records over an HTTP API.
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lehigh-university-libraries/marc2iiif/internal/iiif"
	"github.com/lehigh-university-libraries/marc2iiif/internal/marc"
	"github.com/lehigh-university-libraries/marc2iiif/internal/storage"
)

// maxBodySize bounds request bodies; catalog records are a few KB
const maxBodySize = 10 << 20

type Handler struct {
	recordStore *storage.RecordStore
	extractor   *iiif.Extractor
}

// New creates a handler over store. A nil extractor uses the default lookup table.
func New(store *storage.RecordStore, extractor *iiif.Extractor) *Handler {
	if store == nil {
		store = storage.New()
	}
	if extractor == nil {
		extractor = iiif.NewExtractor(nil)
	}
	return &Handler{
		recordStore: store,
		extractor:   extractor,
	}
}

// Routes returns the API router
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})

	r.Route("/api/records", func(r chi.Router) {
		r.Post("/", h.CreateRecord)
		r.Get("/", h.ListRecords)
		r.Get("/{id}", h.GetRecord)
		r.Delete("/{id}", h.DeleteRecord)

		r.Put("/{id}/label", h.SetLabel)
		r.Put("/{id}/description", h.SetDescription)

		r.Post("/{id}/metadata", h.AddMetadata)
		r.Patch("/{id}/metadata", h.ModifyMetadata)
		r.Delete("/{id}/metadata", h.RemoveMetadata)
	})

	return r
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message)
	} else {
		slog.Debug("Request rejected", "status", code, "reason", message)
	}
	http.Error(w, message, code)
}

// writeMutationError maps record and store errors onto status codes
func (h *Handler) writeMutationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		h.writeError(w, "Record not found", http.StatusNotFound)
	case errors.Is(err, iiif.ErrAmbiguousMatch):
		h.writeError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, iiif.ErrFieldNotFound):
		h.writeError(w, err.Error(), http.StatusConflict)
	default:
		h.writeError(w, "Internal server error: "+err.Error(), http.StatusInternalServerError)
	}
}

// decodeBody decodes a JSON request body into v, rejecting unknown keys and
// values of the wrong type
func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// decodeRecord reads exactly one catalog record from the request body,
// as binary MARC when the content type says so and as JSON otherwise
func decodeRecord(r *http.Request) (*marc.Record, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	var records []*marc.Record
	switch mediaType(r) {
	case "application/marc", "application/octet-stream":
		records, err = marc.NewReader(bytes.NewReader(body)).ReadAll()
	default:
		records, err = marc.ParseJSON(body)
	}
	if err != nil {
		return nil, err
	}

	if len(records) != 1 {
		return nil, fmt.Errorf("%w: expected a single record, got %d", marc.ErrMalformedRecord, len(records))
	}
	return records[0], nil
}
