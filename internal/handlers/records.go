package handlers

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/lehigh-university-libraries/marc2iiif/internal/iiif"
)

// CreateRecordResponse is returned when a record is stored
type CreateRecordResponse struct {
	ID       string        `json:"id"`
	Manifest iiif.Manifest `json:"manifest"`
}

// ValueRequest replaces the label or description
type ValueRequest struct {
	Value *string `json:"value"`
}

// MetadataRequest addresses one metadata field; NewValue is read by PATCH only
type MetadataRequest struct {
	Label    *string `json:"label"`
	Value    *string `json:"value"`
	NewValue *string `json:"new_value,omitempty"`
}

func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	decoded, err := decodeRecord(r)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	record, err := h.extractor.Extract(decoded)
	if err != nil {
		if errors.Is(err, iiif.ErrConstruction) {
			h.writeError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		h.writeError(w, "Internal server error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	id := h.recordStore.Add(record)
	slog.Info("Stored record", "id", id, "label", record.Label(), "metadata", record.Metadata().Len())

	h.writeJSON(w, http.StatusCreated, CreateRecordResponse{ID: id, Manifest: record.ToManifest()})
}

func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.recordStore.List())
}

func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	m, ok := h.recordStore.Manifest(recordID(r))
	if !ok {
		h.writeError(w, "Record not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, m)
}

func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	if !h.recordStore.Delete(recordID(r)) {
		h.writeError(w, "Record not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SetLabel(w http.ResponseWriter, r *http.Request) {
	h.setValue(w, r, (*iiif.DescriptiveRecord).SetLabel)
}

func (h *Handler) SetDescription(w http.ResponseWriter, r *http.Request) {
	h.setValue(w, r, (*iiif.DescriptiveRecord).SetDescription)
}

func (h *Handler) setValue(w http.ResponseWriter, r *http.Request, set func(*iiif.DescriptiveRecord, string)) {
	var req ValueRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Value == nil {
		h.writeError(w, "value is required", http.StatusBadRequest)
		return
	}

	h.mutate(w, r, func(record *iiif.DescriptiveRecord) error {
		set(record, *req.Value)
		return nil
	})
}

func (h *Handler) AddMetadata(w http.ResponseWriter, r *http.Request) {
	req, ok := h.metadataRequest(w, r, false)
	if !ok {
		return
	}
	h.mutate(w, r, func(record *iiif.DescriptiveRecord) error {
		record.AddMetadata(*req.Label, *req.Value)
		return nil
	})
}

func (h *Handler) ModifyMetadata(w http.ResponseWriter, r *http.Request) {
	req, ok := h.metadataRequest(w, r, true)
	if !ok {
		return
	}
	h.mutate(w, r, func(record *iiif.DescriptiveRecord) error {
		return record.ModifyMetadata(*req.Label, *req.Value, *req.NewValue)
	})
}

func (h *Handler) RemoveMetadata(w http.ResponseWriter, r *http.Request) {
	req, ok := h.metadataRequest(w, r, false)
	if !ok {
		return
	}
	h.mutate(w, r, func(record *iiif.DescriptiveRecord) error {
		return record.RemoveMetadata(*req.Label, *req.Value)
	})
}

func (h *Handler) metadataRequest(w http.ResponseWriter, r *http.Request, needNewValue bool) (MetadataRequest, bool) {
	var req MetadataRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return req, false
	}
	if req.Label == nil || req.Value == nil {
		h.writeError(w, "label and value are required", http.StatusBadRequest)
		return req, false
	}
	if needNewValue && req.NewValue == nil {
		h.writeError(w, "new_value is required", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

// mutate applies fn under the store lock and responds with the updated manifest
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, fn func(*iiif.DescriptiveRecord) error) {
	id := recordID(r)

	var m iiif.Manifest
	err := h.recordStore.Update(id, func(record *iiif.DescriptiveRecord) error {
		if err := fn(record); err != nil {
			return err
		}
		m = record.ToManifest()
		return nil
	})
	if err != nil {
		h.writeMutationError(w, err)
		return
	}

	slog.Debug("Updated record", "id", id, "method", r.Method, "path", r.URL.Path)
	h.writeJSON(w, http.StatusOK, m)
}

func mediaType(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}

// recordID returns the {id} path parameter. Identifiers may contain slashes,
// which clients send percent-encoded.
func recordID(r *http.Request) string {
	id := chi.URLParam(r, "id")
	if unescaped, err := url.PathUnescape(id); err == nil {
		return unescaped
	}
	return id
}
