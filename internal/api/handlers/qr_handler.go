package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"qrforge/internal/engine/qr"
	"qrforge/internal/pkg/cache"
	apierrors "qrforge/internal/pkg/errors"
	"qrforge/internal/platform/storage"
)

type QRHandler struct {
	service      *qr.Service
	batch        *qr.BatchCoordinator
	store        storage.ObjectStore
	cache        cache.ByteCache
	maxBatchSize int
}

func NewQRHandler(service *qr.Service, batch *qr.BatchCoordinator, store storage.ObjectStore, byteCache cache.ByteCache, maxBatchSize int) *QRHandler {
	if maxBatchSize <= 0 {
		maxBatchSize = 50
	}
	return &QRHandler{
		service:      service,
		batch:        batch,
		store:        store,
		cache:        byteCache,
		maxBatchSize: maxBatchSize,
	}
}

func (h *QRHandler) Generate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req qr.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	result, err := h.service.Generate(r.Context(), &req, r.Header.Get("X-Actor-ID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(result)
}

func (h *QRHandler) GenerateBatch(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req struct {
		Requests       []*qr.Request `json:"requests"`
		MaxConcurrency int           `json:"max_concurrency,omitempty"`
		TimeoutMS      int           `json:"timeout_ms,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if len(req.Requests) == 0 {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Batch is empty", nil)
		return
	}
	if len(req.Requests) > h.maxBatchSize {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Batch too large", map[string]int{"max": h.maxBatchSize})
		return
	}

	outcome := h.batch.GenerateBatch(r.Context(), req.Requests, r.Header.Get("X-Actor-ID"), qr.BatchOptions{
		MaxConcurrency: req.MaxConcurrency,
		ItemTimeout:    time.Duration(req.TimeoutMS) * time.Millisecond,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(outcome)
}

func (h *QRHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	record, err := h.service.GetRecord(ps.ByName("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrCodeNotFound, "QR code not found", nil)
			return
		}
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Failed to load QR code", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record)
}

func (h *QRHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	records, err := h.service.ListRecords(limit, offset)
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Failed to list QR codes", nil)
		return
	}
	if records == nil {
		records = []*qr.Record{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

// Image serves stored image bytes at /api/qr/image/{id}.{format}, checking
// the cache before the object store.
func (h *QRHandler) Image(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	file := ps.ByName("file")
	dot := strings.LastIndex(file, ".")
	if dot <= 0 || dot == len(file)-1 {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Expected {id}.{format}", nil)
		return
	}
	id, format := file[:dot], file[dot+1:]

	var contentType string
	switch format {
	case "png":
		contentType = "image/png"
	case "svg":
		contentType = "image/svg+xml"
	default:
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Unsupported format", nil)
		return
	}

	data, ok := h.cache.Get(r.Context(), file)
	if !ok {
		var err error
		data, err = h.store.Get(id, format)
		if err != nil {
			apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrCodeNotFound, "Image not found", nil)
			return
		}
		h.cache.Put(r.Context(), file, data)
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(data)
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, qr.ErrMissingField), errors.Is(err, qr.ErrInvalidFormat):
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, err.Error(), nil)
	case errors.Is(err, qr.ErrUnsafeContent):
		apierrors.WriteError(w, http.StatusUnprocessableEntity, apierrors.ErrCodeUnsafeContent, err.Error(), nil)
	case errors.Is(err, qr.ErrLengthExceeded):
		apierrors.WriteError(w, http.StatusUnprocessableEntity, apierrors.ErrCodeLengthExceeded, err.Error(), nil)
	case errors.Is(err, qr.ErrRenderFailed):
		apierrors.WriteError(w, http.StatusUnprocessableEntity, apierrors.ErrCodeRenderFailed, err.Error(), nil)
	case errors.Is(err, qr.ErrAllocationExhausted):
		// Retryable: collisions are transient.
		apierrors.WriteError(w, http.StatusServiceUnavailable, apierrors.ErrCodeAllocationExhausted, err.Error(), nil)
	default:
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Generation failed", nil)
	}
}
