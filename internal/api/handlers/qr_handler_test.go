package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"qrforge/internal/engine/qr"
	"qrforge/internal/engine/render"
	"qrforge/internal/pkg/cache"
	apierrors "qrforge/internal/pkg/errors"
	"qrforge/internal/platform/database"
	"qrforge/internal/platform/storage"
)

func newTestRouter(t *testing.T) *httprouter.Router {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := storage.NewMemoryStore()
	byteCache := cache.NewMemory(time.Minute, 16)
	service := qr.NewService(
		qr.NewRepository(db),
		render.NewRenderer(),
		nil,
		store,
		byteCache,
		qr.ServiceOptions{},
		zerolog.Nop(),
	)
	batch := qr.NewBatchCoordinator(service, zerolog.Nop())
	h := NewQRHandler(service, batch, store, byteCache, 3)

	router := httprouter.New()
	router.POST("/api/v1/qr", h.Generate)
	router.POST("/api/v1/qr/batch", h.GenerateBatch)
	router.GET("/api/v1/qr", h.List)
	router.GET("/api/v1/qr/:id", h.Get)
	router.GET("/api/qr/image/:file", h.Image)
	return router
}

func postJSON(t *testing.T, router *httprouter.Router, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGenerateEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/api/v1/qr", map[string]any{
		"type": "url",
		"data": map[string]any{"url": map[string]any{"url": "example.com"}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var result qr.GenerationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.ID == "" || result.ImageRef == "" {
		t.Errorf("incomplete result: %+v", result)
	}
	if result.ShortURL != "" {
		t.Errorf("static generation returned short url %q", result.ShortURL)
	}

	// The record is retrievable and the image servable.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/qr/"+result.ID, nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, req)
	if getRec.Code != http.StatusOK {
		t.Errorf("get status = %d", getRec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, result.ImageRef, nil)
	imgRec := httptest.NewRecorder()
	router.ServeHTTP(imgRec, req)
	if imgRec.Code != http.StatusOK {
		t.Fatalf("image status = %d", imgRec.Code)
	}
	if got := imgRec.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("image content type = %q", got)
	}
	if imgRec.Body.Len() == 0 {
		t.Error("image body is empty")
	}
}

func TestGenerateEndpointErrors(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unsafe url",
			body:       map[string]any{"type": "url", "data": map[string]any{"url": map[string]any{"url": "javascript:alert(1)"}}},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   apierrors.ErrCodeUnsafeContent,
		},
		{
			name:       "private host",
			body:       map[string]any{"type": "url", "data": map[string]any{"url": map[string]any{"url": "http://192.168.1.1/"}}},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   apierrors.ErrCodeUnsafeContent,
		},
		{
			name:       "unknown type",
			body:       map[string]any{"type": "hologram", "data": map[string]any{}},
			wantStatus: http.StatusBadRequest,
			wantCode:   apierrors.ErrCodeInvalidInput,
		},
		{
			name:       "missing payload",
			body:       map[string]any{"type": "wifi", "data": map[string]any{}},
			wantStatus: http.StatusBadRequest,
			wantCode:   apierrors.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, router, "/api/v1/qr", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			var resp apierrors.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/qr", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d", rec.Code)
	}
}

func TestBatchEndpoint(t *testing.T) {
	router := newTestRouter(t)

	makeItem := func(raw string) map[string]any {
		return map[string]any{"type": "url", "data": map[string]any{"url": map[string]any{"url": raw}}}
	}

	rec := postJSON(t, router, "/api/v1/qr/batch", map[string]any{
		"requests": []any{
			makeItem("https://example.com/a"),
			makeItem("javascript:alert(1)"),
			makeItem("https://example.com/b"),
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var outcome qr.BatchOutcome
	if err := json.Unmarshal(rec.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if len(outcome.Successful) != 2 {
		t.Errorf("successful = %d, want 2", len(outcome.Successful))
	}
	if len(outcome.Failed) != 1 || outcome.Failed[0].Index != 1 {
		t.Errorf("failed = %+v", outcome.Failed)
	}
}

func TestBatchEndpointLimits(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/api/v1/qr/batch", map[string]any{"requests": []any{}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty batch status = %d", rec.Code)
	}

	item := map[string]any{"type": "url", "data": map[string]any{"url": map[string]any{"url": "example.com"}}}
	rec = postJSON(t, router, "/api/v1/qr/batch", map[string]any{
		"requests": []any{item, item, item, item},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("oversized batch status = %d", rec.Code)
	}
}

func TestListEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/qr", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "[]\n" {
		t.Errorf("empty list body = %q, want []", got)
	}

	postJSON(t, router, "/api/v1/qr", map[string]any{
		"type": "text",
		"data": map[string]any{"text": map[string]any{"content": "hello"}},
	})

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/qr", nil))
	var records []*qr.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("list returned %d records", len(records))
	}
}

func TestGetEndpointNotFound(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/qr/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestImageEndpointRejectsBadFile(t *testing.T) {
	router := newTestRouter(t)

	for _, file := range []string{"noext", "x.bmp", ".png"} {
		req := httptest.NewRequest(http.MethodGet, "/api/qr/image/"+file, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("file %q status = %d, want 400", file, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/qr/image/missing.png", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing image status = %d, want 404", rec.Code)
	}
}
