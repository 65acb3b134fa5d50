package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"terrastore/internal/auth"
	"terrastore/internal/config"
	"terrastore/internal/service"
	"terrastore/internal/staging"
	"terrastore/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
)

// memStore implements service.Store in memory for handler tests.
type memStore struct {
	files map[uuid.UUID]store.File
}

func newMemStore() *memStore {
	return &memStore{files: make(map[uuid.UUID]store.File)}
}

func (m *memStore) CreateFile(_ context.Context, ownerID uuid.UUID, name, fileType, content string, digest, blobKey *string, sizeBytes int64) (store.File, error) {
	rec := store.File{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      name,
		Type:      fileType,
		Content:   content,
		Digest:    digest,
		BlobKey:   blobKey,
		SizeBytes: sizeBytes,
		CreatedAt: time.Now().UTC(),
	}
	m.files[rec.ID] = rec
	return rec, nil
}

func (m *memStore) ListFilesByOwner(_ context.Context, ownerID uuid.UUID) ([]store.FileSummary, error) {
	var out []store.FileSummary
	for _, rec := range m.files {
		if rec.OwnerID == ownerID {
			out = append(out, store.FileSummary{ID: rec.ID, Name: rec.Name, Type: rec.Type})
		}
	}
	return out, nil
}

func (m *memStore) GetFileByID(_ context.Context, id uuid.UUID) (store.File, error) {
	rec, ok := m.files[id]
	if !ok {
		return store.File{}, pgx.ErrNoRows
	}
	return rec, nil
}

func (m *memStore) CreateUser(context.Context, string, string, string) (store.User, error) {
	return store.User{}, errors.New("not used")
}

func (m *memStore) GetUserByEmail(context.Context, string) (store.User, error) {
	return store.User{}, pgx.ErrNoRows
}

func (m *memStore) GetUserByID(context.Context, uuid.UUID) (store.User, error) {
	return store.User{}, pgx.ErrNoRows
}

func (m *memStore) EnsureUser(context.Context, string, string) (store.User, error) {
	return store.User{}, errors.New("not used")
}

func (m *memStore) CreateSessionToken(context.Context, string, uuid.UUID) error {
	return nil
}

func newTestHandler(t *testing.T) (*Handler, *memStore) {
	t.Helper()
	st := newMemStore()
	svc := service.New(st, nil, nil)
	stagingDir, err := staging.NewDir(t.TempDir(), time.Hour, nil)
	if err != nil {
		t.Fatalf("staging.NewDir() error = %v", err)
	}
	cfg := config.Config{MaxUploadBytes: 1 << 20}
	return New(cfg, svc, nil, stagingDir), st
}

func multipartRequest(t *testing.T, filename string, payload []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	return req
}

func TestUpload_ListAndFetchRoundTrip(t *testing.T) {
	t.Parallel()
	h, st := newTestHandler(t)
	e := echo.New()
	owner := uuid.New()

	payload := []byte(`{"type":"FeatureCollection","features":[]}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(multipartRequest(t, "shape.geojson", payload), rec)
	auth.SetClaims(c, auth.Claims{UserID: owner})
	if err := h.Upload(c); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Upload() status = %d", rec.Code)
	}

	// List
	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/api/upload", nil), rec)
	auth.SetClaims(c, auth.Claims{UserID: owner})
	if err := h.ListUploads(c); err != nil {
		t.Fatalf("ListUploads() error = %v", err)
	}
	var listed []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if len(listed) != 1 || listed[0].Name != "shape.geojson" || listed[0].Type != "geojson" {
		t.Fatalf("list = %+v", listed)
	}

	// Fetch content
	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/api/upload/"+listed[0].ID, nil), rec)
	c.SetParamNames("fileId")
	c.SetParamValues(listed[0].ID)
	auth.SetClaims(c, auth.Claims{UserID: owner})
	if err := h.GetContent(c); err != nil {
		t.Fatalf("GetContent() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("GetContent() status = %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderContentType); got != "application/geo+json" {
		t.Fatalf("Content-Type = %q, want application/geo+json", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), payload) {
		t.Fatalf("body = %q, want original payload", rec.Body.Bytes())
	}

	if len(st.files) != 1 {
		t.Fatalf("store holds %d records, want 1", len(st.files))
	}
}

func TestUpload_UnsupportedTypeIs400(t *testing.T) {
	t.Parallel()
	h, st := newTestHandler(t)
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(multipartRequest(t, "report.pdf", []byte("%PDF-1.4")), rec)
	auth.SetClaims(c, auth.Claims{UserID: uuid.New()})

	err := h.Upload(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("Upload() error = %v, want *echo.HTTPError", err)
	}
	if httpErr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", httpErr.Code)
	}
	if len(st.files) != 0 {
		t.Fatal("rejected upload must not leave a record")
	}
}

func TestUpload_RemovesStagingFile(t *testing.T) {
	t.Parallel()
	st := newMemStore()
	svc := service.New(st, nil, nil)
	stagingRoot := t.TempDir()
	stagingDir, err := staging.NewDir(stagingRoot, time.Hour, nil)
	if err != nil {
		t.Fatalf("staging.NewDir() error = %v", err)
	}
	h := New(config.Config{MaxUploadBytes: 1 << 20}, svc, nil, stagingDir)
	e := echo.New()

	for _, filename := range []string{"ok.kml", "bad.pdf"} {
		rec := httptest.NewRecorder()
		c := e.NewContext(multipartRequest(t, filename, []byte("data")), rec)
		auth.SetClaims(c, auth.Claims{UserID: uuid.New()})
		_ = h.Upload(c)
	}

	if n := stagingDir.Sweep(time.Now().Add(2 * time.Hour)); n != 0 {
		t.Fatalf("%d staging file(s) left behind", n)
	}
}

func TestGetContent_UnknownIdIs404(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandler(t)
	e := echo.New()

	for _, raw := range []string{uuid.NewString(), "not-a-uuid"} {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/upload/"+raw, nil), rec)
		c.SetParamNames("fileId")
		c.SetParamValues(raw)
		auth.SetClaims(c, auth.Claims{UserID: uuid.New()})

		err := h.GetContent(c)
		httpErr, ok := err.(*echo.HTTPError)
		if !ok {
			t.Fatalf("GetContent(%q) error = %v, want *echo.HTTPError", raw, err)
		}
		if httpErr.Code != http.StatusNotFound {
			t.Fatalf("GetContent(%q) status = %d, want 404", raw, httpErr.Code)
		}
	}
}

func TestCreateAnnotation_DefaultName(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandler(t)
	e := echo.New()

	body := `{"content":{"geojson":{"type":"FeatureCollection","features":[]},"center":{"lng":0,"lat":0},"zoom":3}}`
	req := httptest.NewRequest(http.MethodPost, "/api/upload/create", bytes.NewReader([]byte(body)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	auth.SetClaims(c, auth.Claims{UserID: uuid.New()})

	if err := h.CreateAnnotation(c); err != nil {
		t.Fatalf("CreateAnnotation() error = %v", err)
	}
	var resp struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Name == "" {
		t.Fatal("generated name is empty")
	}
	if resp.Type != "geojson" {
		t.Fatalf("type = %q, want geojson", resp.Type)
	}
}

func TestListUploads_DoesNotLeakOtherOwners(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandler(t)
	e := echo.New()

	a := uuid.New()
	b := uuid.New()
	for owner, filename := range map[uuid.UUID]string{a: "mine.kml", b: "theirs.tiff"} {
		rec := httptest.NewRecorder()
		c := e.NewContext(multipartRequest(t, filename, []byte("data")), rec)
		auth.SetClaims(c, auth.Claims{UserID: owner})
		if err := h.Upload(c); err != nil {
			t.Fatalf("Upload(%s) error = %v", filename, err)
		}
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/upload", nil), rec)
	auth.SetClaims(c, auth.Claims{UserID: a})
	if err := h.ListUploads(c); err != nil {
		t.Fatalf("ListUploads() error = %v", err)
	}
	var listed []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if len(listed) != 1 || listed[0].Name != "mine.kml" {
		t.Fatalf("list for a = %+v, want only mine.kml", listed)
	}
}
