package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bigkaa/textstore/internal/storing/domain/model"
	"github.com/bigkaa/textstore/internal/storing/repository"
	"github.com/bigkaa/textstore/internal/storing/service"
	"github.com/bigkaa/textstore/internal/storing/storage/blobstore"
)

// memCatalog — in-memory каталог для тестов обработчиков.
type memCatalog struct {
	mu      sync.Mutex
	records map[string]*model.FileRecord
}

func newMemCatalog() *memCatalog {
	return &memCatalog{records: map[string]*model.FileRecord{}}
}

func (c *memCatalog) Create(_ context.Context, r *model.FileRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.records[r.FileID]; ok {
		return repository.ErrConflict
	}
	cp := *r
	c.records[r.FileID] = &cp
	return nil
}

func (c *memCatalog) GetByID(_ context.Context, fileID string) (*model.FileRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.records[fileID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (c *memCatalog) List(_ context.Context, limit, offset int) ([]*model.FileRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*model.FileRecord
	i := 0
	for _, r := range c.records {
		if i >= offset && len(out) < limit {
			cp := *r
			out = append(out, &cp)
		}
		i++
	}
	return out, nil
}

func (c *memCatalog) Count(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records), nil
}

func (c *memCatalog) Delete(_ context.Context, fileID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.records[fileID]; !ok {
		return repository.ErrNotFound
	}
	delete(c.records, fileID)
	return nil
}

const testMaxFileSize = 1 << 20 // 1 MiB в тестах

// newTestRouter собирает chi router с обработчиками поверх
// in-memory каталога и blobstore во временной директории.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	blobs, err := blobstore.New(t.TempDir())
	if err != nil {
		t.Fatalf("blobstore.New() ошибка: %v", err)
	}
	catalog := newMemCatalog()
	metrics := service.NewMetricsWithRegisterer("fs", prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	uploads := service.NewUploadService(testMaxFileSize, blobs, catalog, metrics, logger)
	files := service.NewFileService(blobs, catalog, metrics, logger)
	health := NewHealthHandler(map[string]ReadinessChecker{
		"filesystem": ReadinessFunc(func() (string, string) { return "ok", "доступна" }),
	})

	h := NewAPIHandler(testMaxFileSize, uploads, files, health, logger)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// multipartBody собирает multipart-форму с одним файловым полем.
func multipartBody(t *testing.T, fieldName, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	return multipartBodyTyped(t, fieldName, filename, model.DefaultContentType, content)
}

// multipartBodyTyped — то же, но с явным Content-Type файловой части.
func multipartBodyTyped(t *testing.T, fieldName, filename, partContentType, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldName, filename))
	header.Set("Content-Type", partContentType)
	fw, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("CreatePart() ошибка: %v", err)
	}
	if _, err := io.Copy(fw, strings.NewReader(content)); err != nil {
		t.Fatalf("запись multipart: %v", err)
	}
	mw.Close()
	return body, mw.FormDataContentType()
}

func doUpload(t *testing.T, router http.Handler, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, "file", filename, content)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestUploadFileSuccess(t *testing.T) {
	router := newTestRouter(t)

	rec := doUpload(t, router, "notes.txt", "один абзац")
	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидалось 200; тело: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		FileID           string `json:"fileId"`
		IsNew            bool   `json:"isNew"`
		OriginalFileName string `json:"originalFileName"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("некорректный JSON ответа: %v", err)
	}
	if _, err := uuid.Parse(resp.FileID); err != nil {
		t.Errorf("fileId = %q — не UUID", resp.FileID)
	}
	if !resp.IsNew {
		t.Error("isNew = false, ожидалось true")
	}
	if resp.OriginalFileName != "notes.txt" {
		t.Errorf("originalFileName = %q, ожидалось %q", resp.OriginalFileName, "notes.txt")
	}
}

func TestUploadFileRepeatIsNew(t *testing.T) {
	router := newTestRouter(t)

	// Повторная загрузка того же содержимого — тоже новая запись
	for i := 0; i < 2; i++ {
		rec := doUpload(t, router, "same.txt", "одно и то же")
		if rec.Code != http.StatusOK {
			t.Fatalf("загрузка #%d: статус = %d", i+1, rec.Code)
		}
		var resp struct {
			IsNew bool `json:"isNew"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if !resp.IsNew {
			t.Errorf("загрузка #%d: isNew = false, ожидалось true", i+1)
		}
	}
}

func TestUploadFileInvalidType(t *testing.T) {
	router := newTestRouter(t)

	rec := doUpload(t, router, "image.png", "не текст")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("статус = %d, ожидалось 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "INVALID_FILE_TYPE") {
		t.Errorf("в ответе нет кода INVALID_FILE_TYPE: %s", rec.Body.String())
	}
}

func TestUploadFileTooLarge(t *testing.T) {
	router := newTestRouter(t)

	rec := doUpload(t, router, "big.txt", strings.Repeat("x", testMaxFileSize+1))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("статус = %d, ожидалось 413; тело: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "FILE_TOO_LARGE") {
		t.Errorf("в ответе нет кода FILE_TOO_LARGE: %s", rec.Body.String())
	}
}

func TestUploadFileMissingField(t *testing.T) {
	router := newTestRouter(t)

	body, contentType := multipartBody(t, "attachment", "notes.txt", "содержимое")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("статус = %d, ожидалось 400", rec.Code)
	}
}

func TestGetFileContent(t *testing.T) {
	router := newTestRouter(t)

	content := "первая строка\n\nвторая строка"
	rec := doUpload(t, router, "doc.txt", content)
	var uploaded struct {
		FileID string `json:"fileId"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &uploaded)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/"+uploaded.FileID+"/content", nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, req)

	if getRec.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидалось 200", getRec.Code)
	}
	if got := getRec.Body.String(); got != content {
		t.Errorf("содержимое = %q, ожидалось %q", got, content)
	}
	if ct := getRec.Header().Get("Content-Type"); ct != model.DefaultContentType {
		t.Errorf("Content-Type = %q, ожидалось %q", ct, model.DefaultContentType)
	}
	if cd := getRec.Header().Get("Content-Disposition"); !strings.Contains(cd, "doc.txt") {
		t.Errorf("Content-Disposition = %q — нет имени файла", cd)
	}
}

func TestUploadFilePreservesContentType(t *testing.T) {
	router := newTestRouter(t)

	// Заявленный клиентом MIME-тип сохраняется вместе с параметрами
	declared := "text/plain; charset=koi8-r"
	body, contentType := multipartBodyTyped(t, "file", "legacy.txt", declared, "текст в koi8-r")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидалось 200; тело: %s", rec.Code, rec.Body.String())
	}
	var uploaded struct {
		FileID string `json:"fileId"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &uploaded)

	metaRec := httptest.NewRecorder()
	router.ServeHTTP(metaRec, httptest.NewRequest(http.MethodGet, "/api/v1/files/"+uploaded.FileID, nil))
	var meta struct {
		ContentType string `json:"contentType"`
	}
	_ = json.Unmarshal(metaRec.Body.Bytes(), &meta)
	if meta.ContentType != declared {
		t.Errorf("contentType = %q, ожидалось %q", meta.ContentType, declared)
	}

	contentRec := httptest.NewRecorder()
	router.ServeHTTP(contentRec, httptest.NewRequest(http.MethodGet, "/api/v1/files/"+uploaded.FileID+"/content", nil))
	if ct := contentRec.Header().Get("Content-Type"); ct != declared {
		t.Errorf("Content-Type содержимого = %q, ожидалось %q", ct, declared)
	}
}

func TestGetFileContentNotFound(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/"+uuid.New().String()+"/content", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("статус = %d, ожидалось 404", rec.Code)
	}
}

func TestGetFileContentInvalidID(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/not-a-uuid/content", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("статус = %d, ожидалось 400", rec.Code)
	}
}

func TestGetFileMetadataAndList(t *testing.T) {
	router := newTestRouter(t)

	rec := doUpload(t, router, "meta.txt", "метаданные")
	var uploaded struct {
		FileID string `json:"fileId"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &uploaded)

	// Метаданные
	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/"+uploaded.FileID, nil)
	metaRec := httptest.NewRecorder()
	router.ServeHTTP(metaRec, req)
	if metaRec.Code != http.StatusOK {
		t.Fatalf("метаданные: статус = %d", metaRec.Code)
	}
	var meta struct {
		FileID           string `json:"fileId"`
		OriginalFileName string `json:"originalFileName"`
		ContentHash      string `json:"contentHash"`
		Size             int64  `json:"size"`
	}
	_ = json.Unmarshal(metaRec.Body.Bytes(), &meta)
	if meta.FileID != uploaded.FileID {
		t.Errorf("fileId = %q, ожидалось %q", meta.FileID, uploaded.FileID)
	}
	if len(meta.ContentHash) != 64 {
		t.Errorf("contentHash = %q — не SHA-256 hex", meta.ContentHash)
	}

	// Список
	listReq := httptest.NewRequest(http.MethodGet, "/api/v1/files?limit=10", nil)
	listRec := httptest.NewRecorder()
	router.ServeHTTP(listRec, listReq)
	if listRec.Code != http.StatusOK {
		t.Fatalf("список: статус = %d", listRec.Code)
	}
	var list struct {
		Files []json.RawMessage `json:"files"`
		Total int               `json:"total"`
	}
	_ = json.Unmarshal(listRec.Body.Bytes(), &list)
	if list.Total != 1 || len(list.Files) != 1 {
		t.Errorf("total = %d, files = %d, ожидалось по 1", list.Total, len(list.Files))
	}
}

func TestDeleteFile(t *testing.T) {
	router := newTestRouter(t)

	rec := doUpload(t, router, "gone.txt", "удаляемый")
	var uploaded struct {
		FileID string `json:"fileId"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &uploaded)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/files/"+uploaded.FileID, nil)
	delRec := httptest.NewRecorder()
	router.ServeHTTP(delRec, req)
	if delRec.Code != http.StatusNoContent {
		t.Fatalf("статус = %d, ожидалось 204", delRec.Code)
	}

	// Повторное удаление — 404
	repeatRec := httptest.NewRecorder()
	router.ServeHTTP(repeatRec, httptest.NewRequest(http.MethodDelete, "/api/v1/files/"+uploaded.FileID, nil))
	if repeatRec.Code != http.StatusNotFound {
		t.Fatalf("повторное удаление: статус = %d, ожидалось 404", repeatRec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	liveRec := httptest.NewRecorder()
	router.ServeHTTP(liveRec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if liveRec.Code != http.StatusOK {
		t.Errorf("/health/live: статус = %d", liveRec.Code)
	}

	readyRec := httptest.NewRecorder()
	router.ServeHTTP(readyRec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if readyRec.Code != http.StatusOK {
		t.Errorf("/health/ready: статус = %d", readyRec.Code)
	}
	if !strings.Contains(readyRec.Body.String(), "filesystem") {
		t.Errorf("/health/ready: нет проверки filesystem: %s", readyRec.Body.String())
	}
}
