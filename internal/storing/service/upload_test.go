package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/bigkaa/textstore/internal/storing/domain/model"
	"github.com/bigkaa/textstore/internal/storing/repository"
	"github.com/bigkaa/textstore/internal/storing/storage/blobstore"
)

// fakeCatalog — in-memory реализация FileCatalogRepository для тестов.
type fakeCatalog struct {
	mu      sync.Mutex
	records map[string]*model.FileRecord
	// createErr подменяет результат Create для симуляции сбоя БД
	createErr error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{records: map[string]*model.FileRecord{}}
}

func (f *fakeCatalog) Create(_ context.Context, r *model.FileRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.records[r.FileID]; ok {
		return repository.ErrConflict
	}
	cp := *r
	f.records[r.FileID] = &cp
	return nil
}

func (f *fakeCatalog) GetByID(_ context.Context, fileID string) (*model.FileRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[fileID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeCatalog) List(_ context.Context, limit, offset int) ([]*model.FileRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.FileRecord
	i := 0
	for _, r := range f.records {
		if i >= offset && len(out) < limit {
			cp := *r
			out = append(out, &cp)
		}
		i++
	}
	return out, nil
}

func (f *fakeCatalog) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records), nil
}

func (f *fakeCatalog) Delete(_ context.Context, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[fileID]; !ok {
		return repository.ErrNotFound
	}
	delete(f.records, fileID)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestUploadService(t *testing.T, maxSize int64, catalog repository.FileCatalogRepository) (*UploadService, *blobstore.BlobStore) {
	t.Helper()
	blobs, err := blobstore.New(t.TempDir())
	if err != nil {
		t.Fatalf("blobstore.New() ошибка: %v", err)
	}
	metrics := NewMetricsWithRegisterer("fs", prometheus.NewRegistry())
	return NewUploadService(maxSize, blobs, catalog, metrics, testLogger()), blobs
}

func TestUploadSuccess(t *testing.T) {
	catalog := newFakeCatalog()
	svc, blobs := newTestUploadService(t, 1024, catalog)

	content := "Привет, мир!"
	result, err := svc.Upload(context.Background(), UploadParams{
		Reader:           strings.NewReader(content),
		OriginalFilename: "greeting.txt",
		Size:             int64(len(content)),
	})
	if err != nil {
		t.Fatalf("Upload() ошибка: %v", err)
	}
	if !result.IsNew {
		t.Error("IsNew = false, ожидалось true")
	}
	if result.Record.FileID == "" {
		t.Error("FileID пустой")
	}
	if result.Record.Size != int64(len(content)) {
		t.Errorf("Size = %d, ожидалось %d", result.Record.Size, len(content))
	}
	if result.Record.ContentType != model.DefaultContentType {
		t.Errorf("ContentType = %q, ожидалось %q", result.Record.ContentType, model.DefaultContentType)
	}
	if len(result.Record.ContentHash) != 64 {
		t.Errorf("ContentHash = %q, ожидалась hex-строка из 64 символов", result.Record.ContentHash)
	}

	// Блоб записан и читается
	rc, err := blobs.Open(result.Record.StoragePath)
	if err != nil {
		t.Fatalf("Open() блоба ошибка: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != content {
		t.Errorf("содержимое блоба = %q, ожидалось %q", data, content)
	}

	// Запись появилась в каталоге
	if _, err := catalog.GetByID(context.Background(), result.Record.FileID); err != nil {
		t.Errorf("запись не найдена в каталоге: %v", err)
	}
}

func TestUploadSameContentTwice(t *testing.T) {
	catalog := newFakeCatalog()
	svc, _ := newTestUploadService(t, 1024, catalog)

	content := "одинаковое содержимое"
	var ids []string
	var hashes []string
	for i := 0; i < 2; i++ {
		result, err := svc.Upload(context.Background(), UploadParams{
			Reader:           strings.NewReader(content),
			OriginalFilename: "dup.txt",
			Size:             int64(len(content)),
		})
		if err != nil {
			t.Fatalf("Upload() #%d ошибка: %v", i+1, err)
		}
		if !result.IsNew {
			t.Errorf("Upload() #%d: IsNew = false, ожидалось true", i+1)
		}
		ids = append(ids, result.Record.FileID)
		hashes = append(hashes, result.Record.ContentHash)
	}

	// Дедупликации нет: две независимые записи с одинаковым хешем
	if ids[0] == ids[1] {
		t.Error("повторная загрузка вернула тот же FileID")
	}
	if hashes[0] != hashes[1] {
		t.Errorf("хеши различаются: %q != %q", hashes[0], hashes[1])
	}
	count, _ := catalog.Count(context.Background())
	if count != 2 {
		t.Errorf("в каталоге %d записей, ожидалось 2", count)
	}
}

func TestUploadPreservesContentType(t *testing.T) {
	catalog := newFakeCatalog()
	svc, _ := newTestUploadService(t, 1024, catalog)

	content := "устаревшая кодировка"
	declared := "text/plain; charset=koi8-r"
	result, err := svc.Upload(context.Background(), UploadParams{
		Reader:           strings.NewReader(content),
		OriginalFilename: "legacy.txt",
		ContentType:      declared,
		Size:             int64(len(content)),
	})
	if err != nil {
		t.Fatalf("Upload() ошибка: %v", err)
	}
	if result.Record.ContentType != declared {
		t.Errorf("ContentType = %q, ожидалось %q", result.Record.ContentType, declared)
	}

	stored, err := catalog.GetByID(context.Background(), result.Record.FileID)
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	if stored.ContentType != declared {
		t.Errorf("ContentType в каталоге = %q, ожидалось %q", stored.ContentType, declared)
	}
}

func TestUploadStreamExceedsDeclaredSize(t *testing.T) {
	blobs, err := blobstore.New(t.TempDir())
	if err != nil {
		t.Fatalf("blobstore.New() ошибка: %v", err)
	}
	metrics := NewMetricsWithRegisterer("fs", prometheus.NewRegistry())
	svc := NewUploadService(16, blobs, newFakeCatalog(), metrics, testLogger())

	// Поток без Seek, фактически длиннее заявленного размера и лимита
	stream := io.LimitReader(strings.NewReader(strings.Repeat("x", 64)), 64)
	_, err = svc.Upload(context.Background(), UploadParams{
		Reader:           stream,
		OriginalFilename: "liar.txt",
		Size:             10,
	})
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("err = %v, ожидалось ErrFileTooLarge", err)
	}
	if got := testutil.ToFloat64(metrics.UploadsTotal.WithLabelValues("too_large")); got != 1 {
		t.Errorf("uploads_total{result=\"too_large\"} = %v, ожидалось 1", got)
	}
}

func TestUploadValidation(t *testing.T) {
	svc, _ := newTestUploadService(t, 100, newFakeCatalog())

	tests := []struct {
		name    string
		params  UploadParams
		wantErr error
	}{
		{
			name:    "nil reader",
			params:  UploadParams{Reader: nil, OriginalFilename: "a.txt", Size: 10},
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "пустое имя файла",
			params:  UploadParams{Reader: strings.NewReader("x"), OriginalFilename: "", Size: 1},
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "нулевой размер",
			params:  UploadParams{Reader: strings.NewReader(""), OriginalFilename: "a.txt", Size: 0},
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "превышение лимита",
			params:  UploadParams{Reader: strings.NewReader(strings.Repeat("x", 101)), OriginalFilename: "a.txt", Size: 101},
			wantErr: ErrFileTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), tt.params)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Upload() = %v, ожидалось %v", err, tt.wantErr)
			}
		})
	}
}

func TestUploadCatalogFailureCleansBlob(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.createErr = fmt.Errorf("БД недоступна")
	svc, blobs := newTestUploadService(t, 1024, catalog)

	_, err := svc.Upload(context.Background(), UploadParams{
		Reader:           strings.NewReader("данные"),
		OriginalFilename: "orphan.txt",
		Size:             12,
	})
	if err == nil {
		t.Fatal("Upload() ожидалась ошибка при сбое каталога")
	}

	// Осиротевший блоб должен быть удалён
	entries, walkErr := listBlobs(blobs.Root())
	if walkErr != nil {
		t.Fatalf("обход каталога блобов: %v", walkErr)
	}
	if len(entries) != 0 {
		t.Errorf("после сбоя каталога остались блобы: %v", entries)
	}
}

// listBlobs возвращает относительные пути всех файлов под root.
func listBlobs(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return relErr
			}
			out = append(out, rel)
		}
		return nil
	})
	return out, err
}
