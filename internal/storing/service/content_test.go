package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bigkaa/textstore/internal/storing/storage/blobstore"
)

func newTestFileService(t *testing.T, catalog *fakeCatalog) (*FileService, *UploadService, *blobstore.BlobStore) {
	t.Helper()
	blobs, err := blobstore.New(t.TempDir())
	if err != nil {
		t.Fatalf("blobstore.New() ошибка: %v", err)
	}
	metrics := NewMetricsWithRegisterer("fs", prometheus.NewRegistry())
	logger := testLogger()
	return NewFileService(blobs, catalog, metrics, logger),
		NewUploadService(1024*1024, blobs, catalog, metrics, logger),
		blobs
}

func uploadFixture(t *testing.T, svc *UploadService, content string) string {
	t.Helper()
	result, err := svc.Upload(context.Background(), UploadParams{
		Reader:           strings.NewReader(content),
		OriginalFilename: "fixture.txt",
		Size:             int64(len(content)),
	})
	if err != nil {
		t.Fatalf("Upload() ошибка: %v", err)
	}
	return result.Record.FileID
}

func TestOpenContent(t *testing.T) {
	catalog := newFakeCatalog()
	files, uploads, _ := newTestFileService(t, catalog)

	content := "строка один\n\nстрока два"
	fileID := uploadFixture(t, uploads, content)

	record, rc, err := files.OpenContent(context.Background(), fileID)
	if err != nil {
		t.Fatalf("OpenContent() ошибка: %v", err)
	}
	defer rc.Close()

	if record.FileID != fileID {
		t.Errorf("FileID = %q, ожидалось %q", record.FileID, fileID)
	}
	data, _ := io.ReadAll(rc)
	if string(data) != content {
		t.Errorf("содержимое = %q, ожидалось %q", data, content)
	}
}

func TestOpenContentNotFound(t *testing.T) {
	files, _, _ := newTestFileService(t, newFakeCatalog())

	_, _, err := files.OpenContent(context.Background(), "00000000-0000-0000-0000-000000000000")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("OpenContent() = %v, ожидалось ErrNotFound", err)
	}
}

func TestOpenContentMissingBlob(t *testing.T) {
	catalog := newFakeCatalog()
	files, uploads, blobs := newTestFileService(t, catalog)

	fileID := uploadFixture(t, uploads, "исчезающее содержимое")

	// Убираем блоб с диска, запись каталога остаётся
	record, _ := catalog.GetByID(context.Background(), fileID)
	if err := os.Remove(filepath.Join(blobs.Root(), filepath.FromSlash(record.StoragePath))); err != nil {
		t.Fatalf("не удалось удалить блоб: %v", err)
	}

	// Расхождение каталога и диска отображается как отсутствие файла
	if _, _, err := files.OpenContent(context.Background(), fileID); !errors.Is(err, ErrNotFound) {
		t.Errorf("OpenContent() = %v, ожидалось ErrNotFound", err)
	}
}

func TestGetMetadata(t *testing.T) {
	catalog := newFakeCatalog()
	files, uploads, _ := newTestFileService(t, catalog)

	fileID := uploadFixture(t, uploads, "метаданные")

	record, err := files.GetMetadata(context.Background(), fileID)
	if err != nil {
		t.Fatalf("GetMetadata() ошибка: %v", err)
	}
	if record.OriginalFilename != "fixture.txt" {
		t.Errorf("OriginalFilename = %q, ожидалось %q", record.OriginalFilename, "fixture.txt")
	}

	if _, err := files.GetMetadata(context.Background(), "несуществующий"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetMetadata() = %v, ожидалось ErrNotFound", err)
	}
}

func TestListClampsLimit(t *testing.T) {
	catalog := newFakeCatalog()
	files, uploads, _ := newTestFileService(t, catalog)

	for i := 0; i < 3; i++ {
		uploadFixture(t, uploads, strings.Repeat("x", i+1))
	}

	// limit <= 0 заменяется значением по умолчанию
	records, total, err := files.List(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("List() ошибка: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, ожидалось 3", total)
	}
	if len(records) != 3 {
		t.Errorf("len(records) = %d, ожидалось 3", len(records))
	}
}

func TestDeleteRemovesRecordAndBlob(t *testing.T) {
	catalog := newFakeCatalog()
	files, uploads, blobs := newTestFileService(t, catalog)

	fileID := uploadFixture(t, uploads, "удаляемое содержимое")
	record, _ := catalog.GetByID(context.Background(), fileID)

	if err := files.Delete(context.Background(), fileID); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}

	if _, err := catalog.GetByID(context.Background(), fileID); err == nil {
		t.Error("запись каталога не удалена")
	}
	if blobs.Exists(record.StoragePath) {
		t.Error("блоб не удалён с диска")
	}

	// Повторное удаление — ErrNotFound
	if err := files.Delete(context.Background(), fileID); !errors.Is(err, ErrNotFound) {
		t.Errorf("повторный Delete() = %v, ожидалось ErrNotFound", err)
	}
}
