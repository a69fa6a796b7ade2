// content.go — чтение метаданных и содержимого, листинг, удаление.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/bigkaa/textstore/internal/storing/domain/model"
	"github.com/bigkaa/textstore/internal/storing/repository"
	"github.com/bigkaa/textstore/internal/storing/storage/blobstore"
)

// FileService — сервис доступа к файлам каталога.
type FileService struct {
	blobs   *blobstore.BlobStore
	catalog repository.FileCatalogRepository
	metrics *Metrics
	logger  *slog.Logger
}

// NewFileService создаёт сервис доступа к файлам.
func NewFileService(
	blobs *blobstore.BlobStore,
	catalog repository.FileCatalogRepository,
	metrics *Metrics,
	logger *slog.Logger,
) *FileService {
	return &FileService{
		blobs:   blobs,
		catalog: catalog,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "file_service")),
	}
}

// GetMetadata возвращает запись каталога по ID файла.
func (s *FileService) GetMetadata(ctx context.Context, fileID string) (*model.FileRecord, error) {
	record, err := s.catalog.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка чтения каталога: %w", err)
	}
	return record, nil
}

// OpenContent возвращает метаданные и поток содержимого файла.
// Расхождение каталога и диска (запись есть, блоба нет) — тоже ErrNotFound.
// Закрыть ReadCloser обязан вызывающий.
func (s *FileService) OpenContent(ctx context.Context, fileID string) (*model.FileRecord, io.ReadCloser, error) {
	record, err := s.GetMetadata(ctx, fileID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.metrics.DownloadsTotal.WithLabelValues("not_found").Inc()
		} else {
			s.metrics.DownloadsTotal.WithLabelValues("error").Inc()
		}
		return nil, nil, err
	}

	rc, err := s.blobs.Open(record.StoragePath)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			s.metrics.DownloadsTotal.WithLabelValues("not_found").Inc()
			s.logger.Warn("Запись каталога без блоба на диске",
				slog.String("file_id", fileID),
				slog.String("storage_path", record.StoragePath),
			)
			return nil, nil, ErrNotFound
		}
		s.metrics.DownloadsTotal.WithLabelValues("error").Inc()
		return nil, nil, fmt.Errorf("ошибка открытия блоба: %w", err)
	}

	s.metrics.DownloadsTotal.WithLabelValues("success").Inc()
	return record, rc, nil
}

// List возвращает страницу записей каталога и общее количество.
func (s *FileService) List(ctx context.Context, limit, offset int) ([]*model.FileRecord, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}

	files, err := s.catalog.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка файлов: %w", err)
	}
	total, err := s.catalog.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта файлов: %w", err)
	}
	return files, total, nil
}

// Delete удаляет запись каталога и блоб.
// Сначала удаляется запись, затем блоб best-effort: файл без записи
// каталога недостижим извне.
func (s *FileService) Delete(ctx context.Context, fileID string) error {
	record, err := s.catalog.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.DeletesTotal.WithLabelValues("not_found").Inc()
			return ErrNotFound
		}
		s.metrics.DeletesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("ошибка чтения каталога: %w", err)
	}

	if err := s.catalog.Delete(ctx, fileID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.DeletesTotal.WithLabelValues("not_found").Inc()
			return ErrNotFound
		}
		s.metrics.DeletesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("ошибка удаления записи каталога: %w", err)
	}

	if err := s.blobs.Delete(record.StoragePath); err != nil {
		s.logger.Warn("Не удалось удалить блоб",
			slog.String("file_id", fileID),
			slog.String("storage_path", record.StoragePath),
			slog.String("error", err.Error()),
		)
	}

	s.metrics.DeletesTotal.WithLabelValues("success").Inc()
	s.logger.Info("Файл удалён", slog.String("file_id", fileID))
	return nil
}
