// Пакет service — бизнес-логика storing-module.
// upload.go — сервис приёма текстовых файлов.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/textstore/internal/storing/domain/model"
	"github.com/bigkaa/textstore/internal/storing/repository"
	"github.com/bigkaa/textstore/internal/storing/storage/blobstore"
	"github.com/bigkaa/textstore/internal/storing/storage/hasher"
)

// Ошибки бизнес-логики.
var (
	// ErrInvalidArgument — некорректные параметры загрузки.
	ErrInvalidArgument = errors.New("некорректные параметры загрузки")
	// ErrFileTooLarge — размер файла превышает лимит.
	ErrFileTooLarge = errors.New("размер файла превышает лимит")
	// ErrNotFound — файл не найден.
	ErrNotFound = errors.New("файл не найден")
)

// UploadParams — параметры загрузки файла.
type UploadParams struct {
	// Reader — поток данных файла. Если реализует io.Seeker,
	// содержимое читается дважды: для хеша и для записи на диск.
	Reader io.Reader
	// OriginalFilename — оригинальное имя файла
	OriginalFilename string
	// ContentType — MIME-тип, заявленный клиентом. Пустое значение
	// заменяется на model.DefaultContentType.
	ContentType string
	// Size — размер файла (из multipart part)
	Size int64
}

// UploadResult — результат загрузки файла.
type UploadResult struct {
	Record *model.FileRecord
	// IsNew — признак новой записи. Каждая загрузка создаёт новую
	// запись каталога, дедупликации по хешу нет.
	IsNew bool
}

// UploadService — сервис приёма файлов: хеш, запись блоба, каталог.
type UploadService struct {
	maxFileSize int64
	blobs       *blobstore.BlobStore
	catalog     repository.FileCatalogRepository
	metrics     *Metrics
	logger      *slog.Logger
}

// NewUploadService создаёт сервис загрузки файлов.
func NewUploadService(
	maxFileSize int64,
	blobs *blobstore.BlobStore,
	catalog repository.FileCatalogRepository,
	metrics *Metrics,
	logger *slog.Logger,
) *UploadService {
	return &UploadService{
		maxFileSize: maxFileSize,
		blobs:       blobs,
		catalog:     catalog,
		metrics:     metrics,
		logger:      logger.With(slog.String("component", "upload_service")),
	}
}

// Upload принимает файл и регистрирует его в каталоге.
//
// Поток:
//  1. Валидация параметров
//  2. SHA-256 содержимого (с возвратом позиции потока)
//  3. Запись блоба на диск (tmp + fsync + rename)
//  4. Вставка записи в каталог
//
// При ошибке вставки в каталог — блоб удаляется best-effort.
func (s *UploadService) Upload(ctx context.Context, params UploadParams) (*UploadResult, error) {
	if params.Reader == nil {
		return nil, fmt.Errorf("%w: отсутствует поток данных", ErrInvalidArgument)
	}
	if params.OriginalFilename == "" {
		return nil, fmt.Errorf("%w: отсутствует имя файла", ErrInvalidArgument)
	}
	if params.Size <= 0 {
		return nil, fmt.Errorf("%w: некорректный размер файла %d", ErrInvalidArgument, params.Size)
	}
	if params.Size > s.maxFileSize {
		s.metrics.UploadsTotal.WithLabelValues("too_large").Inc()
		return nil, fmt.Errorf("%w: %d байт при лимите %d", ErrFileTooLarge, params.Size, s.maxFileSize)
	}

	// Содержимое читается дважды: для хеша и для записи на диск.
	// Поток без Seek буферизуется в память (размер уже ограничен лимитом).
	reader := params.Reader
	if _, ok := reader.(io.Seeker); !ok {
		data, readErr := io.ReadAll(io.LimitReader(reader, s.maxFileSize+1))
		if readErr != nil {
			s.metrics.UploadsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("ошибка чтения потока данных: %w", readErr)
		}
		if int64(len(data)) > s.maxFileSize {
			// Заявленный размер меньше фактического
			s.metrics.UploadsTotal.WithLabelValues("too_large").Inc()
			return nil, fmt.Errorf("%w: поток превышает лимит %d байт", ErrFileTooLarge, s.maxFileSize)
		}
		reader = bytes.NewReader(data)
	}

	// Хеш хранится как метаданные; записи с одинаковым содержимым
	// остаются независимыми.
	contentHash, err := hasher.Sum(reader)
	if err != nil {
		s.metrics.UploadsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("ошибка вычисления хеша: %w", err)
	}

	saved, err := s.blobs.Save(reader, params.OriginalFilename)
	if err != nil {
		s.metrics.UploadsTotal.WithLabelValues("error").Inc()
		s.logger.Error("Ошибка записи блоба",
			slog.String("filename", params.OriginalFilename),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("ошибка сохранения файла: %w", err)
	}

	contentType := params.ContentType
	if contentType == "" {
		contentType = model.DefaultContentType
	}

	record := &model.FileRecord{
		FileID:           uuid.New().String(),
		OriginalFilename: params.OriginalFilename,
		ContentHash:      contentHash,
		StoragePath:      saved.StoragePath,
		Size:             saved.Size,
		ContentType:      contentType,
		UploadedAt:       time.Now().UTC(),
	}

	if err := s.catalog.Create(ctx, record); err != nil {
		// Блоб без записи каталога недостижим — убираем его
		if delErr := s.blobs.Delete(saved.StoragePath); delErr != nil {
			s.logger.Warn("Не удалось удалить осиротевший блоб",
				slog.String("storage_path", saved.StoragePath),
				slog.String("error", delErr.Error()),
			)
		}
		s.metrics.UploadsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("ошибка регистрации файла в каталоге: %w", err)
	}

	s.metrics.UploadsTotal.WithLabelValues("success").Inc()
	s.metrics.UploadBytes.Add(float64(saved.Size))
	s.logger.Info("Файл загружен",
		slog.String("file_id", record.FileID),
		slog.String("filename", record.OriginalFilename),
		slog.Int64("size", record.Size),
		slog.String("content_hash", record.ContentHash),
	)

	return &UploadResult{Record: record, IsNew: true}, nil
}
